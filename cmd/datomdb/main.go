// Command datomdb is an interactive shell and single-query runner for the
// database, modeled on the teacher's cmd/datalog tool: same flag surface,
// same demo-on-empty-database behavior, same "." command prefix for
// interactive-mode commands.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/lstoll/datomdb/datalog"
	"github.com/lstoll/datomdb/datalog/clock"
	"github.com/lstoll/datomdb/datalog/idalloc"
	"github.com/lstoll/datomdb/datalog/schema"
	"github.com/lstoll/datomdb/datalog/storage"
	"github.com/lstoll/datomdb/datalog/storage/badgerstore"
	"github.com/lstoll/datomdb/datalog/storage/memory"
	"github.com/lstoll/datomdb/datalog/transactor"
	"github.com/lstoll/datomdb/db"
	"github.com/lstoll/datomdb/internal/config"
	"github.com/lstoll/datomdb/internal/dlog"

	"github.com/fatih/color"
)

func main() {
	var (
		configPath  string
		dataDir     string
		interactive bool
		queryStr    string
		verbose     bool
	)

	flag.StringVar(&configPath, "config", "", "YAML config file")
	flag.StringVar(&dataDir, "db", "", "badger data directory (overrides config; empty means in-memory)")
	flag.BoolVar(&interactive, "i", false, "interactive mode")
	flag.StringVar(&queryStr, "query", "", "run a single query and exit")
	flag.BoolVar(&verbose, "verbose", false, "enable debug logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "An embedded fact database with a Datalog query engine.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -i                                       # interactive shell, in-memory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -db ./data -i                            # interactive shell, persistent\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -query ':find ?e :where [?e \"person/name\" _]'\n", os.Args[0])
	}
	flag.Parse()

	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			fatal("%v", err)
		}
	}
	if dataDir != "" {
		cfg.Backend = config.BackendBadger
		cfg.DataDir = dataDir
	}
	if verbose {
		cfg.LogLevel = config.LogLevel(dlog.DebugLevel)
	}
	dlog.Init(dlog.Config{Level: dlog.Level(cfg.LogLevel)})

	store, err := openStore(cfg)
	if err != nil {
		fatal("%v", err)
	}
	defer store.Close()

	database, isNew, err := openDatabase(store)
	if err != nil {
		fatal("%v", err)
	}

	switch {
	case queryStr != "":
		runQuery(database, queryStr)
	case interactive:
		runInteractive(database)
	default:
		if isNew {
			fmt.Println("database is empty, loading demo data...")
			seedDemoData(database)
		} else {
			fmt.Println("database already has data. Use -i for interactive mode or -query to run a query.")
		}
	}
}

func openStore(cfg config.Config) (storage.Store, error) {
	switch cfg.Backend {
	case config.BackendBadger:
		raw, err := badgerstore.Open(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return storage.NewFinder(raw), nil
	default:
		return storage.NewFinder(memory.New()), nil
	}
}

// openDatabase bootstraps a fresh store or opens an existing one. It
// reports isNew so the caller can decide whether to load the demo.
func openDatabase(store storage.Store) (*db.Database, bool, error) {
	restricts := storage.AsOfSnapshot(^uint64(0))
	a := schema.AttrIdent
	restricts.Attribute = &a
	it, err := store.Find(restricts)
	if err != nil {
		return nil, false, fmt.Errorf("probing for existing schema: %w", err)
	}
	hasSchema := it.Next()
	if cerr := it.Close(); cerr != nil {
		return nil, false, cerr
	}

	if !hasSchema {
		database, err := db.Create(store)
		return database, true, err
	}

	alloc := idalloc.NewCounter(uint64(schema.FirstUserEntity())) // resuming a persisted counter is the backend's job (spec.md §6); unsupported here
	database := db.Open(store, alloc, clock.System{}, findBasisTx(store))
	return database, false, nil
}

// findBasisTx scans AEVT for db/tx-instant datoms to recover the highest
// committed transaction id, since this reference CLI has no separate
// metadata store for it.
func findBasisTx(store storage.Store) uint64 {
	restricts := storage.AsOfSnapshot(^uint64(0))
	a := schema.AttrTxInstant
	restricts.Attribute = &a
	it, err := store.Find(restricts)
	if err != nil {
		return 0
	}
	defer it.Close()

	var max uint64
	for it.Next() {
		if t := it.Datom().T; t > max {
			max = t
		}
	}
	return max
}

func runQuery(database *db.Database, q string) {
	snap := database.Current()
	rows, err := snap.Query(q)
	if err != nil {
		fatal("query error: %v", err)
	}
	printTable(rows)
}

func runInteractive(database *db.Database) {
	bold := color.New(color.Bold)
	bold.Println("datomdb interactive shell")
	fmt.Println("commands: .help  .exit  .tx <entity> <attr> <value>  :find ... :where ...")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case line == ".exit":
			return
		case line == ".help":
			fmt.Println("Enter a :find/:where query, or .tx <entity-id> <attr-ident> <value> to assert a fact.")
		case strings.HasPrefix(line, ".tx "):
			runInteractiveTx(database, line)
		case strings.HasPrefix(line, ":find"):
			rows, err := database.Current().Query(line)
			if err != nil {
				color.Red("error: %v", err)
				continue
			}
			printTable(rows)
		default:
			fmt.Println("unknown command, try .help")
		}
	}
}

func runInteractiveTx(database *db.Database, line string) {
	fields := strings.Fields(strings.TrimPrefix(line, ".tx "))
	if len(fields) != 3 {
		fmt.Println("expected: .tx <entity-id> <attr-ident> <value>")
		return
	}
	var e uint64
	if _, err := fmt.Sscanf(fields[0], "%d", &e); err != nil {
		fmt.Printf("invalid entity id: %v\n", err)
		return
	}

	t := &transactor.Transaction{}
	t.Assert(transactor.ID(datalog.EntityID(e)), fields[1], datalog.Str(fields[2]))
	result, err := database.Transact(*t)
	if err != nil {
		color.Red("transaction failed: %v", err)
		return
	}
	fmt.Printf("committed tx %d\n", result.TxID)
}

func printTable(rows [][]datalog.Value) {
	if len(rows) == 0 {
		fmt.Println("(no results)")
		return
	}
	table := newResultTable(os.Stdout)
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = v.String()
		}
		table.Append(cells)
	}
	table.Render()
	fmt.Printf("%d rows\n", len(rows))
}

func fatal(format string, args ...interface{}) {
	color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
