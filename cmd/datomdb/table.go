package main

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// newResultTable builds a table in the library's default style for query output. Result
// rows have no column names (the query AST doesn't carry them once
// projected), so this only ever calls Append/Render, never Header.
func newResultTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewWriter(w)
}
