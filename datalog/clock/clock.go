// Package clock provides the wall-clock abstraction the transactor stamps
// every transaction with (spec.md §6): a monotone fractional
// seconds-since-epoch Decimal, with a deterministic mock for tests.
package clock

import (
	"sync"
	"time"

	"github.com/lstoll/datomdb/datalog"
)

// Clock returns the current time as a Decimal. Implementations must be
// monotone: successive calls never go backwards.
type Clock interface {
	Now() datalog.Decimal
}

// System is the default Clock, backed by time.Now().
type System struct{}

// Now implements Clock.
func (System) Now() datalog.Decimal {
	t := time.Now()
	return datalog.Decimal{
		Int:  t.Unix(),
		Frac: uint64(t.Nanosecond()) / (1000000000 / scaleDivisor()),
	}
}

func scaleDivisor() uint64 {
	d := uint64(1)
	for i := 0; i < datalog.DecimalScale; i++ {
		d *= 10
	}
	return d
}

// Mock is a deterministic Clock for tests: each call to Now advances by
// Step from the starting instant given to NewMock, so two runs that
// apply the same transactions in order produce bit-identical tx-instant
// datoms (spec.md §8, "determinism with a mock clock").
type Mock struct {
	mu      sync.Mutex
	current datalog.Decimal
	Step    datalog.Decimal
}

// NewMock creates a Mock starting at start, advancing by step on every call.
func NewMock(start, step datalog.Decimal) *Mock {
	return &Mock{current: start, Step: step}
}

// Now implements Clock.
func (m *Mock) Now() datalog.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.current
	next := datalog.Decimal{
		Int:  m.current.Int + m.Step.Int,
		Frac: m.current.Frac + m.Step.Frac,
	}
	if d := scaleDivisor(); next.Frac >= d {
		next.Int++
		next.Frac -= d
	}
	m.current = next
	return out
}
