package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lstoll/datomdb/datalog"
)

func TestMockAdvancesByStep(t *testing.T) {
	m := NewMock(datalog.Decimal{Int: 1000}, datalog.Decimal{Int: 1})
	first := m.Now()
	second := m.Now()
	assert.Equal(t, datalog.Decimal{Int: 1000}, first)
	assert.Equal(t, datalog.Decimal{Int: 1001}, second)
}

func TestMockIsDeterministicAcrossInstances(t *testing.T) {
	a := NewMock(datalog.Decimal{Int: 500}, datalog.Decimal{Int: 2})
	b := NewMock(datalog.Decimal{Int: 500}, datalog.Decimal{Int: 2})
	for i := 0; i < 5; i++ {
		assert.Equal(t, a.Now(), b.Now())
	}
}

func TestSystemClockIsMonotone(t *testing.T) {
	s := System{}
	prev := s.Now()
	for i := 0; i < 3; i++ {
		cur := s.Now()
		assert.GreaterOrEqual(t, cur.Int, prev.Int)
		prev = cur
	}
}
