package datalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatomLive(t *testing.T) {
	assert.True(t, Datom{Op: Assert}.Live())
	assert.False(t, Datom{Op: Retract}.Live())
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "assert", Assert.String())
	assert.Equal(t, "retract", Retract.String())
}

func TestDatomString(t *testing.T) {
	d := Datom{E: 1, A: 2, V: Str("hi"), T: 3, Op: Assert}
	assert.Equal(t, `(#1 #2 "hi" 3 assert)`, d.String())
}
