package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequence(t *testing.T) {
	seq := NewSequence(100)
	assert.Equal(t, 101, seq.Next())
	assert.Equal(t, 102, seq.Next())
}

func TestNew(t *testing.T) {
	assert.NotEqual(t, New(), New())
	original := NewFunc
	NewFunc = func() string { return "fixed" }
	defer func() { NewFunc = original }()
	assert.Equal(t, "fixed", New())
}
