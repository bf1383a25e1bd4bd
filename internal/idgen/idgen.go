package idgen

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// NewFunc returns a new globally unique identifier as string.
var NewFunc = func() string { return uuid.New().String() }

func New() string { return NewFunc() }

// Sequence hands out increasing integers starting after its initial value.
type Sequence struct {
	last atomic.Int64
}

// NewSequence creates a sequence whose first Next returns start+1.
func NewSequence(start int) *Sequence {
	ret := &Sequence{}
	ret.last.Store(int64(start))
	return ret
}

// Next returns the next integer.
func (s *Sequence) Next() int {
	return int(s.last.Add(1))
}
