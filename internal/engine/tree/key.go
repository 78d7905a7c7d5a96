package tree

import (
	"strconv"
	"sync/atomic"
)

// Key identifies a node across every version of a tree.
type Key string

var keySeq atomic.Uint64

// NewKey returns a process-unique key. Keys are never reused.
func NewKey() Key {
	return Key("n" + strconv.FormatUint(keySeq.Add(1), 10))
}

// String returns the key as a string.
func (k Key) String() string {
	return string(k)
}
