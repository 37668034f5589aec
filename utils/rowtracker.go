package utils

import (
	"strconv"
	"strings"
)

// RowTracker remembers raw records it has seen. It is not safe for concurrent use.
type RowTracker struct {
	seen map[string]struct{}
	buf  strings.Builder
}

// NewRowTracker creates an empty tracker
func NewRowTracker() *RowTracker {
	return &RowTracker{seen: make(map[string]struct{})}
}

// Add reports whether row is new. Fields are length-prefixed, so rows that
// only differ in where their field boundaries fall are still distinct.
func (t *RowTracker) Add(row []string) bool {
	t.buf.Reset()
	for _, field := range row {
		t.buf.WriteString(strconv.Itoa(len(field)))
		t.buf.WriteByte(':')
		t.buf.WriteString(field)
	}
	key := t.buf.String()
	if _, ok := t.seen[key]; ok {
		return false
	}
	t.seen[key] = struct{}{}
	return true
}

// Len returns the number of distinct rows seen
func (t *RowTracker) Len() int {
	return len(t.seen)
}
