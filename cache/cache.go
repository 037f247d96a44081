// Package cache holds the process-lifetime forbidden-call cache: once
// an API call has come back 403 for permission reasons it is never
// attempted again during the run.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// defaultSize bounds the cache far above what a run can produce: every
// entry costs at least one API call against the 5000/hour quota, so
// eviction (which would allow a single retry of an evicted key) is not
// reachable in practice.
const defaultSize = 1 << 17

// Forbidden is a set of operation keys known to be permission-denied.
// Single-writer (the main collection loop); cleared only by process
// exit.
type Forbidden struct {
	lru *lru.Cache[string, struct{}]
}

func NewForbidden() (*Forbidden, error) {
	l, err := lru.New[string, struct{}](defaultSize)
	if err != nil {
		return nil, err
	}
	return &Forbidden{lru: l}, nil
}

// Key builds the cache key for an operation and its arguments.
func Key(op string, args string) string {
	return op + ":" + args
}

// Mark records an operation as permission-denied.
func (f *Forbidden) Mark(key string) {
	f.lru.Add(key, struct{}{})
}

// Contains reports whether the operation already failed with 403.
func (f *Forbidden) Contains(key string) bool {
	_, ok := f.lru.Get(key)
	return ok
}

// Len returns the number of cached forbidden operations.
func (f *Forbidden) Len() int {
	return f.lru.Len()
}
