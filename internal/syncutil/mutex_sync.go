//go:build !deadlock

// Package syncutil provides the mutex used to guard frame queues shared with
// goroutines outside of the simulation loop. Build with -tags=deadlock to
// swap in github.com/sasha-s/go-deadlock and report lock order problems.
package syncutil

import "sync"

// Mutex is a sync.Mutex in regular builds.
type Mutex struct {
	sync.Mutex
}
