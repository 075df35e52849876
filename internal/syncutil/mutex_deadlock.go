//go:build deadlock

// Package syncutil provides the mutex used to guard frame queues shared with
// goroutines outside of the simulation loop. This file is compiled with
// -tags=deadlock.
package syncutil

import deadlock "github.com/sasha-s/go-deadlock"

// Mutex is a deadlock.Mutex: a lock held too long or taken in inconsistent
// order is reported.
type Mutex struct {
	deadlock.Mutex
}
