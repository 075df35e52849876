// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package axis

// Arbiter selects one of up to 64 requesting ports.
//
// In fixed priority mode, the lowest requesting port wins unless
// MSBHighPriority is set. In round robin mode, the search starts just
// past the last granted port, in the same direction. A grant is held until
// Release is called.
//
// The zero value is not usable, Ports must be set.
//
type Arbiter struct {
	Ports           int
	RoundRobin      bool
	MSBHighPriority bool

	granted bool
	port    int
	next    int // round robin search start, in priority order
}

// port index of the i-th port in priority order.
func (a *Arbiter) index(i int) int {
	if a.MSBHighPriority {
		return a.Ports - 1 - i
	}
	return i
}

// Grant returns the granted port given the request mask req, where bit i is
// set if port i requests. If a grant is already held, it is returned
// regardless of req. It returns false if no port is granted.
//
func (a *Arbiter) Grant(req uint64) (int, bool) {
	if a.granted {
		return a.port, true
	}
	start := 0
	if a.RoundRobin {
		start = a.next
	}
	for i := 0; i < a.Ports; i++ {
		k := (start + i) % a.Ports
		p := a.index(k)
		if req&(1<<uint(p)) == 0 {
			continue
		}
		a.granted, a.port = true, p
		a.next = (k + 1) % a.Ports
		return p, true
	}
	return 0, false
}

// Granted returns the currently granted port, if any.
//
func (a *Arbiter) Granted() (int, bool) {
	return a.port, a.granted
}

// Release releases the current grant.
//
func (a *Arbiter) Release() {
	a.granted = false
}

// Reset releases the current grant and restarts the round robin search.
//
func (a *Arbiter) Reset() {
	a.granted, a.port, a.next = false, 0, 0
}
