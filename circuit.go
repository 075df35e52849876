// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package ethsim

import (
	"runtime"
	"sync"

	"github.com/pkg/errors"
)

// Circuit is a runnable circuit simulation.
//
type Circuit struct {
	s0     []bool // wire states frame #0
	s1     []bool // wire states frame #1
	l0     []Link // link states frame #0
	l1     []Link // link states frame #1
	cs     []Component
	count  int // wire count
	lcount int // link count
	drains []int
	rst    bool
	steps  uint64

	wc []chan struct{}
	wg sync.WaitGroup
}

// NewCircuit builds a new circuit based on the given parts.
//
// workers is the number of goroutines used to update the state of the Circuit
// each step of the simulation. If less or equal to 0, the value of GOMAXPROCS
// will be used.
//
// One simulation step is one clock cycle: every component reads the current
// frame and writes the next one.
//
// Callers must make sure to call Dispose() once the circuit is no longer needed
// in order to release allocated resources.
//
func NewCircuit(workers int, parts ...Part) (*Circuit, error) {
	if len(parts) == 0 {
		return nil, errors.New("empty part list")
	}

	// new circuit with room for constant value pins.
	cc := &Circuit{count: cstCount}
	wrap, err := Chip("CIRCUIT", Ports{}, parts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create chip wrapper")
	}
	ups := wrap("").Mount(newSocket(cc))
	ups = append(ups, updReset)
	cc.cs = ups
	cc.s0 = make([]bool, cc.count)
	cc.s1 = make([]bool, cc.count)
	cc.l0 = make([]Link, cc.lcount)
	cc.l1 = make([]Link, cc.lcount)
	// init constant pins
	cc.s0[cstTrue] = true
	cc.s1[cstTrue] = true
	// unconnected master ports drain into the void.
	for _, n := range cc.drains {
		cc.l0[n].Ready = true
		cc.l1[n].Ready = true
	}

	// workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(-1)
	}
	if workers <= 0 {
		workers = 1
	}
	for len(ups) > 0 {
		size := len(ups) / workers
		if size*workers < len(ups) {
			size++
		}
		wc := make(chan struct{}, 1)
		cc.wc = append(cc.wc, wc)
		go worker(cc, ups[:size], wc)
		ups = ups[size:]
	}

	return cc, nil
}

func updReset(c *Circuit) {
	if c.s0[cstFalse] || !c.s0[cstTrue] {
		panic("true or false constants have been overwritten")
	}
	c.s1[cstRst] = c.rst
}

// Dispose releases all resources allocated for a circuit and stops
// worker goroutines.
//
func (c *Circuit) Dispose() {
	c.wg.Add(len(c.wc))
	for _, wc := range c.wc {
		close(wc)
	}
	c.wg.Wait()
}

func worker(c *Circuit, cs []Component, wc <-chan struct{}) {
	for {
		_, ok := <-wc
		if !ok {
			c.wg.Done()
			return
		}
		for _, f := range cs {
			f(c)
		}
		c.wg.Done()
	}
}

// allocPin allocates a pin and returns its number.
//
func (c *Circuit) allocPin() int {
	cnt := c.count
	c.count++
	return cnt
}

// allocLink allocates a link and returns its number.
//
func (c *Circuit) allocLink() int {
	cnt := c.lcount
	c.lcount++
	return cnt
}

// allocDrain allocates a link whose ready signal is always asserted.
//
func (c *Circuit) allocDrain() int {
	n := c.allocLink()
	c.drains = append(c.drains, n)
	return n
}

// Steps returns the value of the step counter.
//
func (c *Circuit) Steps() uint64 {
	return c.steps
}

// Get returns the state of pin n. The value of n should be obtained in a
// MountFn by a call to one of the Socket methods.
//
func (c *Circuit) Get(n int) bool {
	return c.s0[n]
}

// Set sets the state s of pin n. The value of n should be obtained in a
// MountFn by a call to one of the Socket methods.
//
func (c *Circuit) Set(n int, s bool) {
	c.s1[n] = s
}

// Toggle toggles the state of pin n. The value of n should be obtained in a
// MountFn by a call to one of the Socket methods.
//
func (c *Circuit) Toggle(n int) {
	c.s1[n] = !c.s0[n]
}

// Step advances the simulation by one step (one clock cycle).
//
func (c *Circuit) Step() {
	c.wg.Add(len(c.wc))
	for _, wc := range c.wc {
		wc <- struct{}{}
	}

	c.wg.Wait()
	c.steps++
	c.s0, c.s1 = c.s1, c.s0
	c.l0, c.l1 = c.l1, c.l0
}

// Run runs the simulation for n steps.
//
func (c *Circuit) Run(n int) {
	for ; n > 0; n-- {
		c.Step()
	}
}

// RunUntil steps the simulation until cond returns true. It returns an error if
// cond is still false after max steps.
//
func (c *Circuit) RunUntil(cond func() bool, max int) error {
	for i := 0; i < max; i++ {
		if cond() {
			return nil
		}
		c.Step()
	}
	if cond() {
		return nil
	}
	return errors.Errorf("condition not met after %d steps", max)
}

// Reset asserts the rst pin for two cycles as seen by components, then
// releases it. All parts return to their initial state.
//
func (c *Circuit) Reset() {
	c.rst = true
	c.Run(2)
	c.rst = false
	c.Run(2)
}

// Size returns the component count in the circuit.
//
func (c *Circuit) Size() int { return len(c.cs) }
