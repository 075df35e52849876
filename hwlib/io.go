// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwlib provides a library of reusable wire level parts for ethsim:
// function based inputs and probes, and registered buses.
//
// Copyright 2018 Denis Bernard <db047h@gmail.com>
//
// This package is licensed under the MIT license. See license text in the LICENSE file.
//
package hwlib

import (
	"strconv"

	"github.com/db47h/ethsim"
)

// common pin names
const (
	pIn  = "in"
	pOut = "out"
	pEn  = "en"
)

// make a bus name
func bus(bits int, names ...string) []string {
	b := make([]string, len(names)*bits)
	for i, n := range names {
		for j := 0; j < bits; j++ {
			b[i*bits+j] = ethsim.BusPinName(n, j)
		}
	}
	return b
}

// Int64 returns the pins as an int64. Pin 0 is lsb.
//
func Int64(c *ethsim.Circuit, pins []int) int64 {
	var out int64
	for bit := range pins {
		if c.Get(pins[bit]) {
			out |= 1 << uint(bit)
		}
	}
	return out
}

// SetInt64 sets the pins to the given int64 value.
//
func SetInt64(c *ethsim.Circuit, pins []int, v int64) {
	for bit := range pins {
		c.Set(pins[bit], v&(1<<uint(bit)) != 0)
	}
}

// Input creates a function based input.
//
//	Outputs: out
//	Function: out = f()
//
func Input(f func() bool) ethsim.NewPartFn {
	p := &ethsim.PartSpec{
		Name:    "Input",
		Outputs: []string{pOut},
		Mount: func(s *ethsim.Socket) []ethsim.Component {
			pin := s.Pin(pOut)
			return []ethsim.Component{
				func(c *ethsim.Circuit) {
					c.Set(pin, f())
				},
			}
		},
	}
	return p.NewPart
}

// Output creates an output part. The fn function is
// called with the named pin state on every circuit update.
//
//	Inputs: in
//	Function: f(in)
//
func Output(f func(bool)) ethsim.NewPartFn {
	p := &ethsim.PartSpec{
		Name:   "Output",
		Inputs: []string{pIn},
		Mount: func(s *ethsim.Socket) []ethsim.Component {
			in := s.Pin(pIn)
			return []ethsim.Component{
				func(c *ethsim.Circuit) { f(c.Get(in)) },
			}
		},
	}
	return p.NewPart
}

// InputN creates an input bus of the given bits size.
//
//	Outputs: out[bits]
//	Function: out = f()
//
func InputN(bits int, f func() int64) ethsim.NewPartFn {
	return (&ethsim.PartSpec{
		Name:    "INPUT" + strconv.Itoa(bits),
		Outputs: bus(bits, pOut),
		Mount: func(s *ethsim.Socket) []ethsim.Component {
			pins := s.Bus(pOut)
			return []ethsim.Component{func(c *ethsim.Circuit) {
				SetInt64(c, pins, f())
			}}
		}}).NewPart
}

// OutputN creates an output bus of the given bits size.
//
//	Inputs: in[bits]
//	Function: f(in)
//
func OutputN(bits int, f func(int64)) ethsim.NewPartFn {
	return (&ethsim.PartSpec{
		Name:   "OUTPUTBUS" + strconv.Itoa(bits),
		Inputs: bus(bits, pIn),
		Mount: func(s *ethsim.Socket) []ethsim.Component {
			pins := s.Bus(pIn)
			return []ethsim.Component{func(c *ethsim.Circuit) {
				f(Int64(c, pins))
			}}
		}}).NewPart
}
