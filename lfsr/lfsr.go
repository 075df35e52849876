// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package lfsr implements a configurable linear feedback shift register engine
// and the CRC, PRBS and scrambler functions built on top of it.
//
// An LFSR is described by its width, its polynomial (without the x^Width
// term, so CRC-32 is 0x04c11db7), its form (Galois or Fibonacci) and its bit
// order. The engine is a pure function of the register state and a block of
// input data: it processes any number of bytes per call, which models the
// byte-lane parallel hardware for any data width.
//
package lfsr

import (
	"math/bits"

	"github.com/pkg/errors"
)

// LFSR describes a linear feedback shift register.
//
type LFSR struct {
	// Width is the register width in bits, 1 to 64.
	Width uint
	// Poly is the feedback polynomial without the x^Width term.
	Poly uint64
	// Galois selects the Galois form. The Fibonacci form is used otherwise.
	Galois bool
	// Reverse processes each input byte LSB first and keeps the register in
	// bit-reversed order, as for the reflected CRC-32 used by Ethernet.
	Reverse bool
	// FeedForward shifts the input bits into a Fibonacci register instead of
	// the feedback bits, which turns a scrambler into its self-synchronizing
	// descrambler.
	FeedForward bool
}

// Validate checks that the LFSR configuration is supported.
//
func (l LFSR) Validate() error {
	if l.Width < 1 || l.Width > 64 {
		return errors.Errorf("unsupported LFSR width %d", l.Width)
	}
	if l.Poly&^l.mask() != 0 {
		return errors.Errorf("polynomial %#x wider than %d bits", l.Poly, l.Width)
	}
	if l.Galois && l.FeedForward {
		return errors.New("feed forward requires the Fibonacci form")
	}
	return nil
}

func (l LFSR) mask() uint64 {
	return ^uint64(0) >> (64 - l.Width)
}

func (l LFSR) reflect(v uint64) uint64 {
	return bits.Reverse64(v) >> (64 - l.Width)
}

// shift clocks a single bit into register s and returns the new state and the
// output bit.
func (l LFSR) shift(s uint64, bit uint64) (uint64, uint64) {
	msb := l.Width - 1
	if l.Galois {
		fb := (s>>msb)&1 ^ bit
		s = (s << 1) & l.mask()
		if fb != 0 {
			s ^= l.Poly
		}
		return s, fb
	}
	taps := (l.Poly >> 1) | 1<<msb
	fb := uint64(bits.OnesCount64(s&taps)&1) ^ bit
	if l.FeedForward {
		return (s<<1 | bit) & l.mask(), fb
	}
	return (s<<1 | fb) & l.mask(), fb
}

// Step advances the register state by the given data block and returns the
// new state together with the output bit stream, packed in the same bit order
// as the input.
//
// Without Reverse, bytes are processed MSB first. With Reverse, bytes are
// processed LSB first and state is in bit-reversed order.
//
func (l LFSR) Step(state uint64, data []byte) (uint64, []byte) {
	return l.step(state, data, make([]byte, len(data)))
}

// Advance is like Step but only returns the new state.
//
func (l LFSR) Advance(state uint64, data []byte) uint64 {
	s, _ := l.step(state, data, nil)
	return s
}

func (l LFSR) step(state uint64, data []byte, out []byte) (uint64, []byte) {
	s := state & l.mask()
	if l.Reverse {
		s = l.reflect(s)
	}
	for i, d := range data {
		var o byte
		for b := uint(0); b < 8; b++ {
			var in uint64
			if l.Reverse {
				in = uint64(d>>b) & 1
			} else {
				in = uint64(d>>(7-b)) & 1
			}
			var ob uint64
			s, ob = l.shift(s, in)
			if l.Reverse {
				o |= byte(ob) << b
			} else {
				o |= byte(ob) << (7 - b)
			}
		}
		if out != nil {
			out[i] = o
		}
	}
	if l.Reverse {
		s = l.reflect(s)
	}
	return s, out
}

// Ones returns a register state with all bits set.
//
func (l LFSR) Ones() uint64 {
	return l.mask()
}
