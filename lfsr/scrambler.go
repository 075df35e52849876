// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package lfsr

// BaseR is the x^58 + x^39 + 1 self-synchronizing scrambler of 10GBASE-R and
// 25GBASE-R. Bits are transmitted LSB first.
//
var BaseR = LFSR{Width: 58, Poly: 1<<39 | 1, Reverse: true}

// Scrambler scrambles a byte stream.
//
type Scrambler struct {
	state uint64
}

// NewScrambler returns a scrambler with the given initial state. A zero
// state is valid since the data feeds the register.
//
func NewScrambler(state uint64) *Scrambler {
	return &Scrambler{state: state}
}

// Scramble returns the scrambled data.
//
func (s *Scrambler) Scramble(p []byte) []byte {
	var out []byte
	s.state, out = BaseR.Step(s.state, p)
	return out
}

// Descrambler descrambles a byte stream. It synchronizes on the incoming
// stream after 58 bits, whatever its initial state.
//
type Descrambler struct {
	state uint64
}

var baseRFF = LFSR{Width: BaseR.Width, Poly: BaseR.Poly, Reverse: BaseR.Reverse, FeedForward: true}

// Descramble returns the descrambled data.
//
func (d *Descrambler) Descramble(p []byte) []byte {
	var out []byte
	d.state, out = baseRFF.Step(d.state, p)
	return out
}
