// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package lfsr

import "math/bits"

// Predefined PRBS registers.
//
var (
	// PRBS9Poly is the x^9 + x^5 + 1 pseudo-random binary sequence.
	PRBS9Poly = LFSR{Width: 9, Poly: 0x021}
	// PRBS31Poly is the x^31 + x^28 + 1 pseudo-random binary sequence.
	PRBS31Poly = LFSR{Width: 31, Poly: 0x10000001}
)

// PRBS is a pseudo-random binary sequence generator. Each generated byte is
// the complement of eight output bits of the register, the first generated bit
// being the most significant. It implements io.Reader.
//
type PRBS struct {
	l     LFSR
	state uint64
}

// NewPRBS returns a new generator for the given register, starting with all
// ones.
//
func NewPRBS(l LFSR) *PRBS {
	return &PRBS{l: l, state: l.Ones()}
}

// NewPRBS9 returns a new PRBS9 generator.
//
func NewPRBS9() *PRBS { return NewPRBS(PRBS9Poly) }

// NewPRBS31 returns a new PRBS31 generator.
//
func NewPRBS31() *PRBS { return NewPRBS(PRBS31Poly) }

// Read fills p with the next bytes of the sequence. It never fails.
//
func (g *PRBS) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	s, out := g.l.Step(g.state, p)
	g.state = s
	for i, v := range out {
		p[i] = ^v
	}
	return len(p), nil
}

// Next returns the next byte of the sequence.
//
func (g *PRBS) Next() byte {
	var b [1]byte
	g.Read(b[:])
	return b[0]
}

// PRBSChecker checks a received pseudo-random binary sequence. The checker
// register is loaded with the received bits, so it locks on any sequence
// after Width bits and every flipped bit is counted once per tap.
// It implements io.Writer.
//
type PRBSChecker struct {
	l     LFSR
	state uint64
	// Errors is the number of bit errors seen so far.
	Errors uint64
	// Bits is the number of checked bits.
	Bits uint64
}

// NewPRBSChecker returns a checker for the given register, in sync with a
// generator created by NewPRBS.
//
func NewPRBSChecker(l LFSR) *PRBSChecker {
	l.Galois = false
	l.FeedForward = true
	return &PRBSChecker{l: l, state: l.Ones()}
}

// Write checks the bytes in p.
//
func (c *PRBSChecker) Write(p []byte) (int, error) {
	raw := make([]byte, len(p))
	for i, v := range p {
		raw[i] = ^v
	}
	s, out := c.l.Step(c.state, raw)
	c.state = s
	for _, v := range out {
		c.Errors += uint64(bits.OnesCount8(v))
	}
	c.Bits += uint64(len(p)) * 8
	return len(p), nil
}
