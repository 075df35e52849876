// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package lfsr

import "hash"

// Predefined CRC registers.
//
var (
	// IEEE is the reflected CRC-32 used by Ethernet.
	IEEE = LFSR{Width: 32, Poly: 0x04c11db7, Galois: true, Reverse: true}
	// Castagnoli is the reflected CRC-32C.
	Castagnoli = LFSR{Width: 32, Poly: 0x1edc6f41, Galois: true, Reverse: true}
)

// CRC32 returns the Ethernet CRC-32 of data.
//
func CRC32(data []byte) uint32 {
	return ^uint32(IEEE.Advance(IEEE.Ones(), data))
}

// CRC32C returns the CRC-32C of data.
//
func CRC32C(data []byte) uint32 {
	return ^uint32(Castagnoli.Advance(Castagnoli.Ones(), data))
}

// Digest computes a CRC incrementally: the register starts with all ones and
// the CRC is the complement of the final state. It implements hash.Hash32.
//
type Digest struct {
	l     LFSR
	state uint64
}

var _ hash.Hash32 = (*Digest)(nil)

// NewDigest returns a new Digest for the given 32 bits CRC register.
//
func NewDigest(l LFSR) *Digest {
	return &Digest{l: l, state: l.Ones()}
}

// NewCRC32 returns a new Ethernet CRC-32 digest.
//
func NewCRC32() *Digest { return NewDigest(IEEE) }

// NewCRC32C returns a new CRC-32C digest.
//
func NewCRC32C() *Digest { return NewDigest(Castagnoli) }

func (d *Digest) Write(p []byte) (int, error) {
	d.state = d.l.Advance(d.state, p)
	return len(p), nil
}

// Sum32 returns the current CRC value.
//
func (d *Digest) Sum32() uint32 {
	return ^uint32(d.state)
}

// Sum appends the big-endian CRC value to b.
//
func (d *Digest) Sum(b []byte) []byte {
	s := d.Sum32()
	return append(b, byte(s>>24), byte(s>>16), byte(s>>8), byte(s))
}

// Reset resets the digest to its initial state.
//
func (d *Digest) Reset() { d.state = d.l.Ones() }

// Size returns 4.
//
func (d *Digest) Size() int { return 4 }

// BlockSize returns 1.
//
func (d *Digest) BlockSize() int { return 1 }
