// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package axis implements AXI-Stream style building blocks for ethsim: frame
// FIFOs with overflow policies, arbitrated multiplexers and stream source and
// sink models.
//
package axis

import (
	"github.com/db47h/ethsim"
)

// Frame is a complete stream frame.
//
type Frame struct {
	Data []byte
	ID   uint32
	Dest uint32
	// User is the user sideband value. It is carried by the last beat of the
	// frame, where error markers live.
	User uint32
	// Done, if not nil, is closed by a Source once the last beat of the frame
	// has been transferred.
	Done chan struct{}
}

// Split splits the frame into beats of up to width bytes. A width less or
// equal to 0 yields a single beat. An empty frame yields a single empty beat.
//
func (f *Frame) Split(width int) []ethsim.Beat {
	if width <= 0 {
		width = len(f.Data)
	}
	var bs []ethsim.Beat
	for off := 0; ; off += width {
		end := off + width
		if end >= len(f.Data) {
			end = len(f.Data)
		}
		b := ethsim.Beat{Data: f.Data[off:end:end], ID: f.ID, Dest: f.Dest}
		if end == len(f.Data) {
			b.Last = true
			b.User = f.User
			return append(bs, b)
		}
		bs = append(bs, b)
	}
}

// Join assembles beats into a frame. ID and Dest are taken from the first beat,
// User is the bitwise or of all beats' user values.
//
func Join(beats []ethsim.Beat) Frame {
	var f Frame
	n := 0
	for _, b := range beats {
		n += len(b.Data)
	}
	f.Data = make([]byte, 0, n)
	for i, b := range beats {
		if i == 0 {
			f.ID, f.Dest = b.ID, b.Dest
		}
		f.Data = append(f.Data, b.Data...)
		f.User |= b.User
	}
	return f
}

// IncrementingPayload returns a payload of n bytes counting up from 0 and
// wrapping at 256.
//
func IncrementingPayload(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i)
	}
	return p
}

// CyclePause returns a pause generator cycling through the given pattern,
// like the common "three cycles paused, one cycle running" pattern:
//
//	CyclePause(true, true, true, false)
//
func CyclePause(pattern ...bool) func() bool {
	i := 0
	return func() bool {
		if len(pattern) == 0 {
			return false
		}
		v := pattern[i]
		i = (i + 1) % len(pattern)
		return v
	}
}
