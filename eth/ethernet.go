// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package eth implements Ethernet transmit framers for ethsim: GMII and 64 bits
// XGMII transmitters with padding, FCS generation, inter-frame gap and
// statistics, along with the PHY side receivers and frame helpers used to
// verify them.
//
package eth

import (
	"bytes"
	"encoding/binary"

	"github.com/db47h/ethsim/lfsr"
	"github.com/pkg/errors"
)

// Frame constants.
//
const (
	PreambleByte = 0x55
	SFD          = 0xd5
	PreambleLen  = 8 // including SFD
	FCSLen       = 4
	MinFrameLen  = 64 // including FCS
	MinPayload   = MinFrameLen - FCSLen
	HeaderLen    = 14
	VLANType     = 0x8100
)

// Errors returned by Decode.
//
var (
	ErrFCS   = errors.New("bad frame check sequence")
	ErrShort = errors.New("frame too short")
)

// Pad returns p zero padded to n bytes. p is returned as is if it is already
// n bytes or longer.
//
func Pad(p []byte, n int) []byte {
	if len(p) >= n {
		return p
	}
	out := make([]byte, n)
	copy(out, p)
	return out
}

// FCS returns the frame check sequence of frame: its CRC-32 in transmission
// order, least significant byte first.
//
func FCS(frame []byte) [FCSLen]byte {
	var fcs [FCSLen]byte
	binary.LittleEndian.PutUint32(fcs[:], lfsr.CRC32(frame))
	return fcs
}

// AppendFCS appends the FCS of frame to frame.
//
func AppendFCS(frame []byte) []byte {
	fcs := FCS(frame)
	return append(frame, fcs[:]...)
}

// CheckFCS returns true if the last 4 bytes of frame are the FCS of the
// preceding bytes.
//
func CheckFCS(frame []byte) bool {
	if len(frame) < FCSLen {
		return false
	}
	n := len(frame) - FCSLen
	fcs := FCS(frame[:n])
	return bytes.Equal(fcs[:], frame[n:])
}

// Encode pads payload to the minimum frame length and appends the FCS.
//
func Encode(payload []byte) []byte {
	p := Pad(payload, MinPayload)
	out := make([]byte, len(p), len(p)+FCSLen)
	copy(out, p)
	return AppendFCS(out)
}

// Decode checks the FCS of an encoded frame and returns the first n bytes of
// its payload, dropping padding.
//
func Decode(frame []byte, n int) ([]byte, error) {
	if len(frame) < FCSLen {
		return nil, errors.Wrapf(ErrShort, "%d bytes", len(frame))
	}
	if !CheckFCS(frame) {
		return nil, ErrFCS
	}
	p := frame[:len(frame)-FCSLen]
	if n > len(p) {
		return nil, errors.Wrapf(ErrShort, "%d bytes payload, expected %d", len(p), n)
	}
	return p[:n:n], nil
}

// Class is a bit set of frame classes.
//
type Class uint8

// Frame classes. A frame is exactly one of Unicast, Multicast or Broadcast and
// may also be VLAN.
//
const (
	Unicast Class = 1 << iota
	Multicast
	Broadcast
	VLAN
)

var bcast = []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// Classify returns the class of frame from its destination address and
// ethertype. Missing header bytes are read as zeros.
//
func Classify(frame []byte) Class {
	var h [HeaderLen]byte
	copy(h[:], frame)
	var c Class
	switch {
	case bytes.Equal(h[:6], bcast):
		c = Broadcast
	case h[0]&1 != 0:
		c = Multicast
	default:
		c = Unicast
	}
	if binary.BigEndian.Uint16(h[12:]) == VLANType {
		c |= VLAN
	}
	return c
}
