// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package ethsim

// A Beat is the payload of a single stream transfer: up to one data word plus
// the sideband signals.
//
// Data holds the bytes whose keep bit is set, in lane order. A beat sent on a
// link is shared by both frames and must not be modified once sent.
//
type Beat struct {
	Data []byte
	Last bool
	ID   uint32
	Dest uint32
	User uint32
}

// Link is the state of a stream link (AXI-Stream style valid/ready handshake)
// for one frame. The master owns Valid and Beat, the slave owns Ready.
//
type Link struct {
	Valid bool
	Ready bool
	Beat
}

// Valid returns the state of the valid signal of link n.
//
func (c *Circuit) Valid(n int) bool {
	return c.l0[n].Valid
}

// Ready returns the state of the ready signal of link n.
//
func (c *Circuit) Ready(n int) bool {
	return c.l0[n].Ready
}

// Fire returns true if a beat is transferred on link n during the current
// step, that is when both valid and ready are asserted.
//
func (c *Circuit) Fire(n int) bool {
	l := &c.l0[n]
	return l.Valid && l.Ready
}

// Free returns true if the master of link n may present a new beat in the next
// frame: the link is idle or its current beat is being transferred.
//
func (c *Circuit) Free(n int) bool {
	l := &c.l0[n]
	return !l.Valid || l.Ready
}

// Beat returns the beat currently presented on link n. Its content is only
// meaningful if Valid(n) is true.
//
func (c *Circuit) Beat(n int) Beat {
	return c.l0[n].Beat
}

// Send presents beat b on link n in the next frame.
//
func (c *Circuit) Send(n int, b Beat) {
	l := &c.l1[n]
	l.Valid = true
	l.Beat = b
}

// Idle deasserts valid on link n in the next frame.
//
func (c *Circuit) Idle(n int) {
	l := &c.l1[n]
	l.Valid = false
	l.Beat = Beat{}
}

// Hold keeps presenting the current beat of link n in the next frame.
// Masters must call Hold while a beat is waiting for ready.
//
func (c *Circuit) Hold(n int) {
	l := &c.l1[n]
	l.Valid = c.l0[n].Valid
	l.Beat = c.l0[n].Beat
}

// SetReady sets the ready signal of link n in the next frame.
//
func (c *Circuit) SetReady(n int, r bool) {
	c.l1[n].Ready = r
}
