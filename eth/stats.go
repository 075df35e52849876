// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package eth

import (
	"github.com/db47h/ethsim"
	"github.com/db47h/ethsim/hwlib"
	"github.com/db47h/ethsim/internal/syncutil"
	"github.com/rs/zerolog"
)

// TxStats holds accumulated transmit statistics.
//
type TxStats struct {
	StartPacket  uint64 `toml:"tx_start_packet"`
	Bytes        uint64 `toml:"tx_byte"`
	PktLen       uint64 `toml:"tx_pkt_len"`
	Unicast      uint64 `toml:"tx_pkt_ucast"`
	Multicast    uint64 `toml:"tx_pkt_mcast"`
	Broadcast    uint64 `toml:"tx_pkt_bcast"`
	VLAN         uint64 `toml:"tx_pkt_vlan"`
	Good         uint64 `toml:"tx_pkt_good"`
	Bad          uint64 `toml:"tx_pkt_bad"`
	ErrOversize  uint64 `toml:"tx_err_oversize"`
	ErrUser      uint64 `toml:"tx_err_user"`
	ErrUnderflow uint64 `toml:"tx_err_underflow"`
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
//
func (s TxStats) MarshalZerologObject(e *zerolog.Event) {
	e.Uint64("start_packet", s.StartPacket).
		Uint64("bytes", s.Bytes).
		Uint64("pkt_len", s.PktLen).
		Uint64("ucast", s.Unicast).
		Uint64("mcast", s.Multicast).
		Uint64("bcast", s.Broadcast).
		Uint64("vlan", s.VLAN).
		Uint64("good", s.Good).
		Uint64("bad", s.Bad).
		Uint64("err_oversize", s.ErrOversize).
		Uint64("err_user", s.ErrUser).
		Uint64("err_underflow", s.ErrUnderflow)
}

// Stats accumulates the statistics pulses of a transmitter. Its methods are
// safe to call from another goroutine between simulation steps.
//
type Stats struct {
	mu syncutil.Mutex
	s  TxStats
}

// Snapshot returns the current counters.
//
func (s *Stats) Snapshot() TxStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.s
}

// Reset clears all counters.
//
func (s *Stats) Reset() {
	s.mu.Lock()
	s.s = TxStats{}
	s.mu.Unlock()
}

// Part returns a part for the statistics counters. Counters are cleared while
// the circuit reset is asserted.
//
//	Inputs: tx_start_packet, stat_tx_byte[4], stat_tx_pkt_len[16],
//	        stat_tx_pkt_ucast, stat_tx_pkt_mcast, stat_tx_pkt_bcast,
//	        stat_tx_pkt_vlan, stat_tx_pkt_good, stat_tx_pkt_bad,
//	        stat_tx_err_oversize, stat_tx_err_user, stat_tx_err_underflow
//
func (s *Stats) Part(conns string) ethsim.Part {
	return (&ethsim.PartSpec{
		Name:   "Stats",
		Inputs: ethsim.IO(txStatPins),
		Mount: func(sock *ethsim.Socket) []ethsim.Component {
			p, rst := mountStats(sock), sock.Reset()
			inc := func(c *ethsim.Circuit, v *uint64, pin int) {
				if c.Get(pin) {
					*v++
				}
			}
			return []ethsim.Component{func(c *ethsim.Circuit) {
				s.mu.Lock()
				defer s.mu.Unlock()
				if c.Get(rst) {
					s.s = TxStats{}
					return
				}
				st := &s.s
				inc(c, &st.StartPacket, p.start)
				st.Bytes += uint64(hwlib.Int64(c, p.bytes))
				st.PktLen += uint64(hwlib.Int64(c, p.pktLen))
				inc(c, &st.Unicast, p.ucast)
				inc(c, &st.Multicast, p.mcast)
				inc(c, &st.Broadcast, p.bcast)
				inc(c, &st.VLAN, p.vlan)
				inc(c, &st.Good, p.good)
				inc(c, &st.Bad, p.bad)
				inc(c, &st.ErrOversize, p.oversize)
				inc(c, &st.ErrUser, p.user)
				inc(c, &st.ErrUnderflow, p.underflow)
			}}
		}}).NewPart(conns)
}

// RxStats holds accumulated receive statistics.
//
type RxStats struct {
	StartPacket uint64 `toml:"rx_start_packet"`
	Bytes       uint64 `toml:"rx_byte"`
	PktLen      uint64 `toml:"rx_pkt_len"`
	Fragment    uint64 `toml:"rx_pkt_fragment"`
	Unicast     uint64 `toml:"rx_pkt_ucast"`
	Multicast   uint64 `toml:"rx_pkt_mcast"`
	Broadcast   uint64 `toml:"rx_pkt_bcast"`
	VLAN        uint64 `toml:"rx_pkt_vlan"`
	Good        uint64 `toml:"rx_pkt_good"`
	Bad         uint64 `toml:"rx_pkt_bad"`
	ErrOversize uint64 `toml:"rx_err_oversize"`
	ErrBadFCS   uint64 `toml:"rx_err_bad_fcs"`
	ErrBadBlock uint64 `toml:"rx_err_bad_block"`
	ErrFraming  uint64 `toml:"rx_err_framing"`
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
//
func (s RxStats) MarshalZerologObject(e *zerolog.Event) {
	e.Uint64("start_packet", s.StartPacket).
		Uint64("bytes", s.Bytes).
		Uint64("pkt_len", s.PktLen).
		Uint64("fragment", s.Fragment).
		Uint64("ucast", s.Unicast).
		Uint64("mcast", s.Multicast).
		Uint64("bcast", s.Broadcast).
		Uint64("vlan", s.VLAN).
		Uint64("good", s.Good).
		Uint64("bad", s.Bad).
		Uint64("err_oversize", s.ErrOversize).
		Uint64("err_bad_fcs", s.ErrBadFCS).
		Uint64("err_bad_block", s.ErrBadBlock).
		Uint64("err_framing", s.ErrFraming)
}

// RxCounters accumulates the statistics pulses of a receiver. Its methods are
// safe to call from another goroutine between simulation steps.
//
type RxCounters struct {
	mu syncutil.Mutex
	s  RxStats
}

// Snapshot returns the current counters.
//
func (s *RxCounters) Snapshot() RxStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.s
}

// Reset clears all counters.
//
func (s *RxCounters) Reset() {
	s.mu.Lock()
	s.s = RxStats{}
	s.mu.Unlock()
}

// Part returns a part for the counters. Counters are cleared while the
// circuit reset is asserted.
//
//	Inputs: the statistics outputs of AxisGMIIRx
//
func (s *RxCounters) Part(conns string) ethsim.Part {
	return (&ethsim.PartSpec{
		Name:   "RxCounters",
		Inputs: ethsim.IO(rxStatPins),
		Mount: func(sock *ethsim.Socket) []ethsim.Component {
			p, rst := mountRxStats(sock), sock.Reset()
			inc := func(c *ethsim.Circuit, v *uint64, pin int) {
				if c.Get(pin) {
					*v++
				}
			}
			return []ethsim.Component{func(c *ethsim.Circuit) {
				s.mu.Lock()
				defer s.mu.Unlock()
				if c.Get(rst) {
					s.s = RxStats{}
					return
				}
				st := &s.s
				inc(c, &st.StartPacket, p.start)
				st.Bytes += uint64(hwlib.Int64(c, p.bytes))
				st.PktLen += uint64(hwlib.Int64(c, p.pktLen))
				inc(c, &st.Fragment, p.fragment)
				inc(c, &st.Unicast, p.ucast)
				inc(c, &st.Multicast, p.mcast)
				inc(c, &st.Broadcast, p.bcast)
				inc(c, &st.VLAN, p.vlan)
				inc(c, &st.Good, p.good)
				inc(c, &st.Bad, p.bad)
				inc(c, &st.ErrOversize, p.oversize)
				inc(c, &st.ErrBadFCS, p.fcs)
				inc(c, &st.ErrBadBlock, p.block)
				inc(c, &st.ErrFraming, p.framing)
			}}
		}}).NewPart(conns)
}
