// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package eth

import (
	"time"

	"github.com/db47h/ethsim"
	"github.com/db47h/ethsim/hwlib"
)

// TxConfig is the run time configuration of a transmitter. Its fields may be
// changed between simulation steps.
//
type TxConfig struct {
	// MaxPktLen is the maximum frame length including FCS. 0 disables the
	// check.
	MaxPktLen int `toml:"max_pkt_len"`
	// IFG is the minimum inter-frame gap in byte times.
	IFG    int  `toml:"ifg"`
	Enable bool `toml:"enable"`
}

// DefaultTxConfig returns the configuration of a jumbo frame capable
// transmitter with the standard 12 bytes inter-frame gap.
//
func DefaultTxConfig() TxConfig {
	return TxConfig{MaxPktLen: 9218, IFG: 12, Enable: true}
}

// Part returns a part driving the configuration inputs of a transmitter.
//
//	Outputs: cfg_tx_max_pkt_len[16], cfg_tx_ifg[8], cfg_tx_enable
//
func (cfg *TxConfig) Part(conns string) ethsim.Part {
	return (&ethsim.PartSpec{
		Name:    "TxConfig",
		Outputs: ethsim.IO("cfg_tx_max_pkt_len[16], cfg_tx_ifg[8], cfg_tx_enable"),
		Mount: func(s *ethsim.Socket) []ethsim.Component {
			maxLen, ifg, en := s.Bus("cfg_tx_max_pkt_len"), s.Bus("cfg_tx_ifg"), s.Pin("cfg_tx_enable")
			return []ethsim.Component{func(c *ethsim.Circuit) {
				hwlib.SetInt64(c, maxLen, int64(cfg.MaxPktLen))
				hwlib.SetInt64(c, ifg, int64(cfg.IFG))
				c.Set(en, cfg.Enable)
			}}
		}}).NewPart(conns)
}

// RxConfig is the run time configuration of a receiver. Its fields may be
// changed between simulation steps.
//
type RxConfig struct {
	// MaxPktLen is the maximum frame length including FCS. 0 disables the
	// check.
	MaxPktLen int  `toml:"max_pkt_len"`
	Enable    bool `toml:"enable"`
}

// DefaultRxConfig returns the configuration of a jumbo frame capable receiver.
//
func DefaultRxConfig() RxConfig {
	return RxConfig{MaxPktLen: 9218, Enable: true}
}

// Part returns a part driving the configuration inputs of a receiver.
//
//	Outputs: cfg_rx_max_pkt_len[16], cfg_rx_enable
//
func (cfg *RxConfig) Part(conns string) ethsim.Part {
	return (&ethsim.PartSpec{
		Name:    "RxConfig",
		Outputs: ethsim.IO("cfg_rx_max_pkt_len[16], cfg_rx_enable"),
		Mount: func(s *ethsim.Socket) []ethsim.Component {
			maxLen, en := s.Bus("cfg_rx_max_pkt_len"), s.Pin("cfg_rx_enable")
			return []ethsim.Component{func(c *ethsim.Circuit) {
				hwlib.SetInt64(c, maxLen, int64(cfg.MaxPktLen))
				c.Set(en, cfg.Enable)
			}}
		}}).NewPart(conns)
}

// PTPClock returns a part driving a PTP time of day that advances by period
// every step. The value is in nanoseconds with 16 fractional bits.
//
//	Outputs: ptp_ts[64]
//
func PTPClock(period time.Duration) ethsim.NewPartFn {
	return (&ethsim.PartSpec{
		Name:    "PTPClock",
		Outputs: ethsim.IO("ptp_ts[64]"),
		Mount: func(s *ethsim.Socket) []ethsim.Component {
			ts := s.Bus("ptp_ts")
			ns := uint64(period.Nanoseconds())
			return []ethsim.Component{func(c *ethsim.Circuit) {
				hwlib.SetInt64(c, ts, int64((c.Steps()+1)*ns<<16))
			}}
		}}).NewPart
}

// Timestamp decodes the timestamp of a completion record.
//
func Timestamp(cpl []byte) time.Duration {
	var v uint64
	for i := len(cpl) - 1; i >= 0; i-- {
		v = v<<8 | uint64(cpl[i])
	}
	return time.Duration(v >> 16)
}
