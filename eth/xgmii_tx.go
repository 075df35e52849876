// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package eth

import (
	"github.com/db47h/ethsim"
	"github.com/db47h/ethsim/hwlib"
)

// XGMII control characters.
//
const (
	XGMIIIdle      = 0x07
	XGMIIStart     = 0xfb
	XGMIITerminate = 0xfd
	XGMIIError     = 0xfe
)

// xgmiiLane maps a symbol to an XGMII lane character.
func xgmiiLane(sym symbol) (byte, bool) {
	switch sym.kind {
	case symStart:
		return XGMIIStart, true
	case symData:
		return sym.data, false
	case symError:
		return XGMIIError, true
	case symTerm:
		return XGMIITerminate, true
	}
	return XGMIIIdle, true
}

// AxisXGMIITx64 returns a 64 bits XGMII transmitter part. Frames received on
// s_axis_tx, up to 8 bytes per beat, are sent with start character, preamble,
// padding, FCS, terminate character and inter-frame gap.
//
//	Inputs: cfg_tx_max_pkt_len[16], cfg_tx_ifg[8], cfg_tx_enable, ptp_ts[64]
//	Outputs: xgmii_txd[64], xgmii_txc[8],
//	         tx_start_packet, stat_tx_byte[4], stat_tx_pkt_len[16],
//	         stat_tx_pkt_ucast, stat_tx_pkt_mcast, stat_tx_pkt_bcast,
//	         stat_tx_pkt_vlan, stat_tx_pkt_good, stat_tx_pkt_bad,
//	         stat_tx_err_oversize, stat_tx_err_user, stat_tx_err_underflow
//	Slaves: s_axis_tx
//	Masters: m_axis_tx_cpl
//
// Lane i is carried by xgmii_txd[8i..8i+7] and xgmii_txc[i]. Frames start on
// lane 0 or 4 only. Without deficit idle count, the inter-frame gap is
// stretched to the next start lane. With opts.DIC, it may instead be shortened
// by up to 3 idles, the deficit being paid back by later frames.
//
// Configuration, completion and statistics ports behave as for AxisGMIITx.
//
func AxisXGMIITx64(opts TxOptions) ethsim.NewPartFn {
	return (&ethsim.PartSpec{
		Name:    "AxisXGMIITx64",
		Inputs:  ethsim.IO(txCfgInputs),
		Outputs: ethsim.IO("xgmii_txd[64], xgmii_txc[8], " + txStatPins),
		Slaves:  ethsim.IO("s_axis_tx"),
		Masters: ethsim.IO("m_axis_tx_cpl"),
		Mount: func(s *ethsim.Socket) []ethsim.Component {
			p := mountTx(s, 8)
			txd, txc := s.Bus("xgmii_txd"), s.Bus("xgmii_txc")
			e := newEngine(opts)
			dic := 0
			return []ethsim.Component{func(c *ethsim.Circuit) {
				if c.Get(p.rst) {
					p.reset(c, e)
					dic = 0
					hwlib.SetInt64(c, txd, 0x0707070707070707)
					hwlib.SetInt64(c, txc, 0xff)
					return
				}
				p.begin(c, e)
				var d, k int64
				for lane := uint(0); lane < 8; lane++ {
					g := e.gap()
					start := false
					if lane%4 == 0 {
						start = g >= e.ifg || opts.DIC && dic+e.ifg-g <= 3
					}
					sym := e.next(start)
					if sym.kind == symStart {
						if g >= e.ifg {
							if dic -= g - e.ifg; dic < 0 {
								dic = 0
							}
						} else {
							dic += e.ifg - g
						}
					}
					b, ctl := xgmiiLane(sym)
					d |= int64(b) << (8 * lane)
					if ctl {
						k |= 1 << lane
					}
				}
				hwlib.SetInt64(c, txd, d)
				hwlib.SetInt64(c, txc, k)
				p.end(c, e)
			}}
		}}).NewPart
}
