// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package eth

import (
	"github.com/db47h/ethsim"
	"github.com/db47h/ethsim/hwlib"
)

// AxisGMIITx returns a GMII transmitter part. Frames received on s_axis_tx,
// one byte per beat, are sent with preamble, padding, FCS and inter-frame gap.
//
//	Inputs: clk_enable, mii_select,
//	        cfg_tx_max_pkt_len[16], cfg_tx_ifg[8], cfg_tx_enable, ptp_ts[64]
//	Outputs: gmii_txd[8], gmii_tx_en, gmii_tx_er,
//	         tx_start_packet, stat_tx_byte[4], stat_tx_pkt_len[16],
//	         stat_tx_pkt_ucast, stat_tx_pkt_mcast, stat_tx_pkt_bcast,
//	         stat_tx_pkt_vlan, stat_tx_pkt_good, stat_tx_pkt_bad,
//	         stat_tx_err_oversize, stat_tx_err_user, stat_tx_err_underflow
//	Slaves: s_axis_tx
//	Masters: m_axis_tx_cpl
//
// The transmitter only advances in cycles where clk_enable is high and its
// outputs hold otherwise. When mii_select is high, each byte is sent as two
// nibbles on gmii_txd[0..3], low nibble first.
//
// cfg_tx_max_pkt_len is the maximum frame length including FCS, 0 disables the
// check. Longer frames are truncated and terminated with an error. cfg_tx_ifg
// is the minimum inter-frame gap in byte times. No frame is started while
// cfg_tx_enable is low.
//
// A completion record is sent on m_axis_tx_cpl for each frame: an 8 bytes
// little endian timestamp sampled from ptp_ts when the SFD is sent, the frame
// ID, and User set to 1 for bad frames.
//
// The statistics outputs pulse for one cycle. stat_tx_byte is the number of
// frame bytes sent in the cycle and stat_tx_pkt_len is the frame length
// including FCS at the end of a frame.
//
func AxisGMIITx(opts TxOptions) ethsim.NewPartFn {
	return (&ethsim.PartSpec{
		Name:    "AxisGMIITx",
		Inputs:  ethsim.IO("clk_enable, mii_select, " + txCfgInputs),
		Outputs: ethsim.IO("gmii_txd[8], gmii_tx_en, gmii_tx_er, " + txStatPins),
		Slaves:  ethsim.IO("s_axis_tx"),
		Masters: ethsim.IO("m_axis_tx_cpl"),
		Mount: func(s *ethsim.Socket) []ethsim.Component {
			p := mountTx(s, 1)
			clkEn, mii := s.Pin("clk_enable"), s.Pin("mii_select")
			txd, txEn, txEr := s.Bus("gmii_txd"), s.Pin("gmii_tx_en"), s.Pin("gmii_tx_er")
			e := newEngine(opts)
			var (
				sym    symbol
				nibble bool // high nibble pending
			)
			out := func(c *ethsim.Circuit, d byte) {
				hwlib.SetInt64(c, txd, int64(d))
				c.Set(txEn, sym.kind == symStart || sym.kind == symData || sym.kind == symError)
				c.Set(txEr, sym.kind == symError)
			}
			return []ethsim.Component{func(c *ethsim.Circuit) {
				if c.Get(p.rst) {
					p.reset(c, e)
					sym, nibble = symbol{}, false
					out(c, 0)
					return
				}
				p.begin(c, e)
				switch {
				case !c.Get(clkEn):
					for _, n := range txd {
						c.Set(n, c.Get(n))
					}
					c.Set(txEn, c.Get(txEn))
					c.Set(txEr, c.Get(txEr))
				case c.Get(mii):
					if nibble {
						out(c, sym.data>>4)
					} else {
						sym = e.next(e.gap() >= e.ifg)
						out(c, sym.data&0xf)
					}
					nibble = !nibble
				default:
					nibble = false
					sym = e.next(e.gap() >= e.ifg)
					out(c, sym.data)
				}
				p.end(c, e)
			}}
		}}).NewPart
}
