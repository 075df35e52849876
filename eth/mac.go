// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package eth

import (
	"strings"

	"github.com/db47h/ethsim"
	"github.com/db47h/ethsim/axis"
	"github.com/db47h/ethsim/hwlib"
	"github.com/pkg/errors"
)

// passThrough returns a connection string that connects each of the named
// ports to the chip net of the same name.
func passThrough(names ...string) string {
	var sb strings.Builder
	for _, l := range names {
		for _, n := range ethsim.IO(l) {
			if sb.Len() > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(n + "=" + n)
		}
	}
	return sb.String()
}

// MACFIFO1G returns a 1G MAC transmit path: a frame mode FIFO feeding an
// AxisGMIITx. The FIFO absorbs source stalls so that frames shorter than the
// FIFO depth are never underrun.
//
//	Inputs: mii_select, cfg_tx_max_pkt_len[16], cfg_tx_ifg[8], cfg_tx_enable,
//	        ptp_ts[64]
//	Outputs: gmii_txd[8], gmii_tx_en, gmii_tx_er,
//	         tx_fifo_overflow, tx_fifo_bad_frame, tx_fifo_good_frame,
//	         and the statistics outputs of AxisGMIITx
//	Slaves: tx_axis
//	Masters: m_axis_tx_cpl
//
// fifo.FrameMode is forced on and the FIFO widths are forced to one byte. The
// maximum length and IFG settings go through configuration registers and take
// effect one cycle later than on a bare AxisGMIITx.
//
func MACFIFO1G(fifo axis.FIFOConfig, opts TxOptions) (ethsim.NewPartFn, error) {
	fifo.FrameMode = true
	fifo.InWidth, fifo.OutWidth = 1, 1
	if err := fifo.Validate(); err != nil {
		return nil, errors.Wrap(err, "MACFIFO1G")
	}
	const (
		inputs  = "mii_select, " + txCfgInputs
		outputs = "gmii_txd[8], gmii_tx_en, gmii_tx_er"
	)
	return ethsim.Chip(
		"MACFIFO1G",
		ethsim.Ports{
			Inputs:  ethsim.IO(inputs),
			Outputs: ethsim.IO(outputs + ", tx_fifo_overflow, tx_fifo_bad_frame, tx_fifo_good_frame, " + txStatPins),
			Slaves:  ethsim.IO("tx_axis"),
			Masters: ethsim.IO("m_axis_tx_cpl"),
		},
		ethsim.Parts{
			hwlib.Register(16)("in[0..15]=cfg_tx_max_pkt_len[0..15], en=true, out[0..15]=max_len_q[0..15]"),
			hwlib.Register(8)("in[0..7]=cfg_tx_ifg[0..7], en=true, out[0..7]=ifg_q[0..7]"),
			axis.FIFO(fifo)("s_axis=tx_axis, m_axis=fifo_tx, " +
				"status_overflow=tx_fifo_overflow, status_bad_frame=tx_fifo_bad_frame, status_good_frame=tx_fifo_good_frame"),
			AxisGMIITx(opts)("s_axis_tx=fifo_tx, m_axis_tx_cpl=m_axis_tx_cpl, clk_enable=true, " +
				"cfg_tx_max_pkt_len[0..15]=max_len_q[0..15], cfg_tx_ifg[0..7]=ifg_q[0..7], " +
				passThrough("mii_select, cfg_tx_enable, ptp_ts[64]", outputs, txStatPins)),
		})
}

// MACFIFO10G returns a 10G MAC: a frame mode transmit FIFO feeding an
// AxisXGMIITx64 and an AxisXGMIIRx64 feeding a frame mode receive FIFO. Both
// FIFOs are forced to frame mode with 8 bytes beats. Receive FIFO drop flags
// are left to the caller; set DropBadFrame to discard frames that failed the
// FCS check.
//
//	Inputs: cfg_tx_max_pkt_len[16], cfg_tx_ifg[8], cfg_tx_enable,
//	        cfg_rx_max_pkt_len[16], cfg_rx_enable, ptp_ts[64],
//	        xgmii_rxd[64], xgmii_rxc[8]
//	Outputs: xgmii_txd[64], xgmii_txc[8],
//	         tx_fifo_overflow, tx_fifo_bad_frame, tx_fifo_good_frame,
//	         rx_fifo_overflow, rx_fifo_bad_frame, rx_fifo_good_frame,
//	         and the statistics outputs of AxisXGMIITx64 and AxisXGMIIRx64
//	Slaves: tx_axis
//	Masters: rx_axis, m_axis_tx_cpl
//
func MACFIFO10G(txFIFO, rxFIFO axis.FIFOConfig, tx TxOptions, rx RxOptions) (ethsim.NewPartFn, error) {
	txFIFO.FrameMode, rxFIFO.FrameMode = true, true
	txFIFO.InWidth, txFIFO.OutWidth = 8, 8
	rxFIFO.InWidth, rxFIFO.OutWidth = 8, 8
	if err := txFIFO.Validate(); err != nil {
		return nil, errors.Wrap(err, "MACFIFO10G: tx FIFO")
	}
	if err := rxFIFO.Validate(); err != nil {
		return nil, errors.Wrap(err, "MACFIFO10G: rx FIFO")
	}
	const (
		txOut  = "xgmii_txd[64], xgmii_txc[8]"
		rxIn   = "xgmii_rxd[64], xgmii_rxc[8]"
		status = "tx_fifo_overflow, tx_fifo_bad_frame, tx_fifo_good_frame, " +
			"rx_fifo_overflow, rx_fifo_bad_frame, rx_fifo_good_frame"
	)
	return ethsim.Chip(
		"MACFIFO10G",
		ethsim.Ports{
			Inputs:  ethsim.IO(txCfgInputs + ", cfg_rx_max_pkt_len[16], cfg_rx_enable, " + rxIn),
			Outputs: ethsim.IO(txOut + ", " + status + ", " + txStatPins + ", " + rxStatPins),
			Slaves:  ethsim.IO("tx_axis"),
			Masters: ethsim.IO("rx_axis, m_axis_tx_cpl"),
		},
		ethsim.Parts{
			axis.FIFO(txFIFO)("s_axis=tx_axis, m_axis=fifo_tx, " +
				"status_overflow=tx_fifo_overflow, status_bad_frame=tx_fifo_bad_frame, status_good_frame=tx_fifo_good_frame"),
			AxisXGMIITx64(tx)("s_axis_tx=fifo_tx, m_axis_tx_cpl=m_axis_tx_cpl, " +
				passThrough(txCfgInputs, txOut, txStatPins)),
			AxisXGMIIRx64(rx)("m_axis_rx=fifo_rx, " +
				passThrough("cfg_rx_max_pkt_len[16], cfg_rx_enable, ptp_ts[64]", rxIn, rxStatPins)),
			axis.FIFO(rxFIFO)("s_axis=fifo_rx, m_axis=rx_axis, " +
				"status_overflow=rx_fifo_overflow, status_bad_frame=rx_fifo_bad_frame, status_good_frame=rx_fifo_good_frame"),
		})
}
