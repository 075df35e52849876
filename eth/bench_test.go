package eth_test

import (
	"strings"
	"testing"
	"time"

	hw "github.com/db47h/ethsim"
	"github.com/db47h/ethsim/axis"
	"github.com/db47h/ethsim/eth"
	"github.com/db47h/ethsim/hwlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	cfgPins  = "cfg_tx_max_pkt_len[16], cfg_tx_ifg[8], cfg_tx_enable, ptp_ts[64]"
	statPins = "tx_start_packet, stat_tx_byte[4], stat_tx_pkt_len[16], " +
		"stat_tx_pkt_ucast, stat_tx_pkt_mcast, stat_tx_pkt_bcast, stat_tx_pkt_vlan, " +
		"stat_tx_pkt_good, stat_tx_pkt_bad, " +
		"stat_tx_err_oversize, stat_tx_err_user, stat_tx_err_underflow"
	period = 8 * time.Nanosecond
)

// same connects the listed ports to nets of the same name.
func same(list string) string {
	var ns []string
	for _, n := range hw.IO(list) {
		ns = append(ns, n+"="+n)
	}
	return strings.Join(ns, ", ")
}

// txBench is a Source -> transmitter -> PHY sink test bench with statistics
// and completion sinks.
type txBench struct {
	c     *hw.Circuit
	src   *axis.Source
	cpl   *axis.Sink
	cfg   eth.TxConfig
	stats eth.Stats

	gmii  *eth.GMIISink
	xgmii *eth.XGMIISink
	mii   bool
	en    []bool // gmii_tx_en trace
}

func (b *txBench) common() hw.Parts {
	return hw.Parts{
		b.src.Part("m_axis=tx"),
		b.cfg.Part(same("cfg_tx_max_pkt_len[16], cfg_tx_ifg[8], cfg_tx_enable")),
		eth.PTPClock(period)(same("ptp_ts[64]")),
		b.stats.Part(same(statPins)),
		b.cpl.Part("s_axis=cpl"),
	}
}

func (b *txBench) start(t *testing.T, parts hw.Parts) {
	t.Helper()
	c, err := hw.NewCircuit(0, parts...)
	require.NoError(t, err)
	t.Cleanup(c.Dispose)
	c.Reset()
	b.c = c
	b.en = b.en[:0]
}

// newGMIIBench returns a GMII bench. clkEn drives clk_enable, nil meaning
// always enabled.
func newGMIIBench(t *testing.T, opts eth.TxOptions, clkEn func() bool) *txBench {
	t.Helper()
	b := &txBench{
		src:  axis.NewSource(1),
		cpl:  axis.NewSink(),
		cfg:  eth.DefaultTxConfig(),
		gmii: eth.NewGMIISink(),
	}
	if clkEn == nil {
		clkEn = func() bool { return true }
	}
	parts := append(b.common(),
		hwlib.Input(clkEn)("out=clk_en"),
		hwlib.Input(func() bool { return b.mii })("out=mii"),
		eth.AxisGMIITx(opts)("s_axis_tx=tx, m_axis_tx_cpl=cpl, clk_enable=clk_en, mii_select=mii, "+
			same(cfgPins)+", "+same("gmii_txd[8], gmii_tx_en, gmii_tx_er")+", "+same(statPins)),
		b.gmii.Part("gmii_rxd[0..7]=gmii_txd[0..7], gmii_rx_dv=gmii_tx_en, gmii_rx_er=gmii_tx_er, "+
			"clk_enable=clk_en, mii_select=mii"),
		hwlib.Output(func(v bool) { b.en = append(b.en, v) })("in=gmii_tx_en"),
	)
	b.start(t, parts)
	return b
}

func newXGMIIBench(t *testing.T, opts eth.TxOptions) *txBench {
	t.Helper()
	b := &txBench{
		src:   axis.NewSource(8),
		cpl:   axis.NewSink(),
		cfg:   eth.DefaultTxConfig(),
		xgmii: eth.NewXGMIISink(),
	}
	parts := append(b.common(),
		eth.AxisXGMIITx64(opts)("s_axis_tx=tx, m_axis_tx_cpl=cpl, "+
			same(cfgPins)+", "+same("xgmii_txd[64], xgmii_txc[8]")+", "+same(statPins)),
		b.xgmii.Part("xgmii_rxd[0..63]=xgmii_txd[0..63], xgmii_rxc[0..7]=xgmii_txc[0..7]"),
	)
	b.start(t, parts)
	return b
}

func (b *txBench) rxCount() int {
	if b.gmii != nil {
		return b.gmii.Count()
	}
	return b.xgmii.Count()
}

func (b *txBench) recv() (eth.RxFrame, bool) {
	if b.gmii != nil {
		return b.gmii.Recv()
	}
	return b.xgmii.Recv()
}

// wait runs the bench until n frames and their completion records have been
// received, then lets statistics settle.
func (b *txBench) wait(t *testing.T, n int) {
	t.Helper()
	err := b.c.RunUntil(func() bool { return b.rxCount() >= n && b.cpl.Count() >= n }, 200000)
	require.NoError(t, err, "received %d frames, %d completions", b.rxCount(), b.cpl.Count())
	b.c.Run(4)
}

func (b *txBench) recvAll() []eth.RxFrame {
	var fs []eth.RxFrame
	for {
		f, ok := b.recv()
		if !ok {
			return fs
		}
		fs = append(fs, f)
	}
}

func (b *txBench) completions() []axis.Frame {
	var fs []axis.Frame
	for {
		f, ok := b.cpl.Recv()
		if !ok {
			return fs
		}
		fs = append(fs, f)
	}
}

// payload returns a test payload of n bytes with a unicast destination.
func payload(n int, seed byte) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = seed + byte(i)
	}
	if n > 0 {
		p[0] = 0x02
	}
	return p
}

func wireLen(n int) int {
	if n < eth.MinPayload {
		n = eth.MinPayload
	}
	return n + eth.FCSLen
}

// checkRx checks a received frame against the payload that was sent.
func checkRx(t *testing.T, i int, rx eth.RxFrame, p []byte) {
	t.Helper()
	assert.True(t, rx.CheckFCS(), "frame %d: bad FCS", i)
	assert.Nil(t, rx.Error, "frame %d: error indication", i)
	assert.Len(t, rx.Payload(), wireLen(len(p))-eth.FCSLen, "frame %d", i)
	got, err := eth.Decode(rx.Data, len(p))
	if assert.NoError(t, err, "frame %d", i) {
		assert.Equal(t, p, got, "frame %d", i)
	}
	for j, v := range rx.Payload()[len(p):] {
		assert.Zero(t, v, "frame %d: padding byte %d", i, j)
	}
}

// gaps returns the lengths of the idle runs between frames in an enable
// trace.
func gaps(en []bool) []int {
	var (
		gs   []int
		n    int
		seen bool
	)
	for _, v := range en {
		switch {
		case v && seen && n > 0:
			gs = append(gs, n)
			n = 0
		case v:
			seen, n = true, 0
		case seen:
			n++
		}
	}
	return gs
}
