// Command ethsim runs a transmit datapath scenario: traffic sources are
// arbitrated into a frame FIFO that feeds a GMII or XGMII transmitter.
//
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/db47h/ethsim"
	"github.com/db47h/ethsim/axis"
	"github.com/db47h/ethsim/eth"
	"github.com/db47h/ethsim/hwlib"
	"github.com/db47h/ethsim/internal/config"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

func newLogger(level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(level).With().Timestamp().Str("app", "ethsim").Logger()
}

// same connects the listed ports to nets of the same name.
func same(list string) string {
	var ns []string
	for _, n := range ethsim.IO(list) {
		ns = append(ns, n+"="+n)
	}
	return strings.Join(ns, ", ")
}

const (
	cfgPins  = "cfg_tx_max_pkt_len[16], cfg_tx_ifg[8], cfg_tx_enable, ptp_ts[64]"
	statPins = "tx_start_packet, stat_tx_byte[4], stat_tx_pkt_len[16], " +
		"stat_tx_pkt_ucast, stat_tx_pkt_mcast, stat_tx_pkt_bcast, stat_tx_pkt_vlan, " +
		"stat_tx_pkt_good, stat_tx_pkt_bad, " +
		"stat_tx_err_oversize, stat_tx_err_user, stat_tx_err_underflow"
)

type bench struct {
	sc    config.Scenario
	log   zerolog.Logger
	srcs  []*axis.Source
	cpl   *axis.Sink
	gmii  *eth.GMIISink
	xgmii *eth.XGMIISink
	stats eth.Stats
	txCfg eth.TxConfig

	overflow, bad, good int
	sent                int
}

func newBench(sc config.Scenario, log zerolog.Logger) (*bench, *ethsim.Circuit, error) {
	b := &bench{sc: sc, log: log, cpl: axis.NewSink(), txCfg: sc.TxCfg}

	arb := sc.Arbiter
	arb.Ports = sc.Ports
	arb.Log = &b.log
	fifo := sc.FIFO
	fifo.InWidth, fifo.OutWidth = sc.Width(), sc.Width()
	fifo.Log = &b.log
	tx := sc.Tx
	tx.Log = &b.log

	count := func(n *int) func(bool) {
		return func(v bool) {
			if v {
				*n++
			}
		}
	}
	var parts ethsim.Parts
	for i := 0; i < sc.Ports; i++ {
		src := axis.NewSource(sc.Width())
		if len(sc.Pause) > 0 {
			src.SetPauseGenerator(axis.CyclePause(sc.Pause...))
		}
		b.srcs = append(b.srcs, src)
		parts = append(parts, src.Part(fmt.Sprintf("m_axis=src%d", i)))
	}
	var mux []string
	for i := range b.srcs {
		mux = append(mux, fmt.Sprintf("s_axis[%d]=src%d", i, i))
	}
	parts = append(parts,
		axis.ArbMux(arb)(strings.Join(mux, ", ")+", m_axis=mux"),
		axis.FIFO(fifo)("s_axis=mux, m_axis=fifo, status_overflow=ovf, status_bad_frame=bad, status_good_frame=good"),
		hwlib.Output(count(&b.overflow))("in=ovf"),
		hwlib.Output(count(&b.bad))("in=bad"),
		hwlib.Output(count(&b.good))("in=good"),
		b.txCfg.Part(same("cfg_tx_max_pkt_len[16], cfg_tx_ifg[8], cfg_tx_enable")),
		eth.PTPClock(sc.Period)(same("ptp_ts[64]")),
		b.stats.Part(same(statPins)),
		b.cpl.Part("s_axis=cpl"),
	)
	switch sc.Interface {
	case config.XGMII:
		b.xgmii = eth.NewXGMIISink()
		parts = append(parts,
			eth.AxisXGMIITx64(tx)("s_axis_tx=fifo, m_axis_tx_cpl=cpl, "+
				same(cfgPins)+", "+same("xgmii_txd[64], xgmii_txc[8]")+", "+same(statPins)),
			b.xgmii.Part("xgmii_rxd[0..63]=xgmii_txd[0..63], xgmii_rxc[0..7]=xgmii_txc[0..7]"),
		)
	default:
		b.gmii = eth.NewGMIISink()
		parts = append(parts,
			eth.AxisGMIITx(tx)("s_axis_tx=fifo, m_axis_tx_cpl=cpl, clk_enable=true, "+
				same(cfgPins)+", "+same("gmii_txd[8], gmii_tx_en, gmii_tx_er")+", "+same(statPins)),
			b.gmii.Part("gmii_rxd[0..7]=gmii_txd[0..7], gmii_rx_dv=gmii_tx_en, gmii_rx_er=gmii_tx_er, clk_enable=true"),
		)
	}

	c, err := ethsim.NewCircuit(0, parts...)
	if err != nil {
		return nil, nil, errors.Wrap(err, "build circuit")
	}
	return b, c, nil
}

// queue queues the scenario traffic on all sources.
func (b *bench) queue() {
	r := rand.New(rand.NewSource(b.sc.Seed))
	idMask := uint32(1)<<b.sc.Arbiter.IDWidth - 1
	for i := 0; i < b.sc.Frames; i++ {
		for p, src := range b.srcs {
			n := b.sc.MinLen + r.Intn(b.sc.MaxLen-b.sc.MinLen+1)
			data := make([]byte, n)
			r.Read(data)
			if n > 0 {
				data[0] &^= 1 // unicast
			}
			src.Send(axis.Frame{Data: data, ID: uint32(i) & idMask, Dest: uint32(p)})
			b.sent++
		}
	}
}

// done returns true once every frame has either been transmitted or dropped
// by the FIFO.
func (b *bench) done() bool {
	return b.cpl.Count()+b.overflow+b.bad >= b.sent
}

func (b *bench) received() (frames, fcsErrors int) {
	recv := func() (eth.RxFrame, bool) {
		if b.gmii != nil {
			return b.gmii.Recv()
		}
		return b.xgmii.Recv()
	}
	for {
		f, ok := recv()
		if !ok {
			return
		}
		frames++
		if !f.CheckFCS() {
			fcsErrors++
		}
	}
}

func run(path string) error {
	sc := config.Default()
	if path != "" {
		var err error
		if sc, err = config.Load(path); err != nil {
			return err
		}
	}
	log := newLogger(sc.LogLevel)
	log.Info().
		Str("interface", sc.Interface).
		Int("ports", sc.Ports).
		Int("frames", sc.Frames).
		Int("fifo_depth", sc.FIFO.Depth).
		Msg("starting simulation")

	b, c, err := newBench(sc, log)
	if err != nil {
		return err
	}
	defer c.Dispose()
	c.Reset()
	b.queue()

	start := time.Now()
	err = c.RunUntil(b.done, sc.Steps)
	c.Run(16)
	elapsed := time.Since(start)

	st := b.stats.Snapshot()
	frames, fcsErrors := b.received()
	simTime := time.Duration(c.Steps()) * sc.Period
	log.Info().
		Object("stats", st).
		Int("rx_frames", frames).
		Int("rx_fcs_errors", fcsErrors).
		Int("fifo_overflow", b.overflow).
		Int("fifo_bad", b.bad).
		Uint64("steps", c.Steps()).
		Dur("sim_time", simTime).
		Dur("elapsed", elapsed).
		Float64("gbps", float64(st.Bytes)*8/float64(simTime.Nanoseconds())).
		Msg("simulation done")
	return errors.Wrap(err, "simulation incomplete")
}

func main() {
	path := flag.String("config", "", "scenario file (TOML)")
	flag.Parse()

	if err := run(*path); err != nil {
		fmt.Fprintln(os.Stderr, "ethsim:", err)
		os.Exit(1)
	}
}
