// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package eth

import (
	"encoding/binary"

	"github.com/db47h/ethsim"
	"github.com/db47h/ethsim/hwlib"
	"github.com/db47h/ethsim/lfsr"
	"github.com/rs/zerolog"
)

// RxOptions holds the static parameters of a receiver.
//
type RxOptions struct {
	// Log receives frame errors at debug level. Nil disables logging.
	Log *zerolog.Logger `toml:"-"`
}

func (o *RxOptions) logger() zerolog.Logger {
	if o.Log == nil {
		return zerolog.Nop()
	}
	return *o.Log
}

// receive error flags
const (
	rxErrFCS = 1 << iota
	rxErrOversize
	rxErrBlock
	rxErrFraming
	rxErrFragment
)

// rxStats are the per cycle statistics pulses of a receiver.
type rxStats struct {
	start    bool
	bytes    int
	pktLen   int
	class    Class
	good     bool
	bad      bool
	fragment bool
	oversize bool
	fcs      bool
	block    bool
	framing  bool
}

// rxEngine is the byte oriented receive state machine shared by the GMII and
// XGMII receivers. The PHY side feeds it with start, data and end events, it
// strips the FCS and produces output beats of up to width bytes.
type rxEngine struct {
	log   zerolog.Logger
	width int

	// configuration, sampled every cycle
	enable bool
	maxLen int // including FCS, 0 for no limit
	ts     uint64

	active  bool
	dl      [FCSLen]byte // last bytes received, FCS candidate
	dn      int
	pend    []byte
	n       int // frame bytes received, FCS included
	hdr     [HeaderLen]byte
	crc     *lfsr.Digest
	err     int
	cut     bool // frame truncated, dropping until end
	frameTS uint64

	st  rxStats
	out []ethsim.Beat // pending output beats
	tsq []ethsim.Beat // pending timestamp records
}

func newRxEngine(opts RxOptions, width int) *rxEngine {
	return &rxEngine{log: opts.logger(), width: width, crc: lfsr.NewCRC32()}
}

func (e *rxEngine) reset() {
	e.active = false
	e.st = rxStats{}
	e.out = e.out[:0]
	e.tsq = e.tsq[:0]
}

// start is called on the SFD. Frames starting while the receiver is disabled
// are ignored.
func (e *rxEngine) start() {
	if !e.enable {
		e.active = false
		return
	}
	e.active = true
	e.dn, e.n, e.err, e.cut = 0, 0, 0, false
	e.pend = e.pend[:0]
	e.hdr = [HeaderLen]byte{}
	e.crc.Reset()
	e.frameTS = e.ts
	e.st.start = true
}

// data adds a frame byte. errInd is set for bytes received with an error
// indication.
func (e *rxEngine) data(b byte, errInd bool) {
	if !e.active {
		return
	}
	e.n++
	e.st.bytes++
	if errInd {
		e.err |= rxErrBlock
	}
	if e.cut {
		return
	}
	if e.maxLen > 0 && e.n > e.maxLen {
		e.err |= rxErrOversize
		e.cut = true
		return
	}
	if e.dn < FCSLen {
		e.dl[e.dn] = b
		e.dn++
		return
	}
	v := e.dl[0]
	copy(e.dl[:], e.dl[1:])
	e.dl[FCSLen-1] = b
	if k := e.n - FCSLen - 1; k < HeaderLen {
		e.hdr[k] = v
	}
	e.crc.Write([]byte{v})
	e.pend = append(e.pend, v)
	// keep at least one byte for the last beat
	if len(e.pend) > e.width {
		e.emit(false, 0)
	}
}

// emit sends up to width pending bytes.
func (e *rxEngine) emit(last bool, user uint32) {
	n := len(e.pend)
	if n > e.width {
		n = e.width
	}
	d := make([]byte, n)
	copy(d, e.pend)
	e.pend = e.pend[:copy(e.pend, e.pend[n:])]
	e.out = append(e.out, ethsim.Beat{Data: d, Last: last, User: user})
}

// end closes the current frame. framing is set if the frame was ended by an
// unexpected control character.
func (e *rxEngine) end(framing bool) {
	if !e.active {
		return
	}
	e.active = false
	if framing {
		e.err |= rxErrFraming
	}
	if e.cut || e.dn < FCSLen {
		// no FCS to strip
		e.pend = append(e.pend, e.dl[:e.dn]...)
		if !e.cut {
			e.err |= rxErrFCS
		}
	} else if binary.LittleEndian.Uint32(e.dl[:]) != e.crc.Sum32() {
		e.err |= rxErrFCS
	}
	if e.n < MinFrameLen {
		e.err |= rxErrFragment
	}
	var user uint32
	if e.err != 0 {
		user = 1
		e.log.Debug().Int("len", e.n).Int("err", e.err).Msg("bad frame received")
	}
	for len(e.pend) > e.width {
		e.emit(false, 0)
	}
	e.emit(true, user)

	var ts [8]byte
	binary.LittleEndian.PutUint64(ts[:], e.frameTS)
	e.tsq = append(e.tsq, ethsim.Beat{Data: ts[:], Last: true, User: user})

	st := &e.st
	st.pktLen = e.n
	st.class = Classify(e.hdr[:])
	st.good, st.bad = e.err == 0, e.err != 0
	st.fragment = e.err&rxErrFragment != 0
	st.oversize = e.err&rxErrOversize != 0
	st.fcs = e.err&rxErrFCS != 0
	st.block = e.err&rxErrBlock != 0
	st.framing = e.err&rxErrFraming != 0
}

// Port declarations common to all receivers.
const (
	rxCfgInputs = "cfg_rx_max_pkt_len[16], cfg_rx_enable, ptp_ts[64]"
	rxStatPins  = "rx_start_packet, stat_rx_byte[4], stat_rx_pkt_len[16], stat_rx_pkt_fragment, " +
		"stat_rx_pkt_ucast, stat_rx_pkt_mcast, stat_rx_pkt_bcast, stat_rx_pkt_vlan, " +
		"stat_rx_pkt_good, stat_rx_pkt_bad, " +
		"stat_rx_err_oversize, stat_rx_err_bad_fcs, stat_rx_err_bad_block, stat_rx_err_framing"
)

type rxStatPinSet struct {
	start    int
	bytes    []int
	pktLen   []int
	fragment int
	ucast    int
	mcast    int
	bcast    int
	vlan     int
	good     int
	bad      int
	oversize int
	fcs      int
	block    int
	framing  int
}

func mountRxStats(s *ethsim.Socket) rxStatPinSet {
	return rxStatPinSet{
		start:    s.Pin("rx_start_packet"),
		bytes:    s.Bus("stat_rx_byte"),
		pktLen:   s.Bus("stat_rx_pkt_len"),
		fragment: s.Pin("stat_rx_pkt_fragment"),
		ucast:    s.Pin("stat_rx_pkt_ucast"),
		mcast:    s.Pin("stat_rx_pkt_mcast"),
		bcast:    s.Pin("stat_rx_pkt_bcast"),
		vlan:     s.Pin("stat_rx_pkt_vlan"),
		good:     s.Pin("stat_rx_pkt_good"),
		bad:      s.Pin("stat_rx_pkt_bad"),
		oversize: s.Pin("stat_rx_err_oversize"),
		fcs:      s.Pin("stat_rx_err_bad_fcs"),
		block:    s.Pin("stat_rx_err_bad_block"),
		framing:  s.Pin("stat_rx_err_framing"),
	}
}

// rxPorts are the ports shared by all receivers.
type rxPorts struct {
	out, ts int
	rst     int
	maxLen  []int
	enable  int
	ptp     []int
	stats   rxStatPinSet
}

func mountRx(s *ethsim.Socket) *rxPorts {
	return &rxPorts{
		out:    s.Link("m_axis_rx"),
		ts:     s.Link("m_axis_rx_ts"),
		rst:    s.Reset(),
		maxLen: s.Bus("cfg_rx_max_pkt_len"),
		enable: s.Pin("cfg_rx_enable"),
		ptp:    s.Bus("ptp_ts"),
		stats:  mountRxStats(s),
	}
}

func (p *rxPorts) begin(c *ethsim.Circuit, e *rxEngine) {
	if c.Fire(p.out) {
		e.out = e.out[1:]
	}
	if c.Fire(p.ts) {
		e.tsq = e.tsq[1:]
	}
	e.maxLen = int(hwlib.Int64(c, p.maxLen))
	e.enable = c.Get(p.enable)
	e.ts = uint64(hwlib.Int64(c, p.ptp))
	e.st = rxStats{}
}

func send(c *ethsim.Circuit, l int, q []ethsim.Beat) {
	switch {
	case !c.Free(l):
		c.Hold(l)
	case len(q) > 0:
		c.Send(l, q[0])
	default:
		c.Idle(l)
	}
}

func (p *rxPorts) end(c *ethsim.Circuit, e *rxEngine) {
	send(c, p.out, e.out)
	send(c, p.ts, e.tsq)
	p.setStats(c, &e.st)
}

func (p *rxPorts) reset(c *ethsim.Circuit, e *rxEngine) {
	e.reset()
	c.Idle(p.out)
	c.Idle(p.ts)
	p.setStats(c, &e.st)
}

func (p *rxPorts) setStats(c *ethsim.Circuit, st *rxStats) {
	sp := &p.stats
	end := st.good || st.bad
	c.Set(sp.start, st.start)
	hwlib.SetInt64(c, sp.bytes, int64(st.bytes))
	hwlib.SetInt64(c, sp.pktLen, int64(st.pktLen))
	c.Set(sp.fragment, st.fragment)
	c.Set(sp.ucast, end && st.class&Unicast != 0)
	c.Set(sp.mcast, end && st.class&Multicast != 0)
	c.Set(sp.bcast, end && st.class&Broadcast != 0)
	c.Set(sp.vlan, end && st.class&VLAN != 0)
	c.Set(sp.good, st.good)
	c.Set(sp.bad, st.bad)
	c.Set(sp.oversize, st.oversize)
	c.Set(sp.fcs, st.fcs)
	c.Set(sp.block, st.block)
	c.Set(sp.framing, st.framing)
}

// AxisGMIIRx returns a GMII receiver part. It strips the preamble, SFD and
// FCS of received frames and outputs them on m_axis_rx, one byte per beat.
// Frames with a bad FCS, an error indication (gmii_rx_er), shorter than 64
// bytes or longer than cfg_rx_max_pkt_len (FCS included) have bit 0 of the
// user sideband set on their last beat. Oversize frames are truncated.
//
// For each frame, an 8 bytes PTP timestamp sampled on the SFD is output on
// m_axis_rx_ts, with the same user value. There is no flow control towards
// the PHY: output beats are buffered while m_axis_rx is stalled.
//
// Frames starting while cfg_rx_enable is low are ignored. Inputs are only
// sampled while clk_enable is high. With mii_select high, data is received a
// nibble per cycle, low nibble first.
//
//	Inputs: gmii_rxd[8], gmii_rx_dv, gmii_rx_er, clk_enable, mii_select,
//	        cfg_rx_max_pkt_len[16], cfg_rx_enable, ptp_ts[64]
//	Outputs: rx_start_packet, stat_rx_byte[4], stat_rx_pkt_len[16],
//	         stat_rx_pkt_fragment, stat_rx_pkt_ucast, stat_rx_pkt_mcast,
//	         stat_rx_pkt_bcast, stat_rx_pkt_vlan, stat_rx_pkt_good,
//	         stat_rx_pkt_bad, stat_rx_err_oversize, stat_rx_err_bad_fcs,
//	         stat_rx_err_bad_block, stat_rx_err_framing
//	Masters: m_axis_rx, m_axis_rx_ts
//
func AxisGMIIRx(opts RxOptions) ethsim.NewPartFn {
	return (&ethsim.PartSpec{
		Name:    "AxisGMIIRx",
		Inputs:  ethsim.IO("gmii_rxd[8], gmii_rx_dv, gmii_rx_er, clk_enable, mii_select, " + rxCfgInputs),
		Outputs: ethsim.IO(rxStatPins),
		Masters: ethsim.IO("m_axis_rx, m_axis_rx_ts"),
		Mount: func(s *ethsim.Socket) []ethsim.Component {
			p := mountRx(s)
			rxd, dv, er := s.Bus("gmii_rxd"), s.Pin("gmii_rx_dv"), s.Pin("gmii_rx_er")
			clkEn, mii := s.Pin("clk_enable"), s.Pin("mii_select")
			e := newRxEngine(opts, 1)
			var (
				sfd    bool
				lo     byte
				nibble bool
				nerr   bool
			)
			rx := func(c *ethsim.Circuit) {
				if !c.Get(dv) {
					if sfd {
						e.end(false)
					}
					sfd, nibble = false, false
					return
				}
				d, err := byte(hwlib.Int64(c, rxd)), c.Get(er)
				if c.Get(mii) {
					if !nibble {
						lo, nerr, nibble = d&0xf, err, true
						return
					}
					d, err, nibble = lo|d<<4, err || nerr, false
				}
				switch {
				case sfd:
					e.data(d, err)
				case d == SFD:
					sfd = true
					e.start()
				}
			}
			return []ethsim.Component{func(c *ethsim.Circuit) {
				if c.Get(p.rst) {
					p.reset(c, e)
					sfd, nibble = false, false
					return
				}
				p.begin(c, e)
				if c.Get(clkEn) {
					rx(c)
				}
				p.end(c, e)
			}}
		}}).NewPart
}

// AxisXGMIIRx64 returns a 64 bits XGMII receiver part. It behaves like
// AxisGMIIRx with 8 bytes beats. Frames must start in lane 0 or 4. An error
// character within a frame marks it bad, any other control character than
// terminate ends the frame as bad with a framing error.
//
//	Inputs: xgmii_rxd[64], xgmii_rxc[8], cfg_rx_max_pkt_len[16],
//	        cfg_rx_enable, ptp_ts[64]
//	Outputs: the statistics outputs of AxisGMIIRx
//	Masters: m_axis_rx, m_axis_rx_ts
//
func AxisXGMIIRx64(opts RxOptions) ethsim.NewPartFn {
	return (&ethsim.PartSpec{
		Name:    "AxisXGMIIRx64",
		Inputs:  ethsim.IO("xgmii_rxd[64], xgmii_rxc[8], " + rxCfgInputs),
		Outputs: ethsim.IO(rxStatPins),
		Masters: ethsim.IO("m_axis_rx, m_axis_rx_ts"),
		Mount: func(s *ethsim.Socket) []ethsim.Component {
			p := mountRx(s)
			rxd, rxc := s.Bus("xgmii_rxd"), s.Bus("xgmii_rxc")
			e := newRxEngine(opts, 8)
			pre := -1 // preamble bytes left, -1 when idle, 0 in frame
			return []ethsim.Component{func(c *ethsim.Circuit) {
				if c.Get(p.rst) {
					p.reset(c, e)
					pre = -1
					return
				}
				p.begin(c, e)
				d, k := uint64(hwlib.Int64(c, rxd)), hwlib.Int64(c, rxc)
				for lane := uint(0); lane < 8; lane++ {
					b, ctl := byte(d>>(8*lane)), k&(1<<lane) != 0
					switch {
					case pre < 0:
					case pre > 0:
						pre--
						switch {
						case ctl || pre == 0 && b != SFD:
							pre = -1
						case pre == 0:
							e.start()
						}
						continue
					case ctl && b == XGMIIError:
						e.data(b, true)
						continue
					case ctl:
						e.end(b != XGMIITerminate)
						pre = -1
					default:
						e.data(b, false)
						continue
					}
					if ctl && b == XGMIIStart && lane%4 == 0 {
						pre = PreambleLen - 1
					}
				}
				p.end(c, e)
			}}
		}}).NewPart
}
