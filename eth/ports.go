package eth

import (
	"github.com/db47h/ethsim"
	"github.com/db47h/ethsim/hwlib"
)

// Port declarations common to all transmitters.
const (
	txCfgInputs = "cfg_tx_max_pkt_len[16], cfg_tx_ifg[8], cfg_tx_enable, ptp_ts[64]"
	txStatPins  = "tx_start_packet, stat_tx_byte[4], stat_tx_pkt_len[16], " +
		"stat_tx_pkt_ucast, stat_tx_pkt_mcast, stat_tx_pkt_bcast, stat_tx_pkt_vlan, " +
		"stat_tx_pkt_good, stat_tx_pkt_bad, " +
		"stat_tx_err_oversize, stat_tx_err_user, stat_tx_err_underflow"
)

// statPins are the statistics pins of a transmitter.
type statPins struct {
	start     int
	bytes     []int
	pktLen    []int
	ucast     int
	mcast     int
	bcast     int
	vlan      int
	good      int
	bad       int
	oversize  int
	user      int
	underflow int
}

func mountStats(s *ethsim.Socket) statPins {
	return statPins{
		start:     s.Pin("tx_start_packet"),
		bytes:     s.Bus("stat_tx_byte"),
		pktLen:    s.Bus("stat_tx_pkt_len"),
		ucast:     s.Pin("stat_tx_pkt_ucast"),
		mcast:     s.Pin("stat_tx_pkt_mcast"),
		bcast:     s.Pin("stat_tx_pkt_bcast"),
		vlan:      s.Pin("stat_tx_pkt_vlan"),
		good:      s.Pin("stat_tx_pkt_good"),
		bad:       s.Pin("stat_tx_pkt_bad"),
		oversize:  s.Pin("stat_tx_err_oversize"),
		user:      s.Pin("stat_tx_err_user"),
		underflow: s.Pin("stat_tx_err_underflow"),
	}
}

// txPorts are the ports shared by all transmitters.
type txPorts struct {
	in, cpl int
	rst     int
	maxLen  []int
	ifg     []int
	enable  int
	ts      []int
	stats   statPins
	width   int // input beat width in bytes
}

func mountTx(s *ethsim.Socket, width int) *txPorts {
	return &txPorts{
		in:     s.Link("s_axis_tx"),
		cpl:    s.Link("m_axis_tx_cpl"),
		rst:    s.Reset(),
		maxLen: s.Bus("cfg_tx_max_pkt_len"),
		ifg:    s.Bus("cfg_tx_ifg"),
		enable: s.Pin("cfg_tx_enable"),
		ts:     s.Bus("ptp_ts"),
		stats:  mountStats(s),
		width:  width,
	}
}

// begin captures input data and samples the configuration.
func (p *txPorts) begin(c *ethsim.Circuit, e *engine) {
	if c.Fire(p.in) {
		e.in.push(c.Beat(p.in))
	}
	e.flush()
	if c.Fire(p.cpl) {
		e.cpl = e.cpl[1:]
	}
	e.maxLen = int(hwlib.Int64(c, p.maxLen))
	e.ifg = int(hwlib.Int64(c, p.ifg))
	e.enable = c.Get(p.enable)
	e.ts = uint64(hwlib.Int64(c, p.ts))
	e.st = txStats{}
}

// end updates ready, completion and statistics outputs.
func (p *txPorts) end(c *ethsim.Circuit, e *engine) {
	c.SetReady(p.in, e.in.n < 2*p.width && len(e.in.beats) < 2*p.width)
	send(c, p.cpl, e.cpl)
	p.setStats(c, &e.st)
}

// reset drives all outputs to their reset state.
func (p *txPorts) reset(c *ethsim.Circuit, e *engine) {
	e.reset()
	c.SetReady(p.in, false)
	c.Idle(p.cpl)
	p.setStats(c, &e.st)
}

func (p *txPorts) setStats(c *ethsim.Circuit, st *txStats) {
	sp := &p.stats
	end := st.good || st.bad
	c.Set(sp.start, st.start)
	hwlib.SetInt64(c, sp.bytes, int64(st.bytes))
	hwlib.SetInt64(c, sp.pktLen, int64(st.pktLen))
	c.Set(sp.ucast, end && st.class&Unicast != 0)
	c.Set(sp.mcast, end && st.class&Multicast != 0)
	c.Set(sp.bcast, end && st.class&Broadcast != 0)
	c.Set(sp.vlan, end && st.class&VLAN != 0)
	c.Set(sp.good, st.good)
	c.Set(sp.bad, st.bad)
	c.Set(sp.oversize, st.oversize)
	c.Set(sp.user, st.user)
	c.Set(sp.underflow, st.underrun)
}
