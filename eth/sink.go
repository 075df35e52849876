package eth

import (
	"github.com/db47h/ethsim"
	"github.com/db47h/ethsim/hwlib"
	"github.com/db47h/ethsim/internal/syncutil"
)

// RxFrame is a frame received from a PHY interface.
//
type RxFrame struct {
	// Data holds the frame bytes after the SFD, FCS included. Error
	// characters are stored as received.
	Data []byte
	// Error flags the bytes received with an error indication. It is nil if
	// there was none.
	Error []bool
	// StartLane is the XGMII lane of the start character.
	StartLane int
	// SFDStep is the simulation step during which the SFD was received.
	SFDStep uint64
}

// Payload returns the frame data without FCS.
//
func (f *RxFrame) Payload() []byte {
	if len(f.Data) < FCSLen {
		return nil
	}
	return f.Data[:len(f.Data)-FCSLen]
}

// CheckFCS returns true if the frame FCS is correct.
//
func (f *RxFrame) CheckFCS() bool { return CheckFCS(f.Data) }

// ErrLast returns true if the last byte of the frame was received with an
// error indication.
//
func (f *RxFrame) ErrLast() bool {
	return len(f.Error) > 0 && f.Error[len(f.Error)-1]
}

// rxQueue is the received frame queue of a sink, safe for concurrent use.
type rxQueue struct {
	mu     syncutil.Mutex
	frames []RxFrame
	count  int

	// receiver state, only accessed by the circuit
	cur    *RxFrame
	hasErr bool
}

func (q *rxQueue) begin(step uint64, lane int) {
	q.cur = &RxFrame{SFDStep: step, StartLane: lane}
	q.hasErr = false
}

func (q *rxQueue) add(b byte, err bool) {
	q.cur.Data = append(q.cur.Data, b)
	q.cur.Error = append(q.cur.Error, err)
	q.hasErr = q.hasErr || err
}

func (q *rxQueue) end() {
	f := q.cur
	q.cur = nil
	if f == nil {
		return
	}
	if !q.hasErr {
		f.Error = nil
	}
	q.mu.Lock()
	q.frames = append(q.frames, *f)
	q.count++
	q.mu.Unlock()
}

// Recv returns the oldest received frame.
//
func (q *rxQueue) Recv() (RxFrame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.frames) == 0 {
		return RxFrame{}, false
	}
	f := q.frames[0]
	q.frames = q.frames[1:]
	return f, true
}

// Empty returns true if there are no frames to Recv.
//
func (q *rxQueue) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.frames) == 0
}

// Count returns the number of frames received.
//
func (q *rxQueue) Count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// GMIISink receives frames from GMII or MII signals. Its methods are safe to
// call from another goroutine between simulation steps.
//
type GMIISink struct {
	rxQueue
}

// NewGMIISink returns a new GMIISink.
//
func NewGMIISink() *GMIISink { return new(GMIISink) }

// Part returns a part for the sink.
//
//	Inputs: gmii_rxd[8], gmii_rx_dv, gmii_rx_er, clk_enable, mii_select
//
func (s *GMIISink) Part(conns string) ethsim.Part {
	return (&ethsim.PartSpec{
		Name:   "GMIISink",
		Inputs: ethsim.IO("gmii_rxd[8], gmii_rx_dv, gmii_rx_er, clk_enable, mii_select"),
		Mount: func(sock *ethsim.Socket) []ethsim.Component {
			rxd, dv, er := sock.Bus("gmii_rxd"), sock.Pin("gmii_rx_dv"), sock.Pin("gmii_rx_er")
			clkEn, mii := sock.Pin("clk_enable"), sock.Pin("mii_select")
			var (
				sfd    bool // SFD seen
				lo     byte // low nibble
				nibble bool
				nerr   bool
			)
			return []ethsim.Component{func(c *ethsim.Circuit) {
				if !c.Get(clkEn) {
					return
				}
				if !c.Get(dv) {
					if sfd {
						s.end()
					}
					sfd, nibble = false, false
					return
				}
				d := byte(hwlib.Int64(c, rxd))
				e := c.Get(er)
				if c.Get(mii) {
					if !nibble {
						lo, nerr, nibble = d&0xf, e, true
						return
					}
					d = lo | d<<4
					e = e || nerr
					nibble = false
				}
				if !sfd {
					if d == SFD {
						sfd = true
						s.begin(c.Steps(), 0)
					}
					return
				}
				s.add(d, e)
			}}
		}}).NewPart(conns)
}

// XGMIISink receives frames from 64 bits XGMII signals. Its methods are safe to
// call from another goroutine between simulation steps.
//
type XGMIISink struct {
	rxQueue
}

// NewXGMIISink returns a new XGMIISink.
//
func NewXGMIISink() *XGMIISink { return new(XGMIISink) }

// Part returns a part for the sink.
//
//	Inputs: xgmii_rxd[64], xgmii_rxc[8]
//
func (s *XGMIISink) Part(conns string) ethsim.Part {
	return (&ethsim.PartSpec{
		Name:   "XGMIISink",
		Inputs: ethsim.IO("xgmii_rxd[64], xgmii_rxc[8]"),
		Mount: func(sock *ethsim.Socket) []ethsim.Component {
			rxd, rxc := sock.Bus("xgmii_rxd"), sock.Bus("xgmii_rxc")
			pre := -1 // preamble bytes left, -1 when idle
			lane0 := 0
			return []ethsim.Component{func(c *ethsim.Circuit) {
				d, k := uint64(hwlib.Int64(c, rxd)), hwlib.Int64(c, rxc)
				for lane := uint(0); lane < 8; lane++ {
					b, ctl := byte(d>>(8*lane)), k&(1<<lane) != 0
					switch {
					case pre < 0:
						if ctl && b == XGMIIStart && lane%4 == 0 {
							pre, lane0 = 7, int(lane)
						}
					case pre > 0:
						pre--
						if ctl {
							pre = -1
						} else if pre == 0 {
							if b != SFD {
								pre = -1
							} else {
								s.begin(c.Steps(), lane0)
							}
						}
					case ctl && b == XGMIIError:
						s.add(b, true)
					case ctl:
						s.end()
						pre = -1
						if b == XGMIIStart && lane%4 == 0 {
							pre, lane0 = 7, int(lane)
						}
					default:
						s.add(b, false)
					}
				}
			}}
		}}).NewPart(conns)
}
