// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package axis

import (
	"math/bits"
	"strconv"

	"github.com/db47h/ethsim"
	"github.com/db47h/ethsim/hwlib"
)

type stage struct {
	ethsim.Beat
	due uint64
}

// FIFO returns a stream FIFO part. It panics if the configuration is invalid.
//
//	Inputs: pause_req
//	Outputs: pause_ack, status_overflow, status_bad_frame, status_good_frame,
//	         status_depth[n] where n is the bit length of Depth
//	Slaves: s_axis
//	Masters: m_axis
//
// The status_overflow, status_bad_frame and status_good_frame outputs pulse for
// one cycle when a frame is dropped for lack of space (or truncated and marked
// bad), dropped as bad, or fully stored. status_depth is the buffer occupancy in
// bytes.
//
func FIFO(cfg FIFOConfig) ethsim.NewPartFn {
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	dw := bits.Len(uint(cfg.Depth))
	return (&ethsim.PartSpec{
		Name:    "FIFO",
		Inputs:  ethsim.IO("pause_req"),
		Outputs: ethsim.IO("pause_ack, status_overflow, status_bad_frame, status_good_frame, status_depth[" + strconv.Itoa(dw) + "]"),
		Slaves:  ethsim.IO("s_axis"),
		Masters: ethsim.IO("m_axis"),
		Mount: func(s *ethsim.Socket) []ethsim.Component {
			in, out := s.Link("s_axis"), s.Link("m_axis")
			pauseReq, pauseAck := s.Pin("pause_req"), s.Pin("pause_ack")
			overflow, bad, good := s.Pin("status_overflow"), s.Pin("status_bad_frame"), s.Pin("status_good_frame")
			depth := s.Bus("status_depth")
			rst := s.Reset()

			f := newFIFO(cfg)
			var (
				skid    ethsim.Beat
				full    bool
				pipe    []stage
				inFrame bool // egress is in the middle of a frame
			)
			return []ethsim.Component{func(c *ethsim.Circuit) {
				f.ev = events{}
				if c.Get(rst) {
					f.reset()
					full, pipe, inFrame = false, pipe[:0], false
					c.SetReady(in, false)
					c.Idle(out)
					c.Set(pauseAck, false)
					c.Set(overflow, false)
					c.Set(bad, false)
					c.Set(good, false)
					hwlib.SetInt64(c, depth, 0)
					return
				}

				// egress
				if c.Fire(out) {
					pipe = pipe[1:]
				}
				paused := c.Get(pauseReq) && (!cfg.FramePause || !inFrame)
				if !paused && len(pipe) <= cfg.Pipeline {
					if b, ok := f.read(true); ok {
						pipe = append(pipe, stage{b, c.Steps() + uint64(cfg.Pipeline)})
						inFrame = !b.Last
					}
				}
				switch {
				case !c.Free(out):
					c.Hold(out)
				case len(pipe) > 0 && pipe[0].due <= c.Steps():
					c.Send(out, pipe[0].Beat)
				default:
					c.Idle(out)
				}

				// ingress
				if c.Fire(in) {
					skid, full = c.Beat(in), true
				}
				if full && f.write(skid) {
					full = false
				}
				c.SetReady(in, !full)

				c.Set(pauseAck, paused)
				c.Set(overflow, f.ev.overflow)
				c.Set(bad, f.ev.bad)
				c.Set(good, f.ev.good)
				hwlib.SetInt64(c, depth, int64(f.occ))
			}}
		}}).NewPart
}
