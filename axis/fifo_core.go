// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package axis

import (
	"github.com/db47h/ethsim"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// FIFOConfig configures a frame FIFO.
//
type FIFOConfig struct {
	// Depth is the buffer capacity in bytes. Every beat occupies at least one
	// byte.
	Depth int `toml:"depth"`
	// InWidth and OutWidth are the ingress and egress widths in bytes per
	// beat. Egress beats are re-chunked to OutWidth bytes. 0 means 1.
	InWidth  int `toml:"in_width"`
	OutWidth int `toml:"out_width"`
	// FrameMode makes frames atomic: a frame is only visible at the output
	// once its last beat has been stored. A frame larger than Depth is
	// forwarded cut-through unless DropOversizeFrame is set.
	FrameMode bool `toml:"frame_mode"`
	// DropOversizeFrame drops frames larger than Depth. Requires FrameMode.
	DropOversizeFrame bool `toml:"drop_oversize_frame"`
	// DropBadFrame drops frames whose last beat has
	// User & BadMask == BadValue. Requires FrameMode and DropOversizeFrame.
	DropBadFrame bool `toml:"drop_bad_frame"`
	// DropWhenFull drops frames instead of applying backpressure when the
	// buffer is full. Requires FrameMode and DropOversizeFrame.
	DropWhenFull bool `toml:"drop_when_full"`
	// MarkWhenFull discards the rest of a frame when the buffer is full and
	// terminates the partially stored frame with an empty last beat carrying
	// BadValue in User. Not valid in FrameMode.
	MarkWhenFull bool `toml:"mark_when_full"`
	// BadMask and BadValue identify bad frames in the user sideband.
	BadMask  uint32 `toml:"bad_mask"`
	BadValue uint32 `toml:"bad_value"`
	// Pipeline is the number of output pipeline stages. It adds latency
	// without changing behavior.
	Pipeline int `toml:"pipeline"`
	// FramePause makes pause requests take effect between frames only.
	FramePause bool `toml:"frame_pause"`

	// Log receives drop events. Nil disables logging.
	Log *zerolog.Logger `toml:"-"`
}

// Validate checks the configuration for unsupported combinations.
//
func (c *FIFOConfig) Validate() error {
	switch {
	case c.Depth <= 0:
		return errors.Errorf("invalid FIFO depth %d", c.Depth)
	case c.InWidth < 0 || c.OutWidth < 0:
		return errors.New("negative FIFO width")
	case c.Pipeline < 0:
		return errors.New("negative pipeline depth")
	case c.DropOversizeFrame && !c.FrameMode:
		return errors.New("DropOversizeFrame requires FrameMode")
	case c.DropBadFrame && !(c.FrameMode && c.DropOversizeFrame):
		return errors.New("DropBadFrame requires FrameMode and DropOversizeFrame")
	case c.DropWhenFull && !(c.FrameMode && c.DropOversizeFrame):
		return errors.New("DropWhenFull requires FrameMode and DropOversizeFrame")
	case c.MarkWhenFull && c.FrameMode:
		return errors.New("MarkWhenFull is not supported in FrameMode")
	case (c.DropBadFrame || c.MarkWhenFull) && c.BadMask == 0:
		return errors.New("BadMask must not be 0")
	}
	return nil
}

func (c *FIFOConfig) logger() zerolog.Logger {
	if c.Log == nil {
		return zerolog.Nop()
	}
	return *c.Log
}

func width(w int) int {
	if w <= 0 {
		return 1
	}
	return w
}

func cost(b *ethsim.Beat) int {
	if len(b.Data) == 0 {
		return 1
	}
	return len(b.Data)
}

type entry struct {
	ethsim.Beat
	off int // bytes already read
}

// events are the status pulses of a fifo.
type events struct {
	overflow bool
	bad      bool
	good     bool
	marked   bool
}

// fifo is the buffer shared by the FIFO part and Queue.
type fifo struct {
	cfg      FIFOConfig
	log      zerolog.Logger
	q        []entry
	commit   int  // number of entries in q visible to the reader
	occ      int  // bytes stored
	frameOcc int  // bytes of the frame being written
	drop     bool // discarding the rest of the current frame
	partial  bool // some of the current frame has been stored (plain mode)
	cut      bool // current frame is forwarded cut-through
	ev       events
}

func newFIFO(cfg FIFOConfig) *fifo {
	return &fifo{cfg: cfg, log: cfg.logger()}
}

func (f *fifo) reset() {
	*f = fifo{cfg: f.cfg, log: f.log}
}

func (f *fifo) free() int {
	return f.cfg.Depth - f.occ
}

func (f *fifo) push(b ethsim.Beat) {
	f.q = append(f.q, entry{Beat: b})
	f.occ += cost(&b)
}

func (f *fifo) rollback() {
	f.q = f.q[:f.commit]
	f.occ -= f.frameOcc
	f.frameOcc = 0
}

// write stores a beat. It returns false if the beat cannot be accepted yet, in
// which case the caller must retry later with the same beat.
func (f *fifo) write(b ethsim.Beat) bool {
	if f.drop {
		f.drop = !b.Last
		return true
	}
	n := cost(&b)

	if !f.cfg.FrameMode {
		// keep room for the marker of a partially stored frame.
		reserve := 0
		if f.cfg.MarkWhenFull && !b.Last {
			reserve = 1
		}
		if n > f.free()-reserve {
			if !f.cfg.MarkWhenFull {
				return false
			}
			f.ev.overflow = true
			if f.partial {
				f.push(ethsim.Beat{Last: true, ID: b.ID, Dest: b.Dest, User: f.cfg.BadValue})
				f.commit = len(f.q)
				f.ev.marked = true
				f.log.Debug().Uint32("id", b.ID).Msg("frame truncated and marked bad")
			}
			f.partial = false
			f.drop = !b.Last
			return true
		}
		f.push(b)
		f.commit = len(f.q)
		f.partial = !b.Last
		f.ev.good = b.Last
		return true
	}

	if n > f.free() {
		if !f.cut && f.frameOcc+n > f.cfg.Depth {
			if f.cfg.DropOversizeFrame {
				f.dropFrame(b, "oversize frame dropped")
				return true
			}
			// can never fit, forward what we have.
			f.cut = true
			f.commit = len(f.q)
			f.frameOcc = 0
		}
		if f.cfg.DropWhenFull && !f.cut {
			f.dropFrame(b, "frame dropped, FIFO full")
			return true
		}
		if n > f.free() {
			return false
		}
	}
	f.push(b)
	if f.cut {
		f.commit = len(f.q)
	} else {
		f.frameOcc += n
	}
	if !b.Last {
		return true
	}
	if !f.cut && f.cfg.DropBadFrame && b.User&f.cfg.BadMask == f.cfg.BadValue {
		f.rollback()
		f.ev.bad = true
		f.log.Debug().Uint32("id", b.ID).Msg("bad frame dropped")
		return true
	}
	f.commit = len(f.q)
	f.frameOcc = 0
	f.cut = false
	f.ev.good = true
	return true
}

func (f *fifo) dropFrame(b ethsim.Beat, msg string) {
	f.rollback()
	f.ev.overflow = true
	f.drop = !b.Last
	f.log.Debug().Uint32("id", b.ID).Int("depth", f.occ).Msg(msg)
}

// read returns the next egress beat: up to OutWidth bytes, stopping at the end
// of a frame. If consume is true, the data is removed from the fifo.
func (f *fifo) read(consume bool) (ethsim.Beat, bool) {
	w := width(f.cfg.OutWidth)
	var out ethsim.Beat
	data := make([]byte, 0, w)
	n, off := 0, 0 // entries fully read, read offset in the next one
	for n < f.commit {
		e := &f.q[n]
		if n == 0 {
			out.ID, out.Dest = e.ID, e.Dest
		}
		if room := w - len(data); len(e.Data)-e.off > room {
			data = append(data, e.Data[e.off:e.off+room]...)
			off = e.off + room
			break
		}
		// user bits go out with the last byte of the entry
		data = append(data, e.Data[e.off:]...)
		out.User |= e.User
		n++
		if e.Last {
			out.Last = true
			break
		}
		if len(data) == w {
			break
		}
	}
	if !out.Last && len(data) < w {
		return ethsim.Beat{}, false
	}
	out.Data = data
	if consume {
		released := len(data)
		for k := 0; k < n; k++ {
			if len(f.q[k].Data) == 0 {
				released++
			}
		}
		f.q = f.q[n:]
		f.commit -= n
		if off > 0 {
			f.q[0].off = off
		}
		f.occ -= released
	}
	return out, true
}

// hasFrame returns true if a complete frame is visible to the reader.
func (f *fifo) hasFrame() bool {
	for i := 0; i < f.commit; i++ {
		if f.q[i].Last {
			return true
		}
	}
	return false
}
