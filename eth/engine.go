// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package eth

import (
	"encoding/binary"
	"math"

	"github.com/db47h/ethsim"
	"github.com/db47h/ethsim/lfsr"
	"github.com/rs/zerolog"
)

// TxOptions holds the static parameters of a transmitter.
//
type TxOptions struct {
	// MinFrameLen is the minimum frame length including FCS. Shorter frames
	// are zero padded. 0 means 64.
	MinFrameLen int `toml:"min_frame_len"`
	// NoPadding disables padding.
	NoPadding bool `toml:"no_padding"`
	// UserErrorMask selects the bits of the user sideband of the last input
	// beat that flag a frame as bad. 0 means 1.
	UserErrorMask uint32 `toml:"user_error_mask"`
	// DIC enables the deficit idle count on XGMII.
	DIC bool `toml:"dic"`

	// Log receives frame errors at debug level. Nil disables logging.
	Log *zerolog.Logger `toml:"-"`
}

func (o *TxOptions) minPayload() int {
	if o.NoPadding {
		return 0
	}
	if o.MinFrameLen <= 0 {
		return MinPayload
	}
	if o.MinFrameLen < FCSLen {
		return 0
	}
	return o.MinFrameLen - FCSLen
}

func (o *TxOptions) userMask() uint32 {
	if o.UserErrorMask == 0 {
		return 1
	}
	return o.UserErrorMask
}

func (o *TxOptions) logger() zerolog.Logger {
	if o.Log == nil {
		return zerolog.Nop()
	}
	return *o.Log
}

// input results
const (
	inNone = iota // no data available
	inByte
	inLast // byte and end of frame
	inEnd  // end of frame, no byte
)

// inbuf buffers input beats.
type inbuf struct {
	beats []ethsim.Beat
	off   int
	n     int // bytes buffered
}

func (b *inbuf) push(bt ethsim.Beat) {
	b.beats = append(b.beats, bt)
	b.n += len(bt.Data)
}

func (b *inbuf) empty() bool { return len(b.beats) == 0 }

func (b *inbuf) reset() { *b = inbuf{} }

// head returns the first beat.
func (b *inbuf) head() *ethsim.Beat { return &b.beats[0] }

func (b *inbuf) pop() {
	b.beats = b.beats[1:]
	b.off = 0
}

// take returns the next input byte.
func (b *inbuf) take() (byte, int, uint32) {
	for len(b.beats) > 0 {
		h := b.head()
		if b.off < len(h.Data) {
			v := h.Data[b.off]
			b.off++
			b.n--
			if b.off < len(h.Data) {
				return v, inByte, 0
			}
			last, user := h.Last, h.User
			b.pop()
			if last {
				return v, inLast, user
			}
			return v, inByte, 0
		}
		last, user := h.Last, h.User
		b.pop()
		if last {
			return 0, inEnd, user
		}
	}
	return 0, inNone, 0
}

// drop discards buffered data up to the end of the current frame. It returns
// true once the end of the frame has been discarded.
func (b *inbuf) drop() bool {
	for len(b.beats) > 0 {
		h := b.head()
		b.n -= len(h.Data) - b.off
		last := h.Last
		b.pop()
		if last {
			return true
		}
	}
	return false
}

// transmit states
const (
	stIdle = iota
	stPreamble
	stPayload
	stPad
	stFCS
	stTerm
)

// symbol kinds
const (
	symIdle  = iota
	symStart // first preamble byte
	symData
	symError
	symTerm // first idle after a frame
)

type symbol struct {
	kind int
	data byte
}

// frame status flags
const (
	errOversize = 1 << iota
	errUser
	errUnderflow
)

// txStats are the per cycle statistics pulses of a transmitter.
type txStats struct {
	start    bool
	bytes    int
	pktLen   int
	class    Class
	good     bool
	bad      bool
	oversize bool
	user     bool
	underrun bool
}

// engine is the byte oriented transmit state machine shared by the GMII and
// XGMII transmitters. Each call to next produces the symbol for one byte time.
type engine struct {
	opts TxOptions
	log  zerolog.Logger
	min  int

	in       inbuf
	draining bool

	// configuration, sampled every cycle
	enable bool
	maxLen int // including FCS, 0 for no limit
	ifg    int
	ts     uint64

	state   int
	pos     int // position in preamble or FCS
	n       int // frame bytes sent, excluding preamble
	hdr     [HeaderLen]byte
	crc     *lfsr.Digest
	fcs     [FCSLen]byte
	err     int
	id      uint32
	frameTS uint64
	t       uint64 // byte time counter
	tTerm   uint64 // byte time of the last terminate symbol

	st  txStats
	cpl []ethsim.Beat // pending completion records
}

func newEngine(opts TxOptions) *engine {
	e := &engine{opts: opts, log: opts.logger(), min: opts.minPayload(), crc: lfsr.NewCRC32()}
	e.reset()
	return e
}

func (e *engine) reset() {
	e.in.reset()
	e.draining = false
	e.state = stIdle
	e.st = txStats{}
	e.cpl = e.cpl[:0]
	e.t = 0
	e.tTerm = 0
}

// gap returns the length of the inter-frame gap if a frame were started in the
// next byte time, terminate symbol included. It is large if no frame has been
// sent yet.
func (e *engine) gap() int {
	if e.tTerm == 0 {
		return math.MaxInt32
	}
	return int(e.t + 1 - e.tTerm)
}

// ready returns true if a frame can be started.
func (e *engine) ready() bool {
	return e.state == stIdle && e.enable && !e.draining && !e.in.empty()
}

// flush discards the remainder of an aborted frame.
func (e *engine) flush() {
	if e.draining && e.in.drop() {
		e.draining = false
	}
}

func (e *engine) frameByte(b byte) {
	if e.n < HeaderLen {
		e.hdr[e.n] = b
	}
	e.n++
	e.st.bytes++
}

// abort ends the current frame with an error symbol. If ended is false, the
// rest of the input frame is discarded.
func (e *engine) abort(flag int, ended bool, msg string) symbol {
	e.err |= flag
	e.draining = !ended
	e.flush()
	e.st.bytes++
	e.n++
	e.state = stTerm
	e.log.Debug().Uint32("id", e.id).Int("len", e.n).Msg(msg)
	return symbol{kind: symError}
}

// next returns the symbol for the next byte time. If start is false, a new
// frame cannot be started during this byte time.
func (e *engine) next(start bool) symbol {
	e.t++
	for {
		switch e.state {
		case stIdle:
			if !start || !e.ready() {
				return symbol{kind: symIdle}
			}
			e.state, e.pos = stPreamble, 1
			e.n, e.err, e.hdr = 0, 0, [HeaderLen]byte{}
			e.id = e.in.head().ID
			e.crc.Reset()
			return symbol{kind: symStart, data: PreambleByte}

		case stPreamble:
			if e.pos < PreambleLen-1 {
				e.pos++
				return symbol{kind: symData, data: PreambleByte}
			}
			e.state = stPayload
			e.st.start = true
			e.frameTS = e.ts
			return symbol{kind: symData, data: SFD}

		case stPayload:
			b, st, user := e.in.take()
			if st == inNone {
				return e.abort(errUnderflow, false, "transmit underrun")
			}
			if st != inEnd && e.maxLen > FCSLen && e.n >= e.maxLen-FCSLen {
				return e.abort(errOversize, st == inLast, "oversize frame truncated")
			}
			if st != inByte {
				if user&e.opts.userMask() != 0 {
					e.err |= errUser
				}
				e.state = stPad
				if st == inEnd {
					continue
				}
			}
			e.crc.Write([]byte{b})
			e.frameByte(b)
			return symbol{kind: symData, data: b}

		case stPad:
			if e.n < e.min {
				e.crc.Write([]byte{0})
				e.frameByte(0)
				return symbol{kind: symData}
			}
			e.state, e.pos = stFCS, 0
			binary.LittleEndian.PutUint32(e.fcs[:], e.crc.Sum32())

		case stFCS:
			b := e.fcs[e.pos]
			e.pos++
			e.frameByte(b)
			if e.pos < FCSLen {
				return symbol{kind: symData, data: b}
			}
			e.state = stTerm
			if e.err&errUser != 0 {
				e.log.Debug().Uint32("id", e.id).Msg("frame marked bad by user")
				return symbol{kind: symError, data: b}
			}
			return symbol{kind: symData, data: b}

		case stTerm:
			e.end()
			return symbol{kind: symTerm}
		}
	}
}

// end closes the current frame.
func (e *engine) end() {
	e.state = stIdle
	e.tTerm = e.t
	e.st.pktLen = e.n
	e.st.class = Classify(e.hdr[:])
	bad := e.err != 0
	e.st.good, e.st.bad = !bad, bad
	e.st.oversize = e.err&errOversize != 0
	e.st.user = e.err&errUser != 0
	e.st.underrun = e.err&errUnderflow != 0
	var ts [8]byte
	binary.LittleEndian.PutUint64(ts[:], e.frameTS)
	var u uint32
	if bad {
		u = 1
	}
	e.cpl = append(e.cpl, ethsim.Beat{Data: ts[:], Last: true, ID: e.id, User: u})
}
