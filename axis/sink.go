package axis

import (
	"github.com/db47h/ethsim"
	"github.com/db47h/ethsim/internal/syncutil"
)

// Sink is a stream slave model that reassembles received beats into frames.
// It is safe to call its methods from another goroutine between simulation
// steps.
//
type Sink struct {
	mu       syncutil.Mutex
	frames   []Frame
	beats    []ethsim.Beat
	pause    bool
	pauseGen func() bool
	count    int
}

// NewSink returns a new Sink.
//
func NewSink() *Sink {
	return new(Sink)
}

// Recv returns the oldest received frame. Received frames are discarded on
// reset.
//
func (s *Sink) Recv() (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return Frame{}, false
	}
	f := s.frames[0]
	s.frames = s.frames[1:]
	return f, true
}

// Empty returns true if there are no frames to Recv.
//
func (s *Sink) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames) == 0
}

// Count returns the number of frames received since the last reset.
//
func (s *Sink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Idle returns true if the sink is not in the middle of a frame.
//
func (s *Sink) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.beats) == 0
}

// SetPause deasserts ready while p is true.
//
func (s *Sink) SetPause(p bool) {
	s.mu.Lock()
	s.pause = p
	s.mu.Unlock()
}

// SetPauseGenerator sets a function called once per step that deasserts ready
// when it returns true. A nil generator restores the SetPause state.
//
func (s *Sink) SetPauseGenerator(g func() bool) {
	s.mu.Lock()
	s.pauseGen = g
	s.mu.Unlock()
}

// Part returns a part for the sink.
//
//	Slaves: s_axis
//
func (s *Sink) Part(conns string) ethsim.Part {
	return (&ethsim.PartSpec{
		Name:   "Sink",
		Slaves: []string{"s_axis"},
		Mount: func(sock *ethsim.Socket) []ethsim.Component {
			in, rst := sock.Link("s_axis"), sock.Reset()
			return []ethsim.Component{func(c *ethsim.Circuit) { s.update(c, in, rst) }}
		}}).NewPart(conns)
}

func (s *Sink) update(c *ethsim.Circuit, in, rst int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	paused := s.pause
	if s.pauseGen != nil {
		paused = s.pauseGen()
	}
	if c.Get(rst) {
		s.frames, s.beats, s.count = nil, nil, 0
		c.SetReady(in, false)
		return
	}
	if c.Fire(in) {
		b := c.Beat(in)
		s.beats = append(s.beats, b)
		if b.Last {
			s.frames = append(s.frames, Join(s.beats))
			s.beats = nil
			s.count++
		}
	}
	c.SetReady(in, !paused)
}
