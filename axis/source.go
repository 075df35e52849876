package axis

import (
	"github.com/db47h/ethsim"
	"github.com/db47h/ethsim/internal/syncutil"
)

// Source is a stream master model. Frames queued with Send are transmitted in
// order, width bytes per beat. It is safe to call its methods from another
// goroutine between simulation steps.
//
type Source struct {
	mu       syncutil.Mutex
	width    int
	queue    []Frame
	beats    []ethsim.Beat
	done     chan struct{} // Done of the frame whose last beat is presented
	busy     bool
	pause    bool
	pauseGen func() bool
	count    int
}

// NewSource returns a new Source sending width bytes per beat. A width of 0
// sends whole frames in a single beat.
//
func NewSource(width int) *Source {
	return &Source{width: width}
}

// Send queues frame f for transmission.
//
func (s *Source) Send(f Frame) {
	s.mu.Lock()
	s.queue = append(s.queue, f)
	s.mu.Unlock()
}

// SetPause pauses or resumes the source. A paused source deasserts valid
// between beats.
//
func (s *Source) SetPause(p bool) {
	s.mu.Lock()
	s.pause = p
	s.mu.Unlock()
}

// SetPauseGenerator sets a function called once per step that pauses the
// source when it returns true. A nil generator restores the SetPause state.
//
func (s *Source) SetPauseGenerator(g func() bool) {
	s.mu.Lock()
	s.pauseGen = g
	s.mu.Unlock()
}

// Idle returns true if all queued frames have been transferred.
//
func (s *Source) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue) == 0 && len(s.beats) == 0 && !s.busy
}

// Count returns the number of frames fully transferred.
//
func (s *Source) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Part returns a part for the source.
//
//	Masters: m_axis
//
func (s *Source) Part(conns string) ethsim.Part {
	return (&ethsim.PartSpec{
		Name:    "Source",
		Masters: []string{"m_axis"},
		Mount: func(sock *ethsim.Socket) []ethsim.Component {
			out, rst := sock.Link("m_axis"), sock.Reset()
			return []ethsim.Component{func(c *ethsim.Circuit) { s.update(c, out, rst) }}
		}}).NewPart(conns)
}

func (s *Source) update(c *ethsim.Circuit, out, rst int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	paused := s.pause
	if s.pauseGen != nil {
		paused = s.pauseGen()
	}
	if c.Get(rst) {
		s.queue, s.beats, s.done, s.busy = nil, nil, nil, false
		c.Idle(out)
		return
	}
	if c.Fire(out) && c.Beat(out).Last {
		if s.done != nil {
			close(s.done)
			s.done = nil
		}
		s.busy = false
		s.count++
	}
	if !c.Free(out) {
		c.Hold(out)
		return
	}
	if len(s.beats) == 0 && len(s.queue) > 0 {
		f := s.queue[0]
		s.queue = s.queue[1:]
		s.beats = f.Split(s.width)
		s.done = f.Done
	}
	if paused || len(s.beats) == 0 {
		c.Idle(out)
		return
	}
	b := s.beats[0]
	s.beats = s.beats[1:]
	s.busy = b.Last
	c.Send(out, b)
}
