// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package axis

import (
	"context"

	"github.com/db47h/ethsim"
	"github.com/db47h/ethsim/internal/syncutil"
	"github.com/pkg/errors"
)

// Errors returned by Queue.Enqueue. Use errors.Cause to compare.
//
var (
	// ErrDropped is returned when a frame is dropped by the queue policy.
	ErrDropped = errors.New("frame dropped")
	// ErrMarked is returned when a frame has been truncated and marked bad.
	ErrMarked = errors.New("frame truncated and marked bad")
	// ErrOversize is returned when a frame can never fit in a queue with no
	// drop policy.
	ErrOversize = errors.New("frame larger than queue depth")
)

// QueueStats holds frame counters of a Queue.
//
type QueueStats struct {
	Enqueued uint64 // frames stored
	Dequeued uint64
	Dropped  uint64 // dropped for lack of space or oversize
	Bad      uint64 // dropped as bad
	Marked   uint64 // truncated and marked bad
}

// Queue is a frame level FIFO sharing the buffer model of the FIFO part. It is
// safe for concurrent use.
//
type Queue struct {
	mu     syncutil.Mutex
	f      *fifo
	space  chan struct{} // closed when space is released
	paused bool
	stats  QueueStats
}

// NewQueue returns a new Queue.
//
func NewQueue(cfg FIFOConfig) (*Queue, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid queue configuration")
	}
	return &Queue{f: newFIFO(cfg), space: make(chan struct{})}, nil
}

func (q *Queue) blocking() bool {
	return !q.f.cfg.DropWhenFull && !q.f.cfg.MarkWhenFull
}

// Enqueue stores frame fr.
//
// With DropWhenFull or MarkWhenFull, Enqueue never blocks and returns ErrDropped
// or ErrMarked when the frame did not fit. Otherwise it blocks until there is
// enough room for the whole frame or ctx is done. ErrDropped is also returned
// for oversize frames with DropOversizeFrame and for bad frames with
// DropBadFrame.
//
func (q *Queue) Enqueue(ctx context.Context, fr Frame) error {
	beats := fr.Split(width(q.f.cfg.InWidth))
	n := 0
	for i := range beats {
		n += cost(&beats[i])
	}
	for {
		q.mu.Lock()
		if !q.blocking() || n <= q.f.free() {
			break
		}
		if n > q.f.cfg.Depth {
			defer q.mu.Unlock()
			if !q.f.cfg.DropOversizeFrame {
				return errors.Wrapf(ErrOversize, "%d bytes", n)
			}
			q.stats.Dropped++
			return ErrDropped
		}
		ch := q.space
		q.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	defer q.mu.Unlock()

	q.f.ev = events{}
	for _, b := range beats {
		if !q.f.write(b) {
			// cannot happen: the whole frame fits.
			panic("queue write blocked")
		}
	}
	switch ev := q.f.ev; {
	case ev.bad:
		q.stats.Bad++
		return ErrDropped
	case ev.marked:
		q.stats.Marked++
		return ErrMarked
	case ev.overflow:
		q.stats.Dropped++
		return ErrDropped
	}
	q.stats.Enqueued++
	return nil
}

// Dequeue removes and returns the oldest complete frame. It returns false if
// there is none or if the queue is paused.
//
func (q *Queue) Dequeue() (Frame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.paused || !q.f.hasFrame() {
		return Frame{}, false
	}
	var beats []ethsim.Beat
	for {
		b, ok := q.f.read(true)
		if !ok {
			break
		}
		beats = append(beats, b)
		if b.Last {
			break
		}
	}
	close(q.space)
	q.space = make(chan struct{})
	q.stats.Dequeued++
	return Join(beats), true
}

// Empty returns true if the queue holds no data or is paused. Use Occupancy
// to check what a paused queue holds.
//
func (q *Queue) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.paused || q.f.occ == 0
}

// Occupancy returns the number of bytes stored.
//
func (q *Queue) Occupancy() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.f.occ
}

// SetPause pauses or resumes dequeuing. A paused queue looks empty to Dequeue.
//
func (q *Queue) SetPause(p bool) {
	q.mu.Lock()
	q.paused = p
	q.mu.Unlock()
}

// Stats returns a snapshot of the queue counters.
//
func (q *Queue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stats
}
