package axis_test

import (
	"bytes"
	"fmt"
	"math/bits"
	"testing"

	hw "github.com/db47h/ethsim"
	"github.com/db47h/ethsim/axis"
	"github.com/db47h/ethsim/hwlib"
)

// fifoBench is a Source -> FIFO -> Sink test bench with status probes.
type fifoBench struct {
	c     *hw.Circuit
	src   *axis.Source
	snk   *axis.Sink
	pause bool

	ack      bool
	overflow int
	bad      int
	good     int
	depth    int64
}

func newFIFOBench(t *testing.T, cfg axis.FIFOConfig) *fifoBench {
	t.Helper()
	b := &fifoBench{src: axis.NewSource(cfg.InWidth), snk: axis.NewSink()}
	dw := bits.Len(uint(cfg.Depth))
	count := func(n *int) func(bool) {
		return func(v bool) {
			if v {
				*n++
			}
		}
	}
	c, err := hw.NewCircuit(0,
		b.src.Part("m_axis=in"),
		hwlib.Input(func() bool { return b.pause })("out=pause"),
		axis.FIFO(cfg)(fmt.Sprintf("s_axis=in, m_axis=out, pause_req=pause, pause_ack=ack, "+
			"status_overflow=ovf, status_bad_frame=bad, status_good_frame=good, "+
			"status_depth[0..%d]=depth[0..%d]", dw-1, dw-1)),
		b.snk.Part("s_axis=out"),
		hwlib.Output(func(v bool) { b.ack = v })("in=ack"),
		hwlib.Output(count(&b.overflow))("in=ovf"),
		hwlib.Output(count(&b.bad))("in=bad"),
		hwlib.Output(count(&b.good))("in=good"),
		hwlib.OutputN(dw, func(v int64) { b.depth = v })(fmt.Sprintf("in[0..%d]=depth[0..%d]", dw-1, dw-1)),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Dispose)
	c.Reset()
	b.c = c
	return b
}

// wait runs the bench until the sink has received n frames.
func (b *fifoBench) wait(t *testing.T, n, max int) {
	t.Helper()
	if err := b.c.RunUntil(func() bool { return b.snk.Count() >= n }, max); err != nil {
		t.Fatalf("got %d frames out of %d: %v", b.snk.Count(), n, err)
	}
}

// settle runs the bench until the source is idle, then n more steps.
func (b *fifoBench) settle(t *testing.T, n int) {
	t.Helper()
	if err := b.c.RunUntil(b.src.Idle, 100000); err != nil {
		t.Fatal(err)
	}
	b.c.Run(n)
}

func (b *fifoBench) recvAll() []axis.Frame {
	var fs []axis.Frame
	for {
		f, ok := b.snk.Recv()
		if !ok {
			return fs
		}
		fs = append(fs, f)
	}
}

func testFrames(sizes ...int) []axis.Frame {
	fs := make([]axis.Frame, len(sizes))
	for i, n := range sizes {
		p := axis.IncrementingPayload(n)
		for j := range p {
			p[j] += byte(i)
		}
		fs[i] = axis.Frame{Data: p, ID: uint32(i), Dest: uint32(i) & 3}
	}
	return fs
}

func checkFrames(t *testing.T, got, want []axis.Frame) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d frames, expected %d", len(got), len(want))
	}
	for i := range got {
		g, w := &got[i], &want[i]
		if !bytes.Equal(g.Data, w.Data) {
			t.Errorf("frame %d: data mismatch: got % x, expected % x", i, g.Data, w.Data)
		}
		if g.ID != w.ID || g.Dest != w.Dest || g.User != w.User {
			t.Errorf("frame %d: got id %d dest %d user %d, expected %d %d %d", i, g.ID, g.Dest, g.User, w.ID, w.Dest, w.User)
		}
	}
}
