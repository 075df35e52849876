package axis_test

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"
	"testing/quick"

	hw "github.com/db47h/ethsim"
	"github.com/db47h/ethsim/axis"
)

func TestArbiter_fixed(t *testing.T) {
	a := &axis.Arbiter{Ports: 4}
	if _, ok := a.Grant(0); ok {
		t.Fatal("granted without request")
	}
	for i := 0; i < 3; i++ {
		if p, ok := a.Grant(0xa); !ok || p != 1 {
			t.Fatalf("got port %d, expected 1", p)
		}
		a.Release()
	}
	// held
	a.Grant(0x8)
	if p, _ := a.Grant(0x1); p != 3 {
		t.Fatalf("grant not held: got port %d, expected 3", p)
	}

	a = &axis.Arbiter{Ports: 4, MSBHighPriority: true}
	if p, _ := a.Grant(0x3); p != 1 {
		t.Fatalf("got port %d, expected 1", p)
	}
}

func TestArbiter_roundRobin(t *testing.T) {
	data := []struct {
		msb  bool
		want []int
	}{
		{false, []int{0, 1, 2, 3, 0, 1}},
		{true, []int{3, 2, 1, 0, 3, 2}},
	}
	for _, d := range data {
		a := &axis.Arbiter{Ports: 4, RoundRobin: true, MSBHighPriority: d.msb}
		for i, w := range d.want {
			p, _ := a.Grant(0xf)
			a.Release()
			if p != w {
				t.Errorf("msb %v, grant %d: got port %d, expected %d", d.msb, i, p, w)
			}
		}
	}
}

// every requesting port is granted within Ports decisions.
func TestArbiter_fairness(t *testing.T) {
	f := func(ports uint8, req uint64, skip uint8, msb bool) bool {
		n := int(ports%64) + 1
		req &= 1<<uint(n) - 1
		if req == 0 {
			req = 1
		}
		a := &axis.Arbiter{Ports: n, RoundRobin: true, MSBHighPriority: msb}
		for i := 0; i < int(skip); i++ {
			a.Grant(req)
			a.Release()
		}
		var seen uint64
		for i := 0; i < n; i++ {
			p, ok := a.Grant(req)
			if !ok {
				return false
			}
			seen |= 1 << uint(p)
			a.Release()
		}
		return seen == req
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}

type muxBench struct {
	c    *hw.Circuit
	srcs []*axis.Source
	snk  *axis.Sink
}

func newMuxBench(t *testing.T, cfg axis.ArbMuxConfig, width int) *muxBench {
	t.Helper()
	b := &muxBench{snk: axis.NewSink()}
	parts := hw.Parts{
		axis.ArbMux(cfg)(fmt.Sprintf("s_axis[0..%d]=in[0..%d], m_axis=out", cfg.Ports-1, cfg.Ports-1)),
		b.snk.Part("s_axis=out"),
	}
	for i := 0; i < cfg.Ports; i++ {
		src := axis.NewSource(width)
		b.srcs = append(b.srcs, src)
		parts = append(parts, src.Part(fmt.Sprintf("m_axis=in[%d]", i)))
	}
	c, err := hw.NewCircuit(0, parts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Dispose)
	c.Reset()
	b.c = c
	return b
}

func (b *muxBench) recvAll() []axis.Frame {
	var fs []axis.Frame
	for {
		f, ok := b.snk.Recv()
		if !ok {
			return fs
		}
		fs = append(fs, f)
	}
}

func closed(ch chan struct{}) func() bool {
	return func() bool {
		select {
		case <-ch:
			return true
		default:
			return false
		}
	}
}

func TestArbMux_roundRobin(t *testing.T) {
	b := newMuxBench(t, axis.ArbMuxConfig{Ports: 4, RoundRobin: true, UpdateID: true, IDWidth: 8}, 4)
	fs := testFrames(16, 64, 64, 64, 16)
	for i := range fs {
		fs[i].Dest = 0
	}
	fs[1].Done = make(chan struct{})
	b.srcs[0].Send(fs[0])
	b.srcs[1].Send(fs[1])
	b.srcs[1].Send(fs[2])
	b.srcs[1].Send(fs[3])
	if err := b.c.RunUntil(closed(fs[1].Done), 1000); err != nil {
		t.Fatal(err)
	}
	b.c.Run(8)
	b.srcs[0].Send(fs[4])
	if err := b.c.RunUntil(func() bool { return b.snk.Count() == 5 }, 1000); err != nil {
		t.Fatal(err)
	}

	got := b.recvAll()
	order := []uint32{0, 1, 2, 4, 3}
	ports := []uint32{0, 1, 1, 0, 1}
	for i, f := range got {
		if f.ID&0xff != order[i] || f.ID>>8 != ports[i] {
			t.Errorf("frame %d: got id %#x, expected frame %d from port %d", i, f.ID, order[i], ports[i])
		}
		if !bytes.Equal(f.Data, fs[order[i]].Data) {
			t.Errorf("frame %d: data mismatch", i)
		}
	}
}

func TestArbMux_priority(t *testing.T) {
	for _, msb := range []bool{false, true} {
		b := newMuxBench(t, axis.ArbMuxConfig{Ports: 3, MSBHighPriority: msb, UpdateID: true}, 2)
		for i := 0; i < 3; i++ {
			b.srcs[0].Send(axis.Frame{Data: axis.IncrementingPayload(10)})
			b.srcs[2].Send(axis.Frame{Data: axis.IncrementingPayload(10)})
		}
		if err := b.c.RunUntil(func() bool { return b.snk.Count() == 6 }, 1000); err != nil {
			t.Fatal(err)
		}
		want := []uint32{0, 0, 0, 2, 2, 2}
		if msb {
			want = []uint32{2, 2, 2, 0, 0, 0}
		}
		for i, f := range b.recvAll() {
			if f.ID != want[i] {
				t.Errorf("msb %v: frame %d: got port %d, expected %d", msb, i, f.ID, want[i])
			}
		}
	}
}

func TestArbMux_throughput(t *testing.T) {
	const n = 100
	b := newMuxBench(t, axis.ArbMuxConfig{Ports: 2, RoundRobin: true}, 1)
	start := b.c.Steps()
	b.srcs[1].Send(axis.Frame{Data: axis.IncrementingPayload(n)})
	if err := b.c.RunUntil(func() bool { return b.snk.Count() == 1 }, n+10); err != nil {
		t.Fatal(err)
	}
	if d := b.c.Steps() - start; d > n+4 {
		t.Errorf("took %d steps for %d beats", d, n)
	}
}

// frames are never interleaved and arrive in per port order with random
// traffic and backpressure.
func TestArbMux_atomicity(t *testing.T) {
	const (
		ports  = 4
		frames = 25
	)
	rnd := rand.New(rand.NewSource(1))
	b := newMuxBench(t, axis.ArbMuxConfig{Ports: ports, RoundRobin: true, UpdateID: true, IDWidth: 8}, 3)
	sent := make([][]axis.Frame, ports)
	for p := 0; p < ports; p++ {
		for i := 0; i < frames; i++ {
			f := axis.Frame{Data: make([]byte, rnd.Intn(40)), ID: uint32(i)}
			rnd.Read(f.Data)
			if i%7 == 3 {
				f.User = 1
			}
			sent[p] = append(sent[p], f)
			b.srcs[p].Send(f)
		}
		pat := make([]bool, p+2)
		pat[0] = true
		b.srcs[p].SetPauseGenerator(axis.CyclePause(pat...))
	}
	b.snk.SetPauseGenerator(axis.CyclePause(false, false, false, true))
	if err := b.c.RunUntil(func() bool { return b.snk.Count() == ports*frames }, 20000); err != nil {
		t.Fatal(err)
	}

	next := make([]int, ports)
	for i, f := range b.recvAll() {
		p := int(f.ID >> 8)
		if p >= ports {
			t.Fatalf("frame %d: bad port %d", i, p)
		}
		w := &sent[p][next[p]]
		if f.ID&0xff != w.ID || !bytes.Equal(f.Data, w.Data) || f.User != w.User {
			t.Fatalf("frame %d from port %d: got id %d, expected frame %d", i, p, f.ID&0xff, w.ID)
		}
		next[p]++
	}
}

func TestArbMuxConfig_Validate(t *testing.T) {
	data := []struct {
		cfg axis.ArbMuxConfig
		ok  bool
	}{
		{axis.ArbMuxConfig{Ports: 1}, true},
		{axis.ArbMuxConfig{Ports: 0}, false},
		{axis.ArbMuxConfig{Ports: 65}, false},
		{axis.ArbMuxConfig{Ports: 4, UpdateID: true, IDWidth: 30}, true},
		{axis.ArbMuxConfig{Ports: 4, UpdateID: true, IDWidth: 31}, false},
	}
	for i, d := range data {
		if err := d.cfg.Validate(); (err == nil) != d.ok {
			t.Errorf("%d: got error %v", i, err)
		}
	}
}
