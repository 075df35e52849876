// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwtest provides utility functions for testing circuits.
//
package hwtest

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/db47h/ethsim"
)

// ConnString returns a connection string that connects every port of p to a
// net of the same name.
//
func ConnString(p *ethsim.PartSpec) string {
	var b strings.Builder
	for _, l := range [][]string{p.Inputs, p.Outputs, p.Slaves, p.Masters} {
		for _, n := range l {
			if b.Len() > 0 {
				b.WriteRune(',')
			}
			b.WriteString(n)
			b.WriteRune('=')
			b.WriteString(n)
		}
	}
	return b.String()
}

// stimulus drives random traffic into a part and records its behaviour, one
// line per step.
type stimulus struct {
	seed  int64
	width int
	trace []string
}

func (s *stimulus) part(dut *ethsim.PartSpec) ethsim.Part {
	return (&ethsim.PartSpec{
		Name:    "stimulus",
		Inputs:  dut.Outputs,
		Outputs: dut.Inputs,
		Slaves:  dut.Masters,
		Masters: dut.Slaves,
		Mount: func(sock *ethsim.Socket) []ethsim.Component {
			var (
				ins  = make([]int, len(dut.Outputs))
				outs = make([]int, len(dut.Inputs))
				srcs = make([]int, len(dut.Slaves))
				snks = make([]int, len(dut.Masters))
				gen  = make([]*rand.Rand, len(dut.Slaves))
				cur  = make([]*ethsim.Beat, len(dut.Slaves))
				rnd  = rand.New(rand.NewSource(s.seed))
			)
			for i, n := range dut.Outputs {
				ins[i] = sock.Pin(n)
			}
			for i, n := range dut.Inputs {
				outs[i] = sock.Pin(n)
			}
			for i, n := range dut.Slaves {
				srcs[i] = sock.Link(n)
				gen[i] = rand.New(rand.NewSource(s.seed + int64(i) + 1))
			}
			for i, n := range dut.Masters {
				snks[i] = sock.Link(n)
			}
			return []ethsim.Component{func(c *ethsim.Circuit) {
				var b strings.Builder
				for _, n := range ins {
					if c.Get(n) {
						b.WriteRune('1')
					} else {
						b.WriteRune('0')
					}
				}
				for i, n := range srcs {
					if c.Fire(n) {
						b.WriteString(" >")
						cur[i] = nil
					} else {
						b.WriteString(" .")
					}
				}
				for _, n := range snks {
					if c.Fire(n) {
						fmt.Fprintf(&b, " %v", c.Beat(n))
					} else {
						b.WriteString(" -")
					}
				}
				s.trace = append(s.trace, b.String())

				for _, n := range outs {
					c.Set(n, rnd.Intn(4) == 0)
				}
				for i, n := range srcs {
					valid := rnd.Intn(4) != 0
					if !c.Free(n) {
						c.Hold(n)
						continue
					}
					if cur[i] == nil {
						cur[i] = randBeat(gen[i], s.width)
					}
					if valid {
						c.Send(n, *cur[i])
					} else {
						c.Idle(n)
					}
				}
				for _, n := range snks {
					c.SetReady(n, rnd.Intn(4) != 0)
				}
			}}
		}}).NewPart(ConnString(dut))
}

func randBeat(r *rand.Rand, width int) *ethsim.Beat {
	if width < 1 {
		width = 1
	}
	data := make([]byte, 1+r.Intn(width))
	r.Read(data)
	return &ethsim.Beat{
		Data: data,
		Last: r.Intn(8) == 0,
		ID:   uint32(r.Intn(4)),
		Dest: uint32(r.Intn(4)),
		User: uint32(r.Intn(16) / 15),
	}
}

func run(t *testing.T, s *stimulus, fn ethsim.NewPartFn, steps int) {
	t.Helper()
	dut := fn("")
	c, err := ethsim.NewCircuit(1, s.part(dut.PartSpec), fn(ConnString(dut.PartSpec)))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()
	c.Reset()
	s.trace = s.trace[:0]
	c.Run(steps)
}

// ComparePart takes two stream parts with the same ports and compares their
// behaviour given the same random traffic. Input pins are driven randomly,
// slave ports receive random beats of up to width bytes with random valid
// gaps and master ports see random backpressure. Output pins and stream
// transfers must match at every step.
//
func ComparePart(t *testing.T, steps, width int, part1, part2 ethsim.NewPartFn) {
	t.Helper()

	ps1, ps2 := part1("").PartSpec, part2("").PartSpec
	for _, l := range [][2][]string{
		{ps1.Inputs, ps2.Inputs},
		{ps1.Outputs, ps2.Outputs},
		{ps1.Slaves, ps2.Slaves},
		{ps1.Masters, ps2.Masters},
	} {
		if strings.Join(l[0], ",") != strings.Join(l[1], ",") {
			t.Fatalf("port mismatch: %v != %v", l[0], l[1])
		}
	}

	seed := time.Now().UnixNano()
	s1 := &stimulus{seed: seed, width: width}
	s2 := &stimulus{seed: seed, width: width}
	run(t, s1, part1, steps)
	run(t, s2, part2, steps)

	for i := range s1.trace {
		if i >= len(s2.trace) {
			break
		}
		if s1.trace[i] != s2.trace[i] {
			t.Fatalf("seed %d: step %d:\n%s: %s\n%s: %s", seed, i, ps1.Name, s1.trace[i], ps2.Name, s2.trace[i])
		}
	}
}
