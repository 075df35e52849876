package hwtest_test

import (
	"testing"

	hw "github.com/db47h/ethsim"
	"github.com/db47h/ethsim/axis"
	"github.com/db47h/ethsim/hwtest"
)

// wrap packages a part alone into a chip with the same ports.
func wrap(t *testing.T, fn hw.NewPartFn) hw.NewPartFn {
	t.Helper()
	p := fn("").PartSpec
	w, err := hw.Chip("wrapped_"+p.Name, hw.Ports{
		Inputs:  p.Inputs,
		Outputs: p.Outputs,
		Slaves:  p.Slaves,
		Masters: p.Masters,
	}, hw.Parts{fn(hwtest.ConnString(p))})
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func TestComparePart(t *testing.T) {
	for _, cfg := range []axis.FIFOConfig{
		{Depth: 64, InWidth: 4, OutWidth: 4},
		{Depth: 64, InWidth: 4, OutWidth: 1, FrameMode: true},
		{Depth: 32, InWidth: 2, OutWidth: 2, FrameMode: true, DropOversizeFrame: true, DropBadFrame: true, BadMask: 1, BadValue: 1, Pipeline: 2},
	} {
		fifo := axis.FIFO(cfg)
		hwtest.ComparePart(t, 2000, cfg.InWidth, fifo, wrap(t, fifo))
	}

	mux := axis.ArbMux(axis.ArbMuxConfig{Ports: 3, RoundRobin: true, UpdateID: true, IDWidth: 2})
	hwtest.ComparePart(t, 2000, 4, mux, wrap(t, mux))
}
