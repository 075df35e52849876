package lfsr_test

import (
	"testing"

	hw "github.com/db47h/ethsim"
	"github.com/db47h/ethsim/hwlib"
	"github.com/db47h/ethsim/lfsr"
)

func TestPRBSParts(t *testing.T) {
	for _, poly := range []lfsr.LFSR{lfsr.PRBS9Poly, lfsr.PRBS31Poly} {
		var errs int64 = -1
		var pause bool
		c, err := hw.NewCircuit(0,
			hwlib.Input(func() bool { return pause })("out=pause"),
			lfsr.PRBSGen(poly, 8, 64)("m_axis=prbs, pause=pause"),
			lfsr.PRBSCheck(poly)("s_axis=prbs, err_count[0..31]=errs[0..31]"),
			hwlib.OutputN(32, func(v int64) { errs = v })("in[0..31]=errs[0..31]"),
		)
		if err != nil {
			t.Fatal(err)
		}
		c.Run(100)
		pause = true
		c.Run(10)
		pause = false
		c.Run(100)
		if errs != 0 {
			t.Errorf("width %d: got %d errors", poly.Width, errs)
		}
		c.Dispose()
	}
}
