package lfsr

import (
	"github.com/db47h/ethsim"
	"github.com/db47h/ethsim/hwlib"
)

type prbsGen struct {
	Out   int `hw:"master,m_axis"`
	Pause int `hw:"in"`
	Rst   int `hw:"reset"`

	poly     LFSR
	lanes    int
	frameLen int
	gen      *PRBS
	pos      int
}

func (g *prbsGen) Update(c *ethsim.Circuit) {
	if c.Get(g.Rst) {
		g.gen, g.pos = nil, 0
		c.Idle(g.Out)
		return
	}
	if !c.Free(g.Out) {
		c.Hold(g.Out)
		return
	}
	if c.Get(g.Pause) {
		c.Idle(g.Out)
		return
	}
	if g.gen == nil {
		g.gen = NewPRBS(g.poly)
	}
	d := make([]byte, g.lanes)
	g.gen.Read(d)
	last := false
	if g.frameLen > 0 {
		g.pos += len(d)
		if g.pos >= g.frameLen {
			last, g.pos = true, 0
		}
	}
	c.Send(g.Out, ethsim.Beat{Data: d, Last: last})
}

// PRBSGen returns a stream source of PRBS data, lanes bytes per beat. If
// frameLen is not 0, last is asserted every frameLen bytes (rounded up to a
// whole beat).
//
//	Inputs: pause
//	Masters: m_axis
//
func PRBSGen(l LFSR, lanes, frameLen int) ethsim.NewPartFn {
	sp := ethsim.MakePart(&prbsGen{poly: l, lanes: lanes, frameLen: frameLen})
	sp.Name = "PRBSGen"
	return sp.NewPart
}

type prbsCheck struct {
	In     int     `hw:"slave,s_axis"`
	Errors [32]int `hw:"out,err_count"`
	Rst    int     `hw:"reset"`

	poly LFSR
	chk  *PRBSChecker
}

func (p *prbsCheck) Update(c *ethsim.Circuit) {
	if p.chk == nil || c.Get(p.Rst) {
		p.chk = NewPRBSChecker(p.poly)
	} else if c.Fire(p.In) {
		p.chk.Write(c.Beat(p.In).Data)
	}
	c.SetReady(p.In, !c.Get(p.Rst))
	hwlib.SetInt64(c, p.Errors[:], int64(p.chk.Errors))
}

// PRBSCheck returns a stream sink that checks PRBS data and outputs the bit
// error count.
//
//	Slaves: s_axis
//	Outputs: err_count[32]
//
func PRBSCheck(l LFSR) ethsim.NewPartFn {
	sp := ethsim.MakePart(&prbsCheck{poly: l})
	sp.Name = "PRBSCheck"
	return sp.NewPart
}
