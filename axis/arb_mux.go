// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package axis

import (
	"math/bits"
	"strconv"

	"github.com/db47h/ethsim"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ArbMuxConfig configures an arbitrated multiplexer.
//
type ArbMuxConfig struct {
	Ports           int  `toml:"ports"`
	RoundRobin      bool `toml:"round_robin"`
	MSBHighPriority bool `toml:"msb_high_priority"`
	// UpdateID prefixes output IDs with the input port number:
	// id = port<<IDWidth | id&(1<<IDWidth-1)
	UpdateID bool `toml:"update_id"`
	IDWidth  uint `toml:"id_width"`

	// Log receives grant events at trace level. Nil disables logging.
	Log *zerolog.Logger `toml:"-"`
}

// Validate checks the configuration.
//
func (c *ArbMuxConfig) Validate() error {
	if c.Ports < 1 || c.Ports > 64 {
		return errors.Errorf("invalid port count %d", c.Ports)
	}
	if c.UpdateID && c.IDWidth+uint(bits.Len(uint(c.Ports-1))) > 32 {
		return errors.Errorf("id width %d too large for %d ports", c.IDWidth, c.Ports)
	}
	return nil
}

// ArbMux returns an arbitrated multiplexer part. Frames are forwarded whole: a
// port keeps the grant until the last beat of its frame has been transferred.
// It panics if the configuration is invalid.
//
//	Slaves: s_axis[Ports]
//	Masters: m_axis
//
func ArbMux(cfg ArbMuxConfig) ethsim.NewPartFn {
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	log := zerolog.Nop()
	if cfg.Log != nil {
		log = *cfg.Log
	}
	idMask := uint32(1)<<cfg.IDWidth - 1
	return (&ethsim.PartSpec{
		Name:    "ArbMux",
		Slaves:  ethsim.IO("s_axis[" + strconv.Itoa(cfg.Ports) + "]"),
		Masters: ethsim.IO("m_axis"),
		Mount: func(s *ethsim.Socket) []ethsim.Component {
			ins, out, rst := s.Links("s_axis"), s.Link("m_axis"), s.Reset()
			arb := &Arbiter{Ports: cfg.Ports, RoundRobin: cfg.RoundRobin, MSBHighPriority: cfg.MSBHighPriority}
			// two entries per port keep full throughput with a registered ready.
			bufs := make([][]ethsim.Beat, cfg.Ports)
			cur := 0
			return []ethsim.Component{func(c *ethsim.Circuit) {
				if c.Get(rst) {
					arb.Reset()
					for i, l := range ins {
						bufs[i] = bufs[i][:0]
						c.SetReady(l, false)
					}
					c.Idle(out)
					return
				}

				if c.Fire(out) {
					bufs[cur] = bufs[cur][1:]
					if c.Beat(out).Last {
						arb.Release()
					}
				}
				for i, l := range ins {
					if c.Fire(l) {
						bufs[i] = append(bufs[i], c.Beat(l))
					}
				}

				if !c.Free(out) {
					c.Hold(out)
				} else {
					var req uint64
					for i := range bufs {
						if len(bufs[i]) > 0 {
							req |= 1 << uint(i)
						}
					}
					_, held := arb.Granted()
					p, ok := arb.Grant(req)
					if ok && !held {
						log.Trace().Int("port", p).Uint64("step", c.Steps()).Msg("grant")
					}
					if ok && len(bufs[p]) > 0 {
						b := bufs[p][0]
						if cfg.UpdateID {
							b.ID = uint32(p)<<cfg.IDWidth | b.ID&idMask
						}
						cur = p
						c.Send(out, b)
					} else {
						c.Idle(out)
					}
				}

				for i, l := range ins {
					c.SetReady(l, len(bufs[i]) <= 1)
				}
			}}
		}}).NewPart
}
