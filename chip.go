package ethsim

import (
	"github.com/pkg/errors"
)

// Ports lists the external ports of a chip. Use IO() to build each list.
//
type Ports struct {
	Inputs  []string
	Outputs []string
	Slaves  []string
	Masters []string
}

type chip struct {
	PartSpec // PartSpec for this chip
	parts    []Part
	conns    []map[string]string
}

func (c *chip) mount(s *Socket) []Component {
	var updaters []Component

	// internal nets. Chip ports map to the nets of the host socket.
	pins := map[string]int{False: cstFalse, True: cstTrue, Rst: cstRst}
	links := make(map[string]int)
	for _, n := range c.Inputs {
		pins[n] = s.Pin(n)
	}
	for _, n := range c.Outputs {
		pins[n] = s.Pin(n)
	}
	for _, n := range c.Slaves {
		links[n] = s.Link(n)
	}
	for _, n := range c.Masters {
		links[n] = s.Link(n)
	}
	pin := func(name string) int {
		if n, ok := pins[name]; ok {
			return n
		}
		n := s.c.allocPin()
		pins[name] = n
		return n
	}
	link := func(name string) int {
		if n, ok := links[name]; ok {
			return n
		}
		n := s.c.allocLink()
		links[name] = n
		return n
	}

	for i, p := range c.parts {
		// make a sub-socket
		sub := newSocket(s.c)
		conns := c.conns[i]
		for _, k := range p.Inputs {
			if v, ok := conns[k]; ok {
				sub.pins[k] = pin(v)
			} else {
				// wire unconnected inputs to False.
				sub.pins[k] = cstFalse
			}
		}
		for _, k := range p.Outputs {
			if v, ok := conns[k]; ok {
				sub.pins[k] = pin(v)
			} else {
				sub.pins[k] = s.c.allocPin()
			}
		}
		for _, k := range p.Slaves {
			if v, ok := conns[k]; ok {
				sub.links[k] = link(v)
			} else {
				// never driven, always idle.
				sub.links[k] = s.c.allocLink()
			}
		}
		for _, k := range p.Masters {
			if v, ok := conns[k]; ok {
				sub.links[k] = link(v)
			} else {
				sub.links[k] = s.c.allocDrain()
			}
		}
		updaters = append(updaters, p.Mount(sub)...)
	}
	return updaters
}

// Chip composes existing parts into a new part packaged into a chip.
// The ports names will be the inputs, outputs and stream ports of the chip.
//
// A FIFO feeding a GMII transmitter could be packaged like this:
//
//	mac, err := Chip(
//		"MAC",
//		Ports{
//			Inputs:  IO("ifg[8]"),
//			Outputs: IO("txd[8], tx_en, tx_er"),
//			Slaves:  IO("tx_axis"),
//		},
//		Parts{
//			axis.FIFO(cfg)("s_axis=tx_axis, m_axis=fifo_out"),
//			eth.AxisGMIITx(opts)("s_axis_tx=fifo_out, clk_enable=true, gmii_txd[0..7]=txd[0..7], ..."),
//		})
//
// Unconnected part inputs are tied to false, unconnected slave ports are idle
// and unconnected master ports are always ready. Within a chip, a wire must
// have exactly one driver and at least one reader, and a link exactly one
// master and one slave.
//
// The returned value is a function of type NewPartFn that can be used to
// compose the new part with others into other chips.
//
func Chip(name string, ports Ports, parts Parts) (NewPartFn, error) {
	w := newWiring()
	for _, n := range ports.Inputs {
		nt, err := w.get(n, kindPin)
		if err != nil {
			return nil, err
		}
		nt.drivers++
		// chip inputs are allowed to be left unused.
		nt.readers++
	}
	for _, n := range ports.Outputs {
		nt, err := w.get(n, kindPin)
		if err != nil {
			return nil, err
		}
		nt.readers++
	}
	for _, n := range ports.Slaves {
		nt, err := w.get(n, kindLink)
		if err != nil {
			return nil, err
		}
		nt.drivers++
	}
	for _, n := range ports.Masters {
		nt, err := w.get(n, kindLink)
		if err != nil {
			return nil, err
		}
		nt.readers++
	}

	conns := make([]map[string]string, len(parts))
	for i, p := range parts {
		m := make(map[string]string, len(p.Conns))
		for _, cn := range p.Conns {
			kind, output, ok := p.portKind(cn.PP)
			if !ok {
				return nil, errors.New("invalid pin name " + cn.PP + " for part " + p.Name)
			}
			pn := p.Name + "." + cn.PP + ":" + cn.CP
			if _, dup := m[cn.PP]; dup {
				return nil, errors.New(pn + ": pin connected more than once")
			}
			m[cn.PP] = cn.CP
			if isConstant(cn.CP) {
				if kind == kindLink {
					return nil, errors.New(pn + ": link connected to constant " + cn.CP)
				}
				if output {
					return nil, errors.New(pn + ": output pin connected to constant " + cn.CP + " input")
				}
				continue
			}
			nt, err := w.get(cn.CP, kind)
			if err != nil {
				return nil, errors.Wrap(err, pn)
			}
			if output {
				nt.drivers++
				if nt.drivers > 1 && kind == kindPin {
					return nil, errors.New(pn + ": output pin already used as output")
				}
			} else {
				nt.readers++
			}
		}
		conns[i] = m
	}
	if err := w.check(); err != nil {
		return nil, err
	}

	c := &chip{
		PartSpec{
			Name:    name,
			Inputs:  ports.Inputs,
			Outputs: ports.Outputs,
			Slaves:  ports.Slaves,
			Masters: ports.Masters,
		},
		parts,
		conns,
	}
	c.PartSpec.Mount = c.mount
	return c.PartSpec.NewPart, nil
}
