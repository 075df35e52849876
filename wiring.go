package ethsim

import (
	"github.com/db47h/ethsim/internal/hdl"
	"github.com/pkg/errors"
)

func expandRange(v interface{}) ([]string, error) {
	switch p := v.(type) {
	case hdl.Pin:
		return []string{p.Name}, nil
	case hdl.PinIndex:
		return []string{BusPinName(p.Name, p.Index)}, nil
	case hdl.PinRange:
		if p.End < p.Start {
			return nil, errors.Errorf("invalid range %s[%d..%d]", p.Name, p.Start, p.End)
		}
		r := make([]string, 0, p.End-p.Start+1)
		for i := p.Start; i <= p.End; i++ {
			r = append(r, BusPinName(p.Name, i))
		}
		return r, nil
	}
	return nil, errors.Errorf("unexpected item %v", v)
}

const (
	kindPin = iota
	kindLink
)

// net tracks the usage of a named net within a chip.
type net struct {
	name    string
	kind    int
	drivers int // wire outputs, or link masters
	readers int // wire inputs, or link slaves
}

// wiring records every net used within a chip in order of appearance so that
// wiring errors are reported deterministically.
type wiring struct {
	nets  map[string]*net
	order []*net
}

func newWiring() *wiring {
	w := &wiring{nets: make(map[string]*net)}
	// constants are always driven.
	for _, n := range []string{False, True, Rst} {
		w.nets[n] = &net{name: n, kind: kindPin, drivers: 1}
	}
	return w
}

func (w *wiring) get(name string, kind int) (*net, error) {
	n := w.nets[name]
	if n == nil {
		n = &net{name: name, kind: kind}
		w.nets[name] = n
		w.order = append(w.order, n)
		return n, nil
	}
	if n.kind != kind {
		return nil, errors.New("net " + name + " used both as a pin and a link")
	}
	return n, nil
}

func isConstant(name string) bool {
	return name == False || name == True || name == Rst
}

func (w *wiring) check() error {
	for _, n := range w.order {
		switch n.kind {
		case kindPin:
			if n.drivers == 0 {
				return errors.New("pin " + n.name + " not connected to any output")
			}
			if n.readers == 0 {
				return errors.New("pin " + n.name + " not connected to any input")
			}
		case kindLink:
			switch {
			case n.drivers == 0:
				return errors.New("link " + n.name + " has no master")
			case n.readers == 0:
				return errors.New("link " + n.name + " has no slave")
			case n.drivers > 1:
				return errors.New("link " + n.name + " has more than one master")
			case n.readers > 1:
				return errors.New("link " + n.name + " has more than one slave")
			}
		}
	}
	return nil
}
