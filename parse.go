package ethsim

import (
	"strconv"

	"github.com/db47h/ethsim/internal/hdl"
	"github.com/pkg/errors"
)

// BusPinName returns the name of the i-th pin (or link) of a bus (or link
// array): BusPinName("s_axis", 2) returns "s_axis[2]".
//
func BusPinName(bus string, i int) string {
	return bus + "[" + strconv.Itoa(i) + "]"
}

// ParseIOSpec parses the port specification string and returns individual
// port names in a slice, also expanding bus declarations to individual names.
// For example:
//
//	ParseIOSpec("in[2], sel") // returns []string{"in[0]", "in[1]", "sel"}
//
func ParseIOSpec(names string) ([]string, error) {
	var out []string
	p := &hdl.Parser{Input: names}
	for {
		v, err := p.Next(false)
		if err != nil {
			return nil, err
		}
		switch pin := v.(type) {
		case nil:
			return out, nil
		case hdl.Pin:
			out = append(out, pin.Name)
		case hdl.PinIndex:
			// in a declaration, the index is the bus size
			for i := 0; i < pin.Index; i++ {
				out = append(out, BusPinName(pin.Name, i))
			}
		case hdl.PinRange:
			for i := pin.Start; i <= pin.End; i++ {
				out = append(out, BusPinName(pin.Name, i))
			}
		}
	}
}

// IO is a wrapper around ParseIOSpec that panics if an error is returned.
//
func IO(names string) []string {
	out, err := ParseIOSpec(names)
	if err != nil {
		panic(err)
	}
	return out
}

// A Connection connects a part's port PP to a net CP in its container.
//
type Connection struct {
	PP string
	CP string
}

// ParseConnections parses a connection configuration string like
//
//	"s_axis=in, m_axis=out, cfg[0..3]=bus[4..7], sel[0..1]=false"
//
// and returns the expanded list of connections. Ranges on both sides must
// have the same length. A range connected to a single net connects all the
// ports in the range to that net.
//
func ParseConnections(c string) ([]Connection, error) {
	var conns []Connection
	p := &hdl.Parser{Input: c}
	for {
		v, err := p.Next(true)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return conns, nil
		}
		a, ok := v.(hdl.PinAssignment)
		if !ok {
			return nil, errors.Errorf("in %q: missing '=' in connection", c)
		}
		ks, err := expandRange(a.LHS)
		if err != nil {
			return nil, errors.Wrap(err, c)
		}
		vs, err := expandRange(a.RHS)
		if err != nil {
			return nil, errors.Wrap(err, c)
		}
		switch {
		case len(ks) == len(vs):
			// many to many
			for i := range ks {
				conns = append(conns, Connection{ks[i], vs[i]})
			}
		case len(vs) == 1:
			// many to one
			for _, k := range ks {
				conns = append(conns, Connection{k, vs[0]})
			}
		default:
			return nil, errors.New("pin count mismatch in pin mapping: " + ks[0] + ":" + vs[0])
		}
	}
}
