// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package ethsim

// A Component is a component in a circuit. It is called once per simulation
// step, reads the current frame of pins and links and writes the next one.
//
type Component func(c *Circuit)

// A MountFn mounts a part into socket s. MountFn's should query
// the socket for assigned pin and link numbers and return closures around
// these numbers.
//
// For example, a part that counts transfers on a stream link and exposes the
// parity of the count on an output pin can be defined like this:
//
//	beats := &PartSpec{
//		Name:    "Parity",
//		Outputs: IO("odd"),
//		Slaves:  IO("s_axis"),
//		Mount: func(s *Socket) []Component {
//			in, odd := s.Link("s_axis"), s.Pin("odd")
//			var n int
//			return []Component{
//				func(c *Circuit) {
//					if c.Fire(in) {
//						n++
//					}
//					c.SetReady(in, true)
//					c.Set(odd, n&1 != 0)
//				},
//			}
//		}}
//
type MountFn func(s *Socket) []Component

// A PartSpec wraps a part specification (its blueprint).
//
// Custom parts are implemented by creating a PartSpec, then using its NewPart
// method as a NewPartFn:
//
//	var fifo = fifoSpec.NewPart
//
// or:
//
//	func FIFO(c string) Part { return fifoSpec.NewPart(c) }
//
// Which can then be used when building chips or circuits:
//
//	mac, _ := Chip("MAC", Ports{Slaves: IO("tx_axis")}, Parts{
//		FIFO("s_axis=tx_axis, m_axis=fifo_out"),
//		GMIITx("s_axis=fifo_out, ..."),
//	})
//
type PartSpec struct {
	// Part name.
	Name string
	// Input pin names. Must be distinct pin names.
	// Use the IO() function to expand an input description like
	// "a, b, bus[2]" to []string{"a", "b", "bus[0]", "bus[1]"}
	// See IO() for more details.
	Inputs []string
	// Output pin names. Must be distinct pin names.
	// Use the IO() function to expand an output description string.
	Outputs []string
	// Slaves are the names of the stream links consumed by the part.
	Slaves []string
	// Masters are the names of the stream links driven by the part.
	Masters []string

	// Mount function (see MountFn).
	Mount MountFn
}

// NewPart is a NewPartFn that wraps p with the given connections into a Part.
//
func (p *PartSpec) NewPart(connections string) Part {
	ex, err := ParseConnections(connections)
	if err != nil {
		panic(err)
	}
	return Part{p, ex}
}

func (p *PartSpec) portKind(name string) (kind int, output bool, ok bool) {
	for _, n := range p.Inputs {
		if n == name {
			return kindPin, false, true
		}
	}
	for _, n := range p.Outputs {
		if n == name {
			return kindPin, true, true
		}
	}
	for _, n := range p.Slaves {
		if n == name {
			return kindLink, false, true
		}
	}
	for _, n := range p.Masters {
		if n == name {
			return kindLink, true, true
		}
	}
	return 0, false, false
}

// A NewPartFn is a function that takes a connection configuration and returns a
// new Part. See ParseConnections for the syntax of the connection configuration
// string.
//
type NewPartFn func(c string) Part

// A Part wraps a part specification together with its connections within a host
// chip.
//
type Part struct {
	*PartSpec
	Conns []Connection
}

// Parts is a convenience wrapper for []Part.
//
type Parts []Part
