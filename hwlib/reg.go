// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"strconv"

	"github.com/db47h/ethsim"
)

// Register returns a clocked register of the given bits size with a load
// enable. It is cleared while the circuit reset is asserted.
//
//	Inputs: in[bits], en
//	Outputs: out[bits]
//	Function: if en(t-1) then out(t) = in(t-1) else out(t) = out(t-1)
//
func Register(bits int) ethsim.NewPartFn {
	return (&ethsim.PartSpec{
		Name:    "REG" + strconv.Itoa(bits),
		Inputs:  append(bus(bits, pIn), pEn),
		Outputs: bus(bits, pOut),
		Mount: func(s *ethsim.Socket) []ethsim.Component {
			in, en, out := s.Bus(pIn), s.Pin(pEn), s.Bus(pOut)
			rst := s.Reset()
			var v int64
			return []ethsim.Component{func(c *ethsim.Circuit) {
				switch {
				case c.Get(rst):
					v = 0
				case c.Get(en):
					v = Int64(c, in)
				}
				SetInt64(c, out, v)
			}}
		}}).NewPart
}
