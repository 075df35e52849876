/*
Package ethsim provides the necessary tools to model an FPGA Ethernet transmit
datapath (AXI-Stream FIFOs, arbiters, MAC framers) as a cycle-stepped circuit
and run it.

A circuit is made of parts connected by two kinds of nets:

	- wire pins (and buses of pins) carrying single bits: configuration,
	  status pulses, PHY-side signals.
	- stream links, each carrying one AXI-Stream handshake (valid, ready, data,
	  last, id, dest, user).

Every net has two frames. Components read the current frame and write the next
one; frames are swapped once all components have been updated. One step of
the simulation is one clock cycle. A beat is transferred on a link during a
step where the current frame has both valid and ready set.

The API is designed to mimic a real hardware description language. As a
result, it relies heavily on closures and can feel a bit awkward when
implementing custom components.
*/
package ethsim
