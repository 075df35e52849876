package ethsim

// Constant input pin names.
//
const (
	True  = "true"
	False = "false"
	GND   = "false"
	// Rst is the circuit reset pin. See Circuit.Reset.
	Rst = "rst"
)

const (
	cstFalse = iota
	cstTrue
	cstRst
	cstCount
)

// A Socket maps a part's port names to pin and link numbers in a circuit.
//
type Socket struct {
	pins  map[string]int
	links map[string]int
	c     *Circuit
}

func newSocket(c *Circuit) *Socket {
	return &Socket{
		pins:  map[string]int{False: cstFalse, True: cstTrue, Rst: cstRst},
		links: make(map[string]int),
		c:     c,
	}
}

// Pin returns the pin number allocated to the given pin name.
// This function panics if the pin does not exist.
//
func (s *Socket) Pin(name string) int {
	n, ok := s.pins[name]
	if !ok {
		panic("pin " + name + " does not exist")
	}
	return n
}

// Bus returns the pin numbers allocated to the given bus name.
// This function panics if the bus does not exist.
//
func (s *Socket) Bus(name string) []int {
	var out []int
	for i := 0; ; i++ {
		n, ok := s.pins[BusPinName(name, i)]
		if !ok {
			break
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		panic("bus " + name + " does not exist")
	}
	return out
}

// Link returns the link number allocated to the given stream port.
// This function panics if the port does not exist.
//
func (s *Socket) Link(name string) int {
	n, ok := s.links[name]
	if !ok {
		panic("link " + name + " does not exist")
	}
	return n
}

// Links returns the link numbers allocated to the given stream port array.
// This function panics if the port array does not exist.
//
func (s *Socket) Links(name string) []int {
	var out []int
	for i := 0; ; i++ {
		n, ok := s.links[BusPinName(name, i)]
		if !ok {
			break
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		panic("link array " + name + " does not exist")
	}
	return out
}

// Reset returns the pin number of the circuit reset signal.
//
func (s *Socket) Reset() int {
	return cstRst
}
