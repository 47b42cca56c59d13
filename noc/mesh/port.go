package mesh

import (
	"fmt"

	"github.com/sarchlab/noclat/noc/routing"
)

// The ports of a mesh router. Injection is where packets enter the network
// from the local processing element and Ejection is where they leave it.
const (
	Injection routing.Port = iota
	Ejection
	North
	South
	West
	East
)

// NumPorts is the number of ports a mesh router needs.
const NumPorts = 6

var portNames = [NumPorts]string{
	"input", "output", "north", "south", "west", "east",
}

// PortName returns the name of a mesh port.
func PortName(p routing.Port) string {
	if p < 0 || int(p) >= NumPorts {
		return fmt.Sprintf("port%d", p)
	}

	return portNames[p]
}

// IsCardinal returns true if the port connects to a neighboring router.
func IsCardinal(p routing.Port) bool {
	return p == North || p == South || p == West || p == East
}

// DirectionPort returns the port that leads toward a unit coordinate delta.
// The y axis grows southward, so (0, -1) is north.
func DirectionPort(dx, dy int) (routing.Port, error) {
	switch {
	case dx == 0 && dy == -1:
		return North, nil
	case dx == 0 && dy == 1:
		return South, nil
	case dx == -1 && dy == 0:
		return West, nil
	case dx == 1 && dy == 0:
		return East, nil
	default:
		return 0, fmt.Errorf("%w: (%d, %d) is not a neighbor delta",
			ErrInvalidTopology, dx, dy)
	}
}

// opposite returns the port a packet arrives on after leaving a router
// through p.
func opposite(p routing.Port) routing.Port {
	switch p {
	case North:
		return South
	case South:
		return North
	case West:
		return East
	case East:
		return West
	default:
		panic("unreachable")
	}
}
