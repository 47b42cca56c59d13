// Package routing defines how packets are routed through a network of
// routers.
package routing

import "fmt"

// Port is the index of a port on a router.
type Port int

// A Hop is the traversal of a single router, entering from one port and
// leaving from another.
type Hop struct {
	Router int
	In     Port
	Out    Port
}

func (h Hop) String() string {
	return fmt.Sprintf("(%d, %d->%d)", h.Router, h.In, h.Out)
}

// A Path is the ordered list of hops a packet takes from its source router to
// its destination router.
type Path []Hop

// Routers returns the routers visited by the path, in order.
func (p Path) Routers() []int {
	routers := make([]int, len(p))
	for i, h := range p {
		routers[i] = h.Router
	}

	return routers
}

// An Algorithm can find the path between two routers.
type Algorithm interface {
	Route(src, dst int) (Path, error)
}
