// Package mesh provides the topology and the dimension-order routing of a
// square 2-D mesh network.
package mesh

import (
	"errors"
	"fmt"

	"github.com/sarchlab/noclat/noc/routing"
)

// ErrInvalidTopology is returned when a topology is not a valid mesh or when
// a route does not fit the topology.
var ErrInvalidTopology = errors.New("invalid topology")

// Topology is a square mesh of Dim x Dim routers. Router idx sits at
// x = idx % Dim, y = idx / Dim, with (0, 0) at the top-left corner.
type Topology struct {
	dim        int
	numRouters int
	numPorts   int
}

// NewTopology creates a mesh of n routers, d on each side, each router
// having p ports.
func NewTopology(d, n, p int) (*Topology, error) {
	if d < 1 {
		return nil, fmt.Errorf("%w: dimension %d is not positive",
			ErrInvalidTopology, d)
	}

	if n != d*d {
		return nil, fmt.Errorf("%w: d = %d, n = %d",
			ErrInvalidTopology, d, n)
	}

	if p < 1 {
		return nil, fmt.Errorf("%w: %d ports per router",
			ErrInvalidTopology, p)
	}

	t := &Topology{
		dim:        d,
		numRouters: n,
		numPorts:   p,
	}

	return t, nil
}

// Dim returns the number of routers on each side of the mesh.
func (t *Topology) Dim() int {
	return t.dim
}

// NumRouters returns the number of routers in the mesh.
func (t *Topology) NumRouters() int {
	return t.numRouters
}

// NumPorts returns the number of ports of each router.
func (t *Topology) NumPorts() int {
	return t.numPorts
}

// Contains returns true if idx is a router of the mesh.
func (t *Topology) Contains(idx int) bool {
	return idx >= 0 && idx < t.numRouters
}

// Coord returns the coordinate of a router.
func (t *Topology) Coord(idx int) (x, y int) {
	return idx % t.dim, idx / t.dim
}

// Index returns the router at a coordinate.
func (t *Topology) Index(x, y int) int {
	return y*t.dim + x
}

// Distance returns the number of links between two routers.
func (t *Topology) Distance(src, dst int) int {
	sx, sy := t.Coord(src)
	dx, dy := t.Coord(dst)

	return abs(dx-sx) + abs(dy-sy)
}

// Neighbor returns the router that is reached by leaving router r through
// port out, together with the port the packet arrives on.
func (t *Topology) Neighbor(
	r int,
	out routing.Port,
) (next int, in routing.Port, err error) {
	if !t.Contains(r) {
		return 0, 0, fmt.Errorf("%w: router %d out of range [0, %d)",
			ErrInvalidTopology, r, t.numRouters)
	}

	if !IsCardinal(out) {
		return 0, 0, fmt.Errorf("%w: port %s does not lead to a router",
			ErrInvalidTopology, PortName(out))
	}

	x, y := t.Coord(r)

	switch out {
	case North:
		y--
	case South:
		y++
	case West:
		x--
	case East:
		x++
	}

	if x < 0 || x >= t.dim || y < 0 || y >= t.dim {
		return 0, 0, fmt.Errorf("%w: router %d has no %s neighbor",
			ErrInvalidTopology, r, PortName(out))
	}

	return t.Index(x, y), opposite(out), nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}

	return v
}
