package mesh

import (
	"fmt"

	"github.com/sarchlab/noclat/noc/routing"
)

// XYRouter routes packets with dimension-order routing. A packet first
// travels along the X axis until it reaches the destination column and then
// along the Y axis.
type XYRouter struct {
	topo *Topology
}

// NewXYRouter creates an XYRouter for the given mesh.
func NewXYRouter(topo *Topology) *XYRouter {
	return &XYRouter{topo: topo}
}

// Route returns the path from src to dst.
func (r *XYRouter) Route(src, dst int) (routing.Path, error) {
	if !r.topo.Contains(src) || !r.topo.Contains(dst) {
		return nil, fmt.Errorf(
			"%w: route %d->%d out of range [0, %d)",
			ErrInvalidTopology, src, dst, r.topo.NumRouters())
	}

	routers := r.routerSequence(src, dst)

	path := make(routing.Path, len(routers))
	path[0].In = Injection
	path[len(path)-1].Out = Ejection

	for i, router := range routers {
		path[i].Router = router
	}

	for i := 1; i < len(routers); i++ {
		px, py := r.topo.Coord(routers[i-1])
		cx, cy := r.topo.Coord(routers[i])

		out, err := DirectionPort(cx-px, cy-py)
		if err != nil {
			return nil, err
		}

		in, err := DirectionPort(px-cx, py-cy)
		if err != nil {
			return nil, err
		}

		path[i-1].Out = out
		path[i].In = in
	}

	return path, nil
}

func (r *XYRouter) routerSequence(src, dst int) []int {
	sx, sy := r.topo.Coord(src)
	dx, dy := r.topo.Coord(dst)

	routers := make([]int, 0, r.topo.Distance(src, dst)+1)

	for x := sx; x != dx; x += step(sx, dx) {
		routers = append(routers, r.topo.Index(x, sy))
	}

	for y := sy; y != dy; y += step(sy, dy) {
		routers = append(routers, r.topo.Index(dx, y))
	}

	routers = append(routers, dst)

	return routers
}

func step(from, to int) int {
	if from < to {
		return 1
	}

	return -1
}
