package mapping

import (
	"errors"
	"fmt"
	"math"

	"github.com/sarchlab/noclat/congestion"
	"github.com/sarchlab/noclat/estimator"
	"github.com/sarchlab/noclat/noc/mesh"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// A CostFunc scores a task graph whose endpoints are routers. Lower is
// better.
type CostFunc interface {
	Cost(taskGraph []congestion.Volume) (float64, error)
}

// OverlapCost penalizes consecutive transmissions that share a row or a
// column, weighted by the volume of both transmissions.
type OverlapCost struct {
	topo *mesh.Topology
}

// NewOverlapCost creates an OverlapCost for a mesh.
func NewOverlapCost(topo *mesh.Topology) *OverlapCost {
	return &OverlapCost{topo: topo}
}

// Cost returns the overlap of the task graph.
func (c *OverlapCost) Cost(taskGraph []congestion.Volume) (float64, error) {
	cost := 0.0

	for i := 1; i < len(taskGraph); i++ {
		a, b := taskGraph[i-1], taskGraph[i]

		for _, r := range []int{a.Src, a.Dst, b.Src, b.Dst} {
			if !c.topo.Contains(r) {
				return 0, fmt.Errorf("%w: router %d is not in the mesh",
					mesh.ErrInvalidTopology, r)
			}
		}

		ax1, ay1 := c.topo.Coord(a.Src)
		ax2, ay2 := c.topo.Coord(a.Dst)
		bx1, by1 := c.topo.Coord(b.Src)
		bx2, by2 := c.topo.Coord(b.Dst)

		overlap := 0
		if ay1 == by1 {
			overlap += min(abs(ax1-ax2), abs(bx1-bx2))
		}

		if ax1 == bx1 {
			overlap += min(abs(ay1-ay2), abs(by1-by2))
		}

		cost += float64(overlap) * (a.Volume + b.Volume)
	}

	return cost, nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}

	return x
}

// Aggregation selects how request latencies are reduced to a cost.
type Aggregation int

// The supported aggregations.
const (
	AggregateMax Aggregation = iota
	AggregateMean
)

// LatencyCost estimates the latencies of a task graph and reduces them to a
// single number. Graphs that the estimator rejects cost +Inf.
type LatencyCost struct {
	Estimator   *estimator.Estimator
	Arch        estimator.ArchConfig
	Manager     congestion.Manager
	Aggregation Aggregation
}

// Cost returns the aggregated latency of all the phases of the task graph.
func (c *LatencyCost) Cost(taskGraph []congestion.Volume) (float64, error) {
	phases, err := c.Manager.Inject(taskGraph)
	if err != nil {
		return 0, err
	}

	latencies := []float64{}
	for _, p := range phases {
		result, err := c.Estimator.Estimate(c.Arch, p.Task)
		if errors.Is(err, estimator.ErrNumericalInstability) ||
			errors.Is(err, estimator.ErrInvalidConfig) {
			return math.Inf(1), nil
		}

		if err != nil {
			return 0, err
		}

		latencies = append(latencies, result.Latencies...)
	}

	if len(latencies) == 0 {
		return 0, nil
	}

	switch c.Aggregation {
	case AggregateMax:
		return floats.Max(latencies), nil
	case AggregateMean:
		return stat.Mean(latencies, nil), nil
	default:
		panic(fmt.Sprintf("unknown aggregation %d", c.Aggregation))
	}
}
