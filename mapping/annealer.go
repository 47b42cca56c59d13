// Package mapping places the nodes of a communication graph onto the routers
// of a mesh with simulated annealing.
package mapping

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/sarchlab/noclat/congestion"
	"github.com/sirupsen/logrus"
)

// ErrTooManyNodes is returned when a graph has more nodes than the mesh has
// routers.
var ErrTooManyNodes = errors.New("too many nodes")

const unassigned = -1

// A Progress is notified after every annealing epoch.
type Progress interface {
	IncrementFinished(amount uint64)
}

// Result is the placement found by the annealer.
type Result struct {
	// Labels maps every node of the communication graph to a router.
	Labels map[int]int

	// TaskGraph is the communication graph with nodes replaced by routers.
	TaskGraph []congestion.Volume

	Cost   float64
	Epochs int
}

// Annealer searches for a placement with low cost.
type Annealer struct {
	numRouters       int
	cost             CostFunc
	rng              *rand.Rand
	progress         Progress
	logger           logrus.FieldLogger
	initTemperature  float64
	minTemperature   float64
	coolingRate      float64
	globalEpochLimit int
	localEpochLimit  int
}

// NumEpochs returns the number of epochs a full annealing run takes.
func (a *Annealer) NumEpochs() int {
	epochs := 0
	for t := a.initTemperature; t > a.minTemperature; t *= a.coolingRate {
		epochs++
		if epochs >= a.globalEpochLimit {
			break
		}
	}

	return epochs
}

type placement struct {
	labels []int // node -> router
	slots  []int // router -> node
}

func (p placement) clone() placement {
	return placement{
		labels: append([]int(nil), p.labels...),
		slots:  append([]int(nil), p.slots...),
	}
}

// Map places the nodes of the communication graph. Volumes between the same
// pair of nodes are merged.
func (a *Annealer) Map(commGraph []congestion.Volume) (*Result, error) {
	graph := congestion.Merge(commGraph)
	nodes, index := collectNodes(graph)

	if len(nodes) > a.numRouters {
		return nil, fmt.Errorf("%w: %d nodes on %d routers",
			ErrTooManyNodes, len(nodes), a.numRouters)
	}

	cur := a.initialPlacement(len(nodes))

	curCost, err := a.cost.Cost(applyLabels(graph, index, cur.labels))
	if err != nil {
		return nil, err
	}

	epochs := 0
	temperature := a.initTemperature
	for temperature > a.minTemperature && epochs < a.globalEpochLimit {
		cur, curCost, err = a.epoch(graph, index, cur, curCost, temperature)
		if err != nil {
			return nil, err
		}

		temperature *= a.coolingRate
		epochs++

		if a.progress != nil {
			a.progress.IncrementFinished(1)
		}

		if epochs%100 == 0 {
			a.logger.WithFields(logrus.Fields{
				"epoch":       epochs,
				"cost":        curCost,
				"temperature": temperature,
			}).Info("annealing")
		}
	}

	result := &Result{
		Labels:    make(map[int]int, len(nodes)),
		TaskGraph: applyLabels(graph, index, cur.labels),
		Cost:      curCost,
		Epochs:    epochs,
	}

	for i, n := range nodes {
		result.Labels[n] = cur.labels[i]
	}

	return result, nil
}

func (a *Annealer) epoch(
	graph []congestion.Volume,
	index map[int]int,
	cur placement,
	curCost float64,
	temperature float64,
) (placement, float64, error) {
	if a.numRouters < 2 || len(cur.labels) == 0 {
		return cur, curCost, nil
	}

	for i := 0; i < a.localEpochLimit; i++ {
		next := a.disturb(cur)

		nextCost, err := a.cost.Cost(applyLabels(graph, index, next.labels))
		if err != nil {
			return cur, curCost, err
		}

		delta := relativeChange(curCost, nextCost)
		if a.accept(delta, temperature) {
			cur, curCost = next, nextCost
		}

		if delta < 0 {
			break
		}
	}

	return cur, curCost, nil
}

func (a *Annealer) initialPlacement(numNodes int) placement {
	p := placement{
		labels: make([]int, numNodes),
		slots:  make([]int, a.numRouters),
	}

	for i := range p.slots {
		p.slots[i] = unassigned
	}

	for node := range p.labels {
		router := a.rng.IntN(a.numRouters)
		for p.slots[router] != unassigned {
			router = a.rng.IntN(a.numRouters)
		}

		p.labels[node] = router
		p.slots[router] = node
	}

	return p
}

// disturb swaps the occupants of two routers, at least one of which hosts a
// node.
func (a *Annealer) disturb(cur placement) placement {
	next := cur.clone()

	var r1, r2 int
	for {
		r1 = a.rng.IntN(a.numRouters)
		r2 = a.rng.IntN(a.numRouters - 1)
		if r2 >= r1 {
			r2++
		}

		if next.slots[r1] != unassigned || next.slots[r2] != unassigned {
			break
		}
	}

	n1, n2 := next.slots[r1], next.slots[r2]
	if n1 != unassigned {
		next.labels[n1] = r2
	}

	if n2 != unassigned {
		next.labels[n2] = r1
	}

	next.slots[r1], next.slots[r2] = n2, n1

	return next
}

func (a *Annealer) accept(delta, temperature float64) bool {
	if delta < 0 {
		return true
	}

	return math.Exp(-delta/temperature) > a.rng.Float64()
}

// relativeChange returns the change from cur to next in percent of the
// magnitude of cur, so a positive change is always a worse cost.
func relativeChange(cur, next float64) float64 {
	switch {
	case math.IsInf(cur, 1) && math.IsInf(next, 1):
		return 0
	case math.IsInf(cur, 1):
		return math.Inf(-1)
	case cur == 0 && next == 0:
		return 0
	case cur == 0:
		return math.Inf(1)
	}

	return (next - cur) / math.Abs(cur) * 100
}

func collectNodes(graph []congestion.Volume) (nodes []int, index map[int]int) {
	index = make(map[int]int)

	for _, v := range graph {
		for _, n := range []int{v.Src, v.Dst} {
			if _, found := index[n]; !found {
				index[n] = len(nodes)
				nodes = append(nodes, n)
			}
		}
	}

	return nodes, index
}

func applyLabels(
	graph []congestion.Volume,
	index map[int]int,
	labels []int,
) []congestion.Volume {
	taskGraph := make([]congestion.Volume, len(graph))
	for i, v := range graph {
		taskGraph[i] = congestion.Volume{
			Src:    labels[index[v.Src]],
			Dst:    labels[index[v.Dst]],
			Volume: v.Volume,
		}
	}

	return taskGraph
}
