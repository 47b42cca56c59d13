package estimator

import (
	"math"

	"github.com/sarchlab/noclat/noc/mesh"
	"github.com/sarchlab/noclat/noc/routing"
)

// epsilon keeps divisions finite on channels that carry no traffic.
const epsilon = 1e-10

// unreachable is the residual hop of a channel that no path uses.
const unreachable = math.MaxInt

// A channel is an output port of a router.
type channel struct {
	router int
	port   routing.Port
}

// flowState holds the per-channel tensors of one estimation. The tensors are
// flattened, see index2 and index3.
type flowState struct {
	numRouters int
	numPorts   int

	paths []routing.Path

	// lp2p is the packet rate from an input port to an output port.
	lp2p []float64
	// lp is the packet rate arriving at an output port.
	lp []float64
	// pp2p is the probability that a packet from an input port leaves
	// through an output port.
	pp2p []float64
	// rh is the residual hop count of an output port.
	rh []int
	// injection is the packet rate injected at each router.
	injection []float64

	// levels groups the used channels by residual hop.
	levels [][]channel
}

func newFlowState(numRouters, numPorts, numRequests int) *flowState {
	s := &flowState{
		numRouters: numRouters,
		numPorts:   numPorts,
		paths:      make([]routing.Path, 0, numRequests),
		lp2p:       make([]float64, numRouters*numPorts*numPorts),
		lp:         make([]float64, numRouters*numPorts),
		pp2p:       make([]float64, numRouters*numPorts*numPorts),
		rh:         make([]int, numRouters*numPorts),
		injection:  make([]float64, numRouters),
	}

	for i := range s.rh {
		s.rh[i] = unreachable
	}

	return s
}

func (s *flowState) index2(r int, c routing.Port) int {
	return r*s.numPorts + int(c)
}

func (s *flowState) index3(r int, ic, oc routing.Port) int {
	return (r*s.numPorts+int(ic))*s.numPorts + int(oc)
}

// residualHop returns the residual hop of a channel, or unreachable.
func (s *flowState) residualHop(r int, c routing.Port) int {
	return s.rh[s.index2(r, c)]
}

// maxResidualHop returns the largest finite residual hop, or -1 if no channel
// is used.
func (s *flowState) maxResidualHop() int {
	return len(s.levels) - 1
}

// aggregateFlows routes every request and accumulates the traffic each
// channel carries.
func aggregateFlows(
	topo *mesh.Topology,
	alg routing.Algorithm,
	task TaskConfig,
) (*flowState, error) {
	s := newFlowState(topo.NumRouters(), topo.NumPorts(), len(task.Requests))

	for i, req := range task.Requests {
		path, err := alg.Route(req.Src, req.Dst)
		if err != nil {
			return nil, newConfigError(err,
				"cannot route request %d (%d->%d)", i, req.Src, req.Dst)
		}

		err = s.pathMustFit(i, req, path)
		if err != nil {
			return nil, err
		}

		s.addPath(path, req.Rate/float64(task.PacketLength))
	}

	s.sumArrivalRates()
	s.groupLevels()

	return s, nil
}

func (s *flowState) pathMustFit(i int, req Request, path routing.Path) error {
	if len(path) == 0 {
		return newConfigError(nil, "request %d (%d->%d) has an empty path",
			i, req.Src, req.Dst)
	}

	if path[0].Router != req.Src || path[len(path)-1].Router != req.Dst {
		return newConfigError(nil,
			"path of request %d does not connect %d to %d",
			i, req.Src, req.Dst)
	}

	for _, h := range path {
		if h.Router < 0 || h.Router >= s.numRouters {
			return newConfigError(nil,
				"request %d visits router %d outside [0, %d)",
				i, h.Router, s.numRouters)
		}

		if !s.validPort(h.In) || !s.validPort(h.Out) {
			return newConfigError(nil,
				"request %d uses hop %s with only %d ports per router",
				i, h, s.numPorts)
		}
	}

	return nil
}

func (s *flowState) validPort(p routing.Port) bool {
	return p >= 0 && int(p) < s.numPorts
}

func (s *flowState) addPath(path routing.Path, rate float64) {
	s.paths = append(s.paths, path)
	s.injection[path[0].Router] += rate

	for i, h := range path {
		s.lp2p[s.index3(h.Router, h.In, h.Out)] += rate

		remaining := len(path) - 1 - i
		rhIndex := s.index2(h.Router, h.Out)

		if remaining < s.rh[rhIndex] {
			s.rh[rhIndex] = remaining
		}
	}
}

func (s *flowState) sumArrivalRates() {
	for r := 0; r < s.numRouters; r++ {
		for oc := 0; oc < s.numPorts; oc++ {
			sum := 0.0
			for ic := 0; ic < s.numPorts; ic++ {
				sum += s.lp2p[s.index3(r, routing.Port(ic), routing.Port(oc))]
			}

			s.lp[s.index2(r, routing.Port(oc))] = sum
		}
	}

	for r := 0; r < s.numRouters; r++ {
		for ic := 0; ic < s.numPorts; ic++ {
			for oc := 0; oc < s.numPorts; oc++ {
				i := s.index3(r, routing.Port(ic), routing.Port(oc))
				s.pp2p[i] = s.lp2p[i] /
					(s.lp[s.index2(r, routing.Port(oc))] + epsilon)
			}
		}
	}
}

func (s *flowState) groupLevels() {
	maxRH := -1

	for _, rh := range s.rh {
		if rh != unreachable && rh > maxRH {
			maxRH = rh
		}
	}

	s.levels = make([][]channel, maxRH+1)

	for r := 0; r < s.numRouters; r++ {
		for c := 0; c < s.numPorts; c++ {
			rh := s.rh[s.index2(r, routing.Port(c))]
			if rh == unreachable {
				continue
			}

			s.levels[rh] = append(s.levels[rh],
				channel{router: r, port: routing.Port(c)})
		}
	}
}
