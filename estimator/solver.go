package estimator

import (
	"math"
	"sync"

	"github.com/sarchlab/noclat/noc/mesh"
	"github.com/sarchlab/noclat/noc/routing"
)

// solver computes the service time moments and the blocking times of every
// used channel, from the channels closest to the destinations backward.
type solver struct {
	arch       ArchConfig
	task       TaskConfig
	topo       *mesh.Topology
	flows      *flowState
	numWorkers int

	// s and s2 are the first and second moments of the service time of an
	// output port.
	s, s2 []float64
	// w is the blocking time from an input port to an output port.
	w []float64

	onLevelSolved func(level int, channels []channel)
}

func newSolver(
	arch ArchConfig,
	task TaskConfig,
	topo *mesh.Topology,
	flows *flowState,
) *solver {
	n, p := flows.numRouters, flows.numPorts

	s := &solver{
		arch:       arch,
		task:       task,
		topo:       topo,
		flows:      flows,
		numWorkers: 1,
		s:          make([]float64, n*p),
		s2:         make([]float64, n*p),
		w:          make([]float64, n*p*p),
	}

	for i := range s.s {
		s.s[i] = epsilon
		s.s2[i] = epsilon
	}

	return s
}

func (s *solver) flitDelay() float64 {
	return math.Max(s.arch.SwitchingDelay, s.arch.WireDelay)
}

// serializationDelay is the time for the tail flit to follow the head flit.
func (s *solver) serializationDelay() float64 {
	return float64(s.task.PacketLength-1) * s.flitDelay()
}

func (s *solver) solve() error {
	for level := range s.flows.levels {
		var err error

		if level == 0 {
			s.initEjectionChannels()
		} else {
			err = s.updateServiceTime(level)
			if err != nil {
				return err
			}
		}

		err = s.updateBlockingTime(level)
		if err != nil {
			return err
		}

		if s.onLevelSolved != nil {
			s.onLevelSolved(level, s.flows.levels[level])
		}
	}

	return nil
}

func (s *solver) initEjectionChannels() {
	service := s.arch.SwitchingDelay + s.arch.WireDelay +
		s.serializationDelay()
	cv := s.task.InjectionCV

	for _, ch := range s.flows.levels[0] {
		i := s.flows.index2(ch.router, ch.port)
		s.s[i] = service
		s.s2[i] = service * service / (cv*cv + 1)
	}
}

// updateServiceTime adds the time a channel waits for its downstream router
// to drain. The updates of a level are staged so that every channel of the
// level reads the state left by the previous level.
func (s *solver) updateServiceTime(level int) error {
	channels := s.flows.levels[level]
	ds := make([]float64, len(channels))
	ds2 := make([]float64, len(channels))

	err := s.forEachChannel(channels, func(i int, ch channel) error {
		var err error
		ds[i], ds2[i], err = s.downstreamServiceTime(level, ch)

		return err
	})
	if err != nil {
		return err
	}

	for i, ch := range channels {
		idx := s.flows.index2(ch.router, ch.port)
		s.s[idx] += ds[i]
		s.s2[idx] += ds2[i]
	}

	return nil
}

func (s *solver) downstreamServiceTime(
	level int,
	ch channel,
) (m1, m2 float64, err error) {
	dstRouter, dstIn, err := s.topo.Neighbor(ch.router, ch.port)
	if err != nil {
		return 0, 0, newConfigError(err,
			"channel %d:%s at residual hop %d does not lead to a router",
			ch.router, mesh.PortName(ch.port), level)
	}

	buffered := s.flitDelay() *
		(s.arch.InputBufferCapacity + s.arch.OutputBufferCapacity)

	for oc := 0; oc < s.flows.numPorts; oc++ {
		dstOut := routing.Port(oc)

		latency := s.arch.ArbitrationDelay + s.arch.WireDelay +
			s.w[s.flows.index3(dstRouter, dstIn, dstOut)] +
			s.s[s.flows.index2(dstRouter, dstOut)] -
			buffered
		latency = math.Max(latency, 0)

		prob := s.flows.pp2p[s.flows.index3(dstRouter, dstIn, dstOut)]
		m1 += prob * latency
		m2 += prob * latency * latency
	}

	return m1, m2, nil
}

func (s *solver) updateBlockingTime(level int) error {
	return s.forEachChannel(s.flows.levels[level],
		func(_ int, ch channel) error {
			return s.blockingTime(level, ch)
		})
}

// blockingTime applies the mean-value approximation of the waiting time to
// every input of an output channel. The injection port is the head of its
// queue rather than a merge point, so it is not squared and is scaled by the
// service time. A channel whose packet load reaches its service rate has no
// steady state and fails the estimation.
func (s *solver) blockingTime(level int, ch channel) error {
	f := s.flows
	oc := ch.port
	idx := f.index2(ch.router, oc)

	serviceRate := 1 / s.s[idx]
	if f.lp[idx] >= serviceRate {
		return &InstabilityError{
			Router:      ch.router,
			InPort:      mesh.Injection,
			OutPort:     oc,
			Level:       level,
			Load:        f.lp[idx],
			ServiceRate: serviceRate,
			Value:       math.Inf(1),
		}
	}

	ca2 := s.task.InjectionCV * s.task.InjectionCV
	cs2 := s.s2[idx]/(s.s[idx]*s.s[idx]) - 1
	numerator := f.lp[idx] * math.Max(ca2+cs2, 0)

	contending := 0.0

	for ic := 0; ic < f.numPorts; ic++ {
		in := routing.Port(ic)

		var w float64

		if in == mesh.Injection {
			rate := f.lp2p[f.index3(ch.router, in, oc)]
			w = numerator / (2*(serviceRate-rate) + epsilon)
			w /= serviceRate
		} else {
			diff := serviceRate - contending
			w = numerator / (2*diff*diff + epsilon)
		}

		contending += f.lp2p[f.index3(ch.router, in, oc)]

		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return &InstabilityError{
				Router:      ch.router,
				InPort:      in,
				OutPort:     oc,
				Level:       level,
				Load:        f.lp[idx],
				ServiceRate: serviceRate,
				Value:       w,
			}
		}

		s.w[f.index3(ch.router, in, oc)] = w
	}

	return nil
}

// forEachChannel runs fn on every channel, splitting the channels among the
// workers. The channels of a level never write the same entries, so the
// result does not depend on the number of workers. The reported error is the
// one of the first failing channel.
func (s *solver) forEachChannel(
	channels []channel,
	fn func(i int, ch channel) error,
) error {
	numWorkers := s.numWorkers
	if numWorkers > len(channels) {
		numWorkers = len(channels)
	}

	if numWorkers <= 1 {
		for i, ch := range channels {
			err := fn(i, ch)
			if err != nil {
				return err
			}
		}

		return nil
	}

	errs := make([]error, len(channels))
	chunk := (len(channels) + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup

	for start := 0; start < len(channels); start += chunk {
		end := min(start+chunk, len(channels))

		wg.Add(1)

		go func(start, end int) {
			defer wg.Done()

			for i := start; i < end; i++ {
				errs[i] = fn(i, channels[i])
				if errs[i] != nil {
					return
				}
			}
		}(start, end)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	return nil
}
