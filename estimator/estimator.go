// Package estimator estimates the average packet latency of a wormhole-routed
// mesh network with a path-based analytical model.
//
// Traffic is routed, accumulated per channel, and the service time moments
// and blocking times of the channels are solved level by level, starting from
// the channels one hop from the destinations. The latency of a request is the
// sum of the delays along its path.
package estimator

import (
	"github.com/sarchlab/noclat/hooking"
	"github.com/sarchlab/noclat/id"
	"github.com/sarchlab/noclat/noc/mesh"
	"github.com/sarchlab/noclat/noc/routing"
	"github.com/sirupsen/logrus"
)

var (
	// HookPosLevelSolved is triggered after all the channels of a residual
	// hop level are solved. The detail is a LevelSolvedDetail.
	HookPosLevelSolved = &hooking.HookPos{Name: "LevelSolved"}

	// HookPosEstimated is triggered after the latencies of a task are
	// estimated. The item is the *Result.
	HookPosEstimated = &hooking.HookPos{Name: "Estimated"}
)

// LevelSolvedDetail describes a solved residual hop level.
type LevelSolvedDetail struct {
	EstimationID string
	Level        int
	NumChannels  int
}

// A RoutingFactory creates the routing algorithm used for a topology.
type RoutingFactory func(topo *mesh.Topology) routing.Algorithm

// XYRouting routes packets with dimension-order routing.
func XYRouting(topo *mesh.Topology) routing.Algorithm {
	return mesh.NewXYRouter(topo)
}

// Estimator estimates request latencies. It keeps no state between
// estimations, so one Estimator can serve concurrent callers as long as its
// hooks can.
type Estimator struct {
	hooking.HookableBase

	routingFactory RoutingFactory
	numWorkers     int
	logger         logrus.FieldLogger
	idGenerator    id.Generator
}

// Estimate returns the mean latency of every request of the task.
func (e *Estimator) Estimate(arch ArchConfig, task TaskConfig) (*Result, error) {
	topo, err := archMustBeValid(arch)
	if err != nil {
		return nil, err
	}

	err = taskMustBeValid(task, topo)
	if err != nil {
		return nil, err
	}

	estimationID := e.idGenerator.Generate()
	logger := e.logger.WithField("estimation", estimationID)

	flows, err := aggregateFlows(topo, e.routingFactory(topo), task)
	if err != nil {
		return nil, err
	}

	s := newSolver(arch, task, topo, flows)
	s.numWorkers = e.numWorkers
	s.onLevelSolved = func(level int, channels []channel) {
		logger.WithFields(logrus.Fields{
			"rh":       level,
			"channels": len(channels),
		}).Debug("residual hop level solved")

		e.InvokeHook(hooking.HookCtx{
			Domain: e,
			Pos:    HookPosLevelSolved,
			Detail: LevelSolvedDetail{
				EstimationID: estimationID,
				Level:        level,
				NumChannels:  len(channels),
			},
		})
	}

	err = s.solve()
	if err != nil {
		logger.WithError(err).Debug("estimation failed")
		return nil, err
	}

	result := &Result{
		ID:             estimationID,
		Requests:       append([]Request(nil), task.Requests...),
		Latencies:      s.aggregateLatencies(),
		MaxResidualHop: flows.maxResidualHop(),
		InjectionRates: flows.injection,
	}

	for _, l := range flows.levels {
		result.NumChannels += len(l)
	}

	logger.WithFields(logrus.Fields{
		"requests": len(result.Latencies),
		"max_rh":   result.MaxResidualHop,
	}).Debug("estimation done")

	e.InvokeHook(hooking.HookCtx{
		Domain: e,
		Pos:    HookPosEstimated,
		Item:   result,
	})

	return result, nil
}
