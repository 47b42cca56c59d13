package estimator

import (
	"github.com/sarchlab/noclat/id"
	"github.com/sirupsen/logrus"
)

// Builder can build estimators.
type Builder struct {
	routingFactory RoutingFactory
	numWorkers     int
	logger         logrus.FieldLogger
	idGenerator    id.Generator
}

// MakeBuilder creates a builder with XY routing and a sequential solver.
func MakeBuilder() Builder {
	return Builder{
		routingFactory: XYRouting,
		numWorkers:     1,
	}
}

// WithRoutingFactory sets how the routing algorithm is created for each
// topology.
func (b Builder) WithRoutingFactory(f RoutingFactory) Builder {
	b.routingFactory = f
	return b
}

// WithNumWorkers sets the number of goroutines that solve the channels of a
// residual hop level.
func (b Builder) WithNumWorkers(n int) Builder {
	b.numWorkers = n
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(logger logrus.FieldLogger) Builder {
	b.logger = logger
	return b
}

// WithIDGenerator sets the generator of estimation IDs.
func (b Builder) WithIDGenerator(g id.Generator) Builder {
	b.idGenerator = g
	return b
}

// Build creates a new Estimator.
func (b Builder) Build() *Estimator {
	b.routingFactoryMustBeGiven()
	b.numWorkersMustBePositive()

	e := &Estimator{
		routingFactory: b.routingFactory,
		numWorkers:     b.numWorkers,
		logger:         b.logger,
		idGenerator:    b.idGenerator,
	}

	if e.logger == nil {
		e.logger = logrus.StandardLogger()
	}

	if e.idGenerator == nil {
		e.idGenerator = id.NewSequential("")
	}

	return e
}

func (b Builder) routingFactoryMustBeGiven() {
	if b.routingFactory == nil {
		panic("estimator requires a routing factory")
	}
}

func (b Builder) numWorkersMustBePositive() {
	if b.numWorkers < 1 {
		panic("estimator requires at least one worker")
	}
}
