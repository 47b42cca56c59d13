package mapping

import (
	"math/rand/v2"

	"github.com/sirupsen/logrus"
)

// Builder can build annealers.
type Builder struct {
	numRouters       int
	cost             CostFunc
	seed             uint64
	progress         Progress
	logger           logrus.FieldLogger
	initTemperature  float64
	minTemperature   float64
	coolingRate      float64
	globalEpochLimit int
	localEpochLimit  int
}

// MakeBuilder creates a builder with the default annealing schedule.
func MakeBuilder() Builder {
	return Builder{
		initTemperature:  1e5,
		minTemperature:   1e-2,
		coolingRate:      0.98,
		globalEpochLimit: 1_000_000,
		localEpochLimit:  100,
	}
}

// WithNumRouters sets the number of routers that nodes can be placed on.
func (b Builder) WithNumRouters(n int) Builder {
	b.numRouters = n
	return b
}

// WithCostFunc sets the function to minimize.
func (b Builder) WithCostFunc(c CostFunc) Builder {
	b.cost = c
	return b
}

// WithSeed sets the seed of the random source.
func (b Builder) WithSeed(seed uint64) Builder {
	b.seed = seed
	return b
}

// WithProgress sets where to report finished epochs.
func (b Builder) WithProgress(p Progress) Builder {
	b.progress = p
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(logger logrus.FieldLogger) Builder {
	b.logger = logger
	return b
}

// WithTemperatures sets the initial and the final temperature.
func (b Builder) WithTemperatures(initial, final float64) Builder {
	b.initTemperature = initial
	b.minTemperature = final

	return b
}

// WithCoolingRate sets the factor applied to the temperature after every
// epoch.
func (b Builder) WithCoolingRate(rate float64) Builder {
	b.coolingRate = rate
	return b
}

// WithEpochLimits sets the maximum number of epochs and the maximum number of
// disturbances tried in one epoch.
func (b Builder) WithEpochLimits(global, local int) Builder {
	b.globalEpochLimit = global
	b.localEpochLimit = local

	return b
}

// Build creates a new Annealer.
func (b Builder) Build() *Annealer {
	b.costFuncMustBeGiven()
	b.numRoutersMustBePositive()
	b.scheduleMustCool()

	a := &Annealer{
		numRouters:       b.numRouters,
		cost:             b.cost,
		rng:              rand.New(rand.NewPCG(b.seed, b.seed^0x9e3779b97f4a7c15)),
		progress:         b.progress,
		logger:           b.logger,
		initTemperature:  b.initTemperature,
		minTemperature:   b.minTemperature,
		coolingRate:      b.coolingRate,
		globalEpochLimit: b.globalEpochLimit,
		localEpochLimit:  b.localEpochLimit,
	}

	if a.logger == nil {
		a.logger = logrus.StandardLogger()
	}

	return a
}

func (b Builder) costFuncMustBeGiven() {
	if b.cost == nil {
		panic("annealer requires a cost function")
	}
}

func (b Builder) numRoutersMustBePositive() {
	if b.numRouters < 1 {
		panic("annealer requires at least one router")
	}
}

func (b Builder) scheduleMustCool() {
	if b.coolingRate <= 0 || b.coolingRate >= 1 {
		panic("cooling rate must be between 0 and 1")
	}

	if b.minTemperature <= 0 {
		panic("final temperature must be positive")
	}
}
