package estimator

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Result is the outcome of one estimation.
type Result struct {
	ID string `json:"id"`

	// Requests holds the requests of the estimated task.
	Requests []Request `json:"requests"`

	// Latencies holds the mean latency of every request, in cycles, in the
	// order of the requests.
	Latencies []float64 `json:"latencies"`

	// MaxResidualHop is the largest residual hop of a used channel, or -1 if
	// no channel is used.
	MaxResidualHop int `json:"max_residual_hop"`

	// NumChannels is the number of output channels used by at least one
	// request.
	NumChannels int `json:"num_channels"`

	// InjectionRates holds the packet rate injected at every router.
	InjectionRates []float64 `json:"injection_rates"`
}

// Max returns the largest latency, or 0 if there is no request.
func (r *Result) Max() float64 {
	if len(r.Latencies) == 0 {
		return 0
	}

	return floats.Max(r.Latencies)
}

// Mean returns the average latency, or 0 if there is no request.
func (r *Result) Mean() float64 {
	if len(r.Latencies) == 0 {
		return 0
	}

	return stat.Mean(r.Latencies, nil)
}

// WeightedMean returns the average latency weighted by the request rates.
func (r *Result) WeightedMean() float64 {
	if len(r.Latencies) == 0 {
		return 0
	}

	weights := make([]float64, len(r.Requests))
	for i, req := range r.Requests {
		weights[i] = req.Rate
	}

	if floats.Sum(weights) == 0 {
		return r.Mean()
	}

	return stat.Mean(r.Latencies, weights)
}
