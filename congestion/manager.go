// Package congestion turns transmission volumes into the injection rates that
// the estimator consumes.
package congestion

import (
	"errors"
	"sort"

	"github.com/sarchlab/noclat/estimator"
)

// ErrInvalidVolume is returned when a volume graph cannot be turned into
// injection rates.
var ErrInvalidVolume = errors.New("invalid volume")

// DefaultBandwidth is the rate, in flits per cycle, that the managers hand
// out on a channel unless told otherwise. A full channel (one flit per cycle)
// saturates the queueing model of the estimator, which then refuses to
// estimate.
const DefaultBandwidth = 0.25

// A Volume is the amount of data, in bits, sent from router Src to router Dst.
type Volume struct {
	Src    int     `yaml:"src" json:"src"`
	Dst    int     `yaml:"dst" json:"dst"`
	Volume float64 `yaml:"volume" json:"volume"`
}

// A Phase is a set of transmissions that happen at the same time.
type Phase struct {
	Task    estimator.TaskConfig
	Volumes []Volume
}

// Duration returns how long the first transmission of the phase lasts, in
// cycles, given the number of bits in a flit.
func (p Phase) Duration(flitWidth int) float64 {
	if len(p.Volumes) == 0 || len(p.Task.Requests) == 0 {
		return 0
	}

	rate := p.Task.Requests[0].Rate
	if rate == 0 || flitWidth == 0 {
		return 0
	}

	return p.Volumes[0].Volume / (rate * float64(flitWidth))
}

// A Manager decides the injection rates of the transmissions.
type Manager interface {
	Inject(volumes []Volume) ([]Phase, error)
}

// Merge sums the volumes sent between the same pair of routers. The pairs
// keep the order of their first appearance.
func Merge(volumes []Volume) []Volume {
	type pair struct{ src, dst int }

	index := make(map[pair]int, len(volumes))
	merged := make([]Volume, 0, len(volumes))

	for _, v := range volumes {
		p := pair{v.Src, v.Dst}
		if i, found := index[p]; found {
			merged[i].Volume += v.Volume
			continue
		}

		index[p] = len(merged)
		merged = append(merged, v)
	}

	return merged
}

func sortBySize(volumes []Volume) []Volume {
	sorted := make([]Volume, len(volumes))
	copy(sorted, volumes)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Volume < sorted[j].Volume
	})

	return sorted
}
