package congestion

import (
	"fmt"
	"math"
	"sort"

	"github.com/sarchlab/noclat/estimator"
	"github.com/sarchlab/noclat/noc/routing"
)

// MaxMinFair shares the link bandwidth with a bottleneck-first allocation.
// The most shared links are settled first: their remaining bandwidth is split
// equally among the transmissions that cross them, and what each transmission
// receives is taken from every other link on its path.
type MaxMinFair struct {
	routing      routing.Algorithm
	PacketLength int

	// Bandwidth is the rate, in flits per cycle, shared on every link.
	Bandwidth float64
}

// NewMaxMinFair creates a MaxMinFair manager that routes transmissions with
// the given algorithm.
func NewMaxMinFair(alg routing.Algorithm) *MaxMinFair {
	return &MaxMinFair{
		routing:      alg,
		PacketLength: 16,
		Bandwidth:    DefaultBandwidth,
	}
}

type link struct {
	router int
	port   routing.Port
}

type allocation struct {
	volumes   []Volume
	links     [][]link
	crossings map[link][]int
	remaining map[link]float64
	rates     []float64
}

// Inject allocates one rate for every transmission. All transmissions share a
// single phase.
func (m *MaxMinFair) Inject(volumes []Volume) ([]Phase, error) {
	if m.Bandwidth <= 0 || math.IsInf(m.Bandwidth, 0) || math.IsNaN(m.Bandwidth) {
		return nil, fmt.Errorf("%w: bandwidth %v is not a positive rate",
			ErrInvalidVolume, m.Bandwidth)
	}

	merged := Merge(volumes)

	a, err := m.route(merged)
	if err != nil {
		return nil, err
	}

	for _, l := range a.bottleneckOrder() {
		a.settle(l)
	}

	task := estimator.TaskConfig{
		Requests:     make([]estimator.Request, len(merged)),
		PacketLength: m.PacketLength,
		InjectionCV:  0,
	}

	for i, v := range merged {
		task.Requests[i] = estimator.Request{
			Src:  v.Src,
			Dst:  v.Dst,
			Rate: a.rates[i],
		}
	}

	return []Phase{{Task: task, Volumes: merged}}, nil
}

func (m *MaxMinFair) route(volumes []Volume) (*allocation, error) {
	a := &allocation{
		volumes:   volumes,
		links:     make([][]link, len(volumes)),
		crossings: make(map[link][]int),
		remaining: make(map[link]float64),
		rates:     make([]float64, len(volumes)),
	}

	for i, v := range volumes {
		path, err := m.routing.Route(v.Src, v.Dst)
		if err != nil {
			return nil, fmt.Errorf("%w: %d->%d: %w",
				ErrInvalidVolume, v.Src, v.Dst, err)
		}

		// The last hop leaves the network and does not use a link.
		for _, h := range path[:len(path)-1] {
			l := link{router: h.Router, port: h.Out}
			a.links[i] = append(a.links[i], l)
			a.crossings[l] = append(a.crossings[l], i)
			a.remaining[l] = m.Bandwidth
		}
	}

	return a, nil
}

// bottleneckOrder lists the links from the most crossed to the least crossed.
func (a *allocation) bottleneckOrder() []link {
	count := make(map[link]int, len(a.crossings))
	order := make([]link, 0, len(a.crossings))

	for l, c := range a.crossings {
		count[l] = len(c)
		order = append(order, l)
	}

	sort.Slice(order, func(i, j int) bool {
		li, lj := order[i], order[j]
		if count[li] != count[lj] {
			return count[li] > count[lj]
		}

		if li.router != lj.router {
			return li.router < lj.router
		}

		return li.port < lj.port
	})

	return order
}

func (a *allocation) settle(l link) {
	unsettled := a.crossings[l]
	if len(unsettled) == 0 {
		return
	}

	share := a.remaining[l] / float64(len(unsettled))

	for _, i := range unsettled {
		a.rates[i] = share

		for _, other := range a.links[i] {
			a.remaining[other] -= share

			if other != l {
				a.crossings[other] = remove(a.crossings[other], i)
			}
		}
	}

	a.crossings[l] = nil
}

func remove(list []int, v int) []int {
	out := list[:0]

	for _, x := range list {
		if x != v {
			out = append(out, x)
		}
	}

	return out
}
