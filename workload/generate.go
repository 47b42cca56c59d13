package workload

import (
	"math/rand/v2"

	"github.com/sarchlab/noclat/congestion"
	"gonum.org/v1/gonum/stat/distuv"
)

// GenerateGraph creates a random communication graph between n nodes. Every
// node sends to about n/2 distinct other nodes, with volumes drawn from a
// normal distribution around meanVolume. Negative volumes are clamped to 0.
func GenerateGraph(n int, meanVolume float64, src rand.Source) []congestion.Volume {
	rng := rand.New(src)
	outDegree := distuv.Normal{Mu: float64(n) / 2, Sigma: 1, Src: src}
	volume := distuv.Normal{Mu: meanVolume, Sigma: meanVolume * 0.32, Src: src}

	graph := []congestion.Volume{}

	for node := 0; node < n; node++ {
		degree := min(max(int(outDegree.Rand()), 0), n-1)

		for _, dst := range rng.Perm(n)[:degree] {
			if dst == node {
				continue
			}

			graph = append(graph, congestion.Volume{Src: node, Dst: dst})
		}
	}

	rng.Shuffle(len(graph), func(i, j int) {
		graph[i], graph[j] = graph[j], graph[i]
	})

	for i := range graph {
		graph[i].Volume = max(volume.Rand(), 0)
	}

	return graph
}
