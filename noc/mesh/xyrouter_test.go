package mesh

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/noclat/noc/routing"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

func meshGraph(topo *Topology) *simple.UndirectedGraph {
	g := simple.NewUndirectedGraph()

	for r := 0; r < topo.NumRouters(); r++ {
		g.AddNode(simple.Node(r))
	}

	for r := 0; r < topo.NumRouters(); r++ {
		for _, p := range []routing.Port{South, East} {
			next, _, err := topo.Neighbor(r, p)
			if err != nil {
				continue
			}

			g.SetEdge(g.NewEdge(simple.Node(r), simple.Node(next)))
		}
	}

	return g
}

var _ = Describe("XYRouter", func() {
	var (
		topo   *Topology
		router *XYRouter
	)

	BeforeEach(func() {
		topo, _ = NewTopology(4, 16, 6)
		router = NewXYRouter(topo)
	})

	It("should route a router to itself", func() {
		for i := 0; i < topo.NumRouters(); i++ {
			p, err := router.Route(i, i)

			Expect(err).ToNot(HaveOccurred())
			Expect(p).To(Equal(routing.Path{{Router: i, In: Injection, Out: Ejection}}))
		}
	})

	It("should route along X first and then along Y", func() {
		p, err := router.Route(0, 10)

		Expect(err).ToNot(HaveOccurred())
		Expect(p).To(Equal(routing.Path{
			{Router: 0, In: Injection, Out: East},
			{Router: 1, In: West, Out: East},
			{Router: 2, In: West, Out: South},
			{Router: 6, In: North, Out: South},
			{Router: 10, In: North, Out: Ejection},
		}))
	})

	It("should route toward the top-left corner", func() {
		p, err := router.Route(15, 4)

		Expect(err).ToNot(HaveOccurred())
		Expect(p.Routers()).To(Equal([]int{15, 14, 13, 12, 8, 4}))
		Expect(p[0].Out).To(Equal(West))
		Expect(p[3].Out).To(Equal(North))
		Expect(p[5].In).To(Equal(South))
	})

	It("should reject routers outside the mesh", func() {
		_, err := router.Route(0, 16)

		Expect(err).To(MatchError(ErrInvalidTopology))
	})

	It("should always take a shortest path", func() {
		g := meshGraph(topo)

		for src := 0; src < topo.NumRouters(); src++ {
			shortest := path.DijkstraFrom(simple.Node(src), g)

			for dst := 0; dst < topo.NumRouters(); dst++ {
				p, err := router.Route(src, dst)
				Expect(err).ToNot(HaveOccurred())

				Expect(len(p) - 1).To(
					Equal(int(shortest.WeightTo(int64(dst)))))
			}
		}
	})

	It("should enter every router from where the last one left", func() {
		for src := 0; src < topo.NumRouters(); src++ {
			for dst := 0; dst < topo.NumRouters(); dst++ {
				p, _ := router.Route(src, dst)

				for i := 1; i < len(p); i++ {
					next, in, err := topo.Neighbor(p[i-1].Router, p[i-1].Out)

					Expect(err).ToNot(HaveOccurred())
					Expect(next).To(Equal(p[i].Router))
					Expect(in).To(Equal(p[i].In))
				}
			}
		}
	})
})
