package mapping

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/noclat/congestion"
	"github.com/sarchlab/noclat/estimator"
	"github.com/sarchlab/noclat/noc/mesh"
	"github.com/sirupsen/logrus"
)

var _ = Describe("OverlapCost", func() {
	var c *OverlapCost

	BeforeEach(func() {
		topo, err := mesh.NewTopology(4, 16, 6)
		Expect(err).ToNot(HaveOccurred())

		c = NewOverlapCost(topo)
	})

	It("should weight shared rows and columns by volume", func() {
		cost, err := c.Cost([]congestion.Volume{
			{Src: 0, Dst: 3, Volume: 10},
			{Src: 1, Dst: 2, Volume: 5},
			{Src: 4, Dst: 12, Volume: 1},
			{Src: 8, Dst: 0, Volume: 2},
		})

		Expect(err).ToNot(HaveOccurred())
		Expect(cost).To(Equal(21.0))
	})

	It("should be zero for a single transmission", func() {
		cost, err := c.Cost([]congestion.Volume{{Src: 0, Dst: 15, Volume: 10}})

		Expect(err).ToNot(HaveOccurred())
		Expect(cost).To(BeZero())
	})

	It("should reject routers outside of the mesh", func() {
		_, err := c.Cost([]congestion.Volume{
			{Src: 0, Dst: 3, Volume: 10},
			{Src: 1, Dst: 16, Volume: 5},
		})

		Expect(err).To(MatchError(mesh.ErrInvalidTopology))
	})
})

var _ = Describe("LatencyCost", func() {
	var (
		arch estimator.ArchConfig
		est  *estimator.Estimator
		c    *LatencyCost
	)

	BeforeEach(func() {
		logger := logrus.New()
		logger.SetLevel(logrus.WarnLevel)

		arch = estimator.DefaultArchConfig().WithDim(4)
		est = estimator.MakeBuilder().WithLogger(logger).Build()
		c = &LatencyCost{
			Estimator: est,
			Arch:      arch,
			Manager:   congestion.NewSmallFirst(16, 1),
		}
	})

	It("should aggregate the latencies of every phase", func() {
		graph := []congestion.Volume{
			{Src: 0, Dst: 5, Volume: 10},
			{Src: 1, Dst: 5, Volume: 20},
			{Src: 2, Dst: 9, Volume: 30},
		}

		phases, err := c.Manager.Inject(graph)
		Expect(err).ToNot(HaveOccurred())

		latencies := []float64{}
		for _, p := range phases {
			r, err := est.Estimate(arch, p.Task)
			Expect(err).ToNot(HaveOccurred())

			latencies = append(latencies, r.Latencies...)
		}

		maxCost, err := c.Cost(graph)
		Expect(err).ToNot(HaveOccurred())

		c.Aggregation = AggregateMean
		meanCost, err := c.Cost(graph)
		Expect(err).ToNot(HaveOccurred())

		sum, largest := 0.0, 0.0
		for _, l := range latencies {
			sum += l
			largest = math.Max(largest, l)
		}

		Expect(maxCost).To(BeNumerically("~", largest, 1e-9))
		Expect(meanCost).To(BeNumerically("~", sum/float64(len(latencies)), 1e-9))
	})

	It("should reject graphs that cannot be estimated", func() {
		cost, err := c.Cost([]congestion.Volume{{Src: 0, Dst: 16, Volume: 10}})

		Expect(err).ToNot(HaveOccurred())
		Expect(math.IsInf(cost, 1)).To(BeTrue())
	})

	It("should treat saturated workloads as invalid", func() {
		c.Manager = &congestion.SmallFirst{
			Scale:        1,
			Alpha:        0.3,
			PacketLength: 16,
			InjectionCV:  1,
		}

		cost, err := c.Cost([]congestion.Volume{{Src: 0, Dst: 1, Volume: 10}})

		Expect(err).ToNot(HaveOccurred())
		Expect(math.IsInf(cost, 1)).To(BeTrue())
	})

	It("should give a finite cost below saturation", func() {
		cost, err := c.Cost([]congestion.Volume{{Src: 0, Dst: 1, Volume: 10}})

		Expect(err).ToNot(HaveOccurred())
		Expect(cost).To(BeNumerically(">", 0))
		Expect(math.IsInf(cost, 0)).To(BeFalse())
	})

	It("should fail on invalid volumes", func() {
		_, err := c.Cost([]congestion.Volume{{Src: 0, Dst: 1, Volume: -1}})

		Expect(err).To(MatchError(congestion.ErrInvalidVolume))
	})
})
