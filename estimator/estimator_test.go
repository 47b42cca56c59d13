package estimator

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/noclat/hooking"
	"github.com/sarchlab/noclat/noc/mesh"
	"github.com/sarchlab/noclat/noc/routing"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Estimator", func() {
	var (
		mockCtrl *gomock.Controller
		e        *Estimator
		arch     ArchConfig
		task     TaskConfig
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		e = MakeBuilder().Build()

		arch = DefaultArchConfig().WithDim(2)
		task = DefaultTaskConfig()
		task.Requests = []Request{
			{Src: 0, Dst: 3, Rate: 0.1},
			{Src: 0, Dst: 1, Rate: 0.05},
			{Src: 1, Dst: 2, Rate: 0.07},
			{Src: 2, Dst: 3, Rate: 0.1},
		}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should estimate one finite positive latency per request", func() {
		result, err := e.Estimate(arch, task)

		Expect(err).ToNot(HaveOccurred())
		Expect(result.Latencies).To(HaveLen(4))

		expected := []float64{
			29.565914902648245,
			24.49340024211301,
			28.274540125286503,
			24.558756890923156,
		}
		for i, l := range result.Latencies {
			Expect(math.IsInf(l, 0) || math.IsNaN(l)).To(BeFalse())
			Expect(l).To(BeNumerically(">", 0))
			Expect(l).To(BeNumerically("~", expected[i], 1e-6))
		}

		Expect(result.MaxResidualHop).To(Equal(2))
		Expect(result.Max()).To(Equal(result.Latencies[0]))
		Expect(result.Mean()).To(BeNumerically("~", 26.7231530, 1e-6))
	})

	It("should be deterministic", func() {
		first, err := e.Estimate(arch, task)
		Expect(err).ToNot(HaveOccurred())

		second, err := e.Estimate(arch, task)
		Expect(err).ToNot(HaveOccurred())

		Expect(second.Latencies).To(Equal(first.Latencies))
		Expect(second.ID).ToNot(Equal(first.ID))
	})

	It("should not let one estimation affect the next", func() {
		bigArch := DefaultArchConfig().WithDim(4)
		bigTask := DefaultTaskConfig()
		bigTask.Requests = []Request{{Src: 0, Dst: 15, Rate: 0.3}}

		before, _ := e.Estimate(arch, task)
		_, err := e.Estimate(bigArch, bigTask)
		Expect(err).ToNot(HaveOccurred())
		after, _ := e.Estimate(arch, task)

		Expect(after.Latencies).To(Equal(before.Latencies))
	})

	It("should not decrease any latency when the load grows", func() {
		base := append([]Request(nil), task.Requests...)
		previous := make([]float64, len(base))
		saturated := false

		for k := 1.0; k <= 20 && !saturated; k += 0.5 {
			for i := range base {
				task.Requests[i].Rate = base[i].Rate * k
			}

			result, err := e.Estimate(arch, task)
			if err != nil {
				Expect(err).To(MatchError(ErrNumericalInstability))
				Expect(result).To(BeNil())
				saturated = true

				continue
			}

			for i, l := range result.Latencies {
				Expect(l).To(BeNumerically(">=", previous[i]), "k = %v", k)
			}

			previous = result.Latencies
		}

		Expect(saturated).To(BeTrue())
	})

	It("should refuse to estimate a saturated workload", func() {
		for i := range task.Requests {
			task.Requests[i].Rate *= 8
		}

		result, err := e.Estimate(arch, task)

		Expect(result).To(BeNil())
		Expect(err).To(MatchError(ErrNumericalInstability))

		var instability *InstabilityError
		Expect(errors.As(err, &instability)).To(BeTrue())
		Expect(instability.Saturated()).To(BeTrue())
	})

	It("should estimate a request to the same router", func() {
		task.Requests = []Request{{Src: 3, Dst: 3, Rate: 0.16}}

		result, err := e.Estimate(arch, task)

		Expect(err).ToNot(HaveOccurred())
		Expect(result.Latencies[0]).To(BeNumerically("~", 19.87048192771084, 1e-6))
		Expect(result.MaxResidualHop).To(Equal(0))
	})

	It("should estimate an empty task", func() {
		task.Requests = nil

		result, err := e.Estimate(arch, task)

		Expect(err).ToNot(HaveOccurred())
		Expect(result.Latencies).To(BeEmpty())
		Expect(result.Max()).To(Equal(0.0))
		Expect(result.Mean()).To(Equal(0.0))
	})

	Context("when the configuration is invalid", func() {
		It("should reject n != d*d before routing", func() {
			routed := false
			e = MakeBuilder().
				WithRoutingFactory(func(topo *mesh.Topology) routing.Algorithm {
					routed = true
					return mesh.NewXYRouter(topo)
				}).
				Build()

			arch.Dim = 3
			arch.NumRouters = 8

			_, err := e.Estimate(arch, task)

			Expect(err).To(MatchError(ErrInvalidConfig))
			Expect(err).To(MatchError(mesh.ErrInvalidTopology))
			Expect(routed).To(BeFalse())
		})

		It("should reject routers without the mesh ports", func() {
			arch.PortsPerRouter = 4

			_, err := e.Estimate(arch, task)

			Expect(err).To(MatchError(ErrInvalidConfig))
		})

		It("should reject requests outside the mesh", func() {
			task.Requests = append(task.Requests, Request{Src: 0, Dst: 4, Rate: 0.1})

			_, err := e.Estimate(arch, task)

			Expect(err).To(MatchError(ErrInvalidConfig))
		})

		It("should reject duplicated requests", func() {
			task.Requests = append(task.Requests, Request{Src: 0, Dst: 3, Rate: 0.2})

			_, err := e.Estimate(arch, task)

			Expect(err).To(MatchError(ErrInvalidConfig))
		})

		It("should reject invalid rates", func() {
			task.Requests[1].Rate = math.NaN()

			_, err := e.Estimate(arch, task)

			Expect(err).To(MatchError(ErrInvalidConfig))
		})

		It("should reject empty packets", func() {
			task.PacketLength = 0

			_, err := e.Estimate(arch, task)

			Expect(err).To(MatchError(ErrInvalidConfig))
		})

		It("should reject negative delays", func() {
			arch.WireDelay = -1

			_, err := e.Estimate(arch, task)

			Expect(err).To(MatchError(ErrInvalidConfig))
		})
	})

	It("should report numerical instability", func() {
		task.PacketLength = 1
		task.Requests = []Request{
			{Src: 0, Dst: 1, Rate: math.MaxFloat64},
			{Src: 0, Dst: 3, Rate: math.MaxFloat64},
		}

		result, err := e.Estimate(arch, task)

		Expect(result).To(BeNil())
		Expect(err).To(MatchError(ErrNumericalInstability))
	})

	It("should use the routing algorithm of the factory", func() {
		alg := NewMockAlgorithm(mockCtrl)
		alg.EXPECT().Route(0, 1).Return(routing.Path{
			{Router: 0, In: mesh.Injection, Out: mesh.East},
			{Router: 1, In: mesh.West, Out: mesh.Ejection},
		}, nil)

		e = MakeBuilder().
			WithRoutingFactory(func(*mesh.Topology) routing.Algorithm {
				return alg
			}).
			Build()
		task.Requests = []Request{{Src: 0, Dst: 1, Rate: 0.16}}

		result, err := e.Estimate(arch, task)

		Expect(err).ToNot(HaveOccurred())
		Expect(result.Latencies[0]).To(BeNumerically("~", 25.18906582906032, 1e-6))
	})

	It("should invoke hooks for every level and at the end", func() {
		hook := NewMockHook(mockCtrl)
		e.AcceptHook(hook)

		levels := []int{}
		hook.EXPECT().
			Func(gomock.Any()).
			Do(func(ctx hooking.HookCtx) {
				Expect(ctx.Domain).To(BeIdenticalTo(e))
				Expect(ctx.Pos).To(BeIdenticalTo(HookPosLevelSolved))
				levels = append(levels, ctx.Detail.(LevelSolvedDetail).Level)
			}).
			Times(3)
		hook.EXPECT().
			Func(gomock.Any()).
			Do(func(ctx hooking.HookCtx) {
				Expect(ctx.Pos).To(BeIdenticalTo(HookPosEstimated))
				Expect(ctx.Item.(*Result).Latencies).To(HaveLen(4))
			})

		_, err := e.Estimate(arch, task)

		Expect(err).ToNot(HaveOccurred())
		Expect(levels).To(Equal([]int{0, 1, 2}))
	})

	It("should weight the mean latency by rate", func() {
		result, _ := e.Estimate(arch, task)

		weighted := 0.0
		total := 0.0
		for i, req := range task.Requests {
			weighted += req.Rate * result.Latencies[i]
			total += req.Rate
		}

		Expect(result.WeightedMean()).
			To(BeNumerically("~", weighted/total, 1e-9))
	})

	It("should panic without a routing factory", func() {
		Expect(func() {
			MakeBuilder().WithRoutingFactory(nil).Build()
		}).To(Panic())
	})
})
