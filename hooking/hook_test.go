package hooking

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
)

type countingHook struct {
	positions []string
}

func (h *countingHook) Func(ctx HookCtx) {
	h.positions = append(h.positions, ctx.Pos.Name)
}

var _ = Describe("HookableBase", func() {
	var (
		base *HookableBase
		pos  *HookPos
	)

	BeforeEach(func() {
		base = &HookableBase{}
		pos = &HookPos{Name: "Test"}
	})

	It("should invoke all hooks in order", func() {
		h1 := &countingHook{}
		h2 := &countingHook{}
		base.AcceptHook(h1)
		base.AcceptHook(h2)

		base.InvokeHook(HookCtx{Domain: base, Pos: pos})

		Expect(base.NumHooks()).To(Equal(2))
		Expect(base.Hooks()).To(Equal([]Hook{h1, h2}))
		Expect(h1.positions).To(Equal([]string{"Test"}))
		Expect(h2.positions).To(Equal([]string{"Test"}))
	})

	It("should panic on duplicated hooks", func() {
		h := &countingHook{}
		base.AcceptHook(h)

		Expect(func() { base.AcceptHook(h) }).To(Panic())
	})

	It("should adapt functions", func() {
		calls := 0
		base.AcceptHook(HookFunc(func(ctx HookCtx) {
			Expect(ctx.Pos).To(BeIdenticalTo(pos))
			calls++
		}))

		base.InvokeHook(HookCtx{Domain: base, Pos: pos})

		Expect(calls).To(Equal(1))
	})

	It("should filter by position", func() {
		other := &HookPos{Name: "Other"}
		h := &countingHook{}
		base.AcceptHook(OnPos(pos, h))

		base.InvokeHook(HookCtx{Domain: base, Pos: other})
		base.InvokeHook(HookCtx{Domain: base, Pos: pos})

		Expect(h.positions).To(Equal([]string{"Test"}))
	})

	It("should not expose the internal hook list", func() {
		base.AcceptHook(&countingHook{})

		hooks := base.Hooks()
		hooks[0] = nil

		Expect(base.Hooks()[0]).NotTo(BeNil())
	})
})

var _ = Describe("LogHook", func() {
	It("should log the position and the fields", func() {
		buf := new(bytes.Buffer)
		logger := logrus.New()
		logger.SetOutput(buf)
		logger.SetLevel(logrus.DebugLevel)

		h := NewLogHook(logger)
		h.Func(HookCtx{
			Pos:    &HookPos{Name: "LevelSolved"},
			Detail: logrus.Fields{"rh": 3},
		})

		Expect(buf.String()).To(ContainSubstring("pos=LevelSolved"))
		Expect(buf.String()).To(ContainSubstring("rh=3"))
	})

	It("should respect the logger level", func() {
		buf := new(bytes.Buffer)
		logger := logrus.New()
		logger.SetOutput(buf)
		logger.SetLevel(logrus.InfoLevel)

		NewLogHook(logger).Func(HookCtx{Pos: &HookPos{Name: "Quiet"}})
		Expect(buf.String()).To(BeEmpty())

		NewLogHook(logger).WithLevel(logrus.InfoLevel).
			Func(HookCtx{Pos: &HookPos{Name: "Loud"}})
		Expect(buf.String()).To(ContainSubstring("pos=Loud"))
	})
})
