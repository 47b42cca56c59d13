package workload

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/noclat/estimator"
)

var _ = Describe("Config files", func() {
	It("should read YAML networks over the defaults", func() {
		arch, err := ReadArch("arch.yaml", []byte(`
dim: 4
num_routers: 16
wire_delay: 2
`))

		Expect(err).ToNot(HaveOccurred())

		expected := estimator.DefaultArchConfig().WithDim(4)
		expected.WireDelay = 2
		Expect(arch).To(Equal(expected))
	})

	It("should read JSON tasks", func() {
		task, err := ReadTask("task.json", []byte(`{
			"packet_length": 8,
			"requests": [{"src": 0, "dst": 3, "rate": 0.1}]
		}`))

		Expect(err).ToNot(HaveOccurred())
		Expect(task.PacketLength).To(Equal(8))
		Expect(task.InjectionCV).To(Equal(1.0))
		Expect(task.Requests).To(Equal([]estimator.Request{
			{Src: 0, Dst: 3, Rate: 0.1},
		}))
	})

	It("should report parse errors with the file name", func() {
		_, err := ReadTask("task.yml", []byte("requests: [oops"))

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("task.yml"))
	})

	It("should fail on missing files", func() {
		_, err := ReadArch(filepath.Join(GinkgoT().TempDir(), "missing.yaml"), nil)

		Expect(err).To(HaveOccurred())
	})

	DescribeTable("should write files that can be read back",
		func(name string) {
			filename := filepath.Join(GinkgoT().TempDir(), name)
			task := estimator.DefaultTaskConfig()
			task.Requests = []estimator.Request{{Src: 1, Dst: 2, Rate: 0.25}}

			Expect(WriteToFile(filename, task)).To(Succeed())

			read, err := ReadTask(filename, nil)
			Expect(err).ToNot(HaveOccurred())
			Expect(read).To(Equal(task))
		},
		Entry("yaml", "task.yaml"),
		Entry("json", "task.json"),
	)
})
