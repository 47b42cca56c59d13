package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/noclat/estimator"
	"github.com/sirupsen/logrus"
)

const archYAML = `
dim: 2
num_routers: 4
`

const taskYAML = `
requests:
  - {src: 0, dst: 3, rate: 0.1}
  - {src: 0, dst: 1, rate: 0.05}
  - {src: 1, dst: 2, rate: 0.07}
  - {src: 2, dst: 3, rate: 0.1}
`

func writeFile(dir, name, content string) string {
	filename := filepath.Join(dir, name)
	Expect(os.WriteFile(filename, []byte(content), 0o644)).To(Succeed())

	return filename
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	return logger
}

var _ = Describe("estimate", func() {
	var (
		dir  string
		out  *bytes.Buffer
		opts estimateOptions
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		out = bytes.NewBuffer(nil)
		opts = estimateOptions{
			archFile: writeFile(dir, "arch.yaml", archYAML),
			taskFile: writeFile(dir, "task.yaml", taskYAML),
			manager:  "small-first",
			format:   "text",
			workers:  1,
		}
	})

	It("should print the latency of every request", func() {
		Expect(runEstimate(opts, out, quietLogger())).To(Succeed())

		Expect(out.String()).To(ContainSubstring("29.565915"))
		Expect(out.String()).To(ContainSubstring("24.558757"))
		Expect(out.String()).To(ContainSubstring("mean"))
	})

	It("should print JSON results", func() {
		opts.format = "json"

		Expect(runEstimate(opts, out, quietLogger())).To(Succeed())

		output := []struct {
			Phase  int               `json:"phase"`
			Result *estimator.Result `json:"result"`
		}{}
		Expect(json.Unmarshal(out.Bytes(), &output)).To(Succeed())
		Expect(output).To(HaveLen(1))
		Expect(output[0].Result.Latencies[1]).
			To(BeNumerically("~", 24.49340024211301, 1e-6))
	})

	It("should estimate every phase of a graph", func() {
		opts.taskFile = ""
		opts.graphFile = writeFile(dir, "graph.txt", "0,1,10\n1,3,20\n2,0,30\n3,2,40\n")

		Expect(runEstimate(opts, out, quietLogger())).To(Succeed())
		Expect(out.String()).To(ContainSubstring("phase 2"))

		out.Reset()
		opts.manager = "max-min"

		Expect(runEstimate(opts, out, quietLogger())).To(Succeed())
		Expect(out.String()).ToNot(ContainSubstring("phase"))
	})

	It("should record the results", func() {
		opts.recordPath = filepath.Join(dir, "results")

		Expect(runEstimate(opts, out, quietLogger())).To(Succeed())
		Expect(filepath.Join(dir, "results.sqlite3")).To(BeAnExistingFile())

		err := runEstimate(opts, out, quietLogger())
		Expect(err).To(MatchError(ContainSubstring("already exists")))
	})

	It("should log solved levels on request", func() {
		logs := bytes.NewBuffer(nil)
		logger := logrus.New()
		logger.SetOutput(logs)
		logger.SetLevel(logrus.InfoLevel)
		opts.showLevels = true

		Expect(runEstimate(opts, out, logger)).To(Succeed())

		Expect(logs.String()).To(ContainSubstring("pos=LevelSolved"))
	})

	It("should reject unknown managers", func() {
		opts.graphFile = writeFile(dir, "graph.txt", "0,1,10\n")
		opts.manager = "fifo"

		Expect(runEstimate(opts, out, quietLogger())).
			To(MatchError(ContainSubstring("fifo")))
	})

	It("should report invalid networks", func() {
		opts.archFile = writeFile(dir, "bad.yaml", "dim: 2\nnum_routers: 5\n")

		Expect(runEstimate(opts, out, quietLogger())).
			To(MatchError(estimator.ErrInvalidConfig))
	})
})
