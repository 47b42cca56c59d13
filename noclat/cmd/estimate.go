package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/sarchlab/noclat/congestion"
	"github.com/sarchlab/noclat/datarecording"
	"github.com/sarchlab/noclat/estimator"
	"github.com/sarchlab/noclat/hooking"
	"github.com/sarchlab/noclat/id"
	"github.com/sarchlab/noclat/noc/mesh"
	"github.com/sarchlab/noclat/workload"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate the latency of every request of a task.",
	Long: "`estimate --arch arch.yaml --task task.yaml` estimates the " +
		"requests of a task. With `--graph`, the injection rates are derived " +
		"from the volumes of a communication graph by a congestion manager.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts := estimateOptions{
			archFile:   viper.GetString("arch"),
			taskFile:   viper.GetString("task"),
			graphFile:  viper.GetString("graph"),
			manager:    viper.GetString("manager"),
			recordPath: viper.GetString("record"),
			format:     viper.GetString("format"),
			workers:    viper.GetInt("workers"),
			showLevels: viper.GetBool("show-levels"),
		}

		return runEstimate(opts, cmd.OutOrStdout(), logrus.StandardLogger())
	},
}

func init() {
	estimateCmd.Flags().String("arch", "", "network description (YAML or JSON)")
	estimateCmd.Flags().String("task", "", "traffic description (YAML or JSON)")
	estimateCmd.Flags().String("graph", "",
		"communication graph with one src,dst,volume line per transmission")
	estimateCmd.Flags().String("manager", "small-first",
		"congestion manager for graphs: small-first or max-min")
	estimateCmd.Flags().String("record", "",
		"record the results into this SQLite database (without extension)")
	estimateCmd.Flags().String("format", "text", "output format: text or json")
	estimateCmd.Flags().Bool("show-levels", false,
		"log every solved residual hop level")

	rootCmd.AddCommand(estimateCmd)
}

type estimateOptions struct {
	archFile   string
	taskFile   string
	graphFile  string
	manager    string
	recordPath string
	format     string
	workers    int
	showLevels bool
}

func runEstimate(
	opts estimateOptions,
	out io.Writer,
	logger logrus.FieldLogger,
) error {
	arch, task, err := loadArchAndTask(opts.archFile, opts.taskFile)
	if err != nil {
		return err
	}

	e := estimator.MakeBuilder().
		WithNumWorkers(max(opts.workers, 1)).
		WithLogger(logger).
		WithIDGenerator(id.NewXID()).
		Build()

	if opts.showLevels {
		e.AcceptHook(hooking.OnPos(estimator.HookPosLevelSolved,
			hooking.NewLogHook(logger).WithLevel(logrus.InfoLevel)))
	}

	var recorder *datarecording.LatencyRecorder
	if opts.recordPath != "" {
		db, err := openRecorder(opts.recordPath)
		if err != nil {
			return err
		}
		defer db.Close()

		recorder = datarecording.NewLatencyRecorder(db)
		e.AcceptHook(recorder)
	}

	phases := []congestion.Phase{{Task: task}}
	if opts.graphFile != "" {
		phases, err = injectGraph(opts, arch, task)
		if err != nil {
			return err
		}
	}

	results := make([]*estimator.Result, 0, len(phases))
	for i, p := range phases {
		if recorder != nil {
			recorder.WithLabel(fmt.Sprintf("phase-%d", i))
		}

		result, err := e.Estimate(arch, p.Task)
		if err != nil {
			return fmt.Errorf("phase %d: %w", i, err)
		}

		logger.WithFields(logrus.Fields{
			"phase":    i,
			"requests": len(result.Latencies),
			"max":      result.Max(),
			"mean":     result.Mean(),
		}).Info("estimated")

		results = append(results, result)
	}

	if opts.format == "json" {
		return writeJSONResults(out, phases, results, arch.FlitWidth)
	}

	return writeTextResults(out, phases, results, arch.FlitWidth)
}

func openRecorder(path string) (datarecording.DataRecorder, error) {
	_, err := os.Stat(path + ".sqlite3")
	if err == nil {
		return nil, fmt.Errorf("database %s.sqlite3 already exists", path)
	}

	return datarecording.New(path), nil
}

func loadArchAndTask(
	archFile, taskFile string,
) (estimator.ArchConfig, estimator.TaskConfig, error) {
	arch := estimator.DefaultArchConfig()
	task := estimator.DefaultTaskConfig()

	var err error
	if archFile != "" {
		arch, err = workload.ReadArch(archFile, nil)
		if err != nil {
			return arch, task, err
		}
	}

	if taskFile != "" {
		task, err = workload.ReadTask(taskFile, nil)
		if err != nil {
			return arch, task, err
		}
	}

	return arch, task, nil
}

func injectGraph(
	opts estimateOptions,
	arch estimator.ArchConfig,
	task estimator.TaskConfig,
) ([]congestion.Phase, error) {
	graph, err := workload.LoadGraph(opts.graphFile)
	if err != nil {
		return nil, err
	}

	manager, err := newManager(opts.manager, arch, task)
	if err != nil {
		return nil, err
	}

	return manager.Inject(graph)
}

func newManager(
	name string,
	arch estimator.ArchConfig,
	task estimator.TaskConfig,
) (congestion.Manager, error) {
	switch name {
	case "small-first", "sf":
		return congestion.NewSmallFirst(task.PacketLength, task.InjectionCV), nil
	case "max-min", "mm":
		topo, err := mesh.NewTopology(arch.Dim, arch.NumRouters,
			arch.PortsPerRouter)
		if err != nil {
			return nil, err
		}

		return congestion.NewMaxMinFair(mesh.NewXYRouter(topo)), nil
	default:
		return nil, fmt.Errorf("unknown congestion manager %q", name)
	}
}

type phaseOutput struct {
	Phase    int               `json:"phase"`
	Duration float64           `json:"duration"`
	Result   *estimator.Result `json:"result"`
}

func writeJSONResults(
	out io.Writer,
	phases []congestion.Phase,
	results []*estimator.Result,
	flitWidth int,
) error {
	output := make([]phaseOutput, len(results))
	for i, r := range results {
		output[i] = phaseOutput{
			Phase:    i,
			Duration: phases[i].Duration(flitWidth),
			Result:   r,
		}
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")

	return encoder.Encode(output)
}

func writeTextResults(
	out io.Writer,
	phases []congestion.Phase,
	results []*estimator.Result,
	flitWidth int,
) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	for i, r := range results {
		if len(results) > 1 {
			fmt.Fprintf(w, "phase %d\tduration %.3f\n",
				i, phases[i].Duration(flitWidth))
		}

		fmt.Fprintln(w, "src\tdst\trate\tlatency")
		for j, l := range r.Latencies {
			req := r.Requests[j]
			fmt.Fprintf(w, "%d\t%d\t%.6g\t%.6f\n", req.Src, req.Dst, req.Rate, l)
		}

		fmt.Fprintf(w, "max\t\t\t%.6f\n", r.Max())
		fmt.Fprintf(w, "mean\t\t\t%.6f\n", r.Mean())
	}

	return w.Flush()
}
