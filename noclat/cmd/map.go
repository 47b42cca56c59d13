package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/pkg/browser"
	"github.com/sarchlab/noclat/estimator"
	"github.com/sarchlab/noclat/mapping"
	"github.com/sarchlab/noclat/monitoring"
	"github.com/sarchlab/noclat/noc/mesh"
	"github.com/sarchlab/noclat/workload"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Map a communication graph onto the routers of a mesh.",
	Long: "`map --graph comm.txt --dim 4 --out task.txt` searches a " +
		"placement of the nodes of the communication graph with simulated " +
		"annealing and writes the graph with nodes replaced by routers.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts := mapOptions{
			graphFile:   viper.GetString("graph"),
			outFile:     viper.GetString("out"),
			archFile:    viper.GetString("arch"),
			dim:         viper.GetInt("dim"),
			cost:        viper.GetString("cost"),
			aggregation: viper.GetString("aggregation"),
			manager:     viper.GetString("manager"),
			seed:        viper.GetUint64("seed"),
			monitor:     viper.GetBool("monitor"),
			open:        viper.GetBool("open"),
			workers:     viper.GetInt("workers"),
		}

		return runMap(opts, cmd.OutOrStdout(), logrus.StandardLogger())
	},
}

func init() {
	mapCmd.Flags().String("graph", "", "communication graph to map")
	mapCmd.Flags().String("out", "", "where to write the mapped task graph")
	mapCmd.Flags().String("arch", "",
		"network description; overrides --dim when given")
	mapCmd.Flags().Int("dim", 4, "number of routers along one side of the mesh")
	mapCmd.Flags().String("cost", "overlap",
		"cost of a placement: overlap or latency")
	mapCmd.Flags().String("aggregation", "max",
		"how the latency cost reduces request latencies: max or mean")
	mapCmd.Flags().String("manager", "small-first",
		"congestion manager of the latency cost: small-first or max-min")
	mapCmd.Flags().Uint64("seed", 0, "seed of the annealer")
	mapCmd.Flags().Bool("monitor", false, "show the progress in a web page")
	mapCmd.Flags().Bool("open", false, "open the progress page in a browser")

	rootCmd.AddCommand(mapCmd)
}

type mapOptions struct {
	graphFile   string
	outFile     string
	archFile    string
	dim         int
	cost        string
	aggregation string
	manager     string
	seed        uint64
	monitor     bool
	open        bool
	workers     int
}

func runMap(opts mapOptions, out io.Writer, logger logrus.FieldLogger) error {
	if opts.graphFile == "" {
		return fmt.Errorf("a communication graph is required")
	}

	arch := estimator.DefaultArchConfig().WithDim(opts.dim)
	if opts.archFile != "" {
		var err error

		arch, err = workload.ReadArch(opts.archFile, nil)
		if err != nil {
			return err
		}
	}

	topo, err := mesh.NewTopology(arch.Dim, arch.NumRouters, arch.PortsPerRouter)
	if err != nil {
		return err
	}

	graph, err := workload.LoadGraph(opts.graphFile)
	if err != nil {
		return err
	}

	cost, err := newCostFunc(opts, arch, topo, logger)
	if err != nil {
		return err
	}

	builder := mapping.MakeBuilder().
		WithNumRouters(topo.NumRouters()).
		WithCostFunc(cost).
		WithSeed(opts.seed).
		WithLogger(logger)

	var (
		monitor *monitoring.Monitor
		bar     *monitoring.ProgressBar
	)

	if opts.monitor {
		monitor = monitoring.NewMonitor().WithLogger(logger)

		url, err := monitor.StartServer()
		if err != nil {
			return err
		}

		if opts.open {
			openBrowser(url, logger)
		}

		bar = monitor.CreateProgressBar("mapping", 0)
		builder = builder.WithProgress(bar)
	}

	annealer := builder.Build()
	if bar != nil {
		bar.SetTotal(uint64(annealer.NumEpochs()))
		defer monitor.CompleteProgressBar(bar)
	}

	result, err := annealer.Map(graph)
	if err != nil {
		return err
	}

	if opts.outFile != "" {
		err = workload.SaveGraph(opts.outFile, result.TaskGraph)
		if err != nil {
			return err
		}
	}

	return writeMapping(out, result)
}

func newCostFunc(
	opts mapOptions,
	arch estimator.ArchConfig,
	topo *mesh.Topology,
	logger logrus.FieldLogger,
) (mapping.CostFunc, error) {
	switch opts.cost {
	case "overlap":
		return mapping.NewOverlapCost(topo), nil
	case "latency":
	default:
		return nil, fmt.Errorf("unknown cost %q", opts.cost)
	}

	manager, err := newManager(opts.manager, arch,
		estimator.DefaultTaskConfig())
	if err != nil {
		return nil, err
	}

	c := &mapping.LatencyCost{
		Estimator: estimator.MakeBuilder().
			WithNumWorkers(max(opts.workers, 1)).
			WithLogger(logger).
			Build(),
		Arch:    arch,
		Manager: manager,
	}

	switch opts.aggregation {
	case "max":
		c.Aggregation = mapping.AggregateMax
	case "mean":
		c.Aggregation = mapping.AggregateMean
	default:
		return nil, fmt.Errorf("unknown aggregation %q", opts.aggregation)
	}

	return c, nil
}

func writeMapping(out io.Writer, result *mapping.Result) error {
	nodes := make([]int, 0, len(result.Labels))
	for n := range result.Labels {
		nodes = append(nodes, n)
	}

	sort.Ints(nodes)

	for _, n := range nodes {
		_, err := fmt.Fprintf(out, "node %d -> router %d\n", n, result.Labels[n])
		if err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(out, "cost %g after %d epochs\n",
		result.Cost, result.Epochs)

	return err
}

func openBrowser(url string, logger logrus.FieldLogger) {
	err := browser.OpenURL(url)
	if err != nil {
		logger.WithError(err).Warn("cannot open a browser")
	}
}
