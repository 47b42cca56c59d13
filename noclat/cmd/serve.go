package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/sarchlab/noclat/datarecording"
	"github.com/sarchlab/noclat/estimator"
	"github.com/sarchlab/noclat/id"
	"github.com/sarchlab/noclat/monitoring"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve estimations over HTTP.",
	Long: "`serve --port 8080` accepts estimation requests at " +
		"POST /api/estimate and shows the latest results in a web page.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(),
			syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		opts := serveOptions{
			port:       viper.GetInt("port"),
			open:       viper.GetBool("open"),
			recordPath: viper.GetString("record"),
			workers:    viper.GetInt("workers"),
			assetDir:   viper.GetString("assets"),
		}

		return runServe(ctx, opts, logrus.StandardLogger())
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "port of the server, random if 0")
	serveCmd.Flags().Bool("open", false, "open the web page in a browser")
	serveCmd.Flags().String("record", "",
		"record the results into this SQLite database (without extension)")
	serveCmd.Flags().String("assets", "",
		"serve the dashboard from this directory instead of the built-in one")

	rootCmd.AddCommand(serveCmd)
}

type serveOptions struct {
	port       int
	open       bool
	recordPath string
	workers    int
	assetDir   string
}

func runServe(
	ctx context.Context,
	opts serveOptions,
	logger logrus.FieldLogger,
) error {
	e := estimator.MakeBuilder().
		WithNumWorkers(max(opts.workers, 1)).
		WithLogger(logger).
		WithIDGenerator(id.NewXID()).
		Build()

	m := monitoring.NewMonitor().
		WithLogger(logger).
		WithPortNumber(opts.port).
		WithAssetDir(opts.assetDir)
	m.RegisterEstimator(e)

	if opts.recordPath != "" {
		db, err := openRecorder(opts.recordPath)
		if err != nil {
			return err
		}
		defer db.Close()

		m.WithRecorder(datarecording.NewLatencyRecorder(db))
	}

	url, err := m.StartServer()
	if err != nil {
		return err
	}

	if opts.open {
		openBrowser(url, logger)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	return nil
}
