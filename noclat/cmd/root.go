// Package cmd provides the command-line interface for noclat.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "noclat",
	Short: "noclat estimates the packet latency of mesh networks-on-chip.",
	Long: `noclat estimates the average packet latency of every request of a ` +
		`task running on a wormhole-routed mesh, with a path-based ` +
		`analytical model. It can also map communication graphs onto the ` +
		`mesh and serve estimations over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initConfig(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "",
		"config file (default is ./noclat.yaml or $HOME/.noclat/noclat.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info",
		"log level: trace, debug, info, warn, or error")
	rootCmd.PersistentFlags().Int("workers", 1,
		"number of goroutines solving the channels of a residual hop level")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

// initConfig merges the flags, the NOCLAT_ environment variables, .env
// files, and the config file, in decreasing priority.
func initConfig(cmd *cobra.Command) error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	viper.SetEnvPrefix("NOCLAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	err = viper.BindPFlags(cmd.Flags())
	if err != nil {
		return err
	}

	err = readConfigFile(viper.GetString("config"))
	if err != nil {
		return err
	}

	initLogger(viper.GetString("log-level"))

	return nil
}

func readConfigFile(filename string) error {
	if filename != "" {
		viper.SetConfigFile(filename)
		return viper.ReadInConfig()
	}

	viper.SetConfigName("noclat")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.noclat")

	err := viper.ReadInConfig()

	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}

	return err
}

func initLogger(level string) {
	if lvl, err := logrus.ParseLevel(level); err == nil {
		logrus.SetLevel(lvl)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}

	logrus.SetFormatter(&logrus.TextFormatter{
		DisableLevelTruncation: true,
		FullTimestamp:          true,
	})
}
