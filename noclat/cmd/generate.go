package cmd

import (
	"math/rand/v2"

	"github.com/sarchlab/noclat/workload"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a random communication graph.",
	Long: "`generate --nodes 16 --out comm.txt` writes a graph in which " +
		"every node sends to about half of the other nodes.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		seed := viper.GetUint64("seed")
		graph := workload.GenerateGraph(
			viper.GetInt("nodes"),
			viper.GetFloat64("mean-volume"),
			rand.NewPCG(seed, seed+1),
		)

		out := viper.GetString("out")
		if out == "" {
			return workload.WriteGraph(cmd.OutOrStdout(), graph)
		}

		return workload.SaveGraph(out, graph)
	},
}

func init() {
	generateCmd.Flags().Int("nodes", 16, "number of nodes")
	generateCmd.Flags().Float64("mean-volume", 250, "average volume of a transmission")
	generateCmd.Flags().Uint64("seed", 0, "seed of the generator")
	generateCmd.Flags().String("out", "", "output file, stdout if empty")

	rootCmd.AddCommand(generateCmd)
}
