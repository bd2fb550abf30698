package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GiovanniGatti/trutheval/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "truthbench",
	Short: "Graded factual-corruption benchmark builder",
	Long: "Turns question/answer pairs into benchmark items: a faithful paraphrase plus " +
		"progressively corrupted versions of it, produced by a language model.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
