// Package main provides the spliceannot command-line tool.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var cfgFile string

func main() {
	os.Exit(run())
}

func run() int {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: create logger: %v\n", err)
		return ExitError
	}
	defer logger.Sync()

	root := newRootCmd(logger)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}
	return ExitSuccess
}

func newRootCmd(logger *zap.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spliceannot",
		Short: "Compile transcript annotation artifacts for the splice score lookup service",
		Long: `spliceannot parses a GENCODE annotation release, reconstructs transcript
structures, selects the representative transcript set, and emits the metadata
JSON and the scoring-table TSV the scoring engine loads at startup. Each run
processes a native build and, optionally, a liftover-coordinate build.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cobra.OnInitialize(initConfig)
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.spliceannot.yaml)")

	cmd.AddCommand(newBuildCmd(logger))
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("spliceannot version %s (%s) built %s\n", version, commit, date)
		},
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return
		}
		viper.SetConfigFile(filepath.Join(home, ".spliceannot.yaml"))
	}

	viper.SetEnvPrefix("SPLICEANNOT")
	viper.AutomaticEnv()

	// Missing config file is fine; flags and defaults still apply.
	_ = viper.ReadInConfig()
}
