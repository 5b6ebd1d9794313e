// Package main provides the shelf CLI, a small operator tool for the
// record store: initialize a config file, check connectivity, count table
// rows, and run ad-hoc statements.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/shelf/pkg/persist"
)

var (
	// configPath is set by the --config flag.
	configPath string

	// verbose enables statement tracing on the connection logger.
	verbose bool
)

const version = "0.3.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "shelf",
	Short: "Shelf is a specification-driven record store",
	Long: `Shelf persists registered entity types to SQL databases and builds
queries from specification, sort, and pagination directives. This tool
manages shelf configuration and pokes at the configured database.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ./shelf.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "trace statements")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(execCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the shelf version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "shelf %s\n", version)
	},
}

// openConnection loads the config and opens the configured database.
func openConnection() (*persist.Connection, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	opts := []persist.Option{}
	if verbose {
		log, err := zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("building logger: %w", err)
		}
		opts = append(opts, persist.WithLogger(log))
	}
	return persist.Open(cfg, opts...)
}
