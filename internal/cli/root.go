// Package cli wires the registry, engine, resolver, and collector into cobra
// commands. No business logic lives here; everything delegates to pkg.
package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/brunseba/vra-cli/internal/config"
	"github.com/brunseba/vra-cli/pkg/catalog"
)

var (
	logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	cfg      *config.Config
	registry *catalog.Registry

	flagConfig     string
	flagSchemaDirs []string
	flagPattern    string
)

var rootCmd = &cobra.Command{
	Use:   "vra-cli",
	Short: "vra-cli drives catalog items described by schema exports",
	Long: "vra-cli loads catalog item schema exports, derives an ordered input\n" +
		"form for each item, validates values against the declared constraints,\n" +
		"and assembles the request payload for submission.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(flagConfig)
		if err != nil {
			return err
		}

		registry = catalog.NewRegistry(catalog.WithLogger(logger))
		for _, dir := range cfg.SchemaDirs {
			registry.AddSchemaDirectory(dir)
		}
		for _, dir := range flagSchemaDirs {
			registry.AddSchemaDirectory(dir)
		}

		count, err := registry.LoadSchemas(flagPattern)
		if err != nil {
			return err
		}
		logger.Debug("schemas loaded", "count", count)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: user config dir)")
	rootCmd.PersistentFlags().StringSliceVar(&flagSchemaDirs, "schema-dir", nil, "additional schema directory (repeatable)")
	rootCmd.PersistentFlags().StringVar(&flagPattern, "pattern", "", "schema filename pattern (default *-schema.json)")
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
