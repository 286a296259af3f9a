package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brunseba/vra-cli/pkg/collector"
	"github.com/brunseba/vra-cli/pkg/engine"
	"github.com/brunseba/vra-cli/pkg/inputfile"
	"github.com/brunseba/vra-cli/pkg/model"
	"github.com/brunseba/vra-cli/pkg/resolver"
)

var (
	flagRunInput    string
	flagRunSet      []string
	flagRunProject  string
	flagRunName     string
	flagRunSkipOpt  bool
	flagRunDryRun   bool
	flagRunYes      bool
	flagRunEndpoint string
)

var runCmd = &cobra.Command{
	Use:   "run ID",
	Short: "Collect inputs for a catalog item and build its request payload",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := registry.GetSchema(args[0])
		if err != nil {
			return err
		}

		initial, err := initialValues()
		if err != nil {
			return err
		}

		coll := collector.New(newResolver(), collector.WithLogger(logger))
		inputs, err := coll.CollectInputs(cmd.Context(), schema, initial, flagRunSkipOpt)
		if err != nil {
			return err
		}

		execCtx := model.ExecutionContext{
			Schema:  schema,
			Inputs:  inputs,
			Project: project(),
			Name:    flagRunName,
			DryRun:  flagRunDryRun,
		}

		if !flagRunYes {
			ok, err := coll.ConfirmExecution(cmd.Context(), execCtx)
			if err != nil {
				return err
			}
			if !ok {
				logger.Info("aborted by operator")
				return nil
			}
		}

		payload, err := engine.GenerateRequestPayload(execCtx)
		if err != nil {
			return err
		}

		// Submission itself lives behind the model.Submitter boundary; the CLI
		// prints the finished payload.
		out, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&flagRunInput, "input", "i", "", "input template file (.json/.yaml)")
	runCmd.Flags().StringArrayVar(&flagRunSet, "set", nil, "set a field value (name=value, repeatable)")
	runCmd.Flags().StringVar(&flagRunProject, "project", "", "target project")
	runCmd.Flags().StringVar(&flagRunName, "name", "", "deployment name")
	runCmd.Flags().BoolVar(&flagRunSkipOpt, "skip-optional", false, "skip optional fields not supplied explicitly")
	runCmd.Flags().BoolVar(&flagRunDryRun, "dry-run", false, "mark the execution context as a dry run")
	runCmd.Flags().BoolVarP(&flagRunYes, "yes", "y", false, "skip the confirmation prompt")
	runCmd.Flags().StringVar(&flagRunEndpoint, "endpoint", "", "catalog backend base URL (overrides config)")
	rootCmd.AddCommand(runCmd)
}

func newResolver() *resolver.Resolver {
	opts := []resolver.TransportOption{}
	if base := endpoint(); base != "" {
		opts = append(opts, resolver.WithBaseURL(base))
	}
	if token := os.Getenv(cfg.TokenEnv); token != "" {
		opts = append(opts, resolver.WithRequestEditor(func(req *http.Request) error {
			req.Header.Set("Authorization", "Bearer "+token)
			return nil
		}))
	}
	transport := resolver.NewHTTPTransport(opts...)
	return resolver.New(transport, resolver.WithLogger(logger))
}

func initialValues() (map[string]any, error) {
	values := make(map[string]any)
	if flagRunInput != "" {
		loaded, err := inputfile.Load(flagRunInput)
		if err != nil {
			return nil, err
		}
		for name, value := range loaded {
			values[name] = value
		}
	}
	for _, pair := range flagRunSet {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("bad --set %q, expected name=value", pair)
		}
		values[name] = value
	}
	return values, nil
}

func endpoint() string {
	if flagRunEndpoint != "" {
		return flagRunEndpoint
	}
	return cfg.Endpoint
}

func project() string {
	if flagRunProject != "" {
		return flagRunProject
	}
	return cfg.Project
}
