// internal/cli/root.go

// Package cli is the offline front end to the allocation pipeline: it runs
// matching and allocation over JSON files without Zeebe or any store.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"internship-allocator/internal/allocation"
	"internship-allocator/internal/common/config"
	"internship-allocator/internal/common/logger"
)

type options struct {
	configPath string
	output     string
	verbose    bool
}

// NewRootCmd builds the allocator command tree.
func NewRootCmd(version string) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "allocator",
		Short:        "Match candidates to internships and allocate seats under reservation quotas",
		Version:      version,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default: built-in weights, quotas and boosts)")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "output format (table, json)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log pipeline progress to stderr")

	root.AddCommand(newRunCmd(opts), newPlanCmd(opts))
	return root
}

func (o *options) pipelineConfig() (allocation.PipelineConfig, error) {
	if o.configPath == "" {
		return allocation.DefaultPipelineConfig(), nil
	}
	cfg, err := config.LoadAllocationFile(o.configPath)
	if err != nil {
		return allocation.PipelineConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg.PipelineConfig(), nil
}

func (o *options) logger() logger.Logger {
	if !o.verbose {
		return logger.NewNoOpLogger()
	}
	return logger.NewStructured("debug", "console")
}

func (o *options) checkOutput() error {
	switch o.output {
	case "table", "json":
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", o.output)
	}
}
