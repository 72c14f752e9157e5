// internal/cli/run.go
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"internship-allocator/internal/allocation"
	"internship-allocator/internal/models"
)

func newRunCmd(opts *options) *cobra.Command {
	var candidatesPath, internshipsPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run matching, allocation and the diversity report over JSON inputs",
		Long: `Run the full allocation pipeline over candidate and internship files.

Examples:
  allocator run --candidates candidates.json --internships internships.json
  allocator run --candidates c.json --internships i.json -o json
  allocator run -c configs/config.yaml --candidates c.json --internships i.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.checkOutput(); err != nil {
				return err
			}

			var candidates []models.Candidate
			if err := readJSON(candidatesPath, &candidates); err != nil {
				return err
			}
			var internships []models.Internship
			if err := readJSON(internshipsPath, &internships); err != nil {
				return err
			}

			pc, err := opts.pipelineConfig()
			if err != nil {
				return err
			}
			pipeline, err := allocation.NewPipeline(pc, opts.logger(), nil, nil)
			if err != nil {
				return err
			}

			result, err := pipeline.Run(cmd.Context(), candidates, internships)
			if err != nil {
				return err
			}

			if opts.output == "json" {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			return renderRun(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&candidatesPath, "candidates", "", "JSON file with an array of candidates")
	cmd.Flags().StringVar(&internshipsPath, "internships", "", "JSON file with an array of internships")
	_ = cmd.MarkFlagRequired("candidates")
	_ = cmd.MarkFlagRequired("internships")
	return cmd
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
