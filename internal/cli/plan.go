// internal/cli/plan.go
package cli

import (
	"github.com/spf13/cobra"

	"internship-allocator/internal/allocation"
)

func newPlanCmd(opts *options) *cobra.Command {
	var capacity int

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the per-category seat plan for a given capacity",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.checkOutput(); err != nil {
				return err
			}

			pc, err := opts.pipelineConfig()
			if err != nil {
				return err
			}
			planner, err := allocation.NewQuotaPlanner(pc.Quotas, opts.logger())
			if err != nil {
				return err
			}
			plan, err := planner.Plan(capacity)
			if err != nil {
				return err
			}

			if opts.output == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
					"capacity":    capacity,
					"percentages": planner.Percentages(),
					"plan":        plan,
				})
			}
			return renderPlan(cmd.OutOrStdout(), planner.Percentages(), plan)
		},
	}

	cmd.Flags().IntVar(&capacity, "capacity", 0, "total number of seats to plan")
	_ = cmd.MarkFlagRequired("capacity")
	return cmd
}
