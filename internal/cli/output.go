// internal/cli/output.go
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"internship-allocator/internal/allocation"
	"internship-allocator/internal/models"
)

func writeJSON(w io.Writer, data interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func renderRun(w io.Writer, result *allocation.RunResult) error {
	summary := result.Allocation.Summary
	fmt.Fprintf(w, "Allocated %d of %d seats, %d candidates unallocated\n\n",
		summary.TotalAllocated, summary.TotalCapacity, summary.UnallocatedCandidates)

	if len(result.Allocation.Allocations) == 0 {
		fmt.Fprintln(w, "No allocations made.")
	} else {
		table := tablewriter.NewWriter(w)
		table.Header([]string{"Candidate", "Internship", "Category", "Seat", "Type", "Score", "Boost"})
		for _, a := range result.Allocation.Allocations {
			if err := table.Append([]string{
				a.CandidateID,
				a.InternshipID,
				string(a.QuotaCategory),
				string(a.SeatCategory),
				string(a.AllocationType),
				formatFloat(a.FinalScore, 3),
				formatFloat(a.DiversityBoost, 3),
			}); err != nil {
				return err
			}
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	fmt.Fprintln(w)
	return renderCompliance(w, result.Allocation.QuotaPlan, result.Report)
}

func renderCompliance(w io.Writer, plan models.QuotaPlan, report allocation.DiversityReport) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Category", "Planned", "Expected", "Actual", "Actual %", "Compliant"})
	for _, cat := range models.AllQuotaCategories {
		entry := report.Compliance[cat]
		if err := table.Append([]string{
			string(cat),
			strconv.Itoa(plan.Slots(cat)),
			strconv.Itoa(entry.ExpectedCount),
			strconv.Itoa(entry.ActualCount),
			formatFloat(entry.ActualPercentage, 1),
			yesNo(entry.Compliant),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

func renderPlan(w io.Writer, pct allocation.Percentages, plan models.QuotaPlan) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Category", "Share %", "Seats"})
	for _, cat := range models.AllQuotaCategories {
		if err := table.Append([]string{
			string(cat),
			formatFloat(pct[cat]*100, 1),
			strconv.Itoa(plan.Slots(cat)),
		}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintf(w, "Total seats planned: %d\n", plan.Total())
	return nil
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
