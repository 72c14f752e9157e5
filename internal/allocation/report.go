// internal/allocation/report.go
package allocation

import (
	"math"
	"strings"
	"time"

	"internship-allocator/internal/common/logger"
	"internship-allocator/internal/models"
)

const (
	complianceThreshold = 0.9
	unknownBucket       = "unknown"
)

// DiversityRecord is the projection of a candidate or allocation the report
// aggregates over.
type DiversityRecord struct {
	Category string
	Location string
	Rural    bool
}

type Share struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type Breakdown struct {
	Total      int              `json:"total"`
	Categories map[string]Share `json:"categories"`
	Locations  map[string]Share `json:"locations"`
	Rural      Share            `json:"rural"`
}

type Representation struct {
	ApplicantPercentage  float64 `json:"applicantPercentage"`
	AllocationPercentage float64 `json:"allocationPercentage"`
	Difference           float64 `json:"difference"`
	Ratio                float64 `json:"representationRatio"`
}

type RepresentationComparison struct {
	Categories map[string]Representation `json:"categories"`
	Rural      Representation            `json:"rural"`
}

type ComplianceEntry struct {
	ExpectedPercentage float64 `json:"expectedPercentage"`
	ActualPercentage   float64 `json:"actualPercentage"`
	ExpectedCount      int     `json:"expectedCount"`
	ActualCount        int     `json:"actualCount"`
	Compliant          bool    `json:"compliant"`
}

type DiversityReport struct {
	GeneratedAt     time.Time                                `json:"generatedAt"`
	TotalAllocated  int                                      `json:"totalAllocated"`
	Allocations     Breakdown                                `json:"allocations"`
	Applicants      Breakdown                                `json:"applicants"`
	Representation  RepresentationComparison                 `json:"representation"`
	AllocationTypes map[models.AllocationType]int            `json:"allocationTypes"`
	Boosted         Share                                    `json:"boosted"`
	Compliance      map[models.QuotaCategory]ComplianceEntry `json:"compliance"`
}

// CompliantCategories counts categories meeting the compliance threshold.
func (r DiversityReport) CompliantCategories() int {
	n := 0
	for _, c := range r.Compliance {
		if c.Compliant {
			n++
		}
	}
	return n
}

type ReportGenerator struct {
	rural  RuralDetector
	logger logger.Logger
}

func NewReportGenerator(rural RuralDetector, log logger.Logger) *ReportGenerator {
	if rural == nil {
		rural = DefaultClassifiers().Rural
	}
	return &ReportGenerator{
		rural:  rural,
		logger: log.WithFields(map[string]interface{}{"stage": StageReporting}),
	}
}

// ApplicantRecords projects the candidate pool, keyed by quota category.
func (g *ReportGenerator) ApplicantRecords(candidates []models.Candidate) []DiversityRecord {
	out := make([]DiversityRecord, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, DiversityRecord{
			Category: string(c.QuotaCategory()),
			Location: c.Location,
			Rural:    c.Rural || g.rural.IsRural(c.Location),
		})
	}
	return out
}

func AllocationRecords(allocations []models.Allocation) []DiversityRecord {
	out := make([]DiversityRecord, 0, len(allocations))
	for _, a := range allocations {
		out = append(out, DiversityRecord{
			Category: string(a.QuotaCategory),
			Location: a.CandidateLocation,
			Rural:    a.Rural,
		})
	}
	return out
}

func (g *ReportGenerator) Breakdown(records []DiversityRecord) Breakdown {
	b := Breakdown{
		Total:      len(records),
		Categories: map[string]Share{},
		Locations:  map[string]Share{},
	}
	if len(records) == 0 {
		return b
	}

	categories := map[string]int{}
	locations := map[string]int{}
	rural := 0
	for _, r := range records {
		categories[bucket(r.Category)]++
		locations[bucket(r.Location)]++
		if r.Rural {
			rural++
		}
	}
	for k, n := range categories {
		b.Categories[k] = share(n, b.Total)
	}
	for k, n := range locations {
		b.Locations[k] = share(n, b.Total)
	}
	b.Rural = share(rural, b.Total)
	return b
}

// Compare reports allocation share against applicant share per category and
// for rural candidates. The ratio is 0 when the applicant share is 0.
func (g *ReportGenerator) Compare(applicants, allocations Breakdown) RepresentationComparison {
	out := RepresentationComparison{Categories: map[string]Representation{}}
	keys := map[string]struct{}{}
	for k := range applicants.Categories {
		keys[k] = struct{}{}
	}
	for k := range allocations.Categories {
		keys[k] = struct{}{}
	}
	for k := range keys {
		out.Categories[k] = represent(applicants.Categories[k].Percentage, allocations.Categories[k].Percentage)
	}
	out.Rural = represent(applicants.Rural.Percentage, allocations.Rural.Percentage)
	return out
}

// Compliance checks each configured category against its expected count,
// floor(total x percentage). A category is compliant at 90% of expected.
func (g *ReportGenerator) Compliance(allocations []models.Allocation, p Percentages) map[models.QuotaCategory]ComplianceEntry {
	total := len(allocations)
	actual := map[models.QuotaCategory]int{}
	for _, a := range allocations {
		actual[a.QuotaCategory]++
	}

	out := make(map[models.QuotaCategory]ComplianceEntry, len(models.AllQuotaCategories))
	for _, cat := range models.AllQuotaCategories {
		pct := p[cat]
		expected := int(math.Floor(float64(total) * pct))
		out[cat] = ComplianceEntry{
			ExpectedPercentage: pct * 100,
			ActualPercentage:   share(actual[cat], total).Percentage,
			ExpectedCount:      expected,
			ActualCount:        actual[cat],
			Compliant:          float64(actual[cat]) >= complianceThreshold*float64(expected),
		}
	}
	return out
}

// Generate assembles the full report. applicants may be empty.
func (g *ReportGenerator) Generate(allocations []models.Allocation, applicants []models.Candidate, p Percentages, at time.Time) DiversityReport {
	allocBreakdown := g.Breakdown(AllocationRecords(allocations))
	applicantBreakdown := g.Breakdown(g.ApplicantRecords(applicants))

	types := make(map[models.AllocationType]int, len(models.AllocationTypes))
	for _, t := range models.AllocationTypes {
		types[t] = 0
	}
	boosted := 0
	for _, a := range allocations {
		types[a.AllocationType]++
		if a.DiversityBoost > 0 {
			boosted++
		}
	}

	report := DiversityReport{
		GeneratedAt:     at.UTC(),
		TotalAllocated:  len(allocations),
		Allocations:     allocBreakdown,
		Applicants:      applicantBreakdown,
		Representation:  g.Compare(applicantBreakdown, allocBreakdown),
		AllocationTypes: types,
		Boosted:         share(boosted, len(allocations)),
		Compliance:      g.Compliance(allocations, p),
	}

	g.logger.Info("diversity report generated", map[string]interface{}{
		"totalAllocated":      report.TotalAllocated,
		"applicants":          applicantBreakdown.Total,
		"compliantCategories": report.CompliantCategories(),
	})
	return report
}

func share(n, total int) Share {
	if total == 0 {
		return Share{Count: n}
	}
	return Share{Count: n, Percentage: float64(n) / float64(total) * 100}
}

func represent(applicantPct, allocationPct float64) Representation {
	r := Representation{
		ApplicantPercentage:  applicantPct,
		AllocationPercentage: allocationPct,
		Difference:           allocationPct - applicantPct,
	}
	if applicantPct > 0 {
		r.Ratio = allocationPct / applicantPct
	}
	return r
}

func bucket(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return unknownBucket
	}
	return s
}
