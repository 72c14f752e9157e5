package allocation

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"internship-allocator/internal/common/logger"
	"internship-allocator/internal/models"
)

func pipelineFixture() ([]models.Candidate, []models.Internship) {
	candidates := []models.Candidate{
		{ID: "c01", Name: "Meera", Skills: []string{"python", "sql"}, Location: "Pune", Category: "data science", SocialCategory: "SC", Education: []models.Education{{Degree: "BSc"}}},
		{ID: "c02", Name: "Arjun", Skills: []string{"python", "pandas"}, Location: "Mumbai", Category: "data science", SocialCategory: "general", Education: []models.Education{{Degree: "BE"}}},
		{ID: "c03", Name: "Fatima", Skills: []string{"react", "css"}, Location: "Tehsil Sadar, Lucknow", Category: "design", SocialCategory: "OBC", Female: true, Education: []models.Education{{Degree: "BDes"}}},
		{ID: "c04", Name: "Kiran", Skills: []string{"java", "spring"}, Location: "Hyderabad", Category: "software development", SocialCategory: "ST", FirstGeneration: true},
		{ID: "c05", Name: "Dev", Skills: []string{"seo", "content"}, Location: "Delhi", Category: "marketing", SocialCategory: "EWS", Education: []models.Education{{Degree: "BBA"}}},
		{ID: "c06", Name: "Sara", Skills: []string{"python", "sql", "java"}, Location: "Bengaluru", Category: "software development", SocialCategory: "", Education: []models.Education{{Degree: "BTech"}}},
	}
	internships := []models.Internship{
		{ID: "i-data", Title: "Data Analyst Intern", Capacity: 2, Category: "data science", Location: "Pune", RequiredSkills: []string{"python", "sql"}, SalaryMin: 15000, SalaryMax: 25000},
		{ID: "i-web", Title: "Frontend Intern", Capacity: 2, Category: "design", Location: "Remote", Remote: true, RequiredSkills: []string{"javascript", "css"}, SalaryMax: 18000, MinEducation: "graduate"},
		{ID: "i-mkt", Title: "Marketing Intern", Capacity: 1, Category: "digital marketing", Location: "New Delhi", RequiredSkills: []string{"seo"}, SalaryMax: 12000},
	}
	return candidates, internships
}

func newTestPipeline(t *testing.T, tp *sdktrace.TracerProvider) *Pipeline {
	t.Helper()
	p, err := NewPipeline(DefaultPipelineConfig(), logger.NewTestLogger(t), nil, tp.Tracer("test"))
	require.NoError(t, err)
	return p.WithClock(func() time.Time { return fixedTime })
}

func TestPipeline_Run(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	p := newTestPipeline(t, tp)

	candidates, internships := pipelineFixture()
	res, err := p.Run(context.Background(), candidates, internships)
	require.NoError(t, err)

	assert.Equal(t, 6, res.Stats.Candidates)
	// c04 has no education and cannot take i-web
	assert.Equal(t, 1, res.Stats.DroppedPairs)
	assert.Len(t, res.Matches, 17)

	alloc := res.Allocation
	require.NotNil(t, alloc)
	assert.Equal(t, 5, alloc.Summary.TotalCapacity)
	assert.LessOrEqual(t, alloc.Summary.TotalAllocated, 5)
	assert.Equal(t, alloc.Summary.TotalAllocated, res.Report.TotalAllocated)
	assert.Equal(t, 6, res.Report.Applicants.Total)
	require.NoError(t, VerifyAllocation(alloc, internships))

	for _, a := range alloc.Allocations {
		assert.Equal(t, fixedTime, a.AllocatedAt)
		assert.NotEmpty(t, a.CandidateName)
	}

	var names []string
	for _, s := range sr.Ended() {
		names = append(names, s.Name())
	}
	assert.Contains(t, names, "allocation.run")
	assert.Contains(t, names, "allocation.match")
	assert.Contains(t, names, "allocation.boost")
	assert.Contains(t, names, "allocation.plan")
	assert.Contains(t, names, "allocation.allocate")
	assert.Contains(t, names, "allocation.report")
}

func TestPipeline_RunIsDeterministic(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	candidates, internships := pipelineFixture()

	var outputs []string
	for i := 0; i < 3; i++ {
		res, err := newTestPipeline(t, tp).Run(context.Background(), candidates, internships)
		require.NoError(t, err)
		raw, err := json.Marshal(res.Allocation)
		require.NoError(t, err)
		outputs = append(outputs, string(raw))
	}
	assert.Equal(t, outputs[0], outputs[1])
	assert.Equal(t, outputs[1], outputs[2])
}

func TestPipeline_ErrorRecordedOnSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	p := newTestPipeline(t, tp)

	_, err := p.Run(context.Background(), nil, []models.Internship{{ID: "i1", Capacity: 1}})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	var failed int
	for _, s := range sr.Ended() {
		if len(s.Events()) > 0 {
			failed++
		}
	}
	assert.Positive(t, failed)
}

func TestPipeline_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultPipelineConfig()
	cfg.Quotas = Percentages{models.QuotaGeneral: 0.5, models.QuotaSC: 0.6}

	_, err := NewPipeline(cfg, logger.NewNoOpLogger(), nil, nil)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestPipeline_ManyGeneralCandidatesOneSeat(t *testing.T) {
	p, err := NewPipeline(DefaultPipelineConfig(), logger.NewNoOpLogger(), nil, nil)
	require.NoError(t, err)

	var candidates []models.Candidate
	for i := 0; i < 100; i++ {
		c := models.Candidate{ID: fmt.Sprintf("c%03d", i), SocialCategory: "general", Location: "Chennai"}
		if i == 42 {
			c.Skills = []string{"go"}
		}
		candidates = append(candidates, c)
	}
	internships := []models.Internship{{ID: "i1", Capacity: 1, Location: "Kolkata", RequiredSkills: []string{"go"}}}

	res, err := p.Run(context.Background(), candidates, internships)
	require.NoError(t, err)
	require.Len(t, res.Allocation.Allocations, 1)
	assert.Equal(t, "c042", res.Allocation.Allocations[0].CandidateID)
	assert.Equal(t, models.AllocationGeneral, res.Allocation.Allocations[0].AllocationType)
}

func TestPipeline_ZeroCapacityRejectedBeforeScoring(t *testing.T) {
	rec := newCountingRecorder()
	p, err := NewPipeline(DefaultPipelineConfig(), logger.NewNoOpLogger(), rec, nil)
	require.NoError(t, err)

	var candidates []models.Candidate
	for i := 0; i < 50; i++ {
		candidates = append(candidates, models.Candidate{ID: fmt.Sprintf("c%02d", i), Skills: []string{"go"}})
	}
	internships := []models.Internship{
		{ID: "ok", Capacity: 3, RequiredSkills: []string{"go"}},
		{ID: "zero", Capacity: 0, RequiredSkills: []string{"go"}},
	}

	res, err := p.Run(context.Background(), candidates, internships)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "zero")
	assert.Zero(t, rec.scored)
	assert.Empty(t, rec.allocated)
}

func TestPipeline_RejectsBadCandidateIDs(t *testing.T) {
	internships := []models.Internship{{ID: "i1", Capacity: 2}}

	tests := []struct {
		name       string
		candidates []models.Candidate
	}{
		{name: "empty id", candidates: []models.Candidate{{ID: "c1"}, {ID: ""}}},
		{name: "duplicate id", candidates: []models.Candidate{{ID: "c1"}, {ID: "c2"}, {ID: "c1"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newCountingRecorder()
			p, err := NewPipeline(DefaultPipelineConfig(), logger.NewNoOpLogger(), rec, nil)
			require.NoError(t, err)

			_, err = p.Run(context.Background(), tt.candidates, internships)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
			assert.Zero(t, rec.scored)
		})
	}
}
