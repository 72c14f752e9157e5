// internal/allocation/pipeline.go
package allocation

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"internship-allocator/internal/common/logger"
	"internship-allocator/internal/models"
)

const tracerName = "internship-allocator/allocation"

type PipelineConfig struct {
	Weights     Weights
	Matcher     MatcherConfig
	Quotas      Percentages
	Boosts      BoostWeights
	Classifiers Classifiers
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Weights:     DefaultWeights(),
		Quotas:      DefaultPercentages(),
		Boosts:      DefaultBoostWeights(),
		Classifiers: DefaultClassifiers(),
	}
}

// Pipeline wires matcher, booster, planner, engine and report generator into
// one allocation run.
type Pipeline struct {
	matcher *BatchMatcher
	booster *DiversityBooster
	planner *QuotaPlanner
	engine  *AllocationEngine
	reports *ReportGenerator
	tracer  trace.Tracer
	logger  logger.Logger
	now     func() time.Time
}

type RunResult struct {
	Matches    []models.MatchRecord     `json:"matches"`
	Stats      MatchStats               `json:"stats"`
	Allocation *models.AllocationResult `json:"allocation"`
	Report     DiversityReport          `json:"report"`
}

func NewPipeline(cfg PipelineConfig, log logger.Logger, rec Recorder, tracer trace.Tracer) (*Pipeline, error) {
	if rec == nil {
		rec = NopRecorder{}
	}
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	cls := cfg.Classifiers.withDefaults()

	scorer, err := NewScoreCalculator(cfg.Weights, cls)
	if err != nil {
		return nil, err
	}
	booster, err := NewDiversityBooster(cfg.Boosts, cls.Rural, log)
	if err != nil {
		return nil, err
	}
	planner, err := NewQuotaPlanner(cfg.Quotas, log)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		matcher: NewBatchMatcher(scorer, cfg.Matcher, log, rec),
		booster: booster,
		planner: planner,
		engine:  NewAllocationEngine(log, rec),
		reports: NewReportGenerator(cls.Rural, log),
		tracer:  tracer,
		logger:  log,
		now:     time.Now,
	}, nil
}

// WithClock pins the timestamp used for allocations and reports.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	p.engine.WithClock(now)
	return p
}

func (p *Pipeline) Planner() *QuotaPlanner { return p.planner }
func (p *Pipeline) Booster() *DiversityBooster { return p.booster }
func (p *Pipeline) Reports() *ReportGenerator { return p.reports }
func (p *Pipeline) Matcher() *BatchMatcher { return p.matcher }
func (p *Pipeline) Engine() *AllocationEngine { return p.engine }

// Match runs only the scoring stage.
func (p *Pipeline) Match(ctx context.Context, candidates []models.Candidate, internships []models.Internship) ([]models.MatchRecord, MatchStats, error) {
	ctx, span := p.tracer.Start(ctx, "allocation.match", trace.WithAttributes(
		attribute.Int("candidates", len(candidates)),
		attribute.Int("internships", len(internships)),
	))
	defer span.End()

	records, stats, err := p.matcher.Match(ctx, candidates, internships)
	if err != nil {
		recordSpanError(span, err)
		return nil, stats, err
	}
	span.SetAttributes(
		attribute.Int("eligible_pairs", stats.EligiblePairs),
		attribute.Int("fallbacks", stats.Fallbacks),
	)
	return records, stats, nil
}

// Allocate runs boost, plan, allocate and report over already scored matches.
func (p *Pipeline) Allocate(ctx context.Context, candidates []models.Candidate, internships []models.Internship, matches []models.MatchRecord) (*models.AllocationResult, DiversityReport, error) {
	byID := make(map[string]models.Candidate, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}

	_, span := p.tracer.Start(ctx, "allocation.boost")
	boosted := p.booster.Boost(matches, byID)
	span.End()

	_, span = p.tracer.Start(ctx, "allocation.plan")
	plan, err := p.planner.Plan(models.TotalCapacity(internships))
	if err != nil {
		recordSpanError(span, err)
		span.End()
		return nil, DiversityReport{}, err
	}
	span.End()

	_, span = p.tracer.Start(ctx, "allocation.allocate", trace.WithAttributes(
		attribute.Int("matches", len(boosted)),
		attribute.Int("capacity", plan.Total()),
	))
	result, err := p.engine.Allocate(AllocationInput{
		Matches:     boosted,
		Plan:        plan,
		Internships: internships,
		Candidates:  byID,
	})
	if err != nil {
		recordSpanError(span, err)
		span.End()
		return nil, DiversityReport{}, err
	}
	span.SetAttributes(attribute.Int("allocated", result.Summary.TotalAllocated))
	span.End()

	_, span = p.tracer.Start(ctx, "allocation.report")
	report := p.reports.Generate(result.Allocations, candidates, p.planner.Percentages(), p.now())
	span.End()

	return result, report, nil
}

// Run executes the full flow from raw candidates and internships.
func (p *Pipeline) Run(ctx context.Context, candidates []models.Candidate, internships []models.Internship) (*RunResult, error) {
	ctx, span := p.tracer.Start(ctx, "allocation.run")
	defer span.End()

	matches, stats, err := p.Match(ctx, candidates, internships)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	result, report, err := p.Allocate(ctx, candidates, internships, matches)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	p.logger.Info("allocation run finished", map[string]interface{}{
		"matches":        len(matches),
		"totalAllocated": result.Summary.TotalAllocated,
		"totalCapacity":  result.Summary.TotalCapacity,
	})
	return &RunResult{Matches: matches, Stats: stats, Allocation: result, Report: report}, nil
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
