// internal/workers/allocation/match-candidates/handler.go
package matchcandidates

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"internship-allocator/internal/allocation"
	"internship-allocator/internal/common/camunda"
	"internship-allocator/internal/common/errors"
	"internship-allocator/internal/common/logger"
	"internship-allocator/internal/common/validation"
	"internship-allocator/internal/models"
	"internship-allocator/internal/store"
)

const (
	TaskType = "match-candidates"
)

type ProfileLoader interface {
	LoadCandidates(ctx context.Context, ids []string) ([]models.Candidate, error)
	LoadInternships(ctx context.Context, ids []string) ([]models.Internship, error)
}

type BatchSaver interface {
	Save(ctx context.Context, batch *store.MatchBatch) (string, error)
}

type Dependencies struct {
	Pipeline  *allocation.Pipeline
	Profiles  ProfileLoader
	Batches   BatchSaver
	Validator *validation.SchemaValidator
	Commands  camunda.CommandRunner
	Observer  camunda.JobObserver
}

type Handler struct {
	config *Config
	deps   Dependencies
	errors *errors.ErrorHandler
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, deps Dependencies, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		deps:   deps,
		errors: errors.NewErrorHandler(log),
		logger: log,
		now:    time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	started := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.run(ctx, job)
	if err == nil {
		if err = camunda.CompleteJob(context.Background(), h.deps.Commands, client, job, output); err != nil {
			h.logger.Error("failed to complete job", map[string]interface{}{"jobKey": job.Key, "error": err.Error()})
			camunda.Outcome(h.deps.Observer, TaskType, started, err)
			return
		}
		h.logger.Info("job completed", map[string]interface{}{
			"jobKey":     job.Key,
			"batchId":    output.BatchID,
			"matchCount": output.MatchCount,
		})
	} else {
		h.errors.HandleJobError(context.Background(), client, job, err)
	}
	camunda.Outcome(h.deps.Observer, TaskType, started, err)
}

func (h *Handler) run(ctx context.Context, job entities.Job) (*Output, error) {
	if h.deps.Validator != nil {
		res, err := h.deps.Validator.Validate(TaskType, []byte(job.Variables))
		if err != nil {
			return nil, errors.NewInvalidInputError(err.Error())
		}
		if !res.Valid {
			return nil, errors.NewInvalidInputError(strings.Join(res.GetErrorMessages(), "; "))
		}
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
	}
	return h.execute(ctx, &input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	candidates, internships, err := h.resolveProfiles(ctx, input)
	if err != nil {
		return nil, err
	}

	matches, stats, err := h.deps.Pipeline.Match(ctx, candidates, internships)
	if err != nil {
		return nil, err
	}

	batchID, err := h.deps.Batches.Save(ctx, &store.MatchBatch{
		Candidates:  candidates,
		Internships: internships,
		Matches:     matches,
		Stats:       stats,
		CreatedAt:   h.now().UTC(),
	})
	if err != nil {
		return nil, errors.NewCacheOperationFailedError("save_batch", err)
	}

	topN := h.config.TopMatches
	if input.TopMatches != nil {
		topN = *input.TopMatches
	}

	h.logger.Info("candidates matched", map[string]interface{}{
		"batchId":       batchID,
		"candidates":    stats.Candidates,
		"internships":   stats.Internships,
		"eligiblePairs": stats.EligiblePairs,
		"fallbacks":     stats.Fallbacks,
	})

	return &Output{
		BatchID:        batchID,
		MatchCount:     len(matches),
		CandidateCount: stats.Candidates,
		EligiblePairs:  stats.EligiblePairs,
		DroppedPairs:   stats.DroppedPairs,
		BelowThreshold: stats.BelowThreshold,
		FallbackCount:  stats.Fallbacks,
		TopMatches:     topMatches(matches, topN),
	}, nil
}

func (h *Handler) resolveProfiles(ctx context.Context, input *Input) ([]models.Candidate, []models.Internship, error) {
	candidates := input.Candidates
	internships := input.Internships

	needsStore := (len(candidates) == 0 && len(input.CandidateIDs) > 0) ||
		(len(internships) == 0 && len(input.InternshipIDs) > 0)
	if needsStore && h.deps.Profiles == nil {
		return nil, nil, errors.NewInvalidInputError("profile ids given but no profile store is configured")
	}

	if len(candidates) == 0 && len(input.CandidateIDs) > 0 {
		loaded, err := h.deps.Profiles.LoadCandidates(ctx, input.CandidateIDs)
		if err != nil {
			return nil, nil, queryError(ctx, "load_candidates", err)
		}
		if missing := missingIDs(input.CandidateIDs, candidateIDs(loaded)); len(missing) > 0 {
			return nil, nil, errors.NewAllocationValidationError("unknown candidate ids: " + strings.Join(missing, ", "))
		}
		candidates = loaded
	}
	if len(internships) == 0 && len(input.InternshipIDs) > 0 {
		loaded, err := h.deps.Profiles.LoadInternships(ctx, input.InternshipIDs)
		if err != nil {
			return nil, nil, queryError(ctx, "load_internships", err)
		}
		if missing := missingIDs(input.InternshipIDs, internshipIDs(loaded)); len(missing) > 0 {
			return nil, nil, errors.NewAllocationValidationError("unknown internship ids: " + strings.Join(missing, ", "))
		}
		internships = loaded
	}
	return candidates, internships, nil
}

func queryError(ctx context.Context, queryType string, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return errors.NewQueryTimeoutError(queryType)
	}
	return errors.NewQueryExecutionFailedError(queryType, err)
}

// topMatches returns the n best pairs by raw score on the 0-100 display scale.
func topMatches(matches []models.MatchRecord, n int) []TopMatch {
	sorted := make([]models.MatchRecord, len(matches))
	copy(sorted, matches)
	allocation.SortByRawScore(sorted)

	if n > len(sorted) {
		n = len(sorted)
	}
	if n < 0 {
		n = 0
	}
	out := make([]TopMatch, 0, n)
	for _, m := range sorted[:n] {
		out = append(out, TopMatch{
			CandidateID:  m.CandidateID,
			InternshipID: m.InternshipID,
			Score:        allocation.DisplayScore(m.RawScore * 100),
			Breakdown:    m.Breakdown,
			Fallback:     m.Fallback,
		})
	}
	return out
}

func candidateIDs(cs []models.Candidate) map[string]bool {
	out := make(map[string]bool, len(cs))
	for _, c := range cs {
		out[c.ID] = true
	}
	return out
}

func internshipIDs(is []models.Internship) map[string]bool {
	out := make(map[string]bool, len(is))
	for _, in := range is {
		out[in.ID] = true
	}
	return out
}

func missingIDs(want []string, have map[string]bool) []string {
	var missing []string
	for _, id := range want {
		if !have[id] {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	return missing
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
