// internal/workers/allocation/allocate-internships/handler.go
package allocateinternships

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"internship-allocator/internal/allocation"
	"internship-allocator/internal/common/camunda"
	"internship-allocator/internal/common/errors"
	"internship-allocator/internal/common/logger"
	"internship-allocator/internal/common/validation"
	"internship-allocator/internal/store"
)

const (
	TaskType = "allocate-internships"
)

type BatchLoader interface {
	Load(ctx context.Context, id string) (*store.MatchBatch, error)
}

type ConfigSource interface {
	Current(ctx context.Context, quota allocation.Percentages, boosts allocation.BoostWeights) (allocation.Percentages, allocation.BoostWeights, error)
}

type RunSaver interface {
	SaveRun(ctx context.Context, run *store.AllocationRun) error
}

type Dependencies struct {
	Batches   BatchLoader
	Overrides ConfigSource
	Runs      RunSaver
	Recorder  allocation.Recorder
	Tracer    trace.Tracer
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
	newID  func() string
}

func NewHandler(config *Config, deps Dependencies, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		deps:   deps,
		errors: errors.NewErrorHandler(log),
		logger: log,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
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
			"jobKey":         job.Key,
			"allocationId":   output.AllocationID,
			"totalAllocated": output.TotalAllocated,
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
	if strings.TrimSpace(input.BatchID) == "" {
		return nil, errors.NewInvalidInputError("batchId is required")
	}

	batch, err := h.deps.Batches.Load(ctx, input.BatchID)
	if stderrors.Is(err, store.ErrBatchNotFound) {
		return nil, errors.NewBatchNotFoundError(input.BatchID)
	}
	if err != nil {
		return nil, errors.NewCacheOperationFailedError("load_batch", err)
	}

	pipeline, err := h.pipeline(ctx, input.QuotaOverride)
	if err != nil {
		return nil, err
	}

	result, report, err := pipeline.Allocate(ctx, batch.Candidates, batch.Internships, batch.Matches)
	if err != nil {
		return nil, err
	}

	run := &store.AllocationRun{
		ID:          h.newID(),
		BatchID:     batch.ID,
		Percentages: pipeline.Planner().Percentages(),
		Plan:        result.QuotaPlan,
		Summary:     result.Summary,
		Allocations: result.Allocations,
		Applicants:  batch.Candidates,
		CreatedAt:   report.GeneratedAt,
	}
	if err := h.deps.Runs.SaveRun(ctx, run); err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	h.logger.Info("internships allocated", map[string]interface{}{
		"allocationId":        run.ID,
		"batchId":             batch.ID,
		"totalAllocated":      result.Summary.TotalAllocated,
		"totalCapacity":       result.Summary.TotalCapacity,
		"compliantCategories": report.CompliantCategories(),
	})

	return &Output{
		AllocationID:          run.ID,
		BatchID:               batch.ID,
		TotalAllocated:        result.Summary.TotalAllocated,
		TotalCapacity:         result.Summary.TotalCapacity,
		UnallocatedCandidates: result.Summary.UnallocatedCandidates,
		QuotaPlan:             result.QuotaPlan,
		QuotaFulfillment:      result.QuotaFulfillment,
		CapacityUtilization:   result.CapacityUtilization,
		AllocationTypes:       report.AllocationTypes,
		CompliantCategories:   report.CompliantCategories(),
		Compliance:            report.Compliance,
	}, nil
}

// pipeline builds a per-job pipeline so concurrent jobs never share mutable
// quota or boost state.
func (h *Handler) pipeline(ctx context.Context, override map[string]float64) (*allocation.Pipeline, error) {
	cfg := h.config.Pipeline
	if h.deps.Overrides != nil {
		quota, boosts, err := h.deps.Overrides.Current(ctx, cfg.Quotas, cfg.Boosts)
		if allocation.IsValidation(err) {
			return nil, errors.NewQuotaConfigInvalidError("stored configuration: " + err.Error())
		}
		if err != nil {
			return nil, errors.NewCacheOperationFailedError("load_config", err)
		}
		cfg.Quotas, cfg.Boosts = quota, boosts
	}

	if override != nil {
		quota, err := allocation.ParsePercentages(override)
		if err == nil {
			err = quota.Validate()
		}
		if err != nil {
			return nil, errors.NewQuotaConfigInvalidError(err.Error())
		}
		cfg.Quotas = quota
	}

	p, err := allocation.NewPipeline(cfg, h.logger, h.deps.Recorder, h.deps.Tracer)
	if err != nil {
		return nil, errors.NewQuotaConfigInvalidError(err.Error())
	}
	return p.WithClock(h.now), nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
