// internal/workers/allocation/generate-diversity-report/handler.go
package generatediversityreport

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"internship-allocator/internal/allocation"
	"internship-allocator/internal/common/camunda"
	"internship-allocator/internal/common/errors"
	"internship-allocator/internal/common/logger"
	"internship-allocator/internal/common/validation"
	"internship-allocator/internal/store"
)

const (
	TaskType = "generate-diversity-report"
)

type RunLoader interface {
	LoadRun(ctx context.Context, id string) (*store.AllocationRun, error)
}

type ReportSink interface {
	Put(ctx context.Context, allocationID string, report allocation.DiversityReport) error
	Index() string
}

type Dependencies struct {
	Runs      RunLoader
	Reports   *allocation.ReportGenerator
	Sink      ReportSink // optional
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
	if deps.Reports == nil {
		deps.Reports = allocation.NewReportGenerator(nil, log)
	}
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
	if strings.TrimSpace(input.AllocationID) == "" {
		return nil, errors.NewInvalidInputError("allocationId is required")
	}

	run, err := h.deps.Runs.LoadRun(ctx, input.AllocationID)
	if stderrors.Is(err, store.ErrRunNotFound) {
		return nil, errors.NewAllocationNotFoundError(input.AllocationID)
	}
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewQueryTimeoutError("load_run")
		}
		return nil, errors.NewQueryExecutionFailedError("load_run", err)
	}

	report := h.deps.Reports.Generate(run.Allocations, run.Applicants, run.Percentages, h.now())

	out := &Output{
		AllocationID:        run.ID,
		CompliantCategories: report.CompliantCategories(),
		Report:              report,
	}
	if h.deps.Sink != nil {
		if err := h.deps.Sink.Put(ctx, run.ID, report); err != nil {
			return nil, errors.NewReportIndexingFailedError(h.deps.Sink.Index(), err)
		}
		out.Indexed = true
		out.ReportIndex = h.deps.Sink.Index()
	}

	h.logger.Info("diversity report generated", map[string]interface{}{
		"allocationId":        run.ID,
		"totalAllocated":      report.TotalAllocated,
		"compliantCategories": out.CompliantCategories,
		"indexed":             out.Indexed,
	})
	return out, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
