// internal/workers/allocation/update-allocation-config/handler.go
package updateallocationconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"internship-allocator/internal/allocation"
	"internship-allocator/internal/common/camunda"
	"internship-allocator/internal/common/errors"
	"internship-allocator/internal/common/logger"
	"internship-allocator/internal/common/metrics"
	"internship-allocator/internal/common/validation"
)

const (
	TaskType = "update-allocation-config"

	sectionQuota     = "quota"
	sectionDiversity = "diversity"
)

type ConfigStore interface {
	Current(ctx context.Context, quota allocation.Percentages, boosts allocation.BoostWeights) (allocation.Percentages, allocation.BoostWeights, error)
	Save(ctx context.Context, quota allocation.Percentages, boosts *allocation.BoostWeights) error
}

type Dependencies struct {
	Store     ConfigStore
	Validator *validation.SchemaValidator
	Commands  camunda.CommandRunner
	Observer  camunda.JobObserver
}

type Handler struct {
	config *Config
	deps   Dependencies
	errors *errors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, deps Dependencies, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		deps:   deps,
		errors: errors.NewErrorHandler(log),
		logger: log,
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

// execute validates every requested change before writing any of them, so a
// rejected update leaves the stored configuration untouched.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.QuotaPercentages == nil && input.DiversityBoosts == nil {
		return nil, errors.NewInvalidInputError("quotaPercentages or diversityBoosts is required")
	}

	quota, boosts, err := h.deps.Store.Current(ctx, h.config.DefaultQuota, h.config.DefaultBoosts)
	if allocation.IsValidation(err) {
		h.logger.Warn("stored configuration is invalid, starting from defaults", map[string]interface{}{
			"error": err.Error(),
		})
		quota, boosts = h.config.DefaultQuota, h.config.DefaultBoosts
	} else if err != nil {
		return nil, errors.NewCacheOperationFailedError("load_config", err)
	}

	var newQuota allocation.Percentages
	var newBoosts *allocation.BoostWeights
	var updated []string

	if input.QuotaPercentages != nil {
		p, err := allocation.ParsePercentages(input.QuotaPercentages)
		if err == nil {
			err = p.Validate()
		}
		if err != nil {
			metrics.ConfigUpdates.WithLabelValues(sectionQuota, "rejected").Inc()
			return nil, errors.NewQuotaConfigInvalidError(err.Error())
		}
		newQuota = p
		updated = append(updated, sectionQuota)
	}

	if input.DiversityBoosts != nil {
		w := input.DiversityBoosts.apply(boosts)
		if err := w.Validate(); err != nil {
			metrics.ConfigUpdates.WithLabelValues(sectionDiversity, "rejected").Inc()
			return nil, errors.NewQuotaConfigInvalidError(err.Error())
		}
		newBoosts = &w
		updated = append(updated, sectionDiversity)
	}

	if err := h.deps.Store.Save(ctx, newQuota, newBoosts); err != nil {
		return nil, errors.NewCacheOperationFailedError("save_config", err)
	}
	for _, section := range updated {
		metrics.ConfigUpdates.WithLabelValues(section, "accepted").Inc()
	}

	out := &Output{Updated: updated, QuotaPercentages: quota, DiversityBoosts: boosts}
	if newQuota != nil {
		out.QuotaPercentages = newQuota
	}
	if newBoosts != nil {
		out.DiversityBoosts = *newBoosts
	}

	h.logger.Info("allocation configuration updated", map[string]interface{}{
		"updated": updated,
		"quota":   out.QuotaPercentages.String(),
		"boosts":  out.DiversityBoosts,
	})
	return out, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
