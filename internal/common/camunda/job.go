package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"internship-allocator/internal/common/errors"
	"internship-allocator/internal/common/metrics"
)

// CommandRunner executes broker commands; *Client retries transient failures.
type CommandRunner interface {
	ExecuteWithRetry(ctx context.Context, operation string, command func(context.Context) error) error
}

// JobObserver receives per-job outcomes in addition to the Prometheus counters.
type JobObserver interface {
	RecordJobProcessed(ctx context.Context, taskType, status string)
	RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string)
}

// CompleteJob completes job with output as its variables. A nil runner sends
// once without retry.
func CompleteJob(ctx context.Context, runner CommandRunner, client worker.JobClient, job entities.Job, output interface{}) error {
	send := func(ctx context.Context) error {
		cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
		if err != nil {
			return err
		}
		_, err = cmd.Send(ctx)
		return err
	}
	if runner == nil {
		return send(ctx)
	}
	return runner.ExecuteWithRetry(ctx, "complete-job", send)
}

// Outcome counts a finished job. err is the job's error, nil on success.
func Outcome(obs JobObserver, taskType string, started time.Time, err error) {
	status := "completed"
	if err != nil {
		status = "failed"
		code := errors.FromAllocationError(err).Code
		metrics.WorkerJobsFailed.WithLabelValues(taskType, string(code)).Inc()
	} else {
		metrics.WorkerJobsCompleted.WithLabelValues(taskType).Inc()
	}

	if obs != nil {
		ctx := context.Background()
		obs.RecordJobProcessed(ctx, taskType, status)
		obs.RecordJobDuration(ctx, taskType, time.Since(started), status)
	}
}
