package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internship-allocator/internal/common/errors"
	"internship-allocator/internal/common/metrics"
)

func newTestClient() *Client {
	return &Client{config: &ClientConfig{
		RetryConfig: &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond},
	}}
}

func TestExecuteWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		failures  []error
		wantCalls int
		wantCode  errors.ErrorCode
	}{
		{
			name:      "succeeds first time",
			wantCalls: 1,
		},
		{
			name:      "transient then success",
			failures:  []error{stderrors.New("rpc error: code = Unavailable")},
			wantCalls: 2,
		},
		{
			name: "transient exhausted",
			failures: []error{
				stderrors.New("connection refused"),
				stderrors.New("connection refused"),
				stderrors.New("connection refused"),
			},
			wantCalls: 3,
			wantCode:  errors.ErrCodeWorkflowEngineUnavailable,
		},
		{
			name:      "rejection not retried",
			failures:  []error{stderrors.New("rpc error: code = NotFound desc = job not found")},
			wantCalls: 1,
			wantCode:  errors.ErrCodeWorkflowCommandRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := newTestClient().ExecuteWithRetry(context.Background(), "complete-job", func(context.Context) error {
				calls++
				if calls <= len(tt.failures) {
					return tt.failures[calls-1]
				}
				return nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantCode == "" {
				require.NoError(t, err)
				return
			}
			var stdErr *errors.StandardError
			require.ErrorAs(t, err, &stdErr)
			assert.Equal(t, tt.wantCode, stdErr.Code)
		})
	}
}

func TestExecuteWithRetry_Cancelled(t *testing.T) {
	c := newTestClient()
	c.config.RetryConfig.BaseDelay = time.Hour
	c.config.RetryConfig.MaxDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	err := c.ExecuteWithRetry(ctx, "publish", func(context.Context) error {
		cancel()
		return stderrors.New("deadline exceeded")
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestInstrument(t *testing.T) {
	const taskType = "instrument-test"
	var seen int64

	handle := Instrument(taskType, func(_ worker.JobClient, job entities.Job) {
		seen = job.Key
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues(taskType)))
	})
	handle(nil, entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 42}})

	assert.Equal(t, int64(42), seen)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues(taskType)))
}

type observerStub struct {
	statuses []string
}

func (o *observerStub) RecordJobProcessed(_ context.Context, _ string, status string) {
	o.statuses = append(o.statuses, status)
}

func (o *observerStub) RecordJobDuration(context.Context, string, time.Duration, string) {}

func TestOutcome(t *testing.T) {
	const taskType = "outcome-test"
	obs := &observerStub{}

	Outcome(obs, taskType, time.Now(), nil)
	Outcome(obs, taskType, time.Now(), errors.NewBatchNotFoundError("b-1"))
	Outcome(nil, taskType, time.Now(), stderrors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WorkerJobsCompleted.WithLabelValues(taskType)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WorkerJobsFailed.WithLabelValues(taskType, "BATCH_NOT_FOUND")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WorkerJobsFailed.WithLabelValues(taskType, "INTERNAL_ERROR")))
	assert.Equal(t, []string{"completed", "failed"}, obs.statuses)
}
