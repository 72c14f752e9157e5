package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internship-allocator/internal/allocation"
	"internship-allocator/internal/common/config"
	"internship-allocator/internal/common/logger"
	"internship-allocator/internal/models"
)

type countingRecorder struct {
	stages    int
	allocated int
	scored    int
}

func (c *countingRecorder) PairScored(bool) { c.scored++ }
func (c *countingRecorder) Allocated(models.AllocationType, models.QuotaCategory) { c.allocated++ }
func (c *countingRecorder) StageCompleted(string, time.Duration) { c.stages++ }

func newTestObservability(t *testing.T) (*Observability, *prom.Registry) {
	t.Helper()
	reg := prom.NewRegistry()
	obs, err := New("allocator-test", config.ObservabilityConfig{}, logger.NewTestLogger(t), Options{Registerer: reg})
	require.NoError(t, err)
	t.Cleanup(func() { obs.Shutdown(context.Background()) })
	return obs, reg
}

func TestRecorder_DelegatesAndExports(t *testing.T) {
	obs, reg := newTestObservability(t)
	next := &countingRecorder{}
	rec := obs.Recorder(next)

	rec.PairScored(true)
	rec.Allocated(models.AllocationQuota, models.QuotaSC)
	rec.StageCompleted(allocation.StageAllocation, 3*time.Millisecond)
	obs.RecordJobProcessed(context.Background(), "allocate-internships", "completed")

	assert.Equal(t, 1, next.scored)
	assert.Equal(t, 1, next.allocated)
	assert.Equal(t, 1, next.stages)

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	joined := strings.Join(names, ",")
	assert.Contains(t, joined, "stage")
	assert.Contains(t, joined, "seats")
	assert.Contains(t, joined, "processed")
}

func TestTracer_ProducesSpans(t *testing.T) {
	obs, _ := newTestObservability(t)

	_, span := obs.Tracer("allocation").Start(context.Background(), "allocation.run")
	defer span.End()
	assert.True(t, span.SpanContext().IsValid())
}
