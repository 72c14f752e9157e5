package metrics

import (
	"time"

	"internship-allocator/internal/models"
)

// Recorder feeds allocation telemetry into the Prometheus collectors.
type Recorder struct{}

func NewRecorder() Recorder { return Recorder{} }

func (Recorder) PairScored(fallback bool) {
	outcome := "scored"
	if fallback {
		outcome = "fallback"
	}
	PairsScored.WithLabelValues(outcome).Inc()
}

func (Recorder) Allocated(t models.AllocationType, seat models.QuotaCategory) {
	AllocationsMade.WithLabelValues(string(t), string(seat)).Inc()
}

func (Recorder) StageCompleted(stage string, d time.Duration) {
	StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}
