// internal/allocation/recorder.go
package allocation

import (
	"time"

	"internship-allocator/internal/models"
)

// Recorder receives engine telemetry. Implementations must be safe for
// concurrent use because the matcher reports from several goroutines.
type Recorder interface {
	PairScored(fallback bool)
	Allocated(t models.AllocationType, seat models.QuotaCategory)
	StageCompleted(stage string, d time.Duration)
}

type NopRecorder struct{}

func (NopRecorder) PairScored(bool) {}
func (NopRecorder) Allocated(models.AllocationType, models.QuotaCategory) {}
func (NopRecorder) StageCompleted(string, time.Duration) {}
