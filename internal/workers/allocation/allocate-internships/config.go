// internal/workers/allocation/allocate-internships/config.go
package allocateinternships

import (
	"time"

	"internship-allocator/internal/allocation"
	"internship-allocator/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	// Pipeline holds the configured tables; stored overrides replace Quotas
	// and Boosts per job.
	Pipeline allocation.PipelineConfig
}

func LoadConfig(appCfg *config.Config) *Config {
	wc := config.GetWorkerConfig(appCfg, TaskType)
	return &Config{
		Timeout:  config.GetDuration(wc.Timeout),
		Pipeline: appCfg.PipelineConfig(),
	}
}
