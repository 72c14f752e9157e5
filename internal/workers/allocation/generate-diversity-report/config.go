// internal/workers/allocation/generate-diversity-report/config.go
package generatediversityreport

import (
	"time"

	"internship-allocator/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(appCfg *config.Config) *Config {
	return &Config{
		Timeout: config.GetDuration(config.GetWorkerConfig(appCfg, TaskType).Timeout),
	}
}
