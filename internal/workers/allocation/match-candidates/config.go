// internal/workers/allocation/match-candidates/config.go
package matchcandidates

import (
	"time"

	"internship-allocator/internal/common/config"
)

type Config struct {
	Timeout    time.Duration
	TopMatches int
}

func LoadConfig(appCfg *config.Config) *Config {
	wc := config.GetWorkerConfig(appCfg, TaskType)
	return &Config{
		Timeout:    config.GetDuration(wc.Timeout),
		TopMatches: appCfg.Matching.TopMatches,
	}
}
