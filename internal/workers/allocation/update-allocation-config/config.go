// internal/workers/allocation/update-allocation-config/config.go
package updateallocationconfig

import (
	"time"

	"internship-allocator/internal/allocation"
	"internship-allocator/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	// Defaults apply while nothing has been stored yet.
	DefaultQuota  allocation.Percentages
	DefaultBoosts allocation.BoostWeights
}

func LoadConfig(appCfg *config.Config) *Config {
	return &Config{
		Timeout:       config.GetDuration(config.GetWorkerConfig(appCfg, TaskType).Timeout),
		DefaultQuota:  appCfg.Quota.Percentages.Clone(),
		DefaultBoosts: appCfg.Diversity,
	}
}
