// internal/common/config/config.go
package config

import (
	"fmt"
	"time"

	"internship-allocator/internal/allocation"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
	Matching      MatchingConfig          `mapstructure:"matching"`
	Quota         QuotaConfig             `mapstructure:"quota"`
	Diversity     allocation.BoostWeights `mapstructure:"diversity"`
	Cache         CacheConfig             `mapstructure:"cache"`
	Registry      RegistryConfig          `mapstructure:"registry"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses   []string `mapstructure:"addresses"`
	Username    string   `mapstructure:"username"`
	Password    string   `mapstructure:"password"`
	ReportIndex string   `mapstructure:"report_index"`
}

// GetURL returns the first configured address.
func (e ElasticsearchConfig) GetURL() string {
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ObservabilityConfig struct {
	MetricsAddress string `mapstructure:"metrics_address"`
	// TracingEndpoint is a Jaeger collector URL. Empty disables tracing export.
	TracingEndpoint string  `mapstructure:"tracing_endpoint"`
	SampleRatio     float64 `mapstructure:"sample_ratio"`
}

// --- Allocation Configuration ---

// MatchingConfig tunes scoring and the batch matcher.
type MatchingConfig struct {
	Weights     allocation.Weights `mapstructure:"weights"`
	MinScore    float64            `mapstructure:"min_score"`
	Concurrency int                `mapstructure:"concurrency"`
	MaxPairs    int                `mapstructure:"max_pairs"`
	TopMatches  int                `mapstructure:"top_matches"`
}

func (m MatchingConfig) MatcherConfig() allocation.MatcherConfig {
	return allocation.MatcherConfig{
		MinScore:    m.MinScore,
		Concurrency: m.Concurrency,
		MaxPairs:    m.MaxPairs,
	}
}

// QuotaConfig holds the reservation table. Keys accept codes or long names,
// e.g. "sc" or "scheduled caste".
type QuotaConfig struct {
	Percentages allocation.Percentages `mapstructure:"percentages"`
}

type CacheConfig struct {
	BatchTTL  time.Duration `mapstructure:"batch_ttl"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

type RegistryConfig struct {
	Path string `mapstructure:"path"`
}

// PipelineConfig assembles the core configuration from the loaded sections.
func (c *Config) PipelineConfig() allocation.PipelineConfig {
	pc := allocation.DefaultPipelineConfig()
	pc.Weights = c.Matching.Weights
	pc.Matcher = c.Matching.MatcherConfig()
	pc.Quotas = c.Quota.Percentages.Clone()
	pc.Boosts = c.Diversity
	return pc
}
