package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ignite/campaign-insights/internal/deployment"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Source   SourceConfig   `yaml:"source"`
	Output   OutputConfig   `yaml:"output"`
	Redis    RedisConfig    `yaml:"redis"`
}

// ServerConfig holds API server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// AnalysisConfig holds the analytics parameters. The defaults mirror the
// production pipeline: an 18-month batch, 30/60/90-day rolling windows,
// and a 100-sample significance gate.
type AnalysisConfig struct {
	LookbackDays  int           `yaml:"lookback_days"`
	Windows       []int         `yaml:"windows"`
	MinSampleSize int           `yaml:"min_sample_size"`
	WindowWorkers int           `yaml:"window_workers"`
	ScoreWeights  WeightsConfig `yaml:"score_weights"`
}

// WeightsConfig holds the engagement-score coefficients.
type WeightsConfig struct {
	ResponseRate      float64 `yaml:"response_rate"`
	ConversionRate    float64 `yaml:"conversion_rate"`
	RevenuePerContact float64 `yaml:"revenue_per_contact"`
}

// SourceConfig selects and configures the deployment store backend.
type SourceConfig struct {
	// Type is one of "csv", "postgres", "snowflake".
	Type string `yaml:"type"`

	CSVPath       string                     `yaml:"csv_path"`
	PostgresDSN   string                     `yaml:"postgres_dsn"`
	PostgresTable string                     `yaml:"postgres_table"`
	Snowflake     deployment.SnowflakeConfig `yaml:"snowflake"`
}

// OutputConfig holds sink settings. S3 upload is enabled by setting a
// bucket.
type OutputConfig struct {
	Dir      string `yaml:"dir"`
	S3Bucket string `yaml:"s3_bucket"`
	S3Region string `yaml:"s3_region"`
	S3Prefix string `yaml:"s3_prefix"`
}

// RedisConfig holds results-cache settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		Analysis: AnalysisConfig{
			LookbackDays:  548,
			Windows:       []int{30, 60, 90},
			MinSampleSize: 100,
			WindowWorkers: 4,
			ScoreWeights: WeightsConfig{
				ResponseRate:      0.3,
				ConversionRate:    0.5,
				RevenuePerContact: 0.2,
			},
		},
		Source: SourceConfig{Type: "csv", CSVPath: "data/campaign_deployments.csv"},
		Output: OutputConfig{Dir: "output"},
		Redis:  RedisConfig{Addr: "localhost:6379"},
	}
}

// Load reads configuration from a YAML file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads configuration from a YAML file (when present) and
// applies environment overrides. A .env file is honored if it exists.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := Load(path)
			if err != nil {
				return nil, err
			}
			cfg = loaded
		}
	}

	if host := os.Getenv("SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid SERVER_PORT %q: %w", port, err)
		}
		cfg.Server.Port = p
	}
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		cfg.Source.PostgresDSN = dsn
	}
	if pw := os.Getenv("SNOWFLAKE_PASSWORD"); pw != "" {
		cfg.Source.Snowflake.Password = pw
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" {
		cfg.Redis.Password = pw
	}
	if bucket := os.Getenv("OUTPUT_S3_BUCKET"); bucket != "" {
		cfg.Output.S3Bucket = bucket
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration invariants, naming the offending field.
func (c *Config) Validate() error {
	switch c.Source.Type {
	case "csv", "postgres", "snowflake":
	default:
		return fmt.Errorf("source.type: unknown backend %q", c.Source.Type)
	}
	if c.Analysis.LookbackDays <= 0 {
		return fmt.Errorf("analysis.lookback_days: must be positive, got %d", c.Analysis.LookbackDays)
	}
	if len(c.Analysis.Windows) == 0 {
		return fmt.Errorf("analysis.windows: at least one window required")
	}
	for _, w := range c.Analysis.Windows {
		if w <= 0 {
			return fmt.Errorf("analysis.windows: window must be positive, got %d", w)
		}
	}
	if c.Analysis.MinSampleSize < 1 {
		return fmt.Errorf("analysis.min_sample_size: must be >= 1, got %d", c.Analysis.MinSampleSize)
	}
	return nil
}
