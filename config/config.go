// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/artpar/storagemeter/domain/plan"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Export  ExportConfig  `yaml:"export"`
	Replay  ReplayConfig  `yaml:"replay"`
	Plans   []PlanConfig  `yaml:"plans"`
	Units   []UnitConfig  `yaml:"units"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig configures the HTTP server (serve mode).
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// AuthConfig configures HTTP API authentication.
// APIKeyHash is a bcrypt hash of the admin key; empty disables auth.
type AuthConfig struct {
	Header     string `yaml:"header"`
	APIKeyHash string `yaml:"api_key_hash,omitempty"`
}

// ExportConfig configures fee report export.
type ExportConfig struct {
	Driver string `yaml:"driver"` // "none", "sqlite", or "memory"
	DSN    string `yaml:"dsn"`
}

// ReplayConfig configures stream replay behavior.
type ReplayConfig struct {
	OnError           string `yaml:"on_error"` // "abort" or "skip"
	PreviousMonthCalc bool   `yaml:"previous_month_calc"`
}

// PlanConfig configures a pricing plan. Rates are decimal strings so YAML
// float rounding never touches fee arithmetic.
type PlanConfig struct {
	ID                  string `yaml:"id"`
	Name                string `yaml:"name"`
	StoragePricePerMB   string `yaml:"storage_price_per_mb"`
	UpdatePricePerMB    string `yaml:"update_price_per_mb"`
	FreeMonthlyFeeCapMB *int64 `yaml:"free_monthly_fee_cap_mb,omitempty"` // null = no cap
}

// UnitConfig provisions one storage unit under a plan.
type UnitConfig struct {
	ID   string `yaml:"id"`
	Plan string `yaml:"plan"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in configuration: the fixed product catalog
// with no server auth and no export.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	if err := validate(cfg); err != nil {
		// The built-in catalog is covered by tests; a failure here is a bug.
		panic(fmt.Sprintf("default config invalid: %v", err))
	}
	return cfg
}

// applyEnvOverrides applies STORAGEMETER_* environment variables.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STORAGEMETER_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("STORAGEMETER_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("STORAGEMETER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("STORAGEMETER_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("STORAGEMETER_EXPORT_DSN"); v != "" {
		cfg.Export.Driver = "sqlite"
		cfg.Export.DSN = v
	}
	if v := os.Getenv("STORAGEMETER_API_KEY_HASH"); v != "" {
		cfg.Auth.APIKeyHash = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 10 * time.Second
	}
	if cfg.Auth.Header == "" {
		cfg.Auth.Header = "X-API-Key"
	}
	if cfg.Export.Driver == "" {
		cfg.Export.Driver = "none"
	}
	if cfg.Replay.OnError == "" {
		cfg.Replay.OnError = "abort"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if len(cfg.Plans) == 0 && len(cfg.Units) == 0 {
		cfg.Plans = defaultPlans()
		cfg.Units = defaultUnits()
	}
}

// defaultPlans is the fixed catalog the product ships with.
func defaultPlans() []PlanConfig {
	freeCap := int64(1000)
	return []PlanConfig{
		{ID: "A1", Name: "Standard A1", StoragePricePerMB: "0.01", UpdatePricePerMB: "0.0005", FreeMonthlyFeeCapMB: &freeCap},
		{ID: "A2", Name: "Standard A2", StoragePricePerMB: "0.001", UpdatePricePerMB: "0.01", FreeMonthlyFeeCapMB: &freeCap},
		{ID: "B1", Name: "Premium B1", StoragePricePerMB: "0.01", UpdatePricePerMB: "0.001"},
		{ID: "B2", Name: "Premium B2", StoragePricePerMB: "0.0001", UpdatePricePerMB: "0.5"},
	}
}

func defaultUnits() []UnitConfig {
	return []UnitConfig{
		{ID: "storage_A1", Plan: "A1"},
		{ID: "storage_A2", Plan: "A2"},
		{ID: "storage_B1", Plan: "B1"},
		{ID: "storage_B2", Plan: "B2"},
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", cfg.Server.Port)
	}

	switch cfg.Export.Driver {
	case "none", "memory":
	case "sqlite":
		if cfg.Export.DSN == "" {
			return fmt.Errorf("export driver sqlite requires a dsn")
		}
	default:
		return fmt.Errorf("unknown export driver %q", cfg.Export.Driver)
	}

	switch cfg.Replay.OnError {
	case "abort", "skip":
	default:
		return fmt.Errorf("replay on_error must be abort or skip, got %q", cfg.Replay.OnError)
	}

	catalog, err := cfg.PlanCatalog()
	if err != nil {
		return err
	}
	for _, p := range catalog {
		if !plan.Valid(p) {
			return fmt.Errorf("plan %q has invalid pricing", p.ID)
		}
	}

	seen := make(map[string]bool)
	for _, u := range cfg.Units {
		if u.ID == "" {
			return fmt.Errorf("unit with empty id")
		}
		if seen[u.ID] {
			return fmt.Errorf("duplicate unit %q", u.ID)
		}
		seen[u.ID] = true
		if _, ok := plan.FindPlan(catalog, u.Plan); !ok {
			return fmt.Errorf("unit %q references unknown plan %q", u.ID, u.Plan)
		}
	}

	return nil
}

// PlanCatalog converts the configured plans into domain values.
func (c *Config) PlanCatalog() ([]plan.Plan, error) {
	out := make([]plan.Plan, 0, len(c.Plans))
	seen := make(map[string]bool)

	for _, pc := range c.Plans {
		if pc.ID == "" {
			return nil, fmt.Errorf("plan with empty id")
		}
		if seen[pc.ID] {
			return nil, fmt.Errorf("duplicate plan %q", pc.ID)
		}
		seen[pc.ID] = true

		storage, err := decimal.NewFromString(pc.StoragePricePerMB)
		if err != nil {
			return nil, fmt.Errorf("plan %q: storage_price_per_mb %q: %w", pc.ID, pc.StoragePricePerMB, err)
		}
		update, err := decimal.NewFromString(pc.UpdatePricePerMB)
		if err != nil {
			return nil, fmt.Errorf("plan %q: update_price_per_mb %q: %w", pc.ID, pc.UpdatePricePerMB, err)
		}

		freeCap := plan.NoFreeCap
		if pc.FreeMonthlyFeeCapMB != nil {
			if *pc.FreeMonthlyFeeCapMB < 0 {
				return nil, fmt.Errorf("plan %q: free_monthly_fee_cap_mb must be non-negative", pc.ID)
			}
			freeCap = *pc.FreeMonthlyFeeCapMB
		}

		out = append(out, plan.Plan{
			ID:                  pc.ID,
			Name:                pc.Name,
			StoragePricePerMB:   storage,
			UpdatePricePerMB:    update,
			FreeMonthlyFeeCapMB: freeCap,
		})
	}
	return out, nil
}
