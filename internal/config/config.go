package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir        string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	SubmissionsDir string `yaml:"submissions_dir" envconfig:"SUBMISSIONS_DIR" default:"data/submissions"`
	OutputFile     string `yaml:"output_file" envconfig:"OUTPUT_FILE" default:"data/consolidated_master.csv"`
	LogsDir        string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// PipelineConfig contains the consolidation pipeline configuration:
// the earliest-allowed date, decimal precision, category vocabularies,
// and alias tables, plus the per-department submission file names.
type PipelineConfig struct {
	// EarliestDate is the inclusive lower bound for transaction dates.
	// Rows before it are tagged OutOfRangeDate but retained.
	EarliestDate string `yaml:"earliest_date" envconfig:"EARLIEST_DATE" default:"2020-01-01" validate:"required,datetime=2006-01-02"`

	// DecimalPlaces is the amount precision carried through to the
	// output CSV. Raw values with more fractional digits are rejected
	// rather than silently rounded.
	DecimalPlaces int32 `yaml:"decimal_places" envconfig:"DECIMAL_PLACES" default:"2" validate:"min=0,max=6"`

	// RevenueCategories and ExpenseCategories are the controlled
	// vocabularies. The two sets must be disjoint.
	RevenueCategories []string `yaml:"revenue_categories" envconfig:"REVENUE_CATEGORIES"`
	ExpenseCategories []string `yaml:"expense_categories" envconfig:"EXPENSE_CATEGORIES"`

	// Aliases maps department -> canonical field -> source column
	// header. Missing departments fall back to the built-in tables in
	// constants.go. Validated at load time against CanonicalFields.
	Aliases map[string]map[string]string `yaml:"aliases"`

	// Submissions maps department -> file name under SubmissionsDir.
	Submissions map[string]string `yaml:"submissions"`
}

// Earliest returns the parsed earliest-allowed date. Validate has
// already guaranteed the format.
func (p PipelineConfig) Earliest() time.Time {
	t, _ := time.Parse("2006-01-02", p.EarliestDate)
	return t
}

// Load loads configuration from an optional YAML file and environment
// variables; environment wins. Pipeline vocabularies and alias tables
// fall back to the built-in defaults when left empty.
func Load(configPath string) (*Config, error) {
	var cfg Config

	// Defaults and env first so the file only has to override
	if err := envconfig.Process("FINCON", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", configPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %q: %w", configPath, err)
		}
	}

	cfg.applyPipelineDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyPipelineDefaults() {
	p := &c.Pipeline
	if len(p.RevenueCategories) == 0 {
		p.RevenueCategories = DefaultRevenueCategories()
	}
	if len(p.ExpenseCategories) == 0 {
		p.ExpenseCategories = DefaultExpenseCategories()
	}
	if len(p.Aliases) == 0 {
		p.Aliases = DefaultAliases()
	}
	if len(p.Submissions) == 0 {
		p.Submissions = DefaultSubmissions()
	}
}

// Validate checks the configuration for correctness. Alias tables are
// checked here, at startup, so a typo in an alias table fails the
// process instead of corrupting row processing later.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid configuration: server port %d out of range", c.Server.Port)
	}

	if err := validateVocabularies(c.Pipeline.RevenueCategories, c.Pipeline.ExpenseCategories); err != nil {
		return err
	}
	if err := validateAliases(c.Pipeline.Aliases); err != nil {
		return err
	}
	if err := validateSubmissions(c.Pipeline.Submissions); err != nil {
		return err
	}

	return nil
}
