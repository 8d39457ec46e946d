// ABOUTME: Pipeline configuration loaded from YAML, HABITETL_ env vars, and flags.
// ABOUTME: Also provides the factory functions for the source and warehouse.

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harperreed/habitetl/internal/export"
	"github.com/harperreed/habitetl/internal/extract"
	"github.com/harperreed/habitetl/internal/models"
	"github.com/harperreed/habitetl/internal/report"
	"github.com/harperreed/habitetl/internal/storage"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable key.
const EnvPrefix = "HABITETL"

// Config keys.
const (
	KeySource         = "source"
	KeyInputDir       = "input_dir"
	KeyHabitsFile     = "habits_file"
	KeyCheckmarksFile = "checkmarks_file"
	KeyScoresFile     = "scores_file"
	KeyPostgresDSN    = "postgres_dsn"
	KeyWarehousePath  = "warehouse_path"
	KeySummaryPath    = "summary_path"
	KeyParquetDir     = "parquet_dir"
	KeyS3Bucket       = "s3_bucket"
	KeyS3Prefix       = "s3_prefix"
	KeyS3Region       = "s3_region"
	KeyUnmappedPolicy = "unmapped_policy"
	KeyMapping        = "mapping"
	KeyUserID         = "user_id"
	KeyLogLevel       = "log_level"
)

// Supported source names.
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

// Validation errors.
var (
	ErrSourceUnknown         = errors.New("unknown source")
	ErrPostgresDSNEmpty      = errors.New("postgres_dsn is required for the postgres source")
	ErrUnmappedPolicyUnknown = errors.New("unknown unmapped_policy")
	ErrMappingUnknown        = errors.New("unknown mapping")
	ErrUserIDInvalid         = errors.New("user_id must be positive")
	ErrLogLevelUnknown       = errors.New("unknown log_level")
)

// Config stores habitetl settings.
type Config struct {
	// Source selects the extractor: "csv" (default) or "postgres".
	Source         string `mapstructure:"source" yaml:"source"`
	InputDir       string `mapstructure:"input_dir" yaml:"input_dir"`
	HabitsFile     string `mapstructure:"habits_file" yaml:"habits_file"`
	CheckmarksFile string `mapstructure:"checkmarks_file" yaml:"checkmarks_file"`
	ScoresFile     string `mapstructure:"scores_file" yaml:"scores_file"`
	PostgresDSN    string `mapstructure:"postgres_dsn" yaml:"postgres_dsn,omitempty"`

	WarehousePath string `mapstructure:"warehouse_path" yaml:"warehouse_path"`
	SummaryPath   string `mapstructure:"summary_path" yaml:"summary_path"`

	// ParquetDir enables the lake export after a run when set.
	ParquetDir string `mapstructure:"parquet_dir" yaml:"parquet_dir,omitempty"`
	S3Bucket   string `mapstructure:"s3_bucket" yaml:"s3_bucket,omitempty"`
	S3Prefix   string `mapstructure:"s3_prefix" yaml:"s3_prefix,omitempty"`
	S3Region   string `mapstructure:"s3_region" yaml:"s3_region,omitempty"`

	UnmappedPolicy string `mapstructure:"unmapped_policy" yaml:"unmapped_policy"`
	Mapping        string `mapstructure:"mapping" yaml:"mapping"`
	UserID         int64  `mapstructure:"user_id" yaml:"user_id"`
	LogLevel       string `mapstructure:"log_level" yaml:"log_level"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Source:         SourceCSV,
		InputDir:       ".",
		HabitsFile:     extract.DefaultHabitsFile,
		CheckmarksFile: extract.DefaultCheckmarksFile,
		ScoresFile:     extract.DefaultScoresFile,
		WarehousePath:  storage.DefaultPath,
		SummaryPath:    report.DefaultSummaryPath,
		S3Prefix:       "habitetl",
		UnmappedPolicy: string(models.UnmappedDrop),
		Mapping:        string(models.MappingDerived),
		UserID:         models.DefaultUserID,
		LogLevel:       "info",
	}
}

// NewViper returns a viper instance with defaults and env binding applied.
func NewViper() *viper.Viper {
	v := viper.New()
	d := Defaults()
	v.SetDefault(KeySource, d.Source)
	v.SetDefault(KeyInputDir, d.InputDir)
	v.SetDefault(KeyHabitsFile, d.HabitsFile)
	v.SetDefault(KeyCheckmarksFile, d.CheckmarksFile)
	v.SetDefault(KeyScoresFile, d.ScoresFile)
	v.SetDefault(KeyPostgresDSN, "")
	v.SetDefault(KeyWarehousePath, d.WarehousePath)
	v.SetDefault(KeySummaryPath, d.SummaryPath)
	v.SetDefault(KeyParquetDir, "")
	v.SetDefault(KeyS3Bucket, "")
	v.SetDefault(KeyS3Prefix, d.S3Prefix)
	v.SetDefault(KeyS3Region, "")
	v.SetDefault(KeyUnmappedPolicy, d.UnmappedPolicy)
	v.SetDefault(KeyMapping, d.Mapping)
	v.SetDefault(KeyUserID, d.UserID)
	v.SetDefault(KeyLogLevel, d.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// GetConfigPath returns the default config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "habitetl", "config.yaml")
}

// Load reads the config file at path into v and returns the validated
// result. An empty path means GetConfigPath. A missing file is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path == "" {
		path = GetConfigPath()
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.expandPaths()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config as YAML to path.
func (c *Config) Save(path string) error {
	if path == "" {
		path = GetConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Validate checks enum values and source requirements.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceCSV:
	case SourcePostgres:
		if c.PostgresDSN == "" {
			return ErrPostgresDSNEmpty
		}
	default:
		return fmt.Errorf("%w: %q", ErrSourceUnknown, c.Source)
	}
	if !models.IsValidUnmappedPolicy(c.UnmappedPolicy) {
		return fmt.Errorf("%w: %q", ErrUnmappedPolicyUnknown, c.UnmappedPolicy)
	}
	if !models.IsValidMappingMode(c.Mapping) {
		return fmt.Errorf("%w: %q", ErrMappingUnknown, c.Mapping)
	}
	if c.UserID <= 0 {
		return ErrUserIDInvalid
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrLogLevelUnknown, c.LogLevel)
	}
	return nil
}

func (c *Config) expandPaths() {
	c.InputDir = ExpandPath(c.InputDir)
	c.WarehousePath = ExpandPath(c.WarehousePath)
	c.SummaryPath = ExpandPath(c.SummaryPath)
	c.ParquetDir = ExpandPath(c.ParquetDir)
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenSource creates the configured extractor. The returned close function
// releases any connection and is never nil.
func (c *Config) OpenSource(ctx context.Context) (extract.Source, func(), error) {
	switch c.Source {
	case SourceCSV, "":
		return &extract.CSVSource{
			Dir:            c.InputDir,
			HabitsFile:     c.HabitsFile,
			CheckmarksFile: c.CheckmarksFile,
			ScoresFile:     c.ScoresFile,
		}, func() {}, nil
	case SourcePostgres:
		pool, err := extract.OpenPostgres(ctx, c.PostgresDSN)
		if err != nil {
			return nil, func() {}, err
		}
		return &extract.PostgresSource{DB: pool}, pool.Close, nil
	default:
		return nil, func() {}, fmt.Errorf("%w: %q", ErrSourceUnknown, c.Source)
	}
}

// OpenWarehouse opens the configured warehouse file.
func (c *Config) OpenWarehouse() (*storage.DB, error) {
	return storage.Open(c.WarehousePath)
}

// Uploader returns an S3 uploader when a bucket is configured, or nil.
func (c *Config) Uploader() (*export.Uploader, error) {
	if c.S3Bucket == "" {
		return nil, nil
	}
	return export.NewS3Uploader(c.S3Region, c.S3Bucket, c.S3Prefix)
}
