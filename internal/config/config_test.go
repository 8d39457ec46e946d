// ABOUTME: Tests for habitetl configuration management.
// ABOUTME: Covers defaults, YAML file, env overrides, validation, and factories.
package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/harperreed/habitetl/internal/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(NewViper(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), *cfg)
	assert.Equal(t, "meshos_warehouse.db", cfg.WarehousePath)
	assert.Equal(t, "pipeline_summary.json", cfg.SummaryPath)
	assert.Equal(t, "derived", cfg.Mapping)
	assert.Equal(t, "drop", cfg.UnmappedPolicy)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `input_dir: /data/loop
warehouse_path: /data/warehouse.db
unmapped_policy: fail
mapping: static
user_id: 42
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(NewViper(), path)
	require.NoError(t, err)
	assert.Equal(t, "/data/loop", cfg.InputDir)
	assert.Equal(t, "/data/warehouse.db", cfg.WarehousePath)
	assert.Equal(t, "fail", cfg.UnmappedPolicy)
	assert.Equal(t, "static", cfg.Mapping)
	assert.Equal(t, int64(42), cfg.UserID)
	assert.Equal(t, "pipeline_summary.json", cfg.SummaryPath)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("summary_path: from-file.json\nlog_level: warn\n"), 0600))

	t.Setenv("HABITETL_SUMMARY_PATH", "from-env.json")
	t.Setenv("HABITETL_USER_ID", "7")

	cfg, err := Load(NewViper(), path)
	require.NoError(t, err)
	assert.Equal(t, "from-env.json", cfg.SummaryPath)
	assert.Equal(t, int64(7), cfg.UserID)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadUsesXDGConfigHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	assert.Equal(t, filepath.Join(dir, "habitetl", "config.yaml"), GetConfigPath())

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "habitetl"), 0750))
	require.NoError(t, os.WriteFile(GetConfigPath(), []byte("mapping: static\n"), 0600))

	cfg, err := Load(NewViper(), "")
	require.NoError(t, err)
	assert.Equal(t, "static", cfg.Mapping)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mapping: [unclosed\n"), 0600))

	_, err := Load(NewViper(), path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   error
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "unknown source", mutate: func(c *Config) { c.Source = "mysql" }, want: ErrSourceUnknown},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Source = SourcePostgres }, want: ErrPostgresDSNEmpty},
		{name: "postgres with dsn", mutate: func(c *Config) { c.Source = SourcePostgres; c.PostgresDSN = "postgres://localhost/meshos" }},
		{name: "unknown policy", mutate: func(c *Config) { c.UnmappedPolicy = "ignore" }, want: ErrUnmappedPolicyUnknown},
		{name: "unknown mapping", mutate: func(c *Config) { c.Mapping = "fuzzy" }, want: ErrMappingUnknown},
		{name: "zero user", mutate: func(c *Config) { c.UserID = 0 }, want: ErrUserIDInvalid},
		{name: "unknown log level", mutate: func(c *Config) { c.LogLevel = "trace" }, want: ErrLogLevelUnknown},
		{name: "uppercase log level", mutate: func(c *Config) { c.LogLevel = "DEBUG" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Defaults()
	cfg.InputDir = "/exports"
	cfg.S3Bucket = "lake"

	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := Load(NewViper(), path)
	require.NoError(t, err)
	assert.Equal(t, cfg, *got)
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()
	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, "/tmp/foo", ExpandPath("/tmp/foo"))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "exports"), ExpandPath("~/exports"))
	assert.Equal(t, "relative/path", ExpandPath("relative/path"))
}

func TestOpenSourceCSV(t *testing.T) {
	cfg := Defaults()
	cfg.InputDir = "/exports"
	cfg.ScoresFile = "s.csv"

	src, closeFn, err := cfg.OpenSource(context.Background())
	require.NoError(t, err)
	defer closeFn()

	csvSrc, ok := src.(*extract.CSVSource)
	require.True(t, ok)
	_, _, scores := csvSrc.Paths()
	assert.Equal(t, filepath.Join("/exports", "s.csv"), scores)
}

func TestOpenWarehouse(t *testing.T) {
	cfg := Defaults()
	cfg.WarehousePath = filepath.Join(t.TempDir(), "w.db")

	db, err := cfg.OpenWarehouse()
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, cfg.WarehousePath, db.Path())
}

func TestUploaderDisabledWithoutBucket(t *testing.T) {
	cfg := Defaults()
	up, err := cfg.Uploader()
	require.NoError(t, err)
	assert.Nil(t, up)
}
