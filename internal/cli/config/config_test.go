package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/aegis/pkg/adapter"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/leapstack-labs/aegis/pkg/adapters/duckdb"
)

const sampleConfig = `
source:
  type: duckdb
  path: data/loans.csv
target: loan_approved
protected: [gender, race]
positive_label: 1
model:
  type: linear
  name: credit-cutoff
  weights:
    credit_score: 1
  intercept: -640
state_path: history/state.db
output: json
concurrency: 2
`

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "aegis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// newFlags mirrors the persistent flags registered by the root command.
func newFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("source", "", "")
	flags.String("target", "", "")
	flags.StringSlice("protected", nil, "")
	flags.String("state", "", "")
	flags.Bool("no-history", false, "")
	flags.StringP("output", "o", "", "")
	flags.BoolP("verbose", "v", false, "")
	flags.Int("concurrency", 1, "")
	return flags
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultSourceType, cfg.Source.Type)
	assert.Equal(t, filepath.Join(dir, DefaultStateFile), cfg.StatePath)
	assert.True(t, cfg.History)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, DefaultConcurrency, cfg.Concurrency)
	assert.Nil(t, cfg.PositiveLabel)
	assert.Empty(t, GetConfigFileUsed())
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	path := writeConfig(t, dir, sampleConfig)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, GetConfigFileUsed())
	assert.Equal(t, "duckdb", cfg.Source.Type)
	assert.Equal(t, filepath.Join(dir, "data", "loans.csv"), cfg.Source.Path)
	assert.Equal(t, "loan_approved", cfg.Target)
	assert.Equal(t, []string{"gender", "race"}, cfg.Protected)
	assert.EqualValues(t, 1, cfg.PositiveLabel)
	assert.Equal(t, "linear", cfg.Model.Type)
	assert.Equal(t, "credit-cutoff", cfg.Model.Name)
	assert.Equal(t, map[string]float64{"credit_score": 1}, cfg.Model.Weights)
	assert.InDelta(t, -640, cfg.Model.Intercept, 1e-9)
	assert.Equal(t, filepath.Join(dir, "history", "state.db"), cfg.StatePath)
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, 2, cfg.Concurrency)
}

func TestLoadConfig_SearchesUpward(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	writeConfig(t, dir, sampleConfig)
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "aegis.yaml"), GetConfigFileUsed())
	assert.Equal(t, "loan_approved", cfg.Target)
	assert.Equal(t, filepath.Join(dir, "data", "loans.csv"), cfg.Source.Path,
		"file paths resolve against the config directory, not the working directory")
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	ResetConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	path := writeConfig(t, dir, sampleConfig)

	t.Setenv("AEGIS_TARGET", "defaulted")
	t.Setenv("AEGIS_CONCURRENCY", "4")
	t.Setenv("AEGIS_SOURCE__TABLE", "loans")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "defaulted", cfg.Target)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, "loans", cfg.Source.Table)
	assert.Equal(t, "duckdb", cfg.Source.Type, "sibling keys from the file survive")
}

func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	path := writeConfig(t, dir, sampleConfig)
	cwd := t.TempDir()
	t.Chdir(cwd)
	t.Setenv("AEGIS_TARGET", "from-env")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{
		"--target", "from-flag",
		"--protected", "age",
		"--source", "other.csv",
		"--state", "s.db",
		"--no-history",
		"-o", "yaml",
	}))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "from-flag", cfg.Target)
	assert.Equal(t, []string{"age"}, cfg.Protected)
	assert.Equal(t, filepath.Join(cwd, "other.csv"), cfg.Source.Path, "flag paths resolve against the working directory")
	assert.Equal(t, filepath.Join(cwd, "s.db"), cfg.StatePath)
	assert.False(t, cfg.History)
	assert.Equal(t, "yaml", cfg.OutputFormat)
	assert.Equal(t, 2, cfg.Concurrency, "unset flags do not override the file")
}

func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	path := writeConfig(t, dir, sampleConfig)
	t.Setenv("AEGIS_OUTPUT", "markdown")

	flags := newFlags()
	require.NoError(t, flags.Parse(nil))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "markdown", cfg.OutputFormat)
	assert.True(t, cfg.History)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("AEGIS_TEST_PASSWORD", "s3cret")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no vars", "plain", "plain"},
		{"single var", "${AEGIS_TEST_PASSWORD}", "s3cret"},
		{"embedded var", "pre-${AEGIS_TEST_PASSWORD}-post", "pre-s3cret-post"},
		{"unset var kept", "${AEGIS_TEST_UNSET}", "${AEGIS_TEST_UNSET}"},
		{"bare dollar", "$AEGIS_TEST_PASSWORD", "$AEGIS_TEST_PASSWORD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandEnvVars(tt.in))
		})
	}
}

func TestLoadConfig_ExpandsSourceCredentials(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	path := writeConfig(t, dir, `
source:
  type: postgres
  host: ${AEGIS_TEST_HOST}
  user: auditor
  password: ${AEGIS_TEST_PASSWORD}
  table: loans
  options:
    sslmode: ${AEGIS_TEST_SSL}
`)
	t.Setenv("AEGIS_TEST_HOST", "db.internal")
	t.Setenv("AEGIS_TEST_PASSWORD", "s3cret")
	t.Setenv("AEGIS_TEST_SSL", "require")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Source.Host)
	assert.Equal(t, "auditor", cfg.Source.User)
	assert.Equal(t, "s3cret", cfg.Source.Password)
	assert.Equal(t, "require", cfg.Source.Options["sslmode"])
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Source:       SourceConfig{Type: "duckdb", Path: "loans.csv"},
			Target:       "loan_approved",
			Protected:    []string{"gender"},
			OutputFormat: "auto",
			Concurrency:  1,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing target", func(c *Config) { c.Target = "" }, "target is required"},
		{"no protected", func(c *Config) { c.Protected = nil }, "at least one protected attribute"},
		{"repeated protected", func(c *Config) { c.Protected = []string{"race", "gender", "race"} }, `protected attribute "race" is listed more than once`},
		{"target protected", func(c *Config) { c.Protected = []string{"loan_approved"} }, "cannot also be a protected attribute"},
		{"bad output", func(c *Config) { c.OutputFormat = "html" }, `invalid output "html"`},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, "concurrency must be at least 1"},
		{"no source type", func(c *Config) { c.Source.Type = "" }, "source.type is required"},
		{"unknown source type", func(c *Config) { c.Source.Type = "oracle" }, `unknown source type "oracle"`},
		{"no dataset", func(c *Config) { c.Source.Path = "" }, "source needs a path, table or query"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_ValidateUnknownAdapterIsTyped(t *testing.T) {
	err := ValidateSource(SourceConfig{Type: "oracle", Table: "t"})
	var unknown *adapter.UnknownAdapterError
	require.ErrorAs(t, err, &unknown)
	assert.Contains(t, unknown.Available, "duckdb")
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()), "falls back to a discard logger")

	logger := slog.New(slog.DiscardHandler)
	ctx := context.WithValue(context.Background(), LoggerKey(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}
