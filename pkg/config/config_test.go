package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/warehouse/pkg/logger"
	"github.com/carverauto/warehouse/pkg/models"
)

var errMissingName = errors.New("name is required")

type nestedConfig struct {
	Level string `json:"level"`
	Debug bool   `json:"debug"`
}

type optionalConfig struct {
	URL string `json:"url"`
}

type sampleConfig struct {
	Name     string                     `json:"name"`
	Interval models.Duration            `json:"interval"`
	Retries  int                        `json:"retries"`
	Ratio    float64                    `json:"ratio"`
	Tags     []string                   `json:"tags"`
	Services []models.ServiceDescriptor `json:"services"`
	Logging  nestedConfig               `json:"logging"`
	Optional *optionalConfig            `json:"optional,omitempty"`
	internal string
}

func (c *sampleConfig) Validate() error {
	if c.Name == "" {
		return errMissingName
	}

	return nil
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoadAndValidateFromFile(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "")

	path := writeConfig(t, `{
		"name": "warehouse",
		"interval": "60s",
		"services": [{"id": "games", "endpoint": "docs"}],
		"logging": {"level": "debug"}
	}`)

	var cfg sampleConfig
	require.NoError(t, NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), path, &cfg))

	assert.Equal(t, "warehouse", cfg.Name)
	assert.Equal(t, models.Duration(time.Minute), cfg.Interval)
	require.Len(t, cfg.Services, 1)
	assert.Equal(t, "games", cfg.Services[0].ID)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadAndValidateRunsValidator(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "file")

	path := writeConfig(t, `{"interval": "5s"}`)

	var cfg sampleConfig
	err := NewConfig(nil).LoadAndValidate(context.Background(), path, &cfg)
	require.ErrorIs(t, err, errMissingName)
}

func TestLoadAndValidateMissingFile(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "")

	var cfg sampleConfig
	err := NewConfig(nil).LoadAndValidate(context.Background(), filepath.Join(t.TempDir(), "nope.json"), &cfg)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadAndValidateInvalidSource(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "kv")

	var cfg sampleConfig
	err := NewConfig(nil).LoadAndValidate(context.Background(), "", &cfg)
	require.ErrorIs(t, err, errInvalidConfigSource)
}

func TestEnvLoaderConfigJSON(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "env")
	t.Setenv("WAREHOUSE_CONFIG_JSON", `{"name":"from-json","retries":3}`)
	t.Setenv("WAREHOUSE_NAME", "ignored")

	var cfg sampleConfig
	require.NoError(t, NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), "", &cfg))

	assert.Equal(t, "from-json", cfg.Name)
	assert.Equal(t, 3, cfg.Retries)
}

func TestEnvLoaderIndividualVariables(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "env")
	t.Setenv("WAREHOUSE_NAME", "from-env")
	t.Setenv("WAREHOUSE_INTERVAL", "30s")
	t.Setenv("WAREHOUSE_RETRIES", "4")
	t.Setenv("WAREHOUSE_RATIO", "0.5")
	t.Setenv("WAREHOUSE_TAGS", "a, b ,c")
	t.Setenv("WAREHOUSE_SERVICES", `[{"id":"games","threshold_ms":250}]`)
	t.Setenv("WAREHOUSE_LOGGING_LEVEL", "warn")
	t.Setenv("WAREHOUSE_LOGGING_DEBUG", "true")

	var cfg sampleConfig
	require.NoError(t, NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), "", &cfg))

	assert.Equal(t, "from-env", cfg.Name)
	assert.Equal(t, models.Duration(30*time.Second), cfg.Interval)
	assert.Equal(t, 4, cfg.Retries)
	assert.InDelta(t, 0.5, cfg.Ratio, 0.0001)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Tags)
	require.Len(t, cfg.Services, 1)
	assert.Equal(t, 250, cfg.Services[0].ThresholdMs)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Debug)
	assert.Nil(t, cfg.Optional)
}

func TestEnvLoaderAllocatesOptionalStruct(t *testing.T) {
	t.Setenv("APP_NAME", "x")
	t.Setenv("APP_OPTIONAL_URL", "nats://localhost:4222")

	var cfg sampleConfig
	require.NoError(t, NewEnvConfigLoader(logger.NewTestLogger(), "APP_").Load(context.Background(), "", &cfg))

	require.NotNil(t, cfg.Optional)
	assert.Equal(t, "nats://localhost:4222", cfg.Optional.URL)
}

func TestEnvLoaderRejectsBadValue(t *testing.T) {
	t.Setenv("APP_RETRIES", "many")

	var cfg sampleConfig
	err := NewEnvConfigLoader(logger.NewTestLogger(), "APP_").Load(context.Background(), "", &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APP_RETRIES")
}

func TestEnvLoaderRequiresStructPointer(t *testing.T) {
	l := NewEnvConfigLoader(logger.NewTestLogger(), "APP_")

	var s string
	require.ErrorIs(t, l.Load(context.Background(), "", &s), ErrDstMustBePointerToStruct)
	require.ErrorIs(t, l.Load(context.Background(), "", sampleConfig{}), ErrDstMustBeNonNilPointer)
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, filepath.Join("/etc/warehouse", "services.json"), ResolvePath("/etc/warehouse/poller.json", "services.json"))
	assert.Equal(t, "/abs/services.json", ResolvePath("/etc/warehouse/poller.json", "/abs/services.json"))
	assert.Empty(t, ResolvePath("/etc/warehouse/poller.json", ""))
	assert.Equal(t, "services.json", ResolvePath("", "services.json"))
}
