package config_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/membership/pkg/config"
)

type serverConfig struct {
	Addr    string `env:"TEST_CFG_ADDR" envDefault:":8080"`
	Workers int    `env:"TEST_CFG_WORKERS" envDefault:"4"`
}

type requiredConfig struct {
	Secret string `env:"TEST_CFG_SECRET,required"`
}

type validatedConfig struct {
	Key    string `env:"TEST_CFG_KEY"`
	Secret string `env:"TEST_CFG_KEY_SECRET"`
}

func (c *validatedConfig) Validate() error {
	if c.Key != "" && c.Secret == "" {
		return errors.New("key requires secret")
	}
	return nil
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var cfg serverConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, 4, cfg.Workers)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		t.Setenv("TEST_CFG_ADDR", ":9090")
		t.Setenv("TEST_CFG_WORKERS", "8")

		var cfg serverConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, ":9090", cfg.Addr)
		assert.Equal(t, 8, cfg.Workers)
	})

	t.Run("every call parses the current environment", func(t *testing.T) {
		t.Setenv("TEST_CFG_ADDR", ":1111")
		var first serverConfig
		require.NoError(t, config.Load(&first))

		t.Setenv("TEST_CFG_ADDR", ":2222")
		var second serverConfig
		require.NoError(t, config.Load(&second))

		assert.Equal(t, ":1111", first.Addr)
		assert.Equal(t, ":2222", second.Addr)
	})

	t.Run("missing required value", func(t *testing.T) {
		var cfg requiredConfig
		err := config.Load(&cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("validation failure", func(t *testing.T) {
		t.Setenv("TEST_CFG_KEY", "k")

		var cfg validatedConfig
		err := config.Load(&cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})

	t.Run("nil pointer", func(t *testing.T) {
		var cfg *serverConfig
		assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
	})
}

func TestMustLoad_Panics(t *testing.T) {
	var cfg requiredConfig
	assert.Panics(t, func() { config.MustLoad(&cfg) })
}

func TestLoadEnv_MissingExplicitFile(t *testing.T) {
	t.Parallel()
	err := config.LoadEnv("does-not-exist.env")
	assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
}
