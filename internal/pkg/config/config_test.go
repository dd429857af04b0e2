package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "development", cfg.Env)
	require.True(t, cfg.IsDev())
	require.Equal(t, "final_two", cfg.WinRule)
	require.False(t, cfg.DeterministicRoles)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("ENV", "production")
	t.Setenv("DETERMINISTIC_ROLES", "true")
	t.Setenv("METRICS_PORT", "9100")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 9999, cfg.Port)
	require.Equal(t, "production", cfg.Env)
	require.False(t, cfg.IsDev())
	require.True(t, cfg.DeterministicRoles)
	require.Equal(t, "0.0.0.0:9100", cfg.MetricsAddr())
}

func TestAddrCombinesHostAndPort(t *testing.T) {
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:3000", cfg.Addr())
}
