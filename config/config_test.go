package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kutluhann/kademlia-routing/id_tools"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.False(t, cfg.HasPrivateKey())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("KAD_BUCKET_SIZE", "20")
	t.Setenv("KAD_HTTP_PORT", "9100")
	t.Setenv("KAD_SEED_PEERS", "64")
	t.Setenv("KAD_LOG_LEVEL", "DEBUG")
	t.Setenv("KAD_LOG_DEV", "true")
	t.Setenv("KAD_IDENTITY_PATH", "/var/lib/kad/identity.key")
	t.Setenv("KAD_CHECK_TRIALS", "50")
	t.Setenv("KAD_CHECK_SEED", "12345")
	t.Setenv("KAD_CHECK_OPERATIONS", "10")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.BucketSize)
	assert.Equal(t, 9100, cfg.HTTPPort)
	assert.Equal(t, 64, cfg.SeedPeers)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.LogDev)
	assert.Equal(t, "/var/lib/kad/identity.key", cfg.IdentityPath)
	assert.Equal(t, 50, cfg.CheckTrials)
	assert.Equal(t, uint64(12345), cfg.CheckSeed)
	assert.Equal(t, 10, cfg.CheckOperations)
}

func TestLoadFromEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "node.env")
	require.NoError(t, os.WriteFile(envFile, []byte("KAD_BUCKET_SIZE=3\nKAD_SEED_PEERS=7\n"), 0600))
	t.Cleanup(func() {
		os.Unsetenv("KAD_BUCKET_SIZE")
		os.Unsetenv("KAD_SEED_PEERS")
	})

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.BucketSize)
	assert.Equal(t, 7, cfg.SeedPeers)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"KAD_BUCKET_SIZE":  "0",
		"KAD_HTTP_PORT":    "70000",
		"KAD_SEED_PEERS":   "-1",
		"KAD_CHECK_TRIALS": "abc",
		"KAD_LOG_LEVEL":    "loud",
		"KAD_LOG_DEV":      "maybe",
		"KAD_CHECK_SEED":   "-5",
	}

	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(name, value)

			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
			assert.True(t, Error.Has(err))
		})
	}
}

func TestPrivateKey(t *testing.T) {
	identity, err := id_tools.GenerateIdentity()
	require.NoError(t, err)

	cfg := Default()
	cfg.SetPrivateKey(identity.PrivateKey)

	assert.True(t, cfg.HasPrivateKey())
	assert.Same(t, identity.PrivateKey, cfg.GetPrivateKey())
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug", false)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))

	logger, err = Default().Logger()
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1))

	_, err = NewLogger("verbose", true)
	assert.Error(t, err)
}
