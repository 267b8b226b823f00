package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, ":50051", cfg.GRPC.Addr)
	assert.Equal(t, StorageMySQL, cfg.Storage)
	assert.Equal(t, "0.10", cfg.Checkout.TaxRate)
	assert.Equal(t, "USD", cfg.Checkout.Currency)
	assert.Equal(t, 24*time.Hour, cfg.Checkout.IdempotencyTTL)
	assert.Equal(t, 30*time.Minute, cfg.Checkout.AbandonAfter)
	assert.Equal(t, time.Minute, cfg.Checkout.SweepInterval)
	assert.Empty(t, cfg.Tracing.Endpoint)
	assert.Equal(t, "storefront", cfg.Tracing.ServiceName)
	assert.Empty(t, cfg.Payment.DeclineAbove)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("STOREFRONT_HTTP_ADDR", ":9090")
	t.Setenv("STOREFRONT_STORAGE", "memory")
	t.Setenv("STOREFRONT_CHECKOUT_ABANDON_AFTER", "2h")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, 2*time.Hour, cfg.Checkout.AbandonAfter)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: memory\ncheckout:\n  tax_rate: \"0.2\"\npayment:\n  decline_above: \"500\"\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, "0.2", cfg.Checkout.TaxRate)
	assert.Equal(t, "500", cfg.Payment.DeclineAbove)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("STOREFRONT_STORAGE", "postgres")
	_, err = LoadConfig("")
	assert.ErrorContains(t, err, "unknown storage")
}
