package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"car-identifier/pkg/config"
	"car-identifier/pkg/log"
	"car-identifier/pkg/secrets"
)

func TestNewBootstrap_LiteralKey(t *testing.T) {
	cfg := config.Default()
	cfg.Model.Vision.APIKey = "literal-key"
	cfg.Secrets.Provider = "memory"

	b, err := NewBootstrapWithLogger(context.Background(), cfg, log.Discard())
	require.NoError(t, err)
	require.NotNil(t, b.Identifier)
	assert.Equal(t, "gemini", b.Identifier.Name())
	assert.NotNil(t, b.Secrets)
}

func TestNewBootstrap_KeyFromStore(t *testing.T) {
	cfg := config.Default()
	cfg.Model.Vision.APIKey = ""
	store := secrets.NewMemoryStoreFrom(map[string]string{"GEMINI_API_KEY": "from-store"})

	id, err := NewIdentifierFromConfig(context.Background(), cfg, store, log.Discard())
	require.NoError(t, err)
	assert.Equal(t, "gemini", id.Name())
}

func TestNewBootstrap_MissingKey(t *testing.T) {
	cfg := config.Default()
	cfg.Model.Vision.APIKey = ""
	cfg.Secrets.Provider = "memory"

	_, err := NewBootstrapWithLogger(context.Background(), cfg, log.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")
}

func TestNewBootstrap_StubProviderNeedsNoKey(t *testing.T) {
	cfg := config.Default()
	cfg.Model.Vision.APIKey = ""
	cfg.Model.Vision.Provider = "stub"
	cfg.Secrets.Provider = "memory"

	b, err := NewBootstrapWithLogger(context.Background(), cfg, log.Discard())
	require.NoError(t, err)
	assert.Equal(t, "stub", b.Identifier.Name())
	got, err := b.Identifier.Identify(context.Background(), "abc")
	require.NoError(t, err)
	assert.Contains(t, got, "Make: Toyota")
}

func TestNewBootstrap_UnknownProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Model.Vision.APIKey = "k"
	cfg.Model.Vision.Provider = "nope"
	cfg.Secrets.Provider = "memory"

	_, err := NewBootstrapWithLogger(context.Background(), cfg, log.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Vision not registered")
}

func TestNewBootstrap_BadSecretsProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Secrets.Provider = "k8s"
	_, err := NewBootstrapWithLogger(context.Background(), cfg, log.Discard())
	require.Error(t, err)
}
