// Copyright 2026 fanjia1024
// Tests for model registry

package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"car-identifier/internal/model/vision"
	"car-identifier/pkg/config"
	"car-identifier/pkg/log"
)

func TestGetVision_NotRegistered(t *testing.T) {
	_, err := GetVision("non-existent-vision")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestNewIdentifier_Gemini(t *testing.T) {
	id, err := NewIdentifier(config.VisionConfig{}, "k", nil)
	require.NoError(t, err)
	assert.Equal(t, "gemini", id.Name())
	_, ok := id.(*vision.InstrumentedIdentifier)
	assert.True(t, ok, "identifier should be instrumented")
}

func TestNewIdentifier_MissingKey(t *testing.T) {
	_, err := NewIdentifier(config.VisionConfig{Provider: "gemini"}, "", nil)
	require.Error(t, err)
}

func TestRegisterVision_Custom(t *testing.T) {
	stub := &vision.StubIdentifier{Text: "Make: Kia"}
	RegisterVision("test-stub", func(cfg config.VisionConfig, apiKey string, logger *log.Logger) (vision.Identifier, error) {
		return stub, nil
	})
	assert.Contains(t, VisionProviders(), "test-stub")

	id, err := NewIdentifier(config.VisionConfig{Provider: "test-stub"}, "", nil)
	require.NoError(t, err)
	got, err := id.Identify(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "Make: Kia", got)
}

func TestNewIdentifier_StubProvider(t *testing.T) {
	assert.False(t, NeedsAPIKey("stub"))
	assert.True(t, NeedsAPIKey(""))
	assert.True(t, NeedsAPIKey("gemini"))
	assert.Contains(t, VisionProviders(), "stub")

	id, err := NewIdentifier(config.VisionConfig{Provider: "stub"}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "stub", id.Name())
	got, err := id.Identify(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, StubText, got)
}
