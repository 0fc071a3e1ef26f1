package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKeysEmptySpec(t *testing.T) {
	id, err := Resolve("nike.cdn.example.com", "/jordan12.jpg", "")
	require.NoError(t, err)

	keys := DeriveKeys(id, "")
	assert.Equal(t, "jordan12.jpg", keys.Original)
	assert.Equal(t, "jordan12.jpg", keys.Derivative)
	assert.False(t, keys.Transformed())
	assert.Equal(t, "nike/jordan12.jpg", keys.OriginKey())
	assert.Equal(t, keys.OriginKey(), keys.DerivativeKey())
}

func TestDeriveKeysHashesCanonicalForm(t *testing.T) {
	id, err := Resolve("nike.cdn.example.com", "/jordan12.jpg", "width=400&height=300")
	require.NoError(t, err)

	keys := DeriveKeys(id, "resize(w=400,h=300,fit=scale)")
	assert.Equal(t, "jordan12-be4cfba0f93da1c40494b01e5e5e8ad3f75e4029.jpg", keys.Derivative)
	assert.True(t, keys.Transformed())
	assert.Equal(t, "nike/jordan12.jpg", keys.OriginKey())
	assert.Equal(t, "nike/jordan12-be4cfba0f93da1c40494b01e5e5e8ad3f75e4029.jpg", keys.DerivativeKey())
}

func TestDeriveKeysKeepsDirectory(t *testing.T) {
	id, err := Resolve("nike.example.com", "/shoes/air.png", "")
	require.NoError(t, err)

	keys := DeriveKeys(id, "effect(name=grayscale)")
	assert.Equal(t, "shoes/air-b152506885b7f066f0a20117ebd846da15776d09.png", keys.Derivative)
}
