package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerRoundTrip(t *testing.T) {
	m := &Manager{Secret: []byte("secret"), AccessTTL: time.Minute, Issuer: "dern-backend"}
	token, err := m.NewAccessToken("u1", "technician")
	require.NoError(t, err)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, Identity{ID: "u1", Role: "technician"}, claims.Identity())
}

func TestManagerRejectsForeignSecret(t *testing.T) {
	issuer := &Manager{Secret: []byte("one"), AccessTTL: time.Minute, Issuer: "dern-backend"}
	verifier := &Manager{Secret: []byte("two"), AccessTTL: time.Minute, Issuer: "dern-backend"}
	token, err := issuer.NewAccessToken("u1", "admin")
	require.NoError(t, err)

	_, err = verifier.Parse(token)
	require.Error(t, err)
}

func TestManagerRejectsExpired(t *testing.T) {
	m := &Manager{Secret: []byte("secret"), AccessTTL: -time.Minute, Issuer: "dern-backend"}
	token, err := m.NewAccessToken("u1", "admin")
	require.NoError(t, err)

	_, err = m.Parse(token)
	require.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	require.NoError(t, ComparePassword(hash, "hunter2"))
	require.ErrorIs(t, ComparePassword(hash, "wrong"), ErrPasswordMismatch)
	require.ErrorIs(t, ComparePassword("", "hunter2"), ErrPasswordMismatch)
}

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{ID: "a1", Role: "admin"})
	id, ok := IdentityFromContext(ctx)
	require.True(t, ok)
	assert.True(t, id.IsAdmin())
	assert.True(t, id.HasRole("customer", "admin"))
	assert.False(t, id.HasRole("technician"))
}
