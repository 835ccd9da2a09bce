package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func sampleClaims() Claims {
	return Claims{
		UUID:  "u-1",
		Email: "a@x.com",
		Role: &RoleClaim{
			UUID: "r-1",
			Name: "Editor",
			Slug: "editor",
			Permissions: []PermissionClaim{
				{UUID: "p-1", Name: "Read", Slug: "read"},
			},
		},
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	secret := []byte("s3cret")
	tok, err := Sign(sampleClaims(), secret, time.Minute)
	require.NoError(t, err)

	got, err := Verify(tok, secret)
	require.NoError(t, err)
	require.Equal(t, "u-1", got.UUID)
	require.Equal(t, "a@x.com", got.Email)
	require.NotNil(t, got.Role)
	require.Equal(t, "editor", got.Role.Slug)
	require.Len(t, got.Role.Permissions, 1)
}

func TestVerifyFailures(t *testing.T) {
	secret := []byte("s3cret")

	_, err := Verify("garbage", secret)
	require.Error(t, err)

	tok, err := Sign(sampleClaims(), secret, time.Minute)
	require.NoError(t, err)
	_, err = Verify(tok, []byte("other"))
	require.Error(t, err)

	expired, err := Sign(sampleClaims(), secret, -time.Minute)
	require.NoError(t, err)
	_, err = Verify(expired, secret)
	require.Error(t, err)
}

func TestHasPermission(t *testing.T) {
	c := sampleClaims()
	require.True(t, c.HasPermission("read"))
	require.False(t, c.HasPermission("write"))
	require.False(t, Claims{}.HasPermission("read"))
}
