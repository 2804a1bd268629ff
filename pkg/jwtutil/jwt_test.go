package jwtutil_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"connecta/pkg/jwtutil"
)

func TestSignAndVerify(t *testing.T) {
	issuer := jwtutil.NewIssuer("secret", "connecta")

	token, err := issuer.Sign("acc-1", "CA000007", "asha@example.com", "user")
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "acc-1", claims.AccountID)
	require.Equal(t, "CA000007", claims.DisplayID)
	require.Equal(t, "asha@example.com", claims.Email)
	require.Equal(t, "user", claims.Role)
	require.Equal(t, "connecta", claims.Issuer)
	require.Equal(t, "acc-1", claims.Subject)
	require.WithinDuration(t,
		time.Now().Add(jwtutil.TokenValidity), claims.ExpiresAt.Time, time.Minute)
}

func TestVerifyWrongSecret(t *testing.T) {
	token, err := jwtutil.NewIssuer("secret-a", "connecta").Sign("acc-1", "", "", "user")
	require.NoError(t, err)

	_, err = jwtutil.NewIssuer("secret-b", "connecta").Verify(token)
	require.ErrorIs(t, err, jwtutil.ErrInvalidToken)
}

func TestVerifyGarbage(t *testing.T) {
	issuer := jwtutil.NewIssuer("secret", "connecta")
	for _, bad := range []string{"", "not-a-token", "a.b.c"} {
		_, err := issuer.Verify(bad)
		require.ErrorIs(t, err, jwtutil.ErrInvalidToken, "input %q", bad)
	}
}
