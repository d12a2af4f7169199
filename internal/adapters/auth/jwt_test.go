package auth

import (
	"context"
	"testing"
	"time"

	"github.com/dkeye/Circle/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestVerifier_RoundTrip(t *testing.T) {
	req := require.New(t)
	v := NewVerifier("test-secret")

	token, err := v.Issue("ann", "Ann", time.Hour)
	req.NoError(err)

	uid, err := v.VerifyToken(context.Background(), token)
	req.NoError(err)
	req.Equal(domain.UserID("ann"), uid)
}

func TestVerifier_Rejects(t *testing.T) {
	v := NewVerifier("test-secret")
	other := NewVerifier("other-secret")

	forged, err := other.Issue("ann", "Ann", time.Hour)
	require.NoError(t, err)

	expired, err := v.Issue("ann", "Ann", -time.Minute)
	require.NoError(t, err)

	noSubject, err := v.Issue("", "", time.Hour)
	require.NoError(t, err)

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "ann",
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "ann",
		Issuer:  Issuer,
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	cases := map[string]string{
		"garbage":      "not-a-token",
		"empty":        "",
		"wrong secret": forged,
		"expired":      expired,
		"no subject":   noSubject,
		"wrong issuer": wrongIssuer,
		"no expiry":    noExpiry,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.VerifyToken(context.Background(), token)
			require.ErrorIs(t, err, domain.ErrAuth)
		})
	}
}
