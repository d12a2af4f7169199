// Package auth verifies the bearer tokens clients present in the "auth"
// envelope. Tokens are issued by the account service with the same secret.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Circle/internal/core"
	"github.com/dkeye/Circle/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

const Issuer = "circle"

var _ core.TokenVerifier = (*Verifier)(nil)

// Claims carries the user identity in the subject.
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), now: time.Now}
}

// Issue signs an HS256 token for uid.
func (v *Verifier) Issue(uid domain.UserID, name string, ttl time.Duration) (string, error) {
	now := v.now()
	claims := &Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(uid),
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func (v *Verifier) VerifyToken(_ context.Context, token string) (domain.UserID, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: token expired", domain.ErrAuth)
		}
		return "", fmt.Errorf("%w: invalid token", domain.ErrAuth)
	}
	if !parsed.Valid {
		return "", fmt.Errorf("%w: invalid token", domain.ErrAuth)
	}

	uid := domain.UserID(claims.Subject)
	if err := uid.Validate(); err != nil {
		return "", fmt.Errorf("%w: token subject: %w", domain.ErrAuth, err)
	}
	return uid, nil
}
