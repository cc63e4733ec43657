// Package auth mints and validates the bearer tokens handed out at login.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is the lifetime of an access token.
const DefaultTokenTTL = 2 * time.Hour

// Claims is the identity carried by a validated token.
type Claims struct {
	UserID    string
	UserName  string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// tokenClaims is the wire form: sub, username, role, iss, aud, iat, exp, jti.
type tokenClaims struct {
	jwt.RegisteredClaims
	UserName string `json:"username"`
	Role     string `json:"role"`
}

// TokenIssuer signs HS256 tokens and validates them with zero clock skew.
type TokenIssuer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// NewTokenIssuer returns an issuer. A non-positive ttl means DefaultTokenTTL.
func NewTokenIssuer(secret []byte, issuer, audience string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Issue returns a signed token for user along with its expiry.
func (i *TokenIssuer) Issue(user *models.User) (string, time.Time, error) {
	if len(i.secret) == 0 {
		return "", time.Time{}, errors.New("jwt: empty signing key")
	}

	now := i.now()
	expires := now.Add(i.ttl)
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(),
		},
		UserName: user.UserName,
		Role:     user.Role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing access token: %w", err)
	}
	return signed, expires.Truncate(time.Second), nil
}

// Validate verifies signature, expiry, issuer and audience. Failures map to
// common.ErrBadSignature, common.ErrTokenExpired, common.ErrBadIssuerAudience
// or common.ErrMalformed.
func (i *TokenIssuer) Validate(tokenString string) (*Claims, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(0),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, mapError(err)
	}
	if !token.Valid || claims.Subject == "" || claims.Role == "" {
		return nil, common.ErrMalformed
	}

	out := &Claims{
		UserID:    claims.Subject,
		UserName:  claims.UserName,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return common.ErrBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return common.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenInvalidIssuer), errors.Is(err, jwt.ErrTokenInvalidAudience):
		return common.ErrBadIssuerAudience
	default:
		return fmt.Errorf("%w: %v", common.ErrMalformed, err)
	}
}
