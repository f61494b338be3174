// Package auth issues and verifies signed session tokens and performs
// role checks on their claims.
package auth

import (
	"errors"
	"slices"
	"strconv"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the verified payload of a session token: the registered claims
// plus the identity reference and its roles at issue time.
type Claims struct {
	jwt.RegisteredClaims
	UserID   int64    `json:"uid"`
	UserName string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// HasRole reports whether the claims carry role.
func (c *Claims) HasRole(role models.Role) bool {
	return slices.Contains(c.Roles, string(role))
}

// TokenService signs session tokens with a process-wide HMAC key.
// It touches neither network nor storage.
type TokenService struct {
	secretKey []byte
	ttl       time.Duration
}

func NewTokenService(secretKey []byte, ttl time.Duration) *TokenService {
	return &TokenService{
		secretKey: secretKey,
		ttl:       ttl,
	}
}

// ExpiresAt returns the expiry a token issued at now carries: now+TTL
// rounded up to the whole second the token format can express.
func (s *TokenService) ExpiresAt(now time.Time) time.Time {
	exp := now.Add(s.ttl)
	if whole := exp.Truncate(time.Second); whole.Before(exp) {
		return whole.Add(time.Second)
	}
	return exp
}

// Issue returns a signed token for user that stays valid through ExpiresAt(now).
func (s *TokenService) Issue(user *models.User, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt(now)),
		},
		UserID:   user.ID,
		UserName: user.UserName,
		Email:    user.Email,
		Roles:    user.RoleNames(),
	})

	return token.SignedString(s.secretKey)
}

// Verify checks the token's signature and expiry as of now.
//
// Errors: common.ErrMalformedToken when it cannot be parsed,
// common.ErrBadSignature when the signature or algorithm does not match,
// common.ErrTokenExpired when now is past the expiry. A token is still
// valid at the exact expiry instant.
func (s *TokenService) Verify(tokenString string, now time.Time) (*Claims, error) {
	claims := &Claims{}

	// jwt rejects now == exp, so expiry is compared here instead.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secretKey, nil
	})
	if err != nil {
		return nil, mapJWTError(err)
	}
	if !token.Valid || claims.ExpiresAt == nil {
		return nil, common.ErrMalformedToken
	}
	if now.After(claims.ExpiresAt.Time) {
		return nil, common.ErrTokenExpired
	}

	return claims, nil
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return common.ErrMalformedToken
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return common.ErrBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return common.ErrTokenExpired
	default:
		return common.ErrMalformedToken
	}
}
