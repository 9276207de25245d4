package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "tokenvault/pkg/domain"
	dErrors "tokenvault/pkg/domain-errors"
)

// Claims are the claims of a vault access token. The registered subject
// carries the requester identity as a base58 address.
type Claims struct {
	jwt.RegisteredClaims
}

// Identity decodes the subject.
func (c *Claims) Identity() (id.Address, error) {
	return id.ParseAddress(c.Subject)
}

// JWTService signs and checks HS256 vault access tokens.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
	now        func() time.Time
}

func NewJWTService(signingKey, issuer, audience string) *JWTService {
	return &JWTService{signingKey: []byte(signingKey), issuer: issuer, audience: audience, now: time.Now}
}

// GenerateAccessToken issues a token whose subject is identity.
func (s *JWTService) GenerateAccessToken(identity id.Address, expiresIn time.Duration) (string, error) {
	if identity.IsZero() {
		return "", dErrors.New(dErrors.CodeBadRequest, "identity is required")
	}
	issued := s.now()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   identity.String(),
		Issuer:    s.issuer,
		Audience:  jwt.ClaimStrings{s.audience},
		IssuedAt:  jwt.NewNumericDate(issued),
		ExpiresAt: jwt.NewNumericDate(issued.Add(expiresIn)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "sign access token")
	}
	return signed, nil
}

func (s *JWTService) key(token *jwt.Token) (any, error) {
	if token.Method != jwt.SigningMethodHS256 {
		return nil, jwt.ErrTokenUnverifiable
	}
	return s.signingKey, nil
}

// ValidateToken checks signature, issuer, audience and expiry, and that the
// subject decodes to an address. Every failure is CodeUnauthorized.
func (s *JWTService) ValidateToken(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, s.key,
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
	case err != nil:
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if _, err := claims.Identity(); err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}
	return claims, nil
}
