package jwttoken

import "tokenvault/internal/platform/middleware"

// JWTServiceAdapter satisfies middleware.JWTValidator.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

// ValidateToken reduces validated claims to the requester identity and
// token id the middleware stores on the request context.
func (a *JWTServiceAdapter) ValidateToken(raw string) (*middleware.JWTClaims, error) {
	claims, err := a.service.ValidateToken(raw)
	if err != nil {
		return nil, err
	}
	// ValidateToken already decoded the subject once.
	identity, _ := claims.Identity()
	return &middleware.JWTClaims{Identity: identity, JTI: claims.ID}, nil
}
