package jwtauth

import (
	"fairlend/internal/platform/middleware"
)

// MiddlewareAdapter adapts Service to the middleware.TokenValidator interface
// so the platform middleware stays decoupled from the JWT implementation.
type MiddlewareAdapter struct {
	service *Service
}

func NewMiddlewareAdapter(service *Service) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*middleware.TokenClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.TokenClaims{
		ActorID: claims.ActorID,
		Role:    claims.Role,
	}, nil
}
