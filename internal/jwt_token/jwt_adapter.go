package jwttoken

import (
	authmw "aplite/pkg/platform/middleware/auth"
)

// JWTServiceAdapter lets the auth middleware verify backend tokens without
// importing the jwt library.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(raw string) (*authmw.JWTClaims, error) {
	c, err := a.service.ValidateToken(raw)
	if err != nil {
		return nil, err
	}
	return &authmw.JWTClaims{UserID: c.User(), Email: c.Email, JTI: c.ID}, nil
}
