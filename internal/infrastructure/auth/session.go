package auth

import (
	"context"
	"fmt"
)

// SessionValidator turns a session token into claims. A token is accepted
// only if its signature and lifetime are valid and it was not revoked.
type SessionValidator struct {
	jwt       *JWTService
	blacklist TokenBlacklist
}

// NewSessionValidator creates a new SessionValidator. blacklist may be nil.
func NewSessionValidator(jwtService *JWTService, blacklist TokenBlacklist) *SessionValidator {
	return &SessionValidator{jwt: jwtService, blacklist: blacklist}
}

// Validate checks the token on every request; nothing is cached
func (v *SessionValidator) Validate(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	claims, err := v.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}
	if v.blacklist == nil {
		return claims, nil
	}

	if claims.ID != "" {
		revoked, err := v.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check session revocation: %w", err)
		}
		if revoked {
			return nil, ErrTokenBlacklisted
		}
	}
	invalidated, err := v.blacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.GetIssuedAtTime())
	if err != nil {
		return nil, fmt.Errorf("check user revocation: %w", err)
	}
	if invalidated {
		return nil, ErrTokenBlacklisted
	}
	return claims, nil
}
