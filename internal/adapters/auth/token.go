package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"campusevents/internal/domain"
)

type jwtClaims struct {
	jwt.RegisteredClaims
	Email string   `json:"email"`
	Role  string   `json:"role"`
	Roles []string `json:"roles"`
}

type jwtInspector struct {
	parser *jwt.Parser
}

// NewJWTInspector returns a TokenInspector that reads JWT claims without checking the
// signature. The backend remains the only judge of a token's validity.
func NewJWTInspector() domain.TokenInspector {
	return &jwtInspector{parser: jwt.NewParser()}
}

func (i *jwtInspector) Inspect(token string) (domain.TokenInfo, bool) {
	claims := &jwtClaims{}
	if _, _, err := i.parser.ParseUnverified(token, claims); err != nil {
		return domain.TokenInfo{}, false
	}
	info := domain.TokenInfo{
		Subject: claims.Subject,
		Email:   claims.Email,
		Role:    roleOf(claims),
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, true
}

func roleOf(c *jwtClaims) domain.Role {
	if r := domain.Role(c.Role); r.Valid() {
		return r
	}
	for _, code := range c.Roles {
		if r := domain.Role(code); r.Valid() {
			return r
		}
	}
	return ""
}
