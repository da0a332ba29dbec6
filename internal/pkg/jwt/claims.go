// internal/pkg/jwt/claims.go
package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the authenticated account identity inside a signed token.
type Claims struct {
	AccountID      int64  `json:"account_id"`
	FirmName       string `json:"firm_name,omitempty"`
	IsAdmin        bool   `json:"is_admin"`
	SessionPurpose string `json:"session_purpose"` // access or refresh
	jwt.RegisteredClaims
}

// VerifyAudience checks if the expected audience is listed in the claims.
func (c *Claims) VerifyAudience(audience string, required bool) bool {
	if len(c.Audience) == 0 {
		return !required
	}
	for _, aud := range c.Audience {
		if aud == audience {
			return true
		}
	}
	return false
}
