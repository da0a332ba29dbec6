// internal/pkg/session/types.go
package session

import "time"

type SessionData struct {
	JTI            string    `json:"jti"`
	AccountID      int64     `json:"account_id"`
	Email          string    `json:"email"`
	FirmName       string    `json:"firm_name,omitempty"`
	IsAdmin        bool      `json:"is_admin"`
	IPAddress      string    `json:"ip_address"`
	UserAgent      string    `json:"user_agent"`
	LoginAt        time.Time `json:"login_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}
