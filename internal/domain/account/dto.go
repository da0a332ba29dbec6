// internal/domain/account/dto.go
package account

import "time"

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirmName  string `json:"firm_name"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

type LoginRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Account      *Account  `json:"account"`
}

type GrantCreditsRequest struct {
	Credits int `json:"credits" binding:"required,min=1"`
}

type SetSubscriptionRequest struct {
	Status SubscriptionStatus `json:"status" binding:"required,oneof=trial active canceled past_due"`
	Plan   PlanType           `json:"plan" binding:"required,oneof=none monthly annual"`
}

type ListFilters struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

type ListResponse struct {
	Accounts []Account `json:"accounts"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}
