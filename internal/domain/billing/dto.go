// internal/domain/billing/dto.go
package billing

type CheckoutRequest struct {
	Plan       string `json:"plan" binding:"omitempty,oneof=monthly annual"`
	SuccessURL string `json:"success_url" binding:"required,url"`
	CancelURL  string `json:"cancel_url" binding:"required,url"`
}

type CheckoutResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}
