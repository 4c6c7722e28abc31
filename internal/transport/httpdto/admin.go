package httpdto

// AdminEmailRequest targets a user by email for admin grant and revoke.
type AdminEmailRequest struct {
	Email string `json:"email" binding:"required"`
}
