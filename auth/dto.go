// Package auth, request payloads. These DTOs are filled from registration
// and login forms (HTML flow) or JSON bodies (API flow) and validated with
// go-playground/validator struct tags before any service call.
package auth

// RegisterRequest carries the fields a new account needs.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest carries a credential pair to verify.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
