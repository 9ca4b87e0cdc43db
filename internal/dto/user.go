package dto

import "fmt"

// LoginRequest is the JSON body for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// MaxPasswordBytes is bcrypt's input limit.
const MaxPasswordBytes = 72

// RegisterRequest is the JSON body for POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=1,max=120"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// Validate checks what binding tags cannot: the max tag counts characters, bcrypt counts bytes.
func (r RegisterRequest) Validate() error {
	if len(r.Password) > MaxPasswordBytes {
		return NewValidationError(fmt.Sprintf("password: must be at most %d bytes", MaxPasswordBytes))
	}
	return nil
}

// UserResponse is returned when user info is needed (e.g. after login).
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
}

// SessionResponse is the payload of GET /auth/session for an authenticated caller.
type SessionResponse struct {
	User UserResponse `json:"user"`
}

// TokenResponse carries a bearer token for API clients.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt Timestamp `json:"expiresAt" swaggertype:"string" format:"date-time"`
}
