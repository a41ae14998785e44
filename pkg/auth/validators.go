package auth

import "time"

// LoginPayload represents the login request body.
type LoginPayload struct {
	Email    string `json:"email" validate:"required,email" mod:"trim,lcase"`
	Password string `json:"password" validate:"required,min=8"`
}

// SignupPayload is used for both self sign-up and initial setup.
type SignupPayload struct {
	Email    string `json:"email" validate:"required,email" mod:"trim,lcase"`
	Name     string `json:"name" validate:"required,max=100" mod:"trim"`
	Password string `json:"password" validate:"required,min=8"`
}

// UpdateMePayload is the profile fields a user can change themselves.
type UpdateMePayload struct {
	Name string `json:"name" validate:"required,max=100" mod:"trim"`
}

// StatusResponse represents the auth status response.
type StatusResponse struct {
	NeedsSetup bool `json:"needs_setup"`
}

// MeResponse represents the current user response.
type MeResponse struct {
	ID        int       `json:"id"`
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	JoinedAt  time.Time `json:"joined_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
