package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignupRequest carries the fields collected on the signup page.
type SignupRequest struct {
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=6"`
	Name     string   `json:"name" validate:"required"`
	Role     UserRole `json:"role" validate:"required"`
	Mobile   string   `json:"mobile"`
}

// AuthResponse returns the session token and the authenticated profile.
type AuthResponse struct {
	User  UserInfo `json:"user"`
	Token string   `json:"token"`
}

// SessionClaims is the signed session token payload.
type SessionClaims struct {
	UserID string   `json:"user_id"`
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}
