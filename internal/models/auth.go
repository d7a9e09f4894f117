package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	UserID   string `json:"userId" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issued_at"`
}

// RegisterRequest carries the signup payload for students and teachers.
// Role-specific fields are validated in the service after the role tag is
// known.
type RegisterRequest struct {
	Role                UserRole `json:"role" validate:"required,oneof=student teacher"`
	Name                string   `json:"name" validate:"required"`
	UserID              string   `json:"userId" validate:"required,min=4"`
	Password            string   `json:"password" validate:"required,min=8"`
	School              string   `json:"school" validate:"required"`
	EducationOfficeCode string   `json:"educationOfficeCode" validate:"required"`
	SchoolCode          string   `json:"schoolCode" validate:"required"`

	// Student fields.
	Grade         *int `json:"grade,omitempty"`
	ClassNumber   *int `json:"class,omitempty"`
	StudentNumber *int `json:"studentNumber,omitempty"`

	// Teacher fields.
	Subject       *string `json:"subject,omitempty"`
	HomeroomGrade *int    `json:"homeroomGrade,omitempty"`
	HomeroomClass *int    `json:"homeroomClass,omitempty"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID     string   `json:"id"`
	UserID string   `json:"userId"`
	Name   string   `json:"name"`
	Role   UserRole `json:"role"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID  string   `json:"user_id"`
	Role    UserRole `json:"role"`
	Name    string   `json:"name"`
	LoginID string   `json:"login_id"`
	jwt.RegisteredClaims
}
