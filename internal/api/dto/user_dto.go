package dto

import (
	"time"

	"github.com/spec-kit/tour-service/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Username  string            `json:"username" validate:"required,min=3,max=64"`
	Password  string            `json:"password" validate:"required,min=8"`
	FirstName string            `json:"first_name" validate:"required"`
	LastName  string            `json:"last_name" validate:"required"`
	Email     string            `json:"email" validate:"required,email"`
	Interests []domain.Interest `json:"interests"`
}

// LoginRequest payload.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse carries the issued token.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the public account view.
type UserResponse struct {
	ID             string            `json:"id"`
	Username       string            `json:"username"`
	FirstName      string            `json:"first_name"`
	LastName       string            `json:"last_name"`
	Email          string            `json:"email"`
	Role           domain.UserRole   `json:"role"`
	Interests      []domain.Interest `json:"interests,omitempty"`
	BonusPoints    int               `json:"bonus_points"`
	AwardPoints    int               `json:"award_points"`
	IsAwardedGuide bool              `json:"is_awarded_guide"`
	IsMalicious    bool              `json:"is_malicious"`
	IsBlocked      bool              `json:"is_blocked"`
	CreatedAt      time.Time         `json:"created_at"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:             user.ID,
		Username:       user.Username,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		Email:          user.Email,
		Role:           user.Role,
		Interests:      user.Interests,
		BonusPoints:    user.BonusPoints,
		AwardPoints:    user.AwardPoints,
		IsAwardedGuide: user.IsAwardedGuide,
		IsMalicious:    user.IsMalicious,
		IsBlocked:      user.IsBlocked,
		CreatedAt:      user.CreatedAt,
	}
}
