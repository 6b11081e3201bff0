package dto

import "github.com/oussamael/internhub/internal/app/models"

// LoginRequest represents the login credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresIn int         `json:"expiresIn"`
	Role      models.Role `json:"role"`
	UserID    int64       `json:"userId"`
}
