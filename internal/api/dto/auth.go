package dto

import (
	"time"

	"github.com/hugh/startup-vault/internal/api/validation"
	"github.com/hugh/startup-vault/internal/database/models"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (r RegisterRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Email == "" {
		errors["email"] = "Email is required"
	} else if !validation.IsValidEmail(r.Email) {
		errors["email"] = "Invalid email format"
	}
	if r.Password == "" {
		errors["password"] = "Password is required"
	} else if ok, msg := validation.IsValidPassword(r.Password); !ok {
		errors["password"] = msg
	}
	if r.Name == "" {
		errors["name"] = "Name is required"
	}

	return errors
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Email == "" {
		errors["email"] = "Email is required"
	}
	if r.Password == "" {
		errors["password"] = "Password is required"
	}

	return errors
}

type VerifyEmailRequest struct {
	VerificationToken string `json:"verification_token"`
}

func (r VerifyEmailRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.VerificationToken == "" {
		errors["verification_token"] = "Verification token is required"
	}

	return errors
}

type UpdateProfileRequest struct {
	Name    *string `json:"name,omitempty"`
	Company *string `json:"company,omitempty"`
	Role    *string `json:"role,omitempty"`
}

func (r UpdateProfileRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Name != nil && *r.Name == "" {
		errors["name"] = "Name cannot be empty"
	}
	if r.Role != nil && !models.ValidUserRole(*r.Role) {
		errors["role"] = "Invalid role. Must be one of: founder, cto, team_member, investor, other"
	}

	return errors
}

type UserDTO struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	IsVerified bool      `json:"is_verified"`
	Company    string    `json:"company,omitempty"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}

func UserToDTO(user *models.User) UserDTO {
	return UserDTO{
		ID:         user.ID.String(),
		Email:      user.Email,
		Name:       user.Name,
		IsVerified: user.IsVerified,
		Company:    user.Company,
		Role:       string(user.Role),
		CreatedAt:  user.CreatedAt,
	}
}

type AuthResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

// RegisterResponse echoes the verification token so the flow is testable
// before email delivery is configured; the worker sends the real email.
type RegisterResponse struct {
	Message           string `json:"message"`
	Email             string `json:"email"`
	VerificationToken string `json:"verification_token,omitempty"`
}
