package models

import "time"

// UserRole describes how the user relates to their startup.
type UserRole string

const (
	RoleFounder    UserRole = "founder"
	RoleCTO        UserRole = "cto"
	RoleTeamMember UserRole = "team_member"
	RoleInvestor   UserRole = "investor"
	RoleOther      UserRole = "other"
)

// ValidUserRole reports whether role is one of the known profile roles.
func ValidUserRole(role string) bool {
	switch UserRole(role) {
	case RoleFounder, RoleCTO, RoleTeamMember, RoleInvestor, RoleOther:
		return true
	}
	return false
}

// User is a registered founder account. Emails are stored lowercase so the
// unique index enforces case-insensitive uniqueness.
type User struct {
	Base
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Name         string `gorm:"not null" json:"name"`
	IsVerified   bool   `gorm:"default:false" json:"is_verified"`

	// Single-use email verification credential, cleared on redemption.
	VerificationToken   string     `gorm:"index" json:"-"`
	VerificationExpires *time.Time `json:"-"`

	Company string   `json:"company,omitempty"`
	Role    UserRole `gorm:"default:'founder'" json:"role"`
}

func (User) TableName() string {
	return "users"
}
