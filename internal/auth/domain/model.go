// Package domain contains core types for the auth service.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Role string

const (
	RoleFarmer    Role = "FARMER"
	RoleBuyer     Role = "BUYER"
	RoleInspector Role = "INSPECTOR"
	RoleAdmin     Role = "ADMIN"
)

func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleFarmer:
		return RoleFarmer, true
	case RoleBuyer:
		return RoleBuyer, true
	case RoleInspector:
		return RoleInspector, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

// User represents a system user account.
type User struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	Email        string       `gorm:"type:text;not null;uniqueIndex"`
	Name         string       `gorm:"type:text;not null"`
	Role         Role         `gorm:"type:text;not null;default:'FARMER'"`
	PasswordHash string       `gorm:"column:password_hash;type:text;not null"`
	CreatedAt    time.Time    `gorm:"not null"`
	UpdatedAt    time.Time    `gorm:"not null"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// Session holds one refresh token, stored hashed.
type Session struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	UserID           snowflake.ID `gorm:"column:user_id;not null;index"`
	RefreshTokenHash string       `gorm:"column:refresh_token_hash;type:text;not null;uniqueIndex"`
	UserAgent        string       `gorm:"column:user_agent;type:text"`
	IPAddress        string       `gorm:"column:ip_address;type:text"`
	ExpiresAt        time.Time    `gorm:"column:expires_at;not null;index"`
	CreatedAt        time.Time    `gorm:"column:created_at;not null"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }

// Identity is the authenticated caller attached to a request.
type Identity struct {
	ID    snowflake.ID `json:"id"`
	Email string       `json:"email"`
	Name  string       `json:"name"`
	Role  Role         `json:"role"`
}

func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}
