package model

import (
	"time"

	"github.com/google/uuid"
)

// Roles recognised by the authorization middleware.
const (
	RoleAdmin    = "admin"
	RoleCreator  = "creator"
	RoleVerifier = "verifier"
	RoleViewer   = "viewer"
)

// User stores system users with role-based access.
// Role: "admin" | "creator" | "verifier" | "viewer"
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name         string    `gorm:"not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"type:varchar(20);not null;default:viewer"`
	Department   *string
	Active       bool `gorm:"not null;default:true"`
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (User) TableName() string { return "users" }
