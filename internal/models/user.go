package models

import "time"

type UserProfile string

const (
	ProfileDriver UserProfile = "DRIVER"
	ProfileBranch UserProfile = "BRANCH"
	ProfileAdmin  UserProfile = "ADMIN"
)

// User is the identity record. Exactly one of Driver/Branch exists for
// non-admin users; the profile kind never changes after creation.
type User struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	Name         string      `gorm:"size:200;not null" json:"name"`
	Profile      UserProfile `gorm:"size:20;not null" json:"profile"`
	Email        string      `gorm:"size:150;uniqueIndex;not null" json:"email"`
	PasswordHash string      `gorm:"size:150;not null" json:"-"`
	Status       bool        `gorm:"not null;default:true" json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`

	Driver *Driver `json:"driver,omitempty"`
	Branch *Branch `json:"branch,omitempty"`
}
