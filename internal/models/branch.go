package models

import "time"

// Branch is the role profile of a BRANCH user. Branches stock products and
// are the destination endpoint of movements.
type Branch struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User        *User     `json:"user,omitempty"`
	FullAddress string    `gorm:"size:255" json:"full_address"`
	Document    string    `gorm:"size:30;not null" json:"document"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Products []Product `json:"products,omitempty"`
}
