package models

import "time"

// Driver is the role profile of a DRIVER user. It is the party assigned to
// movements once they leave PENDING.
type Driver struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User        *User     `json:"user,omitempty"`
	FullAddress string    `gorm:"size:255" json:"full_address"`
	Document    string    `gorm:"size:30;not null" json:"document"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Movements []Movement `json:"movements,omitempty"`
}
