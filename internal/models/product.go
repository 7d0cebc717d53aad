package models

import "time"

// Product is a stock batch owned by a branch. BranchID is reassigned when a
// movement that carries the product finishes.
type Product struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:200;not null" json:"name"`
	Amount      int       `gorm:"not null" json:"amount"`
	Description string    `gorm:"size:200;not null" json:"description"`
	URLCover    string    `gorm:"size:200" json:"url_cover,omitempty"`
	BranchID    uint      `gorm:"index;not null" json:"branch_id"`
	Branch      *Branch   `json:"branch,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
