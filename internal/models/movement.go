package models

import "time"

type MovementStatus string

const (
	MovementPending    MovementStatus = "PENDING"
	MovementInProgress MovementStatus = "IN_PROGRESS"
	MovementFinished   MovementStatus = "FINISHED"
)

// Movement transfers a fixed product quantity to a destination branch.
// DriverID is null exactly while the movement is PENDING; quantity, product
// and destination are fixed at creation.
type Movement struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	Quantity            int            `gorm:"not null" json:"quantity"`
	Status              MovementStatus `gorm:"size:20;not null;default:'PENDING'" json:"status"`
	DestinationBranchID uint           `gorm:"index;not null" json:"destination_branch_id"`
	DestinationBranch   *Branch        `json:"destination_branch,omitempty"`
	ProductID           uint           `gorm:"index;not null" json:"product_id"`
	Product             *Product       `json:"product,omitempty"`
	DriverID            *uint          `gorm:"index" json:"driver_id"`
	Driver              *Driver        `json:"driver,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}
