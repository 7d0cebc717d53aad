package inventory

import (
	"errors"

	"logitrack-backend/internal/models"

	"gorm.io/gorm"
)

// ErrInsufficientStock is returned when a debit asks for more than the
// product's on-hand amount (or a non-positive quantity).
var ErrInsufficientStock = errors.New("insufficient stock")

// Debit removes qty from the product's on-hand amount. The guard lives in the
// UPDATE itself (`amount >= qty`), so concurrent debits against the same
// product cannot drive the amount negative; the loser sees zero affected rows.
// Must run inside the same transaction as the movement insert it backs.
func Debit(tx *gorm.DB, product *models.Product, qty int) error {
	if qty <= 0 || qty > product.Amount {
		return ErrInsufficientStock
	}

	res := tx.Model(&models.Product{}).
		Where("id = ? AND amount >= ?", product.ID, qty).
		UpdateColumn("amount", gorm.Expr("amount - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientStock
	}

	product.Amount -= qty
	return nil
}

// Credit restocks the destination when a movement finishes: the moved
// quantity becomes the product's whole amount and the product changes owner.
// Stock of the same product already sitting at the destination is overwritten,
// not summed.
func Credit(tx *gorm.DB, productID, branchID uint, qty int) error {
	return tx.Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"amount":    qty,
			"branch_id": branchID,
		}).Error
}
