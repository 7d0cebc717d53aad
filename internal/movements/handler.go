// Package movements owns the movement lifecycle: PENDING on creation (stock
// debited from the source branch), IN_PROGRESS when a driver takes it,
// FINISHED when that same driver delivers it (stock credited to the
// destination). Transitions are conditional updates on id plus expected
// status, so concurrent calls on the same movement race on the database row
// and at most one wins.
package movements

import (
	"errors"

	"logitrack-backend/internal/auth"
	"logitrack-backend/internal/database"
	"logitrack-backend/internal/inventory"
	"logitrack-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// errAlreadyTransitioned signals a lost race: the movement left the expected
// status between our lookup and the conditional update.
var errAlreadyTransitioned = errors.New("movement already transitioned")

type CreateMovementRequest struct {
	DestinationBranchID uint `json:"destination_branch_id"`
	ProductID           uint `json:"product_id"`
	Quantity            int  `json:"quantity"`
}

// POST /movements
// Debits the product's source stock and records the PENDING movement as one
// atomic unit; a failed insert rolls the debit back.
func CreateMovementHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateMovementRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.DestinationBranchID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Destination branch id is required")
		}
		if body.ProductID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Product id is required")
		}
		if body.Quantity <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Quantity is required and must be positive")
		}

		var product models.Product
		if err := database.DB.First(&product, body.ProductID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Product does not exist")
		}

		if body.Quantity > product.Amount {
			return fiber.NewError(fiber.StatusBadRequest, "Quantity must not exceed the source branch's available stock")
		}

		if body.DestinationBranchID == product.BranchID {
			return fiber.NewError(fiber.StatusBadRequest, "Destination branch cannot be the same as the source branch")
		}

		movement := models.Movement{
			Quantity:            body.Quantity,
			Status:              models.MovementPending,
			DestinationBranchID: body.DestinationBranchID,
			ProductID:           product.ID,
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := inventory.Debit(tx, &product, body.Quantity); err != nil {
				return err
			}
			return tx.Create(&movement).Error
		})
		if errors.Is(err, inventory.ErrInsufficientStock) {
			return fiber.NewError(fiber.StatusBadRequest, "Quantity must not exceed the source branch's available stock")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create movement")
		}

		return c.Status(fiber.StatusCreated).JSON(movement)
	}
}

// GET /movements
func ListMovementsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var movements []models.Movement
		err := database.DB.
			Preload("DestinationBranch").
			Preload("DestinationBranch.User").
			Preload("Product").
			Preload("Driver").
			Find(&movements).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list movements")
		}

		return c.JSON(movements)
	}
}

// PATCH /movements/:id/start
// A missing id and a movement past PENDING are both reported as not found;
// the lookup does not reveal which.
func StartMovementHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid movement id")
		}

		var movement models.Movement
		err = database.DB.
			Where("id = ? AND status = ?", id, models.MovementPending).
			First(&movement).Error
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Movement not found")
		}

		var driver models.Driver
		if err := database.DB.Where("user_id = ?", auth.UserID(c)).First(&driver).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Driver not found")
		}

		res := database.DB.Model(&models.Movement{}).
			Where("id = ? AND status = ?", id, models.MovementPending).
			Updates(map[string]interface{}{
				"driver_id": driver.ID,
				"status":    models.MovementInProgress,
			})
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not start movement")
		}
		if res.RowsAffected == 0 {
			// another driver won the race
			return fiber.NewError(fiber.StatusNotFound, "Movement not found")
		}

		movement.DriverID = &driver.ID
		movement.Driver = &driver
		movement.Status = models.MovementInProgress

		return c.JSON(movement)
	}
}

// PATCH /movements/:id/end
// Only the driver recorded on the movement can finish it. The status flip and
// the destination credit commit together; neither is ever observable alone.
func FinishMovementHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid movement id")
		}

		var movement models.Movement
		err = database.DB.
			Preload("Driver").
			Preload("Product").
			Preload("DestinationBranch").
			Where("id = ? AND status = ?", id, models.MovementInProgress).
			First(&movement).Error
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Movement not found")
		}

		var driver models.Driver
		if err := database.DB.Where("user_id = ?", auth.UserID(c)).First(&driver).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Driver not found")
		}

		if movement.DriverID == nil || *movement.DriverID != driver.ID {
			return fiber.NewError(fiber.StatusForbidden, "Only the driver who started this movement can finish it")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&models.Movement{}).
				Where("id = ? AND status = ?", id, models.MovementInProgress).
				Update("status", models.MovementFinished)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errAlreadyTransitioned
			}
			return inventory.Credit(tx, movement.ProductID, movement.DestinationBranchID, movement.Quantity)
		})
		if errors.Is(err, errAlreadyTransitioned) {
			return fiber.NewError(fiber.StatusNotFound, "Movement not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not finish movement")
		}

		movement.Status = models.MovementFinished

		return c.JSON(movement)
	}
}
