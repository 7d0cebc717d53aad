package inventory

import (
	"logitrack-backend/internal/auth"
	"logitrack-backend/internal/database"
	"logitrack-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateProductRequest struct {
	Name        string `json:"name"`
	Amount      int    `json:"amount"`
	Description string `json:"description"`
	URLCover    string `json:"url_cover"`
}

// POST /products
// The product is always created under the calling branch; the body cannot
// place stock somewhere else.
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var branch models.Branch
		if err := database.DB.Where("user_id = ?", auth.UserID(c)).First(&branch).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Branch not found")
		}

		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name is required")
		}
		if body.Amount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Amount is required and must be positive")
		}
		if body.Description == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Description is required")
		}

		product := models.Product{
			Name:        body.Name,
			Amount:      body.Amount,
			Description: body.Description,
			URLCover:    body.URLCover,
			BranchID:    branch.ID,
		}

		if err := database.DB.Create(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create product")
		}

		return c.Status(fiber.StatusCreated).JSON(product)
	}
}

// GET /products
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var products []models.Product
		err := database.DB.
			Preload("Branch").
			Preload("Branch.User").
			Find(&products).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list products")
		}

		return c.JSON(products)
	}
}
