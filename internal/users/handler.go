package users

import (
	"encoding/json"
	"regexp"

	"logitrack-backend/internal/auth"
	"logitrack-backend/internal/database"
	"logitrack-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/paemuri/brdoc"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var emailRe = regexp.MustCompile(`^\S+@\S+\.\S+$`)

type CreateUserRequest struct {
	Name        string             `json:"name"`
	Profile     models.UserProfile `json:"profile"`
	Email       string             `json:"email"`
	Password    string             `json:"password"`
	Document    string             `json:"document"`
	FullAddress string             `json:"full_address"`
}

type UpdateUserRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullAddress string `json:"full_address"`
}

// UserSummary is the list projection: no email, no address, never the hash.
type UserSummary struct {
	ID      uint               `json:"id"`
	Name    string             `json:"name"`
	Status  bool               `json:"status"`
	Profile models.UserProfile `json:"profile"`
}

// POST /users
// Creates the user and its driver/branch profile in one transaction, so a
// user can never exist with a missing or duplicated profile row.
func CreateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name is required")
		}

		switch body.Profile {
		case models.ProfileDriver, models.ProfileBranch, models.ProfileAdmin:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "Invalid profile")
		}

		if body.Email == "" || !emailRe.MatchString(body.Email) {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid email")
		}

		var count int64
		database.DB.Model(&models.User{}).Where("email = ?", body.Email).Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Email already registered")
		}

		if len(body.Password) < 6 || len(body.Password) > 20 {
			return fiber.NewError(fiber.StatusBadRequest, "Password must be between 6 and 20 characters")
		}

		if body.Document == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Document is required")
		}
		if err := validateDocument(body.Profile, body.Document); err != nil {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not hash password")
		}

		user := models.User{
			Name:         body.Name,
			Profile:      body.Profile,
			Email:        body.Email,
			PasswordHash: string(hash),
			Status:       true,
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			switch body.Profile {
			case models.ProfileDriver:
				return tx.Create(&models.Driver{
					UserID:      user.ID,
					FullAddress: body.FullAddress,
					Document:    body.Document,
				}).Error
			case models.ProfileBranch:
				return tx.Create(&models.Branch{
					UserID:      user.ID,
					FullAddress: body.FullAddress,
					Document:    body.Document,
				}).Error
			}
			return nil
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create user")
		}

		return c.Status(fiber.StatusCreated).JSON(user)
	}
}

// DRIVER and ADMIN register with a personal document (CPF), BRANCH with an
// organization document (CNPJ).
func validateDocument(profile models.UserProfile, document string) error {
	if profile == models.ProfileBranch {
		if !brdoc.IsCNPJ(document) {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid CNPJ")
		}
		return nil
	}
	if !brdoc.IsCPF(document) {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid CPF")
	}
	return nil
}

// GET /users?profile=
func ListUsersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := database.DB.Model(&models.User{})
		if profile := c.Query("profile"); profile != "" {
			query = query.Where("profile = ?", profile)
		}

		var users []models.User
		if err := query.Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list users")
		}

		summaries := make([]UserSummary, 0, len(users))
		for _, u := range users {
			summaries = append(summaries, UserSummary{
				ID:      u.ID,
				Name:    u.Name,
				Status:  u.Status,
				Profile: u.Profile,
			})
		}

		return c.JSON(summaries)
	}
}

// GET /users/:id
func GetUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid user id")
		}

		if err := requireSelfForDriver(c, uint(id)); err != nil {
			return err
		}

		var user models.User
		if err := database.DB.Preload("Driver").Preload("Branch").First(&user, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}

		return c.JSON(fiber.Map{
			"id":           user.ID,
			"name":         user.Name,
			"status":       user.Status,
			"profile":      user.Profile,
			"full_address": fullAddress(&user),
		})
	}
}

// PUT /users/:id
// Identity, timestamps, status and profile are immutable through this path;
// their mere presence in the body rejects the whole request.
func UpdateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(c.Body(), &raw); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		for _, field := range []string{"id", "created_at", "updated_at", "status", "profile"} {
			if _, ok := raw[field]; ok {
				return fiber.NewError(fiber.StatusForbidden, "Field '"+field+"' cannot be updated")
			}
		}

		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid user id")
		}

		if err := requireSelfForDriver(c, uint(id)); err != nil {
			return err
		}

		var user models.User
		if err := database.DB.Preload("Driver").Preload("Branch").First(&user, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}

		var body UpdateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Email != "" {
			if !emailRe.MatchString(body.Email) {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid email")
			}
			var count int64
			database.DB.Model(&models.User{}).
				Where("email = ? AND id <> ?", body.Email, user.ID).
				Count(&count)
			if count > 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Email already registered")
			}
			user.Email = body.Email
		}

		if body.Password != "" {
			if len(body.Password) < 6 || len(body.Password) > 20 {
				return fiber.NewError(fiber.StatusBadRequest, "Password must be between 6 and 20 characters")
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Could not hash password")
			}
			user.PasswordHash = string(hash)
		}

		if body.Name != "" {
			user.Name = body.Name
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if body.FullAddress != "" {
				switch user.Profile {
				case models.ProfileDriver:
					if user.Driver != nil {
						user.Driver.FullAddress = body.FullAddress
						if err := tx.Save(user.Driver).Error; err != nil {
							return err
						}
					}
				case models.ProfileBranch:
					if user.Branch != nil {
						user.Branch.FullAddress = body.FullAddress
						if err := tx.Save(user.Branch).Error; err != nil {
							return err
						}
					}
				}
			}
			return tx.Model(&user).Updates(map[string]interface{}{
				"name":          user.Name,
				"email":         user.Email,
				"password_hash": user.PasswordHash,
			}).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update user")
		}

		return c.JSON(fiber.Map{
			"id":           user.ID,
			"name":         user.Name,
			"email":        user.Email,
			"full_address": fullAddress(&user),
		})
	}
}

// PATCH /users/:id/status
// Flips the active flag. Movements already assigned to a deactivated driver
// are left alone.
func UpdateStatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid user id")
		}

		var user models.User
		if err := database.DB.First(&user, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}

		user.Status = !user.Status
		if err := database.DB.Model(&user).Update("status", user.Status).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update user status")
		}

		return c.JSON(fiber.Map{
			"message": "User status updated",
			"status":  user.Status,
		})
	}
}

// A DRIVER may only touch its own user record; ADMIN has no such restriction.
func requireSelfForDriver(c *fiber.Ctx, id uint) error {
	if auth.Profile(c) == models.ProfileDriver && auth.UserID(c) != id {
		return fiber.NewError(fiber.StatusForbidden, "You cannot access another user's data")
	}
	return nil
}

func fullAddress(user *models.User) string {
	switch {
	case user.Driver != nil:
		return user.Driver.FullAddress
	case user.Branch != nil:
		return user.Branch.FullAddress
	}
	return ""
}
