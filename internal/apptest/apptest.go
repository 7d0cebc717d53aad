// Package apptest wires the real route table against an in-memory database
// for handler tests.
package apptest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"logitrack-backend/internal/app"
	"logitrack-backend/internal/auth"
	"logitrack-backend/internal/config"
	"logitrack-backend/internal/database"
	"logitrack-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const JWTSecret = "test-secret-test-secret-test-secret!"

// Valid check-digit documents for fixtures.
const (
	CPF1  = "111.444.777-35"
	CPF2  = "529.982.247-25"
	CPF3  = "390.533.447-05"
	CNPJ1 = "11.222.333/0001-81"
	CNPJ2 = "11.444.777/0001-61"
)

// Setup replaces database.DB with a fresh in-memory database, runs the
// production migrations against it and returns the app.
func Setup(t *testing.T) (*fiber.App, *config.Config) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open in-memory database: %v", err)
	}
	// a second pooled connection would get its own empty memory database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	database.DB = db

	cfg := &config.Config{
		HTTPPort:    "0",
		JWTSecret:   JWTSecret,
		CORSOrigins: "http://localhost:5173",
	}
	return app.New(cfg), cfg
}

func CreateUser(t *testing.T, name string, profile models.UserProfile, email, password string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{
		Name:         name,
		Profile:      profile,
		Email:        email,
		PasswordHash: string(hash),
		Status:       true,
	}
	if err := database.DB.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return user
}

func CreateBranch(t *testing.T, user *models.User, document string) *models.Branch {
	t.Helper()

	branch := &models.Branch{
		UserID:      user.ID,
		FullAddress: "Av. Paulista, 1000 - São Paulo",
		Document:    document,
	}
	if err := database.DB.Create(branch).Error; err != nil {
		t.Fatalf("create branch for user %d: %v", user.ID, err)
	}
	return branch
}

func CreateDriver(t *testing.T, user *models.User, document string) *models.Driver {
	t.Helper()

	driver := &models.Driver{
		UserID:      user.ID,
		FullAddress: "Rua das Flores, 42 - Curitiba",
		Document:    document,
	}
	if err := database.DB.Create(driver).Error; err != nil {
		t.Fatalf("create driver for user %d: %v", user.ID, err)
	}
	return driver
}

func CreateProduct(t *testing.T, branch *models.Branch, name string, amount int) *models.Product {
	t.Helper()

	product := &models.Product{
		Name:        name,
		Amount:      amount,
		Description: "test stock",
		BranchID:    branch.ID,
	}
	if err := database.DB.Create(product).Error; err != nil {
		t.Fatalf("create product %s: %v", name, err)
	}
	return product
}

func Token(t *testing.T, cfg *config.Config, user *models.User) string {
	t.Helper()

	token, err := auth.GenerateToken(cfg.JWTSecret, user)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

// Request builds a JSON request; token may be empty for public routes.
func Request(t *testing.T, method, path string, body interface{}, token string) *http.Request {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// Do runs the request through the app and decodes the JSON response into out
// (which may be nil).
func Do(t *testing.T, app *fiber.App, req *http.Request, out interface{}) *http.Response {
	t.Helper()

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if out != nil {
		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp
}
