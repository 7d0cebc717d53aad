package movements_test

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"logitrack-backend/internal/apptest"
	"logitrack-backend/internal/config"
	"logitrack-backend/internal/database"
	"logitrack-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type fixture struct {
	app         *fiber.App
	cfg         *config.Config
	source      *models.Branch
	dest        *models.Branch
	driver      *models.Driver
	product     *models.Product
	branchToken string
	driverToken string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	app, cfg := apptest.Setup(t)

	sourceUser := apptest.CreateUser(t, "Filial SP", models.ProfileBranch, "sp@example.com", "secret123")
	source := apptest.CreateBranch(t, sourceUser, apptest.CNPJ1)
	destUser := apptest.CreateUser(t, "Filial RJ", models.ProfileBranch, "rj@example.com", "secret123")
	dest := apptest.CreateBranch(t, destUser, apptest.CNPJ2)
	driverUser := apptest.CreateUser(t, "João", models.ProfileDriver, "joao@example.com", "secret123")
	driver := apptest.CreateDriver(t, driverUser, apptest.CPF1)

	return &fixture{
		app:         app,
		cfg:         cfg,
		source:      source,
		dest:        dest,
		driver:      driver,
		product:     apptest.CreateProduct(t, source, "Caixa de parafusos", 10),
		branchToken: apptest.Token(t, cfg, sourceUser),
		driverToken: apptest.Token(t, cfg, driverUser),
	}
}

func (f *fixture) create(t *testing.T, body map[string]interface{}) (*http.Response, *models.Movement) {
	t.Helper()
	var movement models.Movement
	resp := apptest.Do(t, f.app, apptest.Request(t, http.MethodPost, "/movements", body, f.branchToken), &movement)
	return resp, &movement
}

func (f *fixture) transition(t *testing.T, id uint, action, token string) (*http.Response, *models.Movement) {
	t.Helper()
	path := "/movements/" + strconv.FormatUint(uint64(id), 10) + "/" + action
	var movement models.Movement
	resp := apptest.Do(t, f.app, apptest.Request(t, http.MethodPatch, path, nil, token), &movement)
	return resp, &movement
}

func (f *fixture) storedProduct(t *testing.T) *models.Product {
	t.Helper()
	var product models.Product
	if err := database.DB.First(&product, f.product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	return &product
}

func TestCreateMovementValidation(t *testing.T) {
	f := setup(t)

	cases := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing destination", map[string]interface{}{"product_id": f.product.ID, "quantity": 2}},
		{"missing product", map[string]interface{}{"destination_branch_id": f.dest.ID, "quantity": 2}},
		{"missing quantity", map[string]interface{}{"destination_branch_id": f.dest.ID, "product_id": f.product.ID}},
		{"negative quantity", map[string]interface{}{"destination_branch_id": f.dest.ID, "product_id": f.product.ID, "quantity": -1}},
		{"unknown product", map[string]interface{}{"destination_branch_id": f.dest.ID, "product_id": 9999, "quantity": 2}},
	}
	for _, tc := range cases {
		resp, _ := f.create(t, tc.body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tc.name, resp.StatusCode)
		}
	}

	if got := f.storedProduct(t).Amount; got != 10 {
		t.Fatalf("rejected creations touched the stock: amount = %d, want 10", got)
	}
}

func TestCreateMovementOverdraft(t *testing.T) {
	f := setup(t)

	resp, _ := f.create(t, map[string]interface{}{
		"destination_branch_id": f.dest.ID,
		"product_id":            f.product.ID,
		"quantity":              11,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if got := f.storedProduct(t).Amount; got != 10 {
		t.Fatalf("overdraft changed stock: amount = %d, want 10", got)
	}
}

func TestCreateMovementSameBranch(t *testing.T) {
	f := setup(t)

	resp, _ := f.create(t, map[string]interface{}{
		"destination_branch_id": f.source.ID,
		"product_id":            f.product.ID,
		"quantity":              2,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if got := f.storedProduct(t).Amount; got != 10 {
		t.Fatalf("same-branch attempt debited stock: amount = %d, want 10", got)
	}
}

func TestCreateMovementDebitsSource(t *testing.T) {
	f := setup(t)

	resp, movement := f.create(t, map[string]interface{}{
		"destination_branch_id": f.dest.ID,
		"product_id":            f.product.ID,
		"quantity":              4,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if movement.Status != models.MovementPending {
		t.Fatalf("status = %s, want PENDING", movement.Status)
	}
	if movement.DriverID != nil {
		t.Fatalf("driver assigned at creation: %v", movement.DriverID)
	}
	if got := f.storedProduct(t).Amount; got != 6 {
		t.Fatalf("source stock = %d, want 6", got)
	}
}

func TestCreateMovementFullStockEmptiesSource(t *testing.T) {
	f := setup(t)

	resp, _ := f.create(t, map[string]interface{}{
		"destination_branch_id": f.dest.ID,
		"product_id":            f.product.ID,
		"quantity":              10,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if got := f.storedProduct(t).Amount; got != 0 {
		t.Fatalf("source stock = %d, want 0", got)
	}
}

func TestStartMovement(t *testing.T) {
	f := setup(t)
	_, movement := f.create(t, map[string]interface{}{
		"destination_branch_id": f.dest.ID,
		"product_id":            f.product.ID,
		"quantity":              4,
	})

	resp, started := f.transition(t, movement.ID, "start", f.driverToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if started.Status != models.MovementInProgress {
		t.Fatalf("status = %s, want IN_PROGRESS", started.Status)
	}
	if started.DriverID == nil || *started.DriverID != f.driver.ID {
		t.Fatalf("driver = %v, want %d", started.DriverID, f.driver.ID)
	}

	// a second start finds no PENDING row
	resp, _ = f.transition(t, movement.ID, "start", f.driverToken)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second start: status = %d, want 404", resp.StatusCode)
	}
}

func TestStartUnknownOrMissingDriver(t *testing.T) {
	f := setup(t)

	resp, _ := f.transition(t, 9999, "start", f.driverToken)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown movement: status = %d, want 404", resp.StatusCode)
	}

	_, movement := f.create(t, map[string]interface{}{
		"destination_branch_id": f.dest.ID,
		"product_id":            f.product.ID,
		"quantity":              4,
	})

	// DRIVER token whose user has no driver profile row
	ghostUser := apptest.CreateUser(t, "Fantasma", models.ProfileDriver, "ghost@example.com", "secret123")
	ghostToken := apptest.Token(t, f.cfg, ghostUser)
	resp, _ = f.transition(t, movement.ID, "start", ghostToken)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing driver profile: status = %d, want 404", resp.StatusCode)
	}

	// the failed attempts never transitioned the movement
	var stored models.Movement
	database.DB.First(&stored, movement.ID)
	if stored.Status != models.MovementPending {
		t.Fatalf("movement status = %s, want PENDING", stored.Status)
	}
}

func TestFinishRequiresAssignedDriver(t *testing.T) {
	f := setup(t)
	_, movement := f.create(t, map[string]interface{}{
		"destination_branch_id": f.dest.ID,
		"product_id":            f.product.ID,
		"quantity":              4,
	})
	f.transition(t, movement.ID, "start", f.driverToken)

	otherUser := apptest.CreateUser(t, "Maria", models.ProfileDriver, "maria@example.com", "secret123")
	apptest.CreateDriver(t, otherUser, apptest.CPF2)
	otherToken := apptest.Token(t, f.cfg, otherUser)

	resp, _ := f.transition(t, movement.ID, "end", otherToken)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("other driver finishing: status = %d, want 403", resp.StatusCode)
	}

	var stored models.Movement
	database.DB.First(&stored, movement.ID)
	if stored.Status != models.MovementInProgress {
		t.Fatalf("movement status = %s, want IN_PROGRESS", stored.Status)
	}
}

func TestFinishBeforeStart(t *testing.T) {
	f := setup(t)
	_, movement := f.create(t, map[string]interface{}{
		"destination_branch_id": f.dest.ID,
		"product_id":            f.product.ID,
		"quantity":              4,
	})

	// PENDING is not IN_PROGRESS; the status-guarded lookup misses
	resp, _ := f.transition(t, movement.ID, "end", f.driverToken)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestLifecycle(t *testing.T) {
	f := setup(t)

	// Branch A holds P with amount 10; move 4 of it to branch B.
	resp, movement := f.create(t, map[string]interface{}{
		"destination_branch_id": f.dest.ID,
		"product_id":            f.product.ID,
		"quantity":              4,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status = %d, want 201", resp.StatusCode)
	}
	if got := f.storedProduct(t).Amount; got != 6 {
		t.Fatalf("after create: source stock = %d, want 6", got)
	}

	resp, _ = f.transition(t, movement.ID, "start", f.driverToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: status = %d, want 200", resp.StatusCode)
	}

	resp, finished := f.transition(t, movement.ID, "end", f.driverToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("finish: status = %d, want 200", resp.StatusCode)
	}
	if finished.Status != models.MovementFinished {
		t.Fatalf("status = %s, want FINISHED", finished.Status)
	}

	product := f.storedProduct(t)
	if product.BranchID != f.dest.ID {
		t.Fatalf("product branch = %d, want destination %d", product.BranchID, f.dest.ID)
	}
	if product.Amount != 4 {
		t.Fatalf("product amount = %d, want the moved quantity 4", product.Amount)
	}

	// terminal: neither transition applies again
	resp, _ = f.transition(t, movement.ID, "end", f.driverToken)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("finish after finish: status = %d, want 404", resp.StatusCode)
	}
	resp, _ = f.transition(t, movement.ID, "start", f.driverToken)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("start after finish: status = %d, want 404", resp.StatusCode)
	}
}

func TestListMovementsProjection(t *testing.T) {
	f := setup(t)
	f.create(t, map[string]interface{}{
		"destination_branch_id": f.dest.ID,
		"product_id":            f.product.ID,
		"quantity":              4,
	})

	resp, err := f.app.Test(apptest.Request(t, http.MethodGet, "/movements", nil, f.driverToken), -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	raw, _ := io.ReadAll(resp.Body)
	body := string(raw)
	if !strings.Contains(body, "destination_branch") || !strings.Contains(body, "product") {
		t.Fatalf("relations not projected: %s", body)
	}
	if !strings.Contains(body, "rj@example.com") {
		t.Fatalf("destination branch user not projected: %s", body)
	}
	if strings.Contains(body, "password_hash") || strings.Contains(body, "PasswordHash") {
		t.Fatalf("listing leaks credential hash: %s", body)
	}
}
