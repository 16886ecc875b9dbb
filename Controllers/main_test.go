package Controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"Inspecta/FiberConfig"
	"Inspecta/Inspection"
	"Inspecta/Models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// setupApp opens a throwaway database and builds the routed app.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	t.Setenv("DATABASE_URL", filepath.Join(t.TempDir(), "test.db"))
	t.Setenv("ADMIN_EMAIL", "admin@station.test")
	t.Setenv("ADMIN_PASSWORD", "admin-secret-1")
	t.Setenv("SECRET_KEY", "test-signing-key")
	Models.Connect()

	app := fiber.New()
	FiberConfig.SetupRoutes(app)
	return app
}

// createUser inserts an account directly, returning it.
func createUser(t *testing.T, emailAddr string, role Inspection.Role) Models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password-1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	user := Models.User{
		Email:        emailAddr,
		PasswordHash: string(hash),
		FullName:     "Test " + string(role),
		Role:         role,
		IsActive:     true,
	}
	if err := Models.DB.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// createInspector inserts an inspector account with its employee row.
func createInspector(t *testing.T, emailAddr, employeeID string) (Models.User, Models.Inspector) {
	t.Helper()
	user := createUser(t, emailAddr, Inspection.RoleInspector)
	inspector := Models.Inspector{UserID: user.ID, EmployeeID: employeeID}
	if err := Models.DB.Create(&inspector).Error; err != nil {
		t.Fatalf("create inspector: %v", err)
	}
	return user, inspector
}

// login authenticates through the API and returns the bearer token.
func login(t *testing.T, app *fiber.App, emailAddr, password string) string {
	t.Helper()
	resp := request(t, app, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"email":    emailAddr,
		"password": password,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d", emailAddr, resp.StatusCode)
	}
	var body struct {
		AccessToken string `json:"access_token"`
	}
	decodeBody(t, resp, &body)
	if body.AccessToken == "" {
		t.Fatalf("login %s: empty access token", emailAddr)
	}
	return body.AccessToken
}

// request performs one API call, encoding the payload as JSON.
func request(t *testing.T, app *fiber.App, method, path, token string, payload interface{}) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, 10000)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("decode body %q: %v", data, err)
	}
}

// bookedAppointment seeds a vehicle, its annual cycle and a confirmed
// appointment assigned to the inspector.
func bookedAppointment(t *testing.T, owner Models.User, inspector Models.Inspector, plate string) Models.Appointment {
	t.Helper()
	vehicle := Models.Vehicle{
		PlateNumber: plate,
		Make:        "Toyota",
		Model:       "Corolla",
		Year:        2019,
		OwnerID:     owner.ID,
		IsActive:    true,
	}
	if err := Models.DB.Create(&vehicle).Error; err != nil {
		t.Fatalf("create vehicle: %v", err)
	}
	annual := Models.AnnualInspection{
		VehicleID: vehicle.ID,
		Year:      time.Now().Year(),
		Status:    Models.AnnualInProgress,
	}
	if err := Models.DB.Create(&annual).Error; err != nil {
		t.Fatalf("create annual: %v", err)
	}
	appointment := Models.Appointment{
		AnnualInspectionID: annual.ID,
		VehicleID:          vehicle.ID,
		InspectorID:        &inspector.ID,
		CreatedByUserID:    owner.ID,
		CreatedChannel:     Models.ChannelClientPortal,
		DateTime:           time.Now().Add(time.Hour),
		Status:             Models.AppointmentConfirmed,
		ConfirmationToken:  fmt.Sprintf("CONF-%08d", len(plate)),
	}
	if err := Models.DB.Create(&appointment).Error; err != nil {
		t.Fatalf("create appointment: %v", err)
	}
	return appointment
}
