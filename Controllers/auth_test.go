package Controllers_test

import (
	"net/http"
	"testing"

	"Inspecta/Models"
)

func TestRegisterAndLogin(t *testing.T) {
	app := setupApp(t)

	resp := request(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"email":     "maria@example.test",
		"password":  "secret-pass-1",
		"full_name": "Maria Lopez",
		"phone":     "+34 600 000 001",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: status %d", resp.StatusCode)
	}

	// Self-registration always yields a client, whatever was sent.
	var user Models.User
	if err := Models.DB.Where("email = ?", "maria@example.test").First(&user).Error; err != nil {
		t.Fatalf("registered user not stored: %v", err)
	}
	if string(user.Role) != "CLIENT" {
		t.Errorf("role = %s, want CLIENT", user.Role)
	}

	token := login(t, app, "maria@example.test", "secret-pass-1")

	resp = request(t, app, http.MethodGet, "/api/v1/users/me", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me: status %d", resp.StatusCode)
	}
	var me Models.User
	decodeBody(t, resp, &me)
	if me.Email != "maria@example.test" {
		t.Errorf("me email = %s", me.Email)
	}

	// Duplicate email is refused.
	resp = request(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"email":     "maria@example.test",
		"password":  "secret-pass-2",
		"full_name": "Maria Again",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate register: status %d, want %d", resp.StatusCode, http.StatusConflict)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	app := setupApp(t)
	createUser(t, "owner@station.test", "CLIENT")

	resp := request(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{
		"email":    "owner@station.test",
		"password": "wrong-password",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong password: status %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}

	resp = request(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{
		"email":    "nobody@station.test",
		"password": "password-1",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unknown email: status %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	app := setupApp(t)
	createUser(t, "owner@station.test", "CLIENT")
	token := login(t, app, "owner@station.test", "password-1")

	resp := request(t, app, http.MethodPost, "/api/v1/auth/logout", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: status %d", resp.StatusCode)
	}

	resp = request(t, app, http.MethodGet, "/api/v1/users/me", token, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("token after logout: status %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestInactiveAccountCannotLogin(t *testing.T) {
	app := setupApp(t)
	user := createUser(t, "owner@station.test", "CLIENT")
	if err := Models.DB.Model(&user).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	resp := request(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{
		"email":    "owner@station.test",
		"password": "password-1",
	})
	if resp.StatusCode != http.StatusUnauthorized && resp.StatusCode != http.StatusForbidden {
		t.Errorf("inactive login: status %d, want 401 or 403", resp.StatusCode)
	}
}

func TestPermissionsByRole(t *testing.T) {
	app := setupApp(t)
	createUser(t, "owner@station.test", "CLIENT")
	token := login(t, app, "owner@station.test", "password-1")

	// Anonymous callers only get the pre-login actions.
	resp := request(t, app, http.MethodGet, "/api/v1/auth/permissions", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("anonymous permissions: status %d", resp.StatusCode)
	}
	var anon struct {
		Actions []string `json:"actions"`
	}
	decodeBody(t, resp, &anon)
	if len(anon.Actions) != 2 {
		t.Errorf("anonymous actions = %v, want auth.login and auth.register only", anon.Actions)
	}

	resp = request(t, app, http.MethodGet, "/api/v1/auth/permissions", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("client permissions: status %d", resp.StatusCode)
	}
	var client struct {
		Role    string   `json:"role"`
		Actions []string `json:"actions"`
	}
	decodeBody(t, resp, &client)
	if client.Role != "CLIENT" {
		t.Errorf("role = %s, want CLIENT", client.Role)
	}
	got := make(map[string]bool, len(client.Actions))
	for _, action := range client.Actions {
		got[action] = true
	}
	for _, action := range []string{"vehicle.create.self", "appointment.create.own", "result.view.own"} {
		if !got[action] {
			t.Errorf("client actions missing %s: %v", action, client.Actions)
		}
	}
	if got["inspection.complete"] || got["user.manage"] {
		t.Errorf("client holds privileged actions: %v", client.Actions)
	}
}

func TestAdminBootstrapSeeded(t *testing.T) {
	app := setupApp(t)

	// The seeded admin from the environment can sign in directly.
	token := login(t, app, "admin@station.test", "admin-secret-1")

	resp := request(t, app, http.MethodGet, "/api/v1/users/", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin user list: status %d", resp.StatusCode)
	}
}
