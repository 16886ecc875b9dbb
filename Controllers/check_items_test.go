package Controllers_test

import (
	"net/http"
	"testing"

	"Inspecta/Models"
)

func TestCheckItemsSeededAndOrdered(t *testing.T) {
	app := setupApp(t)
	createUser(t, "owner@station.test", "CLIENT")
	token := login(t, app, "owner@station.test", "password-1")

	list := func() []Models.CheckItemTemplate {
		resp := request(t, app, http.MethodGet, "/api/v1/check-items/", token, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("list check items: status %d", resp.StatusCode)
		}
		var templates []Models.CheckItemTemplate
		decodeBody(t, resp, &templates)
		return templates
	}

	templates := list()
	if len(templates) != 8 {
		t.Fatalf("seeded %d check items, want 8", len(templates))
	}
	for i, template := range templates {
		if template.Ordinal != i+1 {
			t.Errorf("position %d has ordinal %d", i, template.Ordinal)
		}
	}
	if templates[0].Code != "BRK" || templates[7].Code != "SAF" {
		t.Errorf("checklist order %s..%s, want BRK..SAF", templates[0].Code, templates[7].Code)
	}

	// Listing twice yields the same checklist in the same order.
	again := list()
	for i := range templates {
		if templates[i].ID != again[i].ID {
			t.Fatalf("checklist order changed between listings at position %d", i)
		}
	}
}

func TestCheckItemCollisionsRefused(t *testing.T) {
	app := setupApp(t)
	token := login(t, app, "admin@station.test", "admin-secret-1")

	// All eight ordinals are taken by the seed.
	resp := request(t, app, http.MethodPost, "/api/v1/check-items/", token, map[string]interface{}{
		"code":        "NEW",
		"description": "Nuevo elemento",
		"ordinal":     3,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("ordinal collision: status %d, want %d", resp.StatusCode, http.StatusConflict)
	}

	resp = request(t, app, http.MethodPost, "/api/v1/check-items/", token, map[string]interface{}{
		"code":        "NEW",
		"description": "Nuevo elemento",
		"ordinal":     9,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("ordinal out of range: status %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestCheckItemDeactivationHidesFromClients(t *testing.T) {
	app := setupApp(t)
	createUser(t, "owner@station.test", "CLIENT")
	adminToken := login(t, app, "admin@station.test", "admin-secret-1")
	clientToken := login(t, app, "owner@station.test", "password-1")

	var emissions Models.CheckItemTemplate
	if err := Models.DB.Where("code = ?", "EMI").First(&emissions).Error; err != nil {
		t.Fatalf("load EMI template: %v", err)
	}

	resp := request(t, app, http.MethodPut, "/api/v1/check-items/"+emissions.ID, adminToken, map[string]interface{}{
		"is_active": false,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("deactivate: status %d", resp.StatusCode)
	}

	resp = request(t, app, http.MethodGet, "/api/v1/check-items/", clientToken, nil)
	var forClient []Models.CheckItemTemplate
	decodeBody(t, resp, &forClient)
	if len(forClient) != 7 {
		t.Errorf("client sees %d items after deactivation, want 7", len(forClient))
	}

	resp = request(t, app, http.MethodGet, "/api/v1/check-items/", adminToken, nil)
	var forAdmin []Models.CheckItemTemplate
	decodeBody(t, resp, &forAdmin)
	if len(forAdmin) != 8 {
		t.Errorf("admin sees %d items, want all 8", len(forAdmin))
	}
}

func TestDeleteCheckItemInUseRefused(t *testing.T) {
	app := setupApp(t)
	token := login(t, app, "admin@station.test", "admin-secret-1")

	var brakes Models.CheckItemTemplate
	if err := Models.DB.Where("code = ?", "BRK").First(&brakes).Error; err != nil {
		t.Fatalf("load BRK template: %v", err)
	}

	owner := createUser(t, "owner@station.test", "CLIENT")
	_, inspector := createInspector(t, "inspector@station.test", "EMP-001")
	appointment := bookedAppointment(t, owner, inspector, "VWX-5566")
	result := Models.InspectionResult{AppointmentID: appointment.ID, TotalScore: 60, Passed: true}
	if err := Models.DB.Create(&result).Error; err != nil {
		t.Fatalf("create result: %v", err)
	}
	check := Models.ItemCheck{ResultID: result.ID, TemplateID: brakes.ID, Score: 8, Observation: "Sin observaciones"}
	if err := Models.DB.Create(&check).Error; err != nil {
		t.Fatalf("create item check: %v", err)
	}

	resp := request(t, app, http.MethodDelete, "/api/v1/check-items/"+brakes.ID, token, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("delete referenced item: status %d, want %d", resp.StatusCode, http.StatusConflict)
	}

	var unused Models.CheckItemTemplate
	if err := Models.DB.Where("code = ?", "SAF").First(&unused).Error; err != nil {
		t.Fatalf("load SAF template: %v", err)
	}
	resp = request(t, app, http.MethodDelete, "/api/v1/check-items/"+unused.ID, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("delete unused item: status %d, want %d", resp.StatusCode, http.StatusOK)
	}
}
