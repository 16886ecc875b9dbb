package Controllers_test

import (
	"net/http"
	"testing"
	"time"

	"Inspecta/Models"
)

func TestCompleteAppointmentPasses(t *testing.T) {
	app := setupApp(t)
	owner := createUser(t, "owner@station.test", "CLIENT")
	_, inspector := createInspector(t, "inspector@station.test", "EMP-001")
	appointment := bookedAppointment(t, owner, inspector, "ABC-1234")

	token := login(t, app, "inspector@station.test", "password-1")
	resp := request(t, app, http.MethodPost, "/api/v1/appointments/"+appointment.ID+"/complete", token, map[string]interface{}{
		"total_score":       65,
		"item_scores":       []int{8, 7, 9, 8, 7, 8, 9, 9},
		"owner_observation": "Luz trasera floja",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("complete: status %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var body struct {
		Result struct {
			ID             string `json:"id"`
			TotalScore     int    `json:"total_score"`
			Passed         bool   `json:"passed"`
			HasFailingItem bool   `json:"has_failing_item"`
		} `json:"result"`
	}
	decodeBody(t, resp, &body)
	if body.Result.TotalScore != 65 {
		t.Errorf("total_score = %d, want 65", body.Result.TotalScore)
	}
	if !body.Result.Passed || body.Result.HasFailingItem {
		t.Errorf("verdict = passed %v failing %v, want passed without failing item",
			body.Result.Passed, body.Result.HasFailingItem)
	}

	var stored Models.InspectionResult
	if err := Models.DB.Preload("ItemChecks").Where("id = ?", body.Result.ID).First(&stored).Error; err != nil {
		t.Fatalf("load stored result: %v", err)
	}
	if !stored.Passed || stored.TotalScore != 65 {
		t.Errorf("stored result = total %d passed %v, want 65/true", stored.TotalScore, stored.Passed)
	}
	if len(stored.ItemChecks) != 8 {
		t.Errorf("stored %d item checks, want 8", len(stored.ItemChecks))
	}

	var annual Models.AnnualInspection
	if err := Models.DB.Where("id = ?", appointment.AnnualInspectionID).First(&annual).Error; err != nil {
		t.Fatalf("load annual: %v", err)
	}
	if annual.Status != Models.AnnualPassed {
		t.Errorf("annual status = %s, want %s", annual.Status, Models.AnnualPassed)
	}
	if annual.AttemptCount != 1 {
		t.Errorf("attempt_count = %d, want 1", annual.AttemptCount)
	}
	if annual.CurrentResultID == nil || *annual.CurrentResultID != stored.ID {
		t.Errorf("current_result_id not pointing at the new result")
	}

	var updated Models.Appointment
	if err := Models.DB.Where("id = ?", appointment.ID).First(&updated).Error; err != nil {
		t.Fatalf("reload appointment: %v", err)
	}
	if updated.Status != Models.AppointmentCompleted {
		t.Errorf("appointment status = %s, want %s", updated.Status, Models.AppointmentCompleted)
	}
}

func TestCompleteAppointmentFailingItemVetoes(t *testing.T) {
	app := setupApp(t)
	owner := createUser(t, "owner@station.test", "CLIENT")
	_, inspector := createInspector(t, "inspector@station.test", "EMP-001")
	appointment := bookedAppointment(t, owner, inspector, "DEF-5678")

	// One item below 5 must fail the vehicle even with a high total.
	token := login(t, app, "inspector@station.test", "password-1")
	resp := request(t, app, http.MethodPost, "/api/v1/appointments/"+appointment.ID+"/complete", token, map[string]interface{}{
		"total_score": 74,
		"item_scores": []int{10, 10, 10, 10, 10, 10, 10, 4},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("complete: status %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	var body struct {
		Result struct {
			Passed         bool `json:"passed"`
			HasFailingItem bool `json:"has_failing_item"`
		} `json:"result"`
	}
	decodeBody(t, resp, &body)
	if body.Result.Passed || !body.Result.HasFailingItem {
		t.Errorf("verdict = passed %v failing %v, want vetoed", body.Result.Passed, body.Result.HasFailingItem)
	}

	var annual Models.AnnualInspection
	if err := Models.DB.Where("id = ?", appointment.AnnualInspectionID).First(&annual).Error; err != nil {
		t.Fatalf("load annual: %v", err)
	}
	if annual.Status != Models.AnnualFailed {
		t.Errorf("annual status = %s, want %s", annual.Status, Models.AnnualFailed)
	}
}

func TestCompleteAppointmentValidation(t *testing.T) {
	app := setupApp(t)
	owner := createUser(t, "owner@station.test", "CLIENT")
	_, inspector := createInspector(t, "inspector@station.test", "EMP-001")
	_, other := createInspector(t, "other@station.test", "EMP-002")
	appointment := bookedAppointment(t, owner, inspector, "GHI-9012")
	_ = other

	token := login(t, app, "inspector@station.test", "password-1")
	otherToken := login(t, app, "other@station.test", "password-1")
	clientToken := login(t, app, "owner@station.test", "password-1")

	cases := []struct {
		name    string
		token   string
		payload map[string]interface{}
		status  int
	}{
		{
			name:    "client role rejected",
			token:   clientToken,
			payload: map[string]interface{}{"total_score": 65, "item_scores": []int{8, 7, 9, 8, 7, 8, 9, 9}},
			status:  http.StatusForbidden,
		},
		{
			name:    "unassigned inspector rejected",
			token:   otherToken,
			payload: map[string]interface{}{"total_score": 65, "item_scores": []int{8, 7, 9, 8, 7, 8, 9, 9}},
			status:  http.StatusForbidden,
		},
		{
			name:    "wrong score count",
			token:   token,
			payload: map[string]interface{}{"total_score": 24, "item_scores": []int{8, 8, 8}},
			status:  http.StatusBadRequest,
		},
		{
			name:    "score out of range",
			token:   token,
			payload: map[string]interface{}{"total_score": 81, "item_scores": []int{11, 10, 10, 10, 10, 10, 10, 10}},
			status:  http.StatusBadRequest,
		},
		{
			name:    "total mismatch",
			token:   token,
			payload: map[string]interface{}{"total_score": 80, "item_scores": []int{8, 7, 9, 8, 7, 8, 9, 9}},
			status:  http.StatusBadRequest,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := request(t, app, http.MethodPost, "/api/v1/appointments/"+appointment.ID+"/complete", tc.token, tc.payload)
			if resp.StatusCode != tc.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.status)
			}
		})
	}

	// A valid submission, then a second one on the same appointment.
	resp := request(t, app, http.MethodPost, "/api/v1/appointments/"+appointment.ID+"/complete", token, map[string]interface{}{
		"total_score": 65,
		"item_scores": []int{8, 7, 9, 8, 7, 8, 9, 9},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first complete: status %d", resp.StatusCode)
	}
	resp = request(t, app, http.MethodPost, "/api/v1/appointments/"+appointment.ID+"/complete", token, map[string]interface{}{
		"total_score": 65,
		"item_scores": []int{8, 7, 9, 8, 7, 8, 9, 9},
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second complete: status %d, want %d", resp.StatusCode, http.StatusConflict)
	}
}

func TestCreateAppointmentBooksSlot(t *testing.T) {
	app := setupApp(t)
	owner := createUser(t, "owner@station.test", "CLIENT")

	vehicle := Models.Vehicle{PlateNumber: "JKL-3456", Make: "Ford", Model: "Focus", Year: 2020, OwnerID: owner.ID, IsActive: true}
	if err := Models.DB.Create(&vehicle).Error; err != nil {
		t.Fatalf("create vehicle: %v", err)
	}
	slot := Models.AvailabilitySlot{
		StartTime: time.Now().Add(48 * time.Hour).Truncate(time.Hour),
		EndTime:   time.Now().Add(49 * time.Hour).Truncate(time.Hour),
	}
	if err := Models.DB.Create(&slot).Error; err != nil {
		t.Fatalf("create slot: %v", err)
	}

	token := login(t, app, "owner@station.test", "password-1")
	resp := request(t, app, http.MethodPost, "/api/v1/appointments/", token, map[string]interface{}{
		"vehicle_id": vehicle.ID,
		"slot_id":    slot.ID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create appointment: status %d", resp.StatusCode)
	}
	var appointment Models.Appointment
	decodeBody(t, resp, &appointment)
	if appointment.Status != Models.AppointmentConfirmed {
		t.Errorf("status = %s, want %s", appointment.Status, Models.AppointmentConfirmed)
	}
	if appointment.ConfirmationToken == "" {
		t.Error("confirmation token missing")
	}
	if !appointment.DateTime.Equal(slot.StartTime) {
		t.Errorf("date_time = %v, want slot start %v", appointment.DateTime, slot.StartTime)
	}

	var reloaded Models.AvailabilitySlot
	if err := Models.DB.Where("id = ?", slot.ID).First(&reloaded).Error; err != nil {
		t.Fatalf("reload slot: %v", err)
	}
	if !reloaded.IsBooked {
		t.Error("slot not marked booked")
	}

	// The annual cycle moves to IN_PROGRESS on booking.
	var annual Models.AnnualInspection
	if err := Models.DB.Where("id = ?", appointment.AnnualInspectionID).First(&annual).Error; err != nil {
		t.Fatalf("load annual: %v", err)
	}
	if annual.Status != Models.AnnualInProgress {
		t.Errorf("annual status = %s, want %s", annual.Status, Models.AnnualInProgress)
	}

	// Same slot cannot be booked twice.
	vehicle2 := Models.Vehicle{PlateNumber: "MNO-7890", Make: "Ford", Model: "Fiesta", Year: 2018, OwnerID: owner.ID, IsActive: true}
	if err := Models.DB.Create(&vehicle2).Error; err != nil {
		t.Fatalf("create vehicle: %v", err)
	}
	resp = request(t, app, http.MethodPost, "/api/v1/appointments/", token, map[string]interface{}{
		"vehicle_id": vehicle2.ID,
		"slot_id":    slot.ID,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("double booking: status %d, want %d", resp.StatusCode, http.StatusConflict)
	}
}

func TestCreateAppointmentPassedCycleRefused(t *testing.T) {
	app := setupApp(t)
	owner := createUser(t, "owner@station.test", "CLIENT")

	vehicle := Models.Vehicle{PlateNumber: "PQR-1122", Make: "Kia", Model: "Rio", Year: 2021, OwnerID: owner.ID, IsActive: true}
	if err := Models.DB.Create(&vehicle).Error; err != nil {
		t.Fatalf("create vehicle: %v", err)
	}
	annual := Models.AnnualInspection{VehicleID: vehicle.ID, Year: time.Now().Year(), Status: Models.AnnualPassed}
	if err := Models.DB.Create(&annual).Error; err != nil {
		t.Fatalf("create annual: %v", err)
	}

	token := login(t, app, "owner@station.test", "password-1")
	future := time.Now().Add(72 * time.Hour)
	resp := request(t, app, http.MethodPost, "/api/v1/appointments/", token, map[string]interface{}{
		"vehicle_id": vehicle.ID,
		"date_time":  future,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("booking passed cycle: status %d, want %d", resp.StatusCode, http.StatusConflict)
	}
}

func TestCancelAppointmentFreesSlot(t *testing.T) {
	app := setupApp(t)
	owner := createUser(t, "owner@station.test", "CLIENT")
	_, inspector := createInspector(t, "inspector@station.test", "EMP-001")
	appointment := bookedAppointment(t, owner, inspector, "STU-3344")

	slot := Models.AvailabilitySlot{
		StartTime: appointment.DateTime,
		EndTime:   appointment.DateTime.Add(time.Hour),
		IsBooked:  true,
	}
	if err := Models.DB.Create(&slot).Error; err != nil {
		t.Fatalf("create slot: %v", err)
	}
	if err := Models.DB.Model(&appointment).Update("slot_id", slot.ID).Error; err != nil {
		t.Fatalf("attach slot: %v", err)
	}

	token := login(t, app, "owner@station.test", "password-1")
	resp := request(t, app, http.MethodDelete, "/api/v1/appointments/"+appointment.ID, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel: status %d", resp.StatusCode)
	}

	var reloaded Models.AvailabilitySlot
	if err := Models.DB.Where("id = ?", slot.ID).First(&reloaded).Error; err != nil {
		t.Fatalf("reload slot: %v", err)
	}
	if reloaded.IsBooked {
		t.Error("slot still booked after cancellation")
	}

	resp = request(t, app, http.MethodDelete, "/api/v1/appointments/"+appointment.ID, token, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("double cancel: status %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}
