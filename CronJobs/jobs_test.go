package CronJobs

import (
	"path/filepath"
	"testing"
	"time"

	"Inspecta/Models"
)

func openTestDB(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", filepath.Join(t.TempDir(), "test.db"))
	t.Setenv("ADMIN_EMAIL", "admin@station.test")
	t.Setenv("ADMIN_PASSWORD", "admin-secret-1")
	Models.Connect()
}

func TestTopUpSlotsFillsWeekdays(t *testing.T) {
	openTestDB(t)
	s := NewScheduler()

	s.topUpSlots()

	var slots []Models.AvailabilitySlot
	if err := Models.DB.Order("start_time").Find(&slots).Error; err != nil {
		t.Fatalf("load slots: %v", err)
	}
	if len(slots) == 0 {
		t.Fatal("no slots created")
	}

	now := time.Now()
	for _, slot := range slots {
		if wd := slot.StartTime.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Errorf("slot on a weekend: %s", slot.StartTime)
		}
		if h := slot.StartTime.Hour(); h < slotFirstHour || h >= slotLastHour {
			t.Errorf("slot outside opening hours: %s", slot.StartTime)
		}
		if slot.StartTime.Before(now) {
			t.Errorf("slot in the past: %s", slot.StartTime)
		}
		if !slot.EndTime.Equal(slot.StartTime.Add(time.Hour)) {
			t.Errorf("slot %s not one hour long", slot.StartTime)
		}
	}

	// A second run over a full calendar adds nothing.
	before := len(slots)
	s.topUpSlots()
	var count int64
	Models.DB.Model(&Models.AvailabilitySlot{}).Count(&count)
	if int(count) != before {
		t.Errorf("second run grew the calendar from %d to %d slots", before, count)
	}
}

func TestTopUpSlotsKeepsManualEdits(t *testing.T) {
	openTestDB(t)
	s := NewScheduler()

	// A manually opened slot at an odd time blocks its hour.
	date := time.Now().AddDate(0, 0, 1)
	for date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
		date = date.AddDate(0, 0, 1)
	}
	manual := Models.AvailabilitySlot{
		StartTime: time.Date(date.Year(), date.Month(), date.Day(), slotFirstHour, 30, 0, 0, date.Location()),
		EndTime:   time.Date(date.Year(), date.Month(), date.Day(), slotFirstHour+1, 30, 0, 0, date.Location()),
	}
	if err := Models.DB.Create(&manual).Error; err != nil {
		t.Fatalf("create manual slot: %v", err)
	}

	s.topUpSlots()

	var survivor Models.AvailabilitySlot
	if err := Models.DB.Where("id = ?", manual.ID).First(&survivor).Error; err != nil {
		t.Fatalf("manual slot gone: %v", err)
	}

	// The two hours the manual slot spans were not double-filled.
	var overlapping int64
	Models.DB.Model(&Models.AvailabilitySlot{}).
		Where("id <> ? AND start_time < ? AND end_time > ?", manual.ID, manual.EndTime, manual.StartTime).
		Count(&overlapping)
	if overlapping != 0 {
		t.Errorf("%d generated slots overlap the manual one", overlapping)
	}
}

func TestPurgeSessions(t *testing.T) {
	openTestDB(t)
	s := NewScheduler()

	user := Models.User{Email: "purge@station.test", PasswordHash: "x", FullName: "Purge", Role: "CLIENT", IsActive: true}
	if err := Models.DB.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	sessions := []Models.UserSession{
		{UserID: user.ID, TokenJTI: "live", ExpiresAt: time.Now().Add(time.Hour)},
		{UserID: user.ID, TokenJTI: "expired", ExpiresAt: time.Now().Add(-time.Hour)},
		{UserID: user.ID, TokenJTI: "revoked", ExpiresAt: time.Now().Add(time.Hour), Revoked: true},
	}
	for i := range sessions {
		if err := Models.DB.Create(&sessions[i]).Error; err != nil {
			t.Fatalf("create session %d: %v", i, err)
		}
	}

	s.purgeSessions()

	var remaining []Models.UserSession
	if err := Models.DB.Find(&remaining).Error; err != nil {
		t.Fatalf("load sessions: %v", err)
	}
	if len(remaining) != 1 || remaining[0].TokenJTI != "live" {
		t.Errorf("%d sessions survived the purge, want only the live one", len(remaining))
	}
}
