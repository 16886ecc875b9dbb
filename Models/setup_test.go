package Models

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", filepath.Join(t.TempDir(), "test.db"))
	t.Setenv("ADMIN_EMAIL", "admin@station.test")
	t.Setenv("ADMIN_PASSWORD", "admin-secret-1")
	Connect()
}

func TestSeedCheckItemTemplatesIdempotent(t *testing.T) {
	openTestDB(t)

	var count int64
	DB.Model(&CheckItemTemplate{}).Count(&count)
	if count != 8 {
		t.Fatalf("seeded %d templates, want 8", count)
	}

	// Running the seed again must not duplicate the checklist.
	SeedCheckItemTemplates()
	DB.Model(&CheckItemTemplate{}).Count(&count)
	if count != 8 {
		t.Errorf("after reseed %d templates, want 8", count)
	}

	var templates []CheckItemTemplate
	if err := DB.Order("ordinal").Find(&templates).Error; err != nil {
		t.Fatalf("load templates: %v", err)
	}
	for i, template := range templates {
		if template.Ordinal != i+1 {
			t.Errorf("position %d has ordinal %d", i, template.Ordinal)
		}
		if !template.IsActive {
			t.Errorf("seeded template %s not active", template.Code)
		}
	}
}

func TestBootstrapAdminSeededOnce(t *testing.T) {
	openTestDB(t)

	var admins []User
	if err := DB.Where("role = ?", "ADMIN").Find(&admins).Error; err != nil {
		t.Fatalf("load admins: %v", err)
	}
	if len(admins) != 1 {
		t.Fatalf("found %d admins, want 1", len(admins))
	}
	if admins[0].Email != "admin@station.test" {
		t.Errorf("admin email = %s", admins[0].Email)
	}

	// A populated user table is left alone.
	seedBootstrapAdmin()
	var count int64
	DB.Model(&User{}).Count(&count)
	if count != 1 {
		t.Errorf("user count after reseed = %d, want 1", count)
	}
}

func TestBaseGeneratesUUID(t *testing.T) {
	openTestDB(t)

	user := User{Email: "uuid@station.test", PasswordHash: "x", FullName: "UUID Test", Role: "CLIENT", IsActive: true}
	if err := DB.Create(&user).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(user.ID) != 36 {
		t.Errorf("generated ID %q, want a 36-char uuid", user.ID)
	}

	// A caller-provided ID is kept.
	fixed := CheckItemTemplate{Base: Base{ID: "11111111-2222-3333-4444-555555555555"}, Code: "FIX", Description: "Fixed id", Ordinal: 0, IsActive: false}
	if err := DB.Create(&fixed).Error; err != nil {
		t.Fatalf("create with id: %v", err)
	}
	if fixed.ID != "11111111-2222-3333-4444-555555555555" {
		t.Errorf("provided ID replaced with %q", fixed.ID)
	}
}

func TestRevokeUserSessions(t *testing.T) {
	openTestDB(t)

	user := User{Email: "sessions@station.test", PasswordHash: "x", FullName: "Sessions", Role: "CLIENT", IsActive: true}
	if err := DB.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	other := User{Email: "other@station.test", PasswordHash: "x", FullName: "Other", Role: "CLIENT", IsActive: true}
	if err := DB.Create(&other).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	expires := time.Now().Add(time.Hour)
	for i, jti := range []string{"jti-1", "jti-2"} {
		session := UserSession{UserID: user.ID, TokenJTI: jti, ExpiresAt: expires}
		if err := DB.Create(&session).Error; err != nil {
			t.Fatalf("create session %d: %v", i, err)
		}
	}
	foreign := UserSession{UserID: other.ID, TokenJTI: "jti-3", ExpiresAt: expires}
	if err := DB.Create(&foreign).Error; err != nil {
		t.Fatalf("create foreign session: %v", err)
	}

	if err := RevokeUserSessions(user.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	var open int64
	DB.Model(&UserSession{}).Where("user_id = ? AND revoked = ?", user.ID, false).Count(&open)
	if open != 0 {
		t.Errorf("%d sessions still open, want 0", open)
	}
	DB.Model(&UserSession{}).Where("user_id = ? AND revoked = ?", other.ID, false).Count(&open)
	if open != 1 {
		t.Errorf("foreign session touched, %d open, want 1", open)
	}
}

func TestDeviceTokenUpsert(t *testing.T) {
	openTestDB(t)

	user := User{Email: "push@station.test", PasswordHash: "x", FullName: "Push", Role: "CLIENT", IsActive: true}
	if err := DB.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	for _, value := range []string{"fcm-token-a", "fcm-token-b"} {
		row := DeviceToken{UserID: user.ID, Value: value}
		if err := DB.Create(&row).Error; err != nil {
			t.Fatalf("create token %s: %v", value, err)
		}
	}

	tokens, err := TokensForUser(user.ID)
	if err != nil {
		t.Fatalf("tokens for user: %v", err)
	}
	if len(tokens) != 2 {
		t.Errorf("got %d tokens, want 2", len(tokens))
	}
}
