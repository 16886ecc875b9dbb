package Models

import (
	"log"
	"os"
	"strings"

	"Inspecta/Inspection"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Connect opens the database and runs migrations and seeds. SQLite is
// the default; a MySQL DSN in DATABASE_URL switches drivers.
func Connect() {
	dsn := os.Getenv("DATABASE_URL")

	var connection *gorm.DB
	var err error
	switch {
	case dsn == "":
		connection, err = gorm.Open(sqlite.Open("database.db"), &gorm.Config{})
	case strings.Contains(dsn, "@tcp("):
		if !strings.Contains(dsn, "parseTime") {
			dsn += "?parseTime=true"
		}
		connection, err = gorm.Open(mysql.Open(dsn), &gorm.Config{})
	default:
		connection, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	}
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	DB = connection

	Migrate()
	SeedCheckItemTemplates()
	seedBootstrapAdmin()
}

// Migrate runs AutoMigrate in dependency order.
func Migrate() {
	// 1. Tables with no foreign keys
	DB.AutoMigrate(
		&User{},
		&CheckItemTemplate{},
		&AvailabilitySlot{},
	)

	// 2. Tables hanging off users
	DB.AutoMigrate(
		&UserSession{},
		&DeviceToken{},
		&Inspector{},
		&Vehicle{},
	)

	// 3. The inspection chain
	DB.AutoMigrate(
		&AnnualInspection{},
		&Appointment{},
		&InspectionResult{},
		&ItemCheck{},
		&ResultPhoto{},
	)
}

// seedBootstrapAdmin creates the first admin account on an empty user
// table so the instance can be configured at all.
func seedBootstrapAdmin() {
	var count int64
	if err := DB.Model(&User{}).Count(&count).Error; err != nil || count > 0 {
		return
	}

	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@vehiclecheck.com"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Failed to hash bootstrap admin password: %v", err)
		return
	}
	admin := User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     "Administrator",
		Role:         Inspection.RoleAdmin,
		IsActive:     true,
	}
	if err := DB.Create(&admin).Error; err != nil {
		log.Printf("Failed to create bootstrap admin: %v", err)
		return
	}
	log.Printf("Created bootstrap admin %s", email)
}
