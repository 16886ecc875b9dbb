package FiberConfig

import (
	"Inspecta/Controllers"
	"Inspecta/Inspection"
	"Inspecta/Models"
	"Inspecta/Registry"
	"Inspecta/middleware"
	"fmt"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/template/html"
)

func SetupRoutes(app *fiber.App) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", Controllers.Register)
	auth.Post("/login", Controllers.Login)
	auth.Post("/logout", middleware.Verify(), Controllers.Logout)
	auth.Post("/forgot-password", Controllers.ForgotPassword)
	auth.Post("/reset-password", Controllers.ResetPassword)
	auth.Get("/validate-token", middleware.Verify(), Controllers.ValidateToken)
	auth.Get("/permissions", Controllers.Permissions)

	// Self-service account routes
	api.Get("/users/me", middleware.Verify(), Controllers.Me)
	api.Put("/users/me", middleware.Verify(), Controllers.UpdateMe)
	api.Post("/users/me/change-password", middleware.Verify(), Controllers.ChangePassword)

	// Admin user management
	users := api.Group("/users", middleware.Verify(Inspection.RoleAdmin))
	users.Get("/", Controllers.FetchUsers)
	users.Post("/", Controllers.RegisterUser)
	users.Get("/:id", Controllers.GetUser)
	users.Put("/:id", Controllers.UpdateUser)
	users.Delete("/:id", Controllers.DeleteUser)

	// Vehicle routes
	vehicles := api.Group("/vehicles")
	vehicles.Post("/", middleware.Verify(Inspection.RoleClient, Inspection.RoleAdmin), Controllers.CreateVehicle)
	vehicles.Get("/", middleware.Verify(Inspection.RoleClient, Inspection.RoleAdmin), Controllers.GetVehicles)
	vehicles.Get("/with-owners", middleware.Verify(Inspection.RoleAdmin), Controllers.GetVehiclesWithOwners)
	vehicles.Post("/import", middleware.Verify(Inspection.RoleAdmin), Controllers.ImportVehicles)
	vehicles.Get("/plate/:plate", middleware.Verify(), Controllers.GetVehicleByPlate)
	vehicles.Get("/:id", middleware.Verify(), Controllers.GetVehicle)
	vehicles.Put("/:id", middleware.Verify(Inspection.RoleClient, Inspection.RoleAdmin), Controllers.UpdateVehicle)
	vehicles.Delete("/:id", middleware.Verify(Inspection.RoleClient, Inspection.RoleAdmin), Controllers.DeleteVehicle)

	// Annual inspection cycles
	annuals := api.Group("/annual-inspections")
	annuals.Post("/", middleware.Verify(Inspection.RoleAdmin), Controllers.CreateAnnualInspection)
	annuals.Get("/", middleware.Verify(), Controllers.GetAnnualInspections)
	annuals.Get("/:id", middleware.Verify(), Controllers.GetAnnualInspection)
	annuals.Put("/:id", middleware.Verify(Inspection.RoleAdmin), Controllers.UpdateAnnualInspection)
	annuals.Delete("/:id", middleware.Verify(Inspection.RoleAdmin), Controllers.DeleteAnnualInspection)

	// Appointment routes
	appointments := api.Group("/appointments")
	appointments.Post("/", middleware.Verify(Inspection.RoleClient, Inspection.RoleAdmin), Controllers.CreateAppointment)
	appointments.Get("/", middleware.Verify(), Controllers.GetAppointments)
	appointments.Get("/available-slots", middleware.Verify(), Controllers.GetSlots)
	appointments.Get("/:id", middleware.Verify(), Controllers.GetAppointment)
	appointments.Put("/:id", middleware.Verify(Inspection.RoleClient, Inspection.RoleAdmin), Controllers.UpdateAppointment)
	appointments.Delete("/:id", middleware.Verify(Inspection.RoleClient, Inspection.RoleAdmin), Controllers.CancelAppointment)
	appointments.Post("/:id/complete", middleware.Verify(Inspection.RoleInspector), Controllers.CompleteAppointment)

	// Live verdict preview for the scoring form
	api.Post("/inspection/preview", middleware.Verify(Inspection.RoleInspector), Inspection.PreviewHandler)

	// Availability slots
	slots := api.Group("/slots")
	slots.Post("/", middleware.Verify(Inspection.RoleAdmin), Controllers.CreateSlot)
	slots.Get("/", middleware.Verify(), Controllers.GetSlots)
	slots.Get("/:id", middleware.Verify(), Controllers.GetSlot)
	slots.Delete("/:id", middleware.Verify(Inspection.RoleAdmin), Controllers.DeleteSlot)

	// Check item templates
	checkItems := api.Group("/check-items")
	checkItems.Get("/", middleware.Verify(), Controllers.GetCheckItems)
	checkItems.Post("/", middleware.Verify(Inspection.RoleAdmin), Controllers.CreateCheckItem)
	checkItems.Get("/:id", middleware.Verify(), Controllers.GetCheckItem)
	checkItems.Put("/:id", middleware.Verify(Inspection.RoleAdmin), Controllers.UpdateCheckItem)
	checkItems.Delete("/:id", middleware.Verify(Inspection.RoleAdmin), Controllers.DeleteCheckItem)

	// Inspection results
	results := api.Group("/results", middleware.Verify())
	results.Get("/", Controllers.GetResults)
	results.Get("/annual-inspection/:id", Controllers.GetResultsByAnnualInspection)
	results.Get("/:id", Controllers.GetResult)
	results.Post("/:id/photos", middleware.Verify(Inspection.RoleInspector), Controllers.UploadResultPhoto)
	results.Get("/:id/photos", Controllers.GetResultPhotos)

	// Reporting
	api.Get("/reports/results.xlsx", middleware.Verify(Inspection.RoleAdmin), Controllers.ExportResults)
	api.Get("/reports/results/:id", middleware.Verify(), Controllers.ResultCertificate)

	// Registry lookup
	api.Get("/registry/:plate", middleware.Verify(Inspection.RoleAdmin), Registry.LookupHandler)

	// Push notification tokens
	api.Post("/notifications/token", middleware.Verify(), Models.UpdateToken)

	// Logs API routes
	api.Get("/logs", middleware.Verify(Inspection.RoleAdmin), Controllers.GetLogs)
	api.Get("/logs/stats", middleware.Verify(Inspection.RoleAdmin), Controllers.GetLogStats)
}

func FiberConfig() {
	fmt.Println("Server Up...")
	engine := html.New("./Templates", ".html")
	// Html Template engine
	app := fiber.New(fiber.Config{
		Views: engine,
	})
	app.Use(middleware.RequestLogger())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestCompression,
	}))

	origins := os.Getenv("BACKEND_CORS_ORIGINS")
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: origins != "*", // cookies need a concrete origin list
		MaxAge:           300,
	}))

	SetupRoutes(app)

	// Serve result photos
	app.Static("/uploads", "./uploads", fiber.Static{Compress: true, CacheDuration: time.Second * 10})

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}
	app.Listen(":" + port)
}
