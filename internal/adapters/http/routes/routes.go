package routes

import (
	"coursemart/internal/adapters/http/handlers"
	"coursemart/internal/adapters/http/middleware"
	"coursemart/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, svc *Services, cfg *config.Config) {
	healthHandler := handlers.NewHealthHandler(svc.Repos.DB(), cfg)
	authHandler := handlers.NewAuthHandler(svc.Auth, cfg)
	userHandler := handlers.NewUserHandler(svc.Users)
	courseHandler := handlers.NewCourseHandler(svc.Courses)
	enrollmentHandler := handlers.NewEnrollmentHandler(svc.Enrollments)
	paymentHandler := handlers.NewPaymentHandler(svc.Payments, cfg)
	invoiceHandler := handlers.NewInvoiceHandler(svc.Invoices)
	certificateHandler := handlers.NewCertificateHandler(svc.Certificates)
	analyticsHandler := handlers.NewAnalyticsHandler(svc.Analytics)
	tutorHandler := handlers.NewTutorHandler(svc.Tutor)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	api := app.Group("/api")
	api.Get("/", healthHandler.APIInfo)

	auth := middleware.AuthMiddleware(cfg)

	setupAuthRoutes(api.Group("/auth"), authHandler, cfg)

	users := api.Group("/users", auth)
	users.Put("/me", userHandler.UpdateMe)

	setupCourseRoutes(api.Group("/courses"), courseHandler, cfg)

	enrollments := api.Group("/enrollments", auth)
	enrollments.Post("/", enrollmentHandler.Create)
	enrollments.Get("/my-enrollments", enrollmentHandler.MyEnrollments)
	enrollments.Get("/:id", enrollmentHandler.Get)
	enrollments.Put("/:id/progress", enrollmentHandler.UpdateProgress)

	setupPaymentRoutes(api.Group("/payments"), paymentHandler, cfg)

	invoices := api.Group("/invoices", middleware.NoStore())
	invoices.Get("/download/:enrollmentId", middleware.OptionalAuth(cfg), invoiceHandler.Download)
	invoices.Get("/:enrollmentId", auth, invoiceHandler.Get)

	certificates := api.Group("/certificates", auth)
	certificates.Get("/my-certificates", certificateHandler.Mine)
	certificates.Get("/download/:enrollmentId", certificateHandler.Download)

	instructor := api.Group("/instructor", auth, middleware.InstructorOrAdmin())
	instructor.Get("/analytics/courses", analyticsHandler.Courses)
	instructor.Get("/analytics/earnings", analyticsHandler.Earnings)

	tutor := api.Group("/tutor", auth)
	tutor.Post("/chat", middleware.TutorRateLimiter(), tutorHandler.Chat)

	admin := api.Group("/admin", auth, middleware.AdminOnly())
	setupAdminRoutes(admin, userHandler, courseHandler, paymentHandler, analyticsHandler)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}

// setupCourseRoutes configures the catalog and instructor course routes
func setupCourseRoutes(router fiber.Router, handler *handlers.CourseHandler, cfg *config.Config) {
	auth := middleware.AuthMiddleware(cfg)

	router.Get("/", middleware.CatalogCache(), handler.List)
	router.Get("/mine", auth, middleware.InstructorOrAdmin(), handler.Mine)
	router.Get("/:id", middleware.OptionalAuth(cfg), middleware.CatalogCache(), handler.Get)

	instructorOnly := middleware.InstructorOrAdmin()
	router.Post("/", auth, instructorOnly, handler.Create)
	router.Put("/:id", auth, instructorOnly, handler.Update)
	router.Put("/:id/submit", auth, instructorOnly, handler.Submit)

	router.Delete("/:id", auth, middleware.AdminOnly(), handler.Delete)
}

// setupPaymentRoutes configures checkout and gateway callback routes
func setupPaymentRoutes(router fiber.Router, handler *handlers.PaymentHandler, cfg *config.Config) {
	router.Post("/init", middleware.AuthMiddleware(cfg), handler.Init)

	// Gateway callbacks (form posts from SSLCommerz)
	router.Post("/success", handler.Success)
	router.Post("/fail", handler.Fail)
	router.Post("/cancel", handler.Cancel)
	router.Post("/ipn", handler.IPN)
}

// setupAdminRoutes configures admin routes
func setupAdminRoutes(
	router fiber.Router,
	userHandler *handlers.UserHandler,
	courseHandler *handlers.CourseHandler,
	paymentHandler *handlers.PaymentHandler,
	analyticsHandler *handlers.AnalyticsHandler,
) {
	router.Get("/users", userHandler.ListUsers)
	router.Patch("/users/:id/status", userHandler.SetStatus)
	router.Patch("/users/:id/role", userHandler.SetRole)

	router.Patch("/courses/:id/approve", courseHandler.Approve)
	router.Patch("/courses/:id/reject", courseHandler.Reject)
	router.Patch("/courses/:id/price", courseHandler.SetPrice)

	router.Get("/payments", paymentHandler.List)
	router.Post("/payments/:id/confirm", paymentHandler.Confirm)
	router.Post("/payments/:id/refund", paymentHandler.Refund)
	router.Post("/enrollments/:id/confirm-payment", paymentHandler.ConfirmEnrollment)

	router.Get("/reports/summary", analyticsHandler.Summary)
}
