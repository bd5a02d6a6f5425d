package routes

import (
	"coursemart/internal/adapters/persistence/repositories"
	"coursemart/internal/config"
	"coursemart/internal/core/services"
	"coursemart/internal/pkg/pdf"

	"gorm.io/gorm"
)

// Deps are the outside-world adapters the services run against
type Deps struct {
	DB       *gorm.DB
	Config   *config.Config
	Gateway  services.PaymentGateway
	Tutor    services.ChatCompleter
	Mailer   services.Mailer
	Renderer *pdf.Renderer
}

// Services holds every service built over one repository registry
type Services struct {
	Repos        *repositories.Registry
	Auth         *services.AuthService
	Users        *services.UserService
	Courses      *services.CourseService
	Enrollments  *services.EnrollmentService
	Payments     *services.PaymentService
	Invoices     *services.InvoiceService
	Certificates *services.CertificateService
	Analytics    *services.AnalyticsService
	Tutor        *services.TutorService
}

// NewServices wires repositories and services
func NewServices(deps Deps) *Services {
	cfg := deps.Config
	repos := repositories.NewRegistry(deps.DB)
	invoices := services.NewInvoiceService(repos, deps.Renderer, cfg)

	return &Services{
		Repos:        repos,
		Auth:         services.NewAuthService(repos.Users, repos.RefreshTokens, cfg),
		Users:        services.NewUserService(repos.Users, repos.RefreshTokens),
		Courses:      services.NewCourseService(repos.Courses),
		Enrollments:  services.NewEnrollmentService(repos),
		Payments:     services.NewPaymentService(repos, deps.Gateway, invoices, deps.Mailer, cfg),
		Invoices:     invoices,
		Certificates: services.NewCertificateService(repos, deps.Renderer),
		Analytics:    services.NewAnalyticsService(repos),
		Tutor:        services.NewTutorService(repos, deps.Tutor),
	}
}
