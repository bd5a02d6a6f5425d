package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Registry bundles every repository over one *gorm.DB so a group of writes
// can share a transaction.
type Registry struct {
	db            *gorm.DB
	Users         UserRepository
	RefreshTokens RefreshTokenRepository
	Courses       CourseRepository
	Enrollments   EnrollmentRepository
	Payments      PaymentRepository
	Invoices      InvoiceRepository
}

// NewRegistry creates all repositories over db
func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{
		db:            db,
		Users:         NewUserRepository(db),
		RefreshTokens: NewRefreshTokenRepository(db),
		Courses:       NewCourseRepository(db),
		Enrollments:   NewEnrollmentRepository(db),
		Payments:      NewPaymentRepository(db),
		Invoices:      NewInvoiceRepository(db),
	}
}

// Transaction runs fn against a registry bound to a single transaction.
// fn must only use the registry it receives.
func (r *Registry) Transaction(ctx context.Context, fn func(tx *Registry) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRegistry(tx))
	})
}

// DB exposes the underlying handle for health checks
func (r *Registry) DB() *gorm.DB {
	return r.db
}
