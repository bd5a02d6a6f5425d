package repositories

import (
	"context"
	"time"

	"coursemart/internal/adapters/persistence/models"
	"coursemart/internal/core/domain"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, role string, offset, limit int) ([]*models.User, int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CountByRole(ctx context.Context) (map[domain.Role]int64, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// CourseFilter narrows catalog listings
type CourseFilter struct {
	Category string
	Query    string
}

// CourseRepository defines course catalog interface
type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id uint) (*models.Course, error)
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id uint) error
	ListPublished(ctx context.Context, filter CourseFilter, offset, limit int) ([]*models.Course, int64, error)
	ListByInstructor(ctx context.Context, instructorID uint) ([]*models.Course, error)
	TransitionStatus(ctx context.Context, id uint, from []domain.CourseStatus, updates map[string]interface{}) error
	UpdatePrice(ctx context.Context, id uint, price interface{}) error
	AddStudent(ctx context.Context, courseID, userID uint) error
	RemoveStudent(ctx context.Context, courseID, userID uint) error
	CountStudents(ctx context.Context, courseID uint) (int64, error)
	HasStudent(ctx context.Context, courseID, userID uint) (bool, error)
	CountByStatus(ctx context.Context) (map[domain.CourseStatus]int64, error)
}

// EnrollmentRepository defines enrollment ledger interface
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	GetByID(ctx context.Context, id string) (*models.Enrollment, error)
	GetByStudentAndCourse(ctx context.Context, studentID, courseID uint) (*models.Enrollment, error)
	ListByStudent(ctx context.Context, studentID uint) ([]*models.Enrollment, error)
	ListCertified(ctx context.Context, studentID uint) ([]*models.Enrollment, error)
	ListByCourses(ctx context.Context, courseIDs []uint) ([]*models.Enrollment, error)
	ListStaleAwaiting(ctx context.Context, startedBefore time.Time) ([]*models.Enrollment, error)
	Apply(ctx context.Context, id string, ev domain.EnrollmentEvent, updates map[string]interface{}) error
	ExpireIfStale(ctx context.Context, id string, startedBefore time.Time) error
	UpdateProgress(ctx context.Context, id string, updates map[string]interface{}) error
	CountByStatus(ctx context.Context) (map[domain.EnrollmentStatus]int64, error)
}

// PaymentFilter narrows payment listings
type PaymentFilter struct {
	Status string
	UserID uint
}

// PaymentRepository defines payment attempt interface
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id uint) (*models.Payment, error)
	GetByTrxID(ctx context.Context, trxID string) (*models.Payment, error)
	List(ctx context.Context, filter PaymentFilter, offset, limit int) ([]*models.Payment, int64, error)
	TransitionStatus(ctx context.Context, id uint, from []domain.PaymentStatus, updates map[string]interface{}) error
	CloseOpenAttempts(ctx context.Context, enrollmentID string, to domain.PaymentStatus) error
	ListByStatus(ctx context.Context, status domain.PaymentStatus) ([]*models.Payment, error)
}

// InvoiceRepository defines invoice interface
type InvoiceRepository interface {
	CreateIfAbsent(ctx context.Context, invoice *models.Invoice) (bool, error)
	GetByEnrollmentID(ctx context.Context, enrollmentID string) (*models.Invoice, error)
}
