package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"coursemart/internal/adapters/persistence/models"
	"coursemart/internal/adapters/persistence/repositories"
	"coursemart/internal/core/domain"

	"gorm.io/gorm"
)

// Enrollment errors
var (
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrNotEnrollmentOwner = errors.New("enrollment belongs to another student")
	ErrAlreadyEnrolled    = errors.New("already enrolled in this course")
	ErrInvalidProgress    = errors.New("progress must be between 0 and 100")
	ErrEnrollmentNotPaid  = errors.New("payment for this enrollment is not completed")
	ErrEnrollmentRefunded = errors.New("enrollment was refunded")
)

// EnrollmentService handles the enrollment ledger
type EnrollmentService struct {
	repos *repositories.Registry
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(repos *repositories.Registry) *EnrollmentService {
	return &EnrollmentService{repos: repos}
}

// CreateEnrollmentInput represents enrollment input
type CreateEnrollmentInput struct {
	CourseID uint `json:"courseId" validate:"required"`
}

// UpdateProgressInput represents progress input
type UpdateProgressInput struct {
	Progress *int `json:"progress" validate:"required"`
}

// CertificatePath is the download route stored on completed enrollments
func CertificatePath(enrollmentID string) string {
	return fmt.Sprintf("/api/certificates/download/%s", enrollmentID)
}

// Create enrolls the caller in a published course. The (student, course)
// unique index decides duplicates.
func (s *EnrollmentService) Create(ctx context.Context, actor domain.Actor, courseID uint) (*models.EnrollmentResponse, error) {
	course, err := s.repos.Courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	if course.Status != domain.CoursePublished {
		return nil, ErrCourseNotFound
	}

	student, err := s.repos.Users.GetByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	enrollment := &models.Enrollment{
		StudentID:      student.ID,
		CourseID:       course.ID,
		StudentName:    student.Name,
		StudentEmail:   student.Email,
		CourseTitle:    course.Title,
		CoursePrice:    course.Price,
		Status:         domain.EnrollmentInitiated,
		Progress:       0,
		EnrollmentDate: time.Now(),
	}

	if err := s.repos.Enrollments.Create(ctx, enrollment); err != nil {
		if errors.Is(err, domain.ErrDuplicateEntry) {
			existing, findErr := s.repos.Enrollments.GetByStudentAndCourse(ctx, student.ID, course.ID)
			if findErr == nil && existing.Status == domain.EnrollmentRefunded {
				return nil, ErrEnrollmentRefunded
			}
			return nil, ErrAlreadyEnrolled
		}
		return nil, err
	}

	log.Printf("✅ Enrollment %s: student %d -> course %d", enrollment.ID, student.ID, course.ID)
	return enrollment.ToResponse(), nil
}

// MyEnrollments lists the caller's enrollments with their courses
func (s *EnrollmentService) MyEnrollments(ctx context.Context, studentID uint) ([]*models.EnrollmentResponse, error) {
	enrollments, err := s.repos.Enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	items := make([]*models.EnrollmentResponse, 0, len(enrollments))
	for _, e := range enrollments {
		items = append(items, e.ToResponse())
	}
	return items, nil
}

// Get returns one enrollment to its student or an admin
func (s *EnrollmentService) Get(ctx context.Context, actor domain.Actor, id string) (*models.EnrollmentResponse, error) {
	enrollment, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(enrollment.StudentID) {
		return nil, ErrNotEnrollmentOwner
	}
	return enrollment.ToResponse(), nil
}

// UpdateProgress records course progress on a paid enrollment. Reaching 100
// stamps the completion date once and attaches the certificate link; lower
// values later never clear them.
func (s *EnrollmentService) UpdateProgress(ctx context.Context, actor domain.Actor, id string, progress int) (*models.EnrollmentResponse, error) {
	enrollment, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if enrollment.StudentID != actor.UserID {
		return nil, ErrEnrollmentNotFound
	}
	if progress < 0 || progress > 100 {
		return nil, ErrInvalidProgress
	}
	if !enrollment.Status.HasAccess() {
		return nil, ErrEnrollmentNotPaid
	}

	updates := map[string]interface{}{"progress": progress}
	if progress == 100 {
		updates["completion_date"] = gorm.Expr("COALESCE(completion_date, ?)", time.Now())
		updates["certificate_url"] = gorm.Expr("COALESCE(certificate_url, ?)", CertificatePath(id))
	}

	err = s.repos.Enrollments.UpdateProgress(ctx, id, updates)
	if errors.Is(err, domain.ErrStaleState) {
		return nil, ErrEnrollmentNotPaid
	}
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, id)
}

func (s *EnrollmentService) find(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.repos.Enrollments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, err
	}
	return enrollment, nil
}

func (s *EnrollmentService) reload(ctx context.Context, id string) (*models.EnrollmentResponse, error) {
	enrollment, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return enrollment.ToResponse(), nil
}
