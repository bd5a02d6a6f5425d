package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"coursemart/internal/adapters/persistence/repositories"
	"coursemart/internal/core/domain"
	"coursemart/internal/pkg/pdf"

	"gorm.io/gorm"
)

// ErrCertificateUnavailable is returned before the course is completed
var ErrCertificateUnavailable = errors.New("certificate is available after completing the course")

// CertificateService lists and renders completion certificates
type CertificateService struct {
	repos    *repositories.Registry
	renderer *pdf.Renderer
}

// NewCertificateService creates a new certificate service
func NewCertificateService(repos *repositories.Registry, renderer *pdf.Renderer) *CertificateService {
	return &CertificateService{repos: repos, renderer: renderer}
}

// CertificateView is one earned certificate
type CertificateView struct {
	EnrollmentID   string    `json:"enrollmentId"`
	CourseID       uint      `json:"courseId"`
	CourseTitle    string    `json:"courseTitle"`
	CompletionDate time.Time `json:"completionDate"`
	CertificateURL string    `json:"certificateUrl"`
}

// CertificateID derives the printed certificate id from an enrollment id
func CertificateID(enrollmentID string) string {
	id := strings.ReplaceAll(enrollmentID, "-", "")
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	return "CERT-" + strings.ToUpper(id)
}

// MyCertificates lists completed enrollments that carry a certificate
func (s *CertificateService) MyCertificates(ctx context.Context, studentID uint) ([]*CertificateView, error) {
	enrollments, err := s.repos.Enrollments.ListCertified(ctx, studentID)
	if err != nil {
		return nil, err
	}

	items := make([]*CertificateView, 0, len(enrollments))
	for _, e := range enrollments {
		if e.Progress != 100 || e.CompletionDate == nil || e.CertificateURL == nil || *e.CertificateURL == "" {
			continue
		}
		items = append(items, &CertificateView{
			EnrollmentID:   e.ID,
			CourseID:       e.CourseID,
			CourseTitle:    e.CourseTitle,
			CompletionDate: *e.CompletionDate,
			CertificateURL: *e.CertificateURL,
		})
	}
	return items, nil
}

// Download renders the certificate PDF for the owner or an admin
func (s *CertificateService) Download(ctx context.Context, actor domain.Actor, enrollmentID string) ([]byte, string, error) {
	e, err := s.repos.Enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrEnrollmentNotFound
		}
		return nil, "", err
	}
	if !actor.Owns(e.StudentID) {
		return nil, "", ErrNotEnrollmentOwner
	}
	if e.Progress != 100 || e.CompletionDate == nil {
		return nil, "", ErrCertificateUnavailable
	}

	instructor := ""
	if course, err := s.repos.Courses.GetByID(ctx, e.CourseID); err == nil && course.Instructor != nil {
		instructor = course.Instructor.Name
	}

	id := CertificateID(e.ID)
	out, err := s.renderer.Certificate(pdf.CertificateData{
		CertificateID:  id,
		StudentName:    e.StudentName,
		CourseTitle:    e.CourseTitle,
		InstructorName: instructor,
		CompletedAt:    *e.CompletionDate,
	})
	if err != nil {
		return nil, "", err
	}
	return out, id + ".pdf", nil
}
