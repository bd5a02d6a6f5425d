package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coursemart/internal/adapters/persistence/models"
	"coursemart/internal/core/domain"

	"gorm.io/gorm"
)

// enrollmentRepository implements EnrollmentRepository interface
type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository creates a new enrollment repository
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

// Create inserts an enrollment. A second row for the same (student, course)
// surfaces as domain.ErrDuplicateEntry.
func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	err := r.db.WithContext(ctx).Create(enrollment).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrDuplicateEntry
	}
	return err
}

// GetByID gets an enrollment by ID
func (r *enrollmentRepository) GetByID(ctx context.Context, id string) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// GetByStudentAndCourse gets the enrollment of a student in a course
func (r *enrollmentRepository) GetByStudentAndCourse(ctx context.Context, studentID, courseID uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ListByStudent lists a student's enrollments, newest first
func (r *enrollmentRepository) ListByStudent(ctx context.Context, studentID uint) ([]*models.Enrollment, error) {
	var enrollments []*models.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("student_id = ?", studentID).
		Order("enrollment_date DESC").
		Find(&enrollments).Error
	return enrollments, err
}

// ListCertified lists completed enrollments that carry a certificate
func (r *enrollmentRepository) ListCertified(ctx context.Context, studentID uint) ([]*models.Enrollment, error) {
	var enrollments []*models.Enrollment
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Where("completion_date IS NOT NULL AND certificate_url IS NOT NULL").
		Order("completion_date DESC").
		Find(&enrollments).Error
	return enrollments, err
}

// ListByCourses lists every enrollment of the given courses
func (r *enrollmentRepository) ListByCourses(ctx context.Context, courseIDs []uint) ([]*models.Enrollment, error) {
	var enrollments []*models.Enrollment
	if len(courseIDs) == 0 {
		return enrollments, nil
	}
	err := r.db.WithContext(ctx).
		Where("course_id IN ?", courseIDs).
		Order("enrollment_date ASC").
		Find(&enrollments).Error
	return enrollments, err
}

// ListStaleAwaiting lists checkouts started before the cutoff that never settled
func (r *enrollmentRepository) ListStaleAwaiting(ctx context.Context, startedBefore time.Time) ([]*models.Enrollment, error) {
	var enrollments []*models.Enrollment
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.EnrollmentAwaitingPayment).
		Where("payment_start_at < ?", startedBefore).
		Find(&enrollments).Error
	return enrollments, err
}

// Apply moves the enrollment along ev with a conditional update on the
// current status. Returns domain.ErrStaleState when the row was not in an
// accepting state.
func (r *enrollmentRepository) Apply(ctx context.Context, id string, ev domain.EnrollmentEvent, updates map[string]interface{}) error {
	return r.apply(r.db.WithContext(ctx).Where("id = ?", id), ev, updates)
}

// ExpireIfStale cancels a checkout only while its current attempt started
// before the cutoff, so a retry opened after the sweep listed it survives.
func (r *enrollmentRepository) ExpireIfStale(ctx context.Context, id string, startedBefore time.Time) error {
	return r.apply(r.db.WithContext(ctx).Where("id = ? AND payment_start_at < ?", id, startedBefore),
		domain.EventPaymentCancel, nil)
}

func (r *enrollmentRepository) apply(q *gorm.DB, ev domain.EnrollmentEvent, updates map[string]interface{}) error {
	from, to, ok := domain.Transition(ev)
	if !ok {
		return fmt.Errorf("unknown enrollment event %q", ev)
	}

	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to
	updates["updated_at"] = time.Now()

	res := q.Model(&models.Enrollment{}).
		Where("status IN ?", from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrStaleState
	}
	return nil
}

// UpdateProgress writes progress fields of a paid enrollment
func (r *enrollmentRepository) UpdateProgress(ctx context.Context, id string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("id = ? AND status = ?", id, domain.EnrollmentPaid).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrStaleState
	}
	return nil
}

// CountByStatus counts enrollments per status
func (r *enrollmentRepository) CountByStatus(ctx context.Context) (map[domain.EnrollmentStatus]int64, error) {
	var rows []struct {
		Status domain.EnrollmentStatus
		Total  int64
	}
	err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.EnrollmentStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}
