package repositories

import (
	"context"
	"strings"
	"time"

	"coursemart/internal/adapters/persistence/models"
	"coursemart/internal/core/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// courseRepository implements CourseRepository interface
type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

// Create creates a new course
func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

// GetByID gets a course with its instructor
func (r *courseRepository) GetByID(ctx context.Context, id uint) (*models.Course, error) {
	var course models.Course
	err := r.db.WithContext(ctx).
		Preload("Instructor").
		Where("id = ?", id).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// Update saves the editable course fields; status is only changed through TransitionStatus
func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).
		Model(course).
		Select("Title", "Description", "Price", "Duration", "Category", "Tags").
		Updates(course).Error
}

// Delete soft-deletes a course
func (r *courseRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Course{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListPublished lists the public catalog
func (r *courseRepository) ListPublished(ctx context.Context, filter CourseFilter, offset, limit int) ([]*models.Course, int64, error) {
	var courses []*models.Course
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Course{}).
		Where("status = ?", domain.CoursePublished)

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Instructor").
		Order("published_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&courses).Error
	if err != nil {
		return nil, 0, err
	}

	return courses, total, nil
}

// ListByInstructor lists every course owned by an instructor
func (r *courseRepository) ListByInstructor(ctx context.Context, instructorID uint) ([]*models.Course, error) {
	var courses []*models.Course
	err := r.db.WithContext(ctx).
		Where("instructor_id = ?", instructorID).
		Order("id ASC").
		Find(&courses).Error
	return courses, err
}

// TransitionStatus applies updates only while the course is in one of from.
// Returns domain.ErrStaleState when no row matched.
func (r *courseRepository) TransitionStatus(ctx context.Context, id uint, from []domain.CourseStatus, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrStaleState
	}
	return nil
}

// UpdatePrice sets the list price
func (r *courseRepository) UpdatePrice(ctx context.Context, id uint, price interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ?", id).
		Update("price", price)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AddStudent inserts into the enrolled set; repeats are no-ops
func (r *courseRepository) AddStudent(ctx context.Context, courseID, userID uint) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.CourseStudent{CourseID: courseID, UserID: userID}).Error
}

// RemoveStudent deletes from the enrolled set
func (r *courseRepository) RemoveStudent(ctx context.Context, courseID, userID uint) error {
	return r.db.WithContext(ctx).
		Where("course_id = ? AND user_id = ?", courseID, userID).
		Delete(&models.CourseStudent{}).Error
}

// CountStudents counts the enrolled set
func (r *courseRepository) CountStudents(ctx context.Context, courseID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CourseStudent{}).
		Where("course_id = ?", courseID).
		Count(&count).Error
	return count, err
}

// HasStudent checks membership of the enrolled set
func (r *courseRepository) HasStudent(ctx context.Context, courseID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CourseStudent{}).
		Where("course_id = ? AND user_id = ?", courseID, userID).
		Count(&count).Error
	return count > 0, err
}

// CountByStatus counts courses per status
func (r *courseRepository) CountByStatus(ctx context.Context) (map[domain.CourseStatus]int64, error) {
	var rows []struct {
		Status domain.CourseStatus
		Total  int64
	}
	err := r.db.WithContext(ctx).Model(&models.Course{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.CourseStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}
