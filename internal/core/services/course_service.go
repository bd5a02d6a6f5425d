package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"coursemart/internal/adapters/persistence/models"
	"coursemart/internal/adapters/persistence/repositories"
	"coursemart/internal/core/domain"
	"coursemart/internal/pkg/pagination"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Course errors
var (
	ErrCourseNotFound       = errors.New("course not found")
	ErrNotCourseOwner       = errors.New("you do not own this course")
	ErrInvalidPrice         = errors.New("price must be zero or positive")
	ErrCourseNotPending     = errors.New("course is not awaiting approval")
	ErrCourseNotSubmittable = errors.New("only draft or rejected courses can be submitted")
	ErrCourseNotRejectable  = errors.New("only pending or published courses can be rejected")
	ErrRejectReasonRequired = errors.New("a rejection reason is required")
)

// CourseService handles the catalog and its approval workflow
type CourseService struct {
	courseRepo repositories.CourseRepository
}

// NewCourseService creates a new course service
func NewCourseService(courseRepo repositories.CourseRepository) *CourseService {
	return &CourseService{courseRepo: courseRepo}
}

// CreateCourseInput represents course creation input
type CreateCourseInput struct {
	Title       string          `json:"title" validate:"notblank,max=200"`
	Description string          `json:"description" validate:"notblank"`
	Price       decimal.Decimal `json:"price"`
	Duration    string          `json:"duration" validate:"max=50"`
	Category    string          `json:"category" validate:"max=100"`
	Tags        []string        `json:"tags" validate:"max=20,dive,max=40"`
}

// UpdateCourseInput represents a partial course update
type UpdateCourseInput struct {
	Title       *string          `json:"title" validate:"omitempty,notblank,max=200"`
	Description *string          `json:"description" validate:"omitempty,notblank"`
	Price       *decimal.Decimal `json:"price"`
	Duration    *string          `json:"duration" validate:"omitempty,max=50"`
	Category    *string          `json:"category" validate:"omitempty,max=100"`
	Tags        []string         `json:"tags" validate:"omitempty,max=20,dive,max=40"`
}

// ListCoursesInput filters the public catalog
type ListCoursesInput struct {
	Category string
	Query    string
}

func cleanTags(tags []string) datatypes.JSONSlice[string] {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return datatypes.NewJSONSlice(out)
}

// Create creates a draft course owned by the caller
func (s *CourseService) Create(ctx context.Context, actor domain.Actor, input *CreateCourseInput) (*models.CourseResponse, error) {
	if input.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}

	course := &models.Course{
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		Price:        input.Price.Round(2),
		Duration:     strings.TrimSpace(input.Duration),
		Category:     strings.TrimSpace(input.Category),
		Tags:         cleanTags(input.Tags),
		InstructorID: actor.UserID,
		Status:       domain.CourseDraft,
	}

	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, err
	}

	log.Printf("✅ Course created: #%d %q by user %d", course.ID, course.Title, actor.UserID)
	return course.ToResponse(), nil
}

// Get returns a course. Unpublished courses are visible to their owner and
// admins only; everyone else gets ErrCourseNotFound.
func (s *CourseService) Get(ctx context.Context, id uint, actor *domain.Actor) (*models.CourseResponse, error) {
	course, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if course.Status != domain.CoursePublished && (actor == nil || !actor.Owns(course.InstructorID)) {
		return nil, ErrCourseNotFound
	}

	return s.withStudents(ctx, course)
}

// ListPublished lists the public catalog
func (s *CourseService) ListPublished(ctx context.Context, input ListCoursesInput, params *pagination.Params) (*pagination.Page[*models.CourseResponse], error) {
	courses, total, err := s.courseRepo.ListPublished(ctx, repositories.CourseFilter{
		Category: input.Category,
		Query:    input.Query,
	}, params.Offset, params.Limit)
	if err != nil {
		return nil, err
	}

	items := make([]*models.CourseResponse, 0, len(courses))
	for _, c := range courses {
		items = append(items, c.ToResponse())
	}
	return pagination.NewPage(items, params, total), nil
}

// ListMine lists the caller's own courses in every status
func (s *CourseService) ListMine(ctx context.Context, actor domain.Actor) ([]*models.CourseResponse, error) {
	courses, err := s.courseRepo.ListByInstructor(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	items := make([]*models.CourseResponse, 0, len(courses))
	for _, c := range courses {
		resp, err := s.withStudents(ctx, c)
		if err != nil {
			return nil, err
		}
		items = append(items, resp)
	}
	return items, nil
}

// Update edits a course (owner or admin)
func (s *CourseService) Update(ctx context.Context, actor domain.Actor, id uint, input *UpdateCourseInput) (*models.CourseResponse, error) {
	course, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(course.InstructorID) {
		return nil, ErrNotCourseOwner
	}

	if input.Title != nil {
		course.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		course.Description = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, ErrInvalidPrice
		}
		course.Price = input.Price.Round(2)
	}
	if input.Duration != nil {
		course.Duration = strings.TrimSpace(*input.Duration)
	}
	if input.Category != nil {
		course.Category = strings.TrimSpace(*input.Category)
	}
	if input.Tags != nil {
		course.Tags = cleanTags(input.Tags)
	}

	if err := s.courseRepo.Update(ctx, course); err != nil {
		return nil, err
	}

	return s.withStudents(ctx, course)
}

// Submit sends a draft or rejected course for review
func (s *CourseService) Submit(ctx context.Context, actor domain.Actor, id uint) (*models.CourseResponse, error) {
	course, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(course.InstructorID) {
		return nil, ErrNotCourseOwner
	}

	err = s.courseRepo.TransitionStatus(ctx, id,
		[]domain.CourseStatus{domain.CourseDraft, domain.CourseRejected},
		map[string]interface{}{"status": domain.CoursePending})
	if errors.Is(err, domain.ErrStaleState) {
		return nil, ErrCourseNotSubmittable
	}
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Course #%d submitted for review", id)
	return s.reload(ctx, id)
}

// Delete soft-deletes a course
func (s *CourseService) Delete(ctx context.Context, id uint) error {
	err := s.courseRepo.Delete(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCourseNotFound
	}
	if err != nil {
		return err
	}

	log.Printf("✅ Course #%d deleted", id)
	return nil
}

// Approve publishes a pending course
func (s *CourseService) Approve(ctx context.Context, id uint) (*models.CourseResponse, error) {
	now := time.Now()
	err := s.courseRepo.TransitionStatus(ctx, id,
		[]domain.CourseStatus{domain.CoursePending},
		map[string]interface{}{
			"status":           domain.CoursePublished,
			"published_at":     &now,
			"rejection_reason": "",
		})
	if errors.Is(err, domain.ErrStaleState) {
		if _, ferr := s.find(ctx, id); ferr != nil {
			return nil, ferr
		}
		return nil, ErrCourseNotPending
	}
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Course #%d approved", id)
	return s.reload(ctx, id)
}

// Reject sends a pending or published course back to its owner with a reason
func (s *CourseService) Reject(ctx context.Context, id uint, reason string) (*models.CourseResponse, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrRejectReasonRequired
	}

	err := s.courseRepo.TransitionStatus(ctx, id,
		[]domain.CourseStatus{domain.CoursePending, domain.CoursePublished},
		map[string]interface{}{
			"status":           domain.CourseRejected,
			"rejection_reason": reason,
		})
	if errors.Is(err, domain.ErrStaleState) {
		if _, ferr := s.find(ctx, id); ferr != nil {
			return nil, ferr
		}
		return nil, ErrCourseNotRejectable
	}
	if err != nil {
		return nil, err
	}

	log.Printf("⚠️ Course #%d rejected: %s", id, reason)
	return s.reload(ctx, id)
}

// SetPrice is the admin pricing control
func (s *CourseService) SetPrice(ctx context.Context, id uint, price decimal.Decimal) (*models.CourseResponse, error) {
	if price.IsNegative() {
		return nil, ErrInvalidPrice
	}

	err := s.courseRepo.UpdatePrice(ctx, id, price.Round(2))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Course #%d price set to %s", id, price.StringFixed(2))
	return s.reload(ctx, id)
}

func (s *CourseService) find(ctx context.Context, id uint) (*models.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return course, nil
}

func (s *CourseService) reload(ctx context.Context, id uint) (*models.CourseResponse, error) {
	course, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withStudents(ctx, course)
}

func (s *CourseService) withStudents(ctx context.Context, course *models.Course) (*models.CourseResponse, error) {
	count, err := s.courseRepo.CountStudents(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	resp := course.ToResponse()
	resp.EnrolledStudents = count
	return resp, nil
}
