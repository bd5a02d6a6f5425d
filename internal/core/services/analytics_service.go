package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"coursemart/internal/adapters/persistence/models"
	"coursemart/internal/adapters/persistence/repositories"
	"coursemart/internal/core/domain"

	"github.com/shopspring/decimal"
)

// ErrInvalidPeriod is returned for an unknown earnings period
var ErrInvalidPeriod = errors.New("period must be monthly or weekly")

// Earnings periods
const (
	PeriodMonthly = "monthly"
	PeriodWeekly  = "weekly"
)

// AnalyticsService aggregates enrollments for instructors and admins
type AnalyticsService struct {
	repos *repositories.Registry
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(repos *repositories.Registry) *AnalyticsService {
	return &AnalyticsService{repos: repos}
}

// CourseStats is the per-course row of the instructor dashboard
type CourseStats struct {
	CourseID         uint                `json:"courseId"`
	Title            string              `json:"title"`
	Status           domain.CourseStatus `json:"status"`
	Price            decimal.Decimal     `json:"price"`
	TotalEnrollments int                 `json:"totalEnrollments"`
	PaidEnrollments  int                 `json:"paidEnrollments"`
	Earnings         decimal.Decimal     `json:"earnings"`
}

// EarningsBucket is one period of an earnings report
type EarningsBucket struct {
	Label       string          `json:"label"`
	Enrollments int             `json:"enrollments"`
	Earnings    decimal.Decimal `json:"earnings"`
}

// EarningsReport is earnings bucketed by period
type EarningsReport struct {
	Period  string            `json:"period"`
	Total   decimal.Decimal   `json:"total"`
	Buckets []*EarningsBucket `json:"buckets"`
}

// AdminSummary is the platform-wide report
type AdminSummary struct {
	UsersByRole         map[domain.Role]int64             `json:"usersByRole"`
	CoursesByStatus     map[domain.CourseStatus]int64     `json:"coursesByStatus"`
	EnrollmentsByStatus map[domain.EnrollmentStatus]int64 `json:"enrollmentsByStatus"`
	Revenue             decimal.Decimal                   `json:"revenue"`
	Refunded            decimal.Decimal                   `json:"refunded"`
	GeneratedAt         time.Time                         `json:"generatedAt"`
}

func (s *AnalyticsService) instructorEnrollments(ctx context.Context, instructorID uint) ([]*models.Course, []*models.Enrollment, error) {
	courses, err := s.repos.Courses.ListByInstructor(ctx, instructorID)
	if err != nil {
		return nil, nil, err
	}

	ids := make([]uint, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}

	enrollments, err := s.repos.Enrollments.ListByCourses(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return courses, enrollments, nil
}

// InstructorCourses reports enrollments and earnings per course. Earnings
// are the snapshot prices of paid enrollments.
func (s *AnalyticsService) InstructorCourses(ctx context.Context, instructorID uint) ([]*CourseStats, error) {
	courses, enrollments, err := s.instructorEnrollments(ctx, instructorID)
	if err != nil {
		return nil, err
	}

	stats := make([]*CourseStats, 0, len(courses))
	byCourse := make(map[uint]*CourseStats, len(courses))
	for _, c := range courses {
		row := &CourseStats{
			CourseID: c.ID,
			Title:    c.Title,
			Status:   c.Status,
			Price:    c.Price,
			Earnings: decimal.Zero,
		}
		stats = append(stats, row)
		byCourse[c.ID] = row
	}

	for _, e := range enrollments {
		row, ok := byCourse[e.CourseID]
		if !ok {
			continue
		}
		row.TotalEnrollments++
		if e.Status == domain.EnrollmentPaid {
			row.PaidEnrollments++
			row.Earnings = row.Earnings.Add(e.CoursePrice)
		}
	}

	return stats, nil
}

func bucketLabel(period string, t time.Time) string {
	if period == PeriodWeekly {
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	}
	return t.Format("2006-01")
}

// Earnings buckets paid enrollments by month or ISO week, oldest first
func (s *AnalyticsService) Earnings(ctx context.Context, instructorID uint, period string) (*EarningsReport, error) {
	if period == "" {
		period = PeriodMonthly
	}
	if period != PeriodMonthly && period != PeriodWeekly {
		return nil, ErrInvalidPeriod
	}

	_, enrollments, err := s.instructorEnrollments(ctx, instructorID)
	if err != nil {
		return nil, err
	}

	report := &EarningsReport{Period: period, Total: decimal.Zero, Buckets: []*EarningsBucket{}}
	buckets := map[string]*EarningsBucket{}
	for _, e := range enrollments {
		if e.Status != domain.EnrollmentPaid {
			continue
		}
		at := e.EnrollmentDate
		if e.PaidAt != nil {
			at = *e.PaidAt
		}

		label := bucketLabel(period, at)
		b, ok := buckets[label]
		if !ok {
			b = &EarningsBucket{Label: label, Earnings: decimal.Zero}
			buckets[label] = b
			report.Buckets = append(report.Buckets, b)
		}
		b.Enrollments++
		b.Earnings = b.Earnings.Add(e.CoursePrice)
		report.Total = report.Total.Add(e.CoursePrice)
	}

	sort.Slice(report.Buckets, func(i, j int) bool {
		return report.Buckets[i].Label < report.Buckets[j].Label
	})
	return report, nil
}

// Summary builds the admin report
func (s *AnalyticsService) Summary(ctx context.Context) (*AdminSummary, error) {
	users, err := s.repos.Users.CountByRole(ctx)
	if err != nil {
		return nil, err
	}
	courses, err := s.repos.Courses.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	enrollments, err := s.repos.Enrollments.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	revenue, err := s.sum(ctx, domain.PaymentSuccess)
	if err != nil {
		return nil, err
	}
	refunded, err := s.sum(ctx, domain.PaymentRefunded)
	if err != nil {
		return nil, err
	}

	return &AdminSummary{
		UsersByRole:         users,
		CoursesByStatus:     courses,
		EnrollmentsByStatus: enrollments,
		Revenue:             revenue,
		Refunded:            refunded,
		GeneratedAt:         time.Now(),
	}, nil
}

func (s *AnalyticsService) sum(ctx context.Context, status domain.PaymentStatus) (decimal.Decimal, error) {
	payments, err := s.repos.Payments.ListByStatus(ctx, status)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total, nil
}
