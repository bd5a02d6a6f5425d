package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"coursemart/internal/adapters/persistence/models"
	"coursemart/internal/core/domain"
	"coursemart/internal/core/services"
	"coursemart/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsService_Instructor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	instructor := testutil.CreateUser(t, f.db, "ian", domain.RoleInstructor)
	rival := testutil.CreateUser(t, f.db, "rita", domain.RoleInstructor)
	alice := testutil.CreateUser(t, f.db, "alice", domain.RoleStudent)
	bob := testutil.CreateUser(t, f.db, "bob", domain.RoleStudent)
	carol := testutil.CreateUser(t, f.db, "carol", domain.RoleStudent)

	goCourse := testutil.CreateCourse(t, f.db, instructor.ID, "Go", 500, domain.CoursePublished)
	sqlCourse := testutil.CreateCourse(t, f.db, instructor.ID, "SQL", 300, domain.CoursePublished)
	testutil.CreateCourse(t, f.db, instructor.ID, "Draft", 100, domain.CourseDraft)
	rivalCourse := testutil.CreateCourse(t, f.db, rival.ID, "Rust", 900, domain.CoursePublished)

	first := f.pay(t, alice, goCourse)
	f.pay(t, bob, goCourse)
	f.pay(t, alice, sqlCourse)
	f.pay(t, bob, rivalCourse)
	f.checkout(t, carol, goCourse)

	stats, err := f.analytics.InstructorCourses(ctx, instructor.ID)
	require.NoError(t, err)
	require.Len(t, stats, 3)

	byTitle := map[string]*services.CourseStats{}
	for _, s := range stats {
		byTitle[s.Title] = s
	}
	assert.Equal(t, 3, byTitle["Go"].TotalEnrollments)
	assert.Equal(t, 2, byTitle["Go"].PaidEnrollments)
	assert.True(t, decimal.NewFromInt(1000).Equal(byTitle["Go"].Earnings))
	assert.True(t, decimal.NewFromInt(300).Equal(byTitle["SQL"].Earnings))
	assert.True(t, byTitle["Draft"].Earnings.IsZero())

	// move one sale into an earlier month
	now := time.Now()
	lastMonth := time.Date(now.Year(), now.Month(), 1, 12, 0, 0, 0, now.Location()).AddDate(0, 0, -1)
	require.NoError(t, f.db.Model(&models.Enrollment{}).Where("id = ?", first.ID).Update("paid_at", lastMonth).Error)

	report, err := f.analytics.Earnings(ctx, instructor.ID, "")
	require.NoError(t, err)
	assert.Equal(t, services.PeriodMonthly, report.Period)
	assert.True(t, decimal.NewFromInt(1300).Equal(report.Total))
	require.Len(t, report.Buckets, 2)
	assert.Equal(t, lastMonth.UTC().Format("2006-01"), report.Buckets[0].Label)
	assert.Equal(t, 1, report.Buckets[0].Enrollments)
	assert.Equal(t, now.UTC().Format("2006-01"), report.Buckets[1].Label)
	assert.Equal(t, 2, report.Buckets[1].Enrollments)

	weekly, err := f.analytics.Earnings(ctx, instructor.ID, services.PeriodWeekly)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1300).Equal(weekly.Total))
	year, week := now.UTC().ISOWeek()
	last := weekly.Buckets[len(weekly.Buckets)-1]
	assert.Equal(t, fmt.Sprintf("%d-W%02d", year, week), last.Label)

	_, err = f.analytics.Earnings(ctx, instructor.ID, "daily")
	assert.ErrorIs(t, err, services.ErrInvalidPeriod)
}

func TestAnalyticsService_Summary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, f.db, "admin", domain.RoleAdmin)
	instructor := testutil.CreateUser(t, f.db, "ian", domain.RoleInstructor)
	alice := testutil.CreateUser(t, f.db, "alice", domain.RoleStudent)
	bob := testutil.CreateUser(t, f.db, "bob", domain.RoleStudent)
	course := testutil.CreateCourse(t, f.db, instructor.ID, "Go", 500, domain.CoursePublished)
	testutil.CreateCourse(t, f.db, instructor.ID, "Pending", 200, domain.CoursePending)

	f.pay(t, alice, course)
	refunded := f.pay(t, bob, course)

	payment, err := f.repos.Payments.GetByTrxID(ctx, *f.enrollment(t, refunded.ID).TransactionID)
	require.NoError(t, err)
	_, err = f.payments.Refund(ctx, admin.ID, payment.ID, "duplicate purchase")
	require.NoError(t, err)

	summary, err := f.analytics.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.UsersByRole[domain.RoleStudent])
	assert.Equal(t, int64(1), summary.UsersByRole[domain.RoleAdmin])
	assert.Equal(t, int64(1), summary.CoursesByStatus[domain.CoursePending])
	assert.Equal(t, int64(1), summary.EnrollmentsByStatus[domain.EnrollmentPaid])
	assert.Equal(t, int64(1), summary.EnrollmentsByStatus[domain.EnrollmentRefunded])
	assert.True(t, decimal.NewFromInt(500).Equal(summary.Revenue))
	assert.True(t, decimal.NewFromInt(500).Equal(summary.Refunded))
}
