package repositories_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"coursemart/internal/adapters/persistence/models"
	"coursemart/internal/adapters/persistence/repositories"
	"coursemart/internal/core/domain"
	"coursemart/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newEnrollment(t *testing.T, repos *repositories.Registry, studentID, courseID uint) *models.Enrollment {
	t.Helper()
	e := &models.Enrollment{
		StudentID:      studentID,
		CourseID:       courseID,
		CoursePrice:    decimal.NewFromInt(500),
		Status:         domain.EnrollmentInitiated,
		EnrollmentDate: time.Now(),
	}
	require.NoError(t, repos.Enrollments.Create(context.Background(), e))
	return e
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	db := testutil.NewDB(t)
	repos := repositories.NewRegistry(db)
	ctx := context.Background()

	u := &models.User{Name: "A", Email: "a@example.com", Password: "x", Role: domain.RoleStudent, Status: domain.UserActive}
	require.NoError(t, repos.Users.Create(ctx, u))

	dup := &models.User{Name: "B", Email: "a@example.com", Password: "x", Role: domain.RoleStudent, Status: domain.UserActive}
	err := repos.Users.Create(ctx, dup)
	assert.ErrorIs(t, err, domain.ErrDuplicateEntry)

	counts, err := repos.Users.CountByRole(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[domain.RoleStudent])
}

func TestEnrollmentRepository_UniquePair(t *testing.T) {
	db := testutil.NewDB(t)
	repos := repositories.NewRegistry(db)
	ctx := context.Background()

	instructor := testutil.CreateUser(t, db, "ian", domain.RoleInstructor)
	student := testutil.CreateUser(t, db, "student", domain.RoleStudent)
	course := testutil.CreateCourse(t, db, instructor.ID, "Go", 500, domain.CoursePublished)

	first := newEnrollment(t, repos, student.ID, course.ID)
	assert.Len(t, first.ID, 36)

	err := repos.Enrollments.Create(ctx, &models.Enrollment{
		StudentID:      student.ID,
		CourseID:       course.ID,
		CoursePrice:    decimal.NewFromInt(500),
		Status:         domain.EnrollmentInitiated,
		EnrollmentDate: time.Now(),
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateEntry)
}

func TestEnrollmentRepository_ApplyIsConditional(t *testing.T) {
	db := testutil.NewDB(t)
	repos := repositories.NewRegistry(db)
	ctx := context.Background()

	instructor := testutil.CreateUser(t, db, "ian", domain.RoleInstructor)
	student := testutil.CreateUser(t, db, "student", domain.RoleStudent)
	course := testutil.CreateCourse(t, db, instructor.ID, "Go", 500, domain.CoursePublished)
	e := newEnrollment(t, repos, student.ID, course.ID)

	require.NoError(t, repos.Enrollments.Apply(ctx, e.ID, domain.EventInitiatePayment, map[string]interface{}{
		"transaction_id": "TXN1",
	}))
	require.NoError(t, repos.Enrollments.Apply(ctx, e.ID, domain.EventPaymentVerified, nil))

	// second verification loses the race
	err := repos.Enrollments.Apply(ctx, e.ID, domain.EventPaymentVerified, nil)
	assert.ErrorIs(t, err, domain.ErrStaleState)

	err = repos.Enrollments.Apply(ctx, e.ID, domain.EventPaymentFailed, nil)
	assert.ErrorIs(t, err, domain.ErrStaleState)

	got, err := repos.Enrollments.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EnrollmentPaid, got.Status)
	require.NotNil(t, got.TransactionID)
	assert.Equal(t, "TXN1", *got.TransactionID)
}

func TestEnrollmentRepository_ExpireIfStale(t *testing.T) {
	db := testutil.NewDB(t)
	repos := repositories.NewRegistry(db)
	ctx := context.Background()

	instructor := testutil.CreateUser(t, db, "ian", domain.RoleInstructor)
	student := testutil.CreateUser(t, db, "student", domain.RoleStudent)
	course := testutil.CreateCourse(t, db, instructor.ID, "Go", 500, domain.CoursePublished)
	e := newEnrollment(t, repos, student.ID, course.ID)

	started := time.Now()
	require.NoError(t, repos.Enrollments.Apply(ctx, e.ID, domain.EventInitiatePayment, map[string]interface{}{
		"transaction_id":   "TXN2",
		"payment_start_at": &started,
	}))

	// the attempt was restarted after the sweep picked its cutoff
	err := repos.Enrollments.ExpireIfStale(ctx, e.ID, started.Add(-time.Hour))
	assert.ErrorIs(t, err, domain.ErrStaleState)

	got, err := repos.Enrollments.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EnrollmentAwaitingPayment, got.Status)

	require.NoError(t, repos.Enrollments.ExpireIfStale(ctx, e.ID, started.Add(time.Minute)))
	got, err = repos.Enrollments.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EnrollmentCancelled, got.Status)

	found, err := repos.Enrollments.GetByStudentAndCourse(ctx, student.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, found.ID)
}

func TestEnrollmentRepository_UpdateProgressRequiresPaid(t *testing.T) {
	db := testutil.NewDB(t)
	repos := repositories.NewRegistry(db)
	ctx := context.Background()

	instructor := testutil.CreateUser(t, db, "ian", domain.RoleInstructor)
	student := testutil.CreateUser(t, db, "student", domain.RoleStudent)
	course := testutil.CreateCourse(t, db, instructor.ID, "Go", 500, domain.CoursePublished)
	e := newEnrollment(t, repos, student.ID, course.ID)

	err := repos.Enrollments.UpdateProgress(ctx, e.ID, map[string]interface{}{"progress": 10})
	assert.ErrorIs(t, err, domain.ErrStaleState)
}

func TestCourseRepository_StudentSetIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	repos := repositories.NewRegistry(db)
	ctx := context.Background()

	instructor := testutil.CreateUser(t, db, "ian", domain.RoleInstructor)
	student := testutil.CreateUser(t, db, "student", domain.RoleStudent)
	course := testutil.CreateCourse(t, db, instructor.ID, "Go", 500, domain.CoursePublished)

	require.NoError(t, repos.Courses.AddStudent(ctx, course.ID, student.ID))
	require.NoError(t, repos.Courses.AddStudent(ctx, course.ID, student.ID))

	n, err := repos.Courses.CountStudents(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ok, err := repos.Courses.HasStudent(ctx, course.ID, student.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repos.Courses.RemoveStudent(ctx, course.ID, student.ID))
	ok, err = repos.Courses.HasStudent(ctx, course.ID, student.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCourseRepository_TransitionStatus(t *testing.T) {
	db := testutil.NewDB(t)
	repos := repositories.NewRegistry(db)
	ctx := context.Background()

	instructor := testutil.CreateUser(t, db, "ian", domain.RoleInstructor)
	course := testutil.CreateCourse(t, db, instructor.ID, "Go", 500, domain.CoursePending)

	require.NoError(t, repos.Courses.TransitionStatus(ctx, course.ID,
		[]domain.CourseStatus{domain.CoursePending},
		map[string]interface{}{"status": domain.CoursePublished}))

	err := repos.Courses.TransitionStatus(ctx, course.ID,
		[]domain.CourseStatus{domain.CoursePending},
		map[string]interface{}{"status": domain.CoursePublished})
	assert.ErrorIs(t, err, domain.ErrStaleState)

	published, total, err := repos.Courses.ListPublished(ctx, repositories.CourseFilter{Query: "go"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, published, 1)
	assert.Equal(t, course.ID, published[0].ID)
}

func TestInvoiceRepository_CreateIfAbsent(t *testing.T) {
	db := testutil.NewDB(t)
	repos := repositories.NewRegistry(db)
	ctx := context.Background()

	inv := func() *models.Invoice {
		return &models.Invoice{
			InvoiceNumber: "INV-ABC123",
			EnrollmentID:  "11111111-2222-3333-4444-555555abc123",
			StudentID:     1,
			CourseID:      1,
			Amount:        decimal.NewFromInt(500),
			Currency:      "BDT",
			Status:        models.InvoiceStatusPaid,
		}
	}

	created, err := repos.Invoices.CreateIfAbsent(ctx, inv())
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repos.Invoices.CreateIfAbsent(ctx, inv())
	require.NoError(t, err)
	assert.False(t, created)

	var count int64
	require.NoError(t, db.Model(&models.Invoice{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPaymentRepository_CloseOpenAttempts(t *testing.T) {
	db := testutil.NewDB(t)
	repos := repositories.NewRegistry(db)
	ctx := context.Background()

	mk := func(trx string, status domain.PaymentStatus) *models.Payment {
		p := &models.Payment{
			EnrollmentID: "e-1", UserID: 1, CourseID: 1,
			Amount: decimal.NewFromInt(500), Currency: "BDT",
			Status: status, Method: domain.MethodGateway, TrxID: trx,
		}
		require.NoError(t, repos.Payments.Create(ctx, p))
		return p
	}
	open := mk("TXN-A", domain.PaymentPending)
	done := mk("TXN-B", domain.PaymentSuccess)

	require.NoError(t, repos.Payments.CloseOpenAttempts(ctx, "e-1", domain.PaymentCancelled))

	got, err := repos.Payments.GetByID(ctx, open.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentCancelled, got.Status)

	got, err = repos.Payments.GetByTrxID(ctx, done.TrxID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentSuccess, got.Status)

	_, err = repos.Payments.GetByTrxID(ctx, "missing")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRefreshTokenRepository_DeleteExpired(t *testing.T) {
	db := testutil.NewDB(t)
	repos := repositories.NewRegistry(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "student", domain.RoleStudent)
	now := time.Now()

	live := &models.RefreshToken{UserID: user.ID, TokenHash: "live", ExpiresAt: now.Add(time.Hour)}
	expired := &models.RefreshToken{UserID: user.ID, TokenHash: "expired", ExpiresAt: now.Add(-time.Hour)}
	revoked := &models.RefreshToken{UserID: user.ID, TokenHash: "revoked", ExpiresAt: now.Add(time.Hour), RevokedAt: &now}
	for _, tok := range []*models.RefreshToken{live, expired, revoked} {
		require.NoError(t, repos.RefreshTokens.Create(ctx, tok))
	}

	n, err := repos.RefreshTokens.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = repos.RefreshTokens.GetByTokenHash(ctx, "live")
	assert.NoError(t, err)
}

func TestRegistry_TransactionRollsBack(t *testing.T) {
	db := testutil.NewDB(t)
	repos := repositories.NewRegistry(db)
	ctx := context.Background()

	boom := errors.New("boom")
	err := repos.Transaction(ctx, func(tx *repositories.Registry) error {
		u := &models.User{Name: "A", Email: "tx@example.com", Password: "x", Role: domain.RoleStudent, Status: domain.UserActive}
		if err := tx.Users.Create(ctx, u); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	exists, err := repos.Users.ExistsByEmail(ctx, "tx@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}
