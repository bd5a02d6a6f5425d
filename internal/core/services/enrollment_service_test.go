package services_test

import (
	"context"
	"sync"
	"testing"

	"coursemart/internal/core/domain"
	"coursemart/internal/core/services"
	"coursemart/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrollmentService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	instructor := testutil.CreateUser(t, f.db, "ian", domain.RoleInstructor)
	student := testutil.CreateUser(t, f.db, "sam", domain.RoleStudent)
	published := testutil.CreateCourse(t, f.db, instructor.ID, "Go", 500, domain.CoursePublished)
	draft := testutil.CreateCourse(t, f.db, instructor.ID, "Rust", 700, domain.CourseDraft)

	_, err := f.enrollments.Create(ctx, actorOf(student), 4242)
	assert.ErrorIs(t, err, services.ErrCourseNotFound)

	_, err = f.enrollments.Create(ctx, actorOf(student), draft.ID)
	assert.ErrorIs(t, err, services.ErrCourseNotFound)

	_, err = f.enrollments.Create(ctx, domain.Actor{UserID: 4242, Role: domain.RoleStudent}, published.ID)
	assert.ErrorIs(t, err, services.ErrUserNotFound)

	e, err := f.enrollments.Create(ctx, actorOf(student), published.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EnrollmentInitiated, e.Status)
	assert.Equal(t, "Go", e.CourseTitle)
	assert.Equal(t, student.Email, e.StudentEmail)
	assert.Equal(t, 0, e.Progress)

	_, err = f.enrollments.Create(ctx, actorOf(student), published.ID)
	assert.ErrorIs(t, err, services.ErrAlreadyEnrolled)

	// the snapshot price does not follow later catalog changes
	_, err = f.courses.SetPrice(ctx, published.ID, published.Price.Add(published.Price))
	require.NoError(t, err)
	stored := f.enrollment(t, e.ID)
	assert.True(t, published.Price.Equal(stored.CoursePrice))

	mine, err := f.enrollments.MyEnrollments(ctx, student.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestEnrollmentService_GetOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	instructor := testutil.CreateUser(t, f.db, "ian", domain.RoleInstructor)
	student := testutil.CreateUser(t, f.db, "sam", domain.RoleStudent)
	other := testutil.CreateUser(t, f.db, "tom", domain.RoleStudent)
	course := testutil.CreateCourse(t, f.db, instructor.ID, "Go", 500, domain.CoursePublished)

	e, err := f.enrollments.Create(ctx, actorOf(student), course.ID)
	require.NoError(t, err)

	_, err = f.enrollments.Get(ctx, actorOf(other), e.ID)
	assert.ErrorIs(t, err, services.ErrNotEnrollmentOwner)

	_, err = f.enrollments.Get(ctx, domain.Actor{UserID: 1, Role: domain.RoleAdmin}, e.ID)
	require.NoError(t, err)

	_, err = f.enrollments.Get(ctx, actorOf(student), "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, services.ErrEnrollmentNotFound)
}

func TestEnrollmentService_UpdateProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	instructor := testutil.CreateUser(t, f.db, "ian", domain.RoleInstructor)
	student := testutil.CreateUser(t, f.db, "sam", domain.RoleStudent)
	other := testutil.CreateUser(t, f.db, "tom", domain.RoleStudent)
	course := testutil.CreateCourse(t, f.db, instructor.ID, "Go", 500, domain.CoursePublished)

	unpaid, err := f.enrollments.Create(ctx, actorOf(other), course.ID)
	require.NoError(t, err)
	_, err = f.enrollments.UpdateProgress(ctx, actorOf(other), unpaid.ID, 10)
	assert.ErrorIs(t, err, services.ErrEnrollmentNotPaid)

	e := f.pay(t, student, course)

	_, err = f.enrollments.UpdateProgress(ctx, actorOf(other), e.ID, 10)
	assert.ErrorIs(t, err, services.ErrEnrollmentNotFound)

	_, err = f.enrollments.UpdateProgress(ctx, actorOf(student), e.ID, 101)
	assert.ErrorIs(t, err, services.ErrInvalidProgress)
	_, err = f.enrollments.UpdateProgress(ctx, actorOf(student), e.ID, -1)
	assert.ErrorIs(t, err, services.ErrInvalidProgress)

	half, err := f.enrollments.UpdateProgress(ctx, actorOf(student), e.ID, 50)
	require.NoError(t, err)
	assert.Equal(t, 50, half.Progress)
	assert.Nil(t, half.CompletionDate)

	done, err := f.enrollments.UpdateProgress(ctx, actorOf(student), e.ID, 100)
	require.NoError(t, err)
	require.NotNil(t, done.CompletionDate)
	require.NotNil(t, done.CertificateURL)
	assert.Equal(t, services.CertificatePath(e.ID), *done.CertificateURL)

	again, err := f.enrollments.UpdateProgress(ctx, actorOf(student), e.ID, 80)
	require.NoError(t, err)
	assert.Equal(t, 80, again.Progress)
	require.NotNil(t, again.CompletionDate)
	assert.True(t, done.CompletionDate.Equal(*again.CompletionDate))

	finished, err := f.enrollments.UpdateProgress(ctx, actorOf(student), e.ID, 100)
	require.NoError(t, err)
	assert.True(t, done.CompletionDate.Equal(*finished.CompletionDate))
}

func TestEnrollmentService_ConcurrentCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	instructor := testutil.CreateUser(t, f.db, "ian", domain.RoleInstructor)
	student := testutil.CreateUser(t, f.db, "sam", domain.RoleStudent)
	course := testutil.CreateCourse(t, f.db, instructor.ID, "Go", 500, domain.CoursePublished)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.enrollments.Create(ctx, actorOf(student), course.ID)
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, services.ErrAlreadyEnrolled)
	}
	assert.Equal(t, 1, created)

	mine, err := f.enrollments.MyEnrollments(ctx, student.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}
