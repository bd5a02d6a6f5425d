package services_test

import (
	"context"
	"errors"
	"testing"

	"coursemart/internal/core/domain"
	"coursemart/internal/core/services"
	"coursemart/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func question(text string) []domain.ChatMessage {
	return []domain.ChatMessage{{Role: domain.ChatRoleUser, Content: text}}
}

func TestTutorService_Chat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	instructor := testutil.CreateUser(t, f.db, "ian", domain.RoleInstructor)
	student := testutil.CreateUser(t, f.db, "sam", domain.RoleStudent)
	stranger := testutil.CreateUser(t, f.db, "tom", domain.RoleStudent)
	course := testutil.CreateCourse(t, f.db, instructor.ID, "Go Concurrency", 500, domain.CoursePublished)

	reply, err := f.tutor.Chat(ctx, actorOf(stranger), &services.ChatInput{Messages: question("What is a goroutine?")})
	require.NoError(t, err)
	assert.Equal(t, "Goroutines are cheap threads.", reply.Reply)

	sent := f.chat.Received[0]
	require.Len(t, sent, 2)
	assert.Equal(t, domain.ChatRoleSystem, sent[0].Role)
	assert.NotContains(t, sent[0].Content, "Go Concurrency")
	assert.Equal(t, "What is a goroutine?", sent[1].Content)

	_, err = f.tutor.Chat(ctx, actorOf(stranger), &services.ChatInput{CourseID: &course.ID, Messages: question("hi")})
	assert.ErrorIs(t, err, services.ErrTutorNoAccess)

	missing := uint(4242)
	_, err = f.tutor.Chat(ctx, actorOf(student), &services.ChatInput{CourseID: &missing, Messages: question("hi")})
	assert.ErrorIs(t, err, services.ErrCourseNotFound)

	f.pay(t, student, course)
	_, err = f.tutor.Chat(ctx, actorOf(student), &services.ChatInput{CourseID: &course.ID, Messages: question("Explain select")})
	require.NoError(t, err)

	scoped := f.chat.Received[len(f.chat.Received)-1]
	assert.Contains(t, scoped[0].Content, "Go Concurrency")

	// the owner may use the tutor of an unpurchased course
	_, err = f.tutor.Chat(ctx, actorOf(instructor), &services.ChatInput{CourseID: &course.ID, Messages: question("hi")})
	require.NoError(t, err)
}

func TestTutorService_Unavailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	student := testutil.CreateUser(t, f.db, "sam", domain.RoleStudent)

	f.chat.Disabled = true
	_, err := f.tutor.Chat(ctx, actorOf(student), &services.ChatInput{Messages: question("hi")})
	assert.ErrorIs(t, err, services.ErrTutorUnavailable)

	unwired := services.NewTutorService(f.repos, nil)
	_, err = unwired.Chat(ctx, actorOf(student), &services.ChatInput{Messages: question("hi")})
	assert.ErrorIs(t, err, services.ErrTutorUnavailable)

	f.chat.Disabled = false
	f.chat.Err = errors.New("upstream 500")
	_, err = f.tutor.Chat(ctx, actorOf(student), &services.ChatInput{Messages: question("hi")})
	assert.ErrorIs(t, err, services.ErrTutorFailed)
}

func TestMaintenanceService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	instructor := testutil.CreateUser(t, f.db, "ian", domain.RoleInstructor)
	student := testutil.CreateUser(t, f.db, "sam", domain.RoleStudent)
	course := testutil.CreateCourse(t, f.db, instructor.ID, "Go", 500, domain.CoursePublished)

	session, err := f.auth.Login(ctx, &services.LoginInput{Email: student.Email, Password: "password123"})
	require.NoError(t, err)
	require.NoError(t, f.auth.Logout(ctx, session.RefreshToken))

	e, _ := f.checkout(t, student, course)

	m := services.NewMaintenanceService(f.payments, f.repos.RefreshTokens, f.cfg.Scheduler)
	assert.Equal(t, int64(1), m.CleanupTokens(ctx))
	assert.Equal(t, int64(0), m.CleanupTokens(ctx))

	// a fresh checkout is left alone
	assert.Equal(t, 0, m.ExpirePayments(ctx))
	assert.Equal(t, domain.EnrollmentAwaitingPayment, f.enrollment(t, e.ID).Status)

	require.NoError(t, m.Start())
	m.Stop()
}

func TestMaintenanceService_BadSchedule(t *testing.T) {
	f := newFixture(t)
	cfg := f.cfg.Scheduler
	cfg.PaymentExpirySpec = "every now and then"

	m := services.NewMaintenanceService(f.payments, f.repos.RefreshTokens, cfg)
	assert.Error(t, m.Start())
}
