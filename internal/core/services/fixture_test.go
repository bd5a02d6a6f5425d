package services_test

import (
	"context"
	"testing"

	"coursemart/internal/adapters/persistence/models"
	"coursemart/internal/adapters/persistence/repositories"
	"coursemart/internal/config"
	"coursemart/internal/core/domain"
	"coursemart/internal/core/services"
	"coursemart/internal/pkg/pdf"
	"coursemart/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	cfg     *config.Config
	repos   *repositories.Registry
	gateway *testutil.FakeGateway
	mailer  *testutil.Mailer
	chat    *testutil.ChatClient

	auth         *services.AuthService
	users        *services.UserService
	courses      *services.CourseService
	enrollments  *services.EnrollmentService
	payments     *services.PaymentService
	invoices     *services.InvoiceService
	certificates *services.CertificateService
	analytics    *services.AnalyticsService
	tutor        *services.TutorService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	cfg := testutil.Config()
	repos := repositories.NewRegistry(db)
	renderer := pdf.NewRenderer(cfg.AppName)
	renderer.Compress = false

	f := &fixture{
		db:      db,
		cfg:     cfg,
		repos:   repos,
		gateway: testutil.NewFakeGateway(),
		mailer:  &testutil.Mailer{},
		chat:    &testutil.ChatClient{Reply: "Goroutines are cheap threads."},
	}

	f.invoices = services.NewInvoiceService(repos, renderer, cfg)
	f.auth = services.NewAuthService(repos.Users, repos.RefreshTokens, cfg)
	f.users = services.NewUserService(repos.Users, repos.RefreshTokens)
	f.courses = services.NewCourseService(repos.Courses)
	f.enrollments = services.NewEnrollmentService(repos)
	f.payments = services.NewPaymentService(repos, f.gateway, f.invoices, f.mailer, cfg)
	f.certificates = services.NewCertificateService(repos, renderer)
	f.analytics = services.NewAnalyticsService(repos)
	f.tutor = services.NewTutorService(repos, f.chat)
	return f
}

func actorOf(u *models.User) domain.Actor {
	return domain.Actor{UserID: u.ID, Role: u.Role}
}

// checkout enrolls student in course and opens a gateway session
func (f *fixture) checkout(t *testing.T, student *models.User, course *models.Course) (*models.EnrollmentResponse, domain.CheckoutRequest) {
	t.Helper()
	ctx := context.Background()

	enrollment, err := f.enrollments.Create(ctx, actorOf(student), course.ID)
	require.NoError(t, err)

	_, err = f.payments.Initiate(ctx, actorOf(student), enrollment.ID)
	require.NoError(t, err)

	session, err := f.gateway.LastSession()
	require.NoError(t, err)
	return enrollment, session
}

// pay runs a checkout and settles it through the success callback
func (f *fixture) pay(t *testing.T, student *models.User, course *models.Course) *models.EnrollmentResponse {
	t.Helper()

	enrollment, session := f.checkout(t, student, course)
	valID := f.gateway.Capture(session, session.Amount)

	res, err := f.payments.HandleSuccess(context.Background(), map[string]string{
		"tran_id": session.TransactionID,
		"val_id":  valID,
	})
	require.NoError(t, err)
	require.Equal(t, domain.EnrollmentPaid, res.Status)
	return enrollment
}

func (f *fixture) enrollment(t *testing.T, id string) *models.Enrollment {
	t.Helper()
	e, err := f.repos.Enrollments.GetByID(context.Background(), id)
	require.NoError(t, err)
	return e
}
