package services_test

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"coursemart/internal/core/domain"
	"coursemart/internal/core/services"
	"coursemart/internal/pkg/jwt"
	"coursemart/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenFrom(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query().Get("token")
}

func TestInvoiceService_Get(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	instructor := testutil.CreateUser(t, f.db, "ian", domain.RoleInstructor)
	student := testutil.CreateUser(t, f.db, "sam", domain.RoleStudent)
	other := testutil.CreateUser(t, f.db, "tom", domain.RoleStudent)
	course := testutil.CreateCourse(t, f.db, instructor.ID, "Go", 500, domain.CoursePublished)

	unpaid, _ := f.checkout(t, other, course)
	_, err := f.invoices.Get(ctx, actorOf(other), unpaid.ID)
	assert.ErrorIs(t, err, services.ErrInvoiceUnavailable)

	e := f.pay(t, student, course)

	_, err = f.invoices.Get(ctx, actorOf(other), e.ID)
	assert.ErrorIs(t, err, services.ErrNotEnrollmentOwner)

	view, err := f.invoices.Get(ctx, actorOf(student), e.ID)
	require.NoError(t, err)
	assert.Equal(t, services.InvoiceNumber(e.ID), view.Invoice.InvoiceNumber)
	assert.Equal(t, "500.00", view.Invoice.Amount.StringFixed(2))
	assert.Equal(t, "BDT", view.Invoice.Currency)
	assert.True(t, strings.HasPrefix(view.DownloadURL, "http://api.test/api/invoices/download/"+e.ID+"?token="))
	assert.True(t, view.ExpiresAt.After(view.Invoice.CreatedAt))

	_, err = f.invoices.Get(ctx, domain.Actor{UserID: 1, Role: domain.RoleAdmin}, e.ID)
	require.NoError(t, err)
}

func TestInvoiceService_Download(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	instructor := testutil.CreateUser(t, f.db, "ian", domain.RoleInstructor)
	student := testutil.CreateUser(t, f.db, "sam", domain.RoleStudent)
	other := testutil.CreateUser(t, f.db, "tom", domain.RoleStudent)
	course := testutil.CreateCourse(t, f.db, instructor.ID, "Go Concurrency", 500, domain.CoursePublished)
	e := f.pay(t, student, course)
	second := f.pay(t, other, course)

	view, err := f.invoices.Get(ctx, actorOf(student), e.ID)
	require.NoError(t, err)
	token := tokenFrom(t, view.DownloadURL)

	out, name, err := f.invoices.Download(ctx, e.ID, token, nil)
	require.NoError(t, err)
	assert.Equal(t, services.InvoiceNumber(e.ID)+".pdf", name)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))
	assert.Contains(t, string(out), "Go Concurrency")
	assert.Contains(t, string(out), "500.00")

	// a token only opens the invoice it was issued for
	_, _, err = f.invoices.Download(ctx, second.ID, token, nil)
	assert.ErrorIs(t, err, services.ErrDownloadLinkInvalid)

	_, _, err = f.invoices.Download(ctx, e.ID, "garbage", nil)
	assert.ErrorIs(t, err, services.ErrDownloadLinkInvalid)

	_, _, err = f.invoices.Download(ctx, e.ID, "", nil)
	assert.ErrorIs(t, err, services.ErrLoginRequired)

	oa := actorOf(other)
	_, _, err = f.invoices.Download(ctx, e.ID, "", &oa)
	assert.ErrorIs(t, err, services.ErrNotEnrollmentOwner)

	sa := actorOf(student)
	_, _, err = f.invoices.Download(ctx, e.ID, "", &sa)
	require.NoError(t, err)

	// tokens signed for another purpose are rejected
	foreign, err := jwt.GenerateDownloadToken("certificate", e.ID, f.cfg.JWT.Secret, time.Minute)
	require.NoError(t, err)
	_, _, err = f.invoices.Download(ctx, e.ID, foreign, nil)
	assert.ErrorIs(t, err, services.ErrDownloadLinkInvalid)
}

func TestCertificateService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	instructor := testutil.CreateUser(t, f.db, "ian", domain.RoleInstructor)
	student := testutil.CreateUser(t, f.db, "sam", domain.RoleStudent)
	other := testutil.CreateUser(t, f.db, "tom", domain.RoleStudent)
	course := testutil.CreateCourse(t, f.db, instructor.ID, "Go", 500, domain.CoursePublished)
	e := f.pay(t, student, course)

	_, _, err := f.certificates.Download(ctx, actorOf(student), e.ID)
	assert.ErrorIs(t, err, services.ErrCertificateUnavailable)

	certs, err := f.certificates.MyCertificates(ctx, student.ID)
	require.NoError(t, err)
	assert.Empty(t, certs)

	_, err = f.enrollments.UpdateProgress(ctx, actorOf(student), e.ID, 100)
	require.NoError(t, err)

	certs, err = f.certificates.MyCertificates(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.Equal(t, e.ID, certs[0].EnrollmentID)
	assert.Equal(t, services.CertificatePath(e.ID), certs[0].CertificateURL)

	_, _, err = f.certificates.Download(ctx, actorOf(other), e.ID)
	assert.ErrorIs(t, err, services.ErrNotEnrollmentOwner)

	out, name, err := f.certificates.Download(ctx, actorOf(student), e.ID)
	require.NoError(t, err)
	assert.Equal(t, services.CertificateID(e.ID)+".pdf", name)
	assert.Contains(t, string(out), "ian")

	_, _, err = f.certificates.Download(ctx, actorOf(student), "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, services.ErrEnrollmentNotFound)
}
