package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"coursemart/internal/adapters/persistence/models"
	"coursemart/internal/adapters/persistence/repositories"
	"coursemart/internal/config"
	"coursemart/internal/core/domain"
	"coursemart/internal/pkg/jwt"
	"coursemart/internal/pkg/pdf"

	"gorm.io/gorm"
)

// Invoice errors
var (
	ErrInvoiceNotFound     = errors.New("invoice not found")
	ErrInvoiceUnavailable  = errors.New("invoice is only available for completed payments")
	ErrDownloadLinkInvalid = errors.New("download link is invalid or expired")
	ErrLoginRequired       = errors.New("authentication required")
)

// InvoiceService exposes invoices and renders them
type InvoiceService struct {
	repos    *repositories.Registry
	renderer *pdf.Renderer
	cfg      *config.Config
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(repos *repositories.Registry, renderer *pdf.Renderer, cfg *config.Config) *InvoiceService {
	return &InvoiceService{repos: repos, renderer: renderer, cfg: cfg}
}

// InvoiceView is an invoice with a signed download link
type InvoiceView struct {
	Invoice     *models.Invoice `json:"invoice"`
	DownloadURL string          `json:"download_url"`
	ExpiresAt   time.Time       `json:"download_expires_at"`
}

// InvoiceNumber derives the printed number from an enrollment id
func InvoiceNumber(enrollmentID string) string {
	id := strings.ReplaceAll(enrollmentID, "-", "")
	if len(id) > 6 {
		id = id[len(id)-6:]
	}
	return "INV-" + strings.ToUpper(id)
}

// newInvoice builds the invoice record for a settled payment
func newInvoice(e *models.Enrollment, p *models.Payment) *models.Invoice {
	valID := ""
	if p.ValID != nil {
		valID = *p.ValID
	}
	return &models.Invoice{
		InvoiceNumber: InvoiceNumber(e.ID),
		EnrollmentID:  e.ID,
		StudentID:     e.StudentID,
		CourseID:      e.CourseID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		TransactionID: p.TrxID,
		ValidationID:  valID,
		PaymentMethod: p.Method,
		Status:        models.InvoiceStatusPaid,
	}
}

// Get returns the invoice record of a paid enrollment plus a short-lived link
func (s *InvoiceService) Get(ctx context.Context, actor domain.Actor, enrollmentID string) (*InvoiceView, error) {
	enrollment, err := s.enrollment(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(enrollment.StudentID) {
		return nil, ErrNotEnrollmentOwner
	}
	if !enrollment.Status.HasAccess() {
		return nil, ErrInvoiceUnavailable
	}

	invoice, err := s.invoice(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}

	link, expiresAt, err := s.DownloadLink(enrollmentID)
	if err != nil {
		return nil, err
	}

	return &InvoiceView{Invoice: invoice, DownloadURL: link, ExpiresAt: expiresAt}, nil
}

// DownloadLink signs a capability URL for the invoice PDF
func (s *InvoiceService) DownloadLink(enrollmentID string) (string, time.Time, error) {
	ttl := time.Duration(s.cfg.JWT.DownloadLinkMins) * time.Minute
	token, err := jwt.GenerateDownloadToken(jwt.PurposeInvoiceDownload, enrollmentID, s.cfg.JWT.Secret, ttl)
	if err != nil {
		return "", time.Time{}, err
	}

	link := fmt.Sprintf("%s/api/invoices/download/%s?token=%s",
		s.cfg.PublicURL, url.PathEscape(enrollmentID), url.QueryEscape(token))
	return link, time.Now().Add(ttl), nil
}

// Download renders the invoice PDF. The caller proves access with either a
// capability token for this enrollment or an authenticated owner/admin session.
func (s *InvoiceService) Download(ctx context.Context, enrollmentID, token string, actor *domain.Actor) ([]byte, string, error) {
	enrollment, err := s.enrollment(ctx, enrollmentID)
	if err != nil {
		return nil, "", err
	}

	switch {
	case token != "":
		if err := jwt.ValidateDownloadToken(token, jwt.PurposeInvoiceDownload, enrollmentID, s.cfg.JWT.Secret); err != nil {
			return nil, "", ErrDownloadLinkInvalid
		}
	case actor == nil:
		return nil, "", ErrLoginRequired
	case !actor.Owns(enrollment.StudentID):
		return nil, "", ErrNotEnrollmentOwner
	}

	if !enrollment.Status.HasAccess() {
		return nil, "", ErrInvoiceUnavailable
	}

	invoice, err := s.invoice(ctx, enrollmentID)
	if err != nil {
		return nil, "", err
	}

	out, err := s.Render(enrollment, invoice)
	if err != nil {
		return nil, "", err
	}
	return out, invoice.InvoiceNumber + ".pdf", nil
}

// Render lays out the PDF for an invoice record
func (s *InvoiceService) Render(e *models.Enrollment, inv *models.Invoice) ([]byte, error) {
	return s.renderer.Invoice(pdf.InvoiceData{
		InvoiceNumber: inv.InvoiceNumber,
		IssuedAt:      inv.CreatedAt,
		StudentName:   e.StudentName,
		StudentEmail:  e.StudentEmail,
		CourseTitle:   e.CourseTitle,
		Amount:        inv.Amount.StringFixed(2),
		Currency:      inv.Currency,
		PaymentMethod: string(inv.PaymentMethod),
		TransactionID: inv.TransactionID,
	})
}

// ReceiptMessage builds the receipt e-mail with the invoice attached
func (s *InvoiceService) ReceiptMessage(e *models.Enrollment, inv *models.Invoice) (domain.MailMessage, error) {
	out, err := s.Render(e, inv)
	if err != nil {
		return domain.MailMessage{}, err
	}

	amount := inv.Currency + " " + inv.Amount.StringFixed(2)
	return domain.MailMessage{
		ToName:  e.StudentName,
		ToEmail: e.StudentEmail,
		Subject: "Payment receipt " + inv.InvoiceNumber,
		Text: fmt.Sprintf("Hi %s,\n\nWe received your payment of %s for %q.\nYour invoice %s is attached.\n",
			e.StudentName, amount, e.CourseTitle, inv.InvoiceNumber),
		Attachments: []domain.MailAttachment{
			{Filename: inv.InvoiceNumber + ".pdf", ContentType: "application/pdf", Data: out},
		},
	}, nil
}

func (s *InvoiceService) enrollment(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.repos.Enrollments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, err
	}
	return enrollment, nil
}

func (s *InvoiceService) invoice(ctx context.Context, enrollmentID string) (*models.Invoice, error) {
	invoice, err := s.repos.Invoices.GetByEnrollmentID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return invoice, nil
}
