package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"coursemart/internal/adapters/persistence/models"
	"coursemart/internal/adapters/persistence/repositories"
	"coursemart/internal/config"
	"coursemart/internal/core/domain"
	"coursemart/internal/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment errors
var (
	ErrAlreadyPaid          = errors.New("enrollment is already paid")
	ErrGatewayFailed        = errors.New("payment gateway request failed")
	ErrInvalidCallback      = errors.New("callback is missing tran_id or val_id")
	ErrUnknownTransaction   = errors.New("unknown transaction")
	ErrSignatureMismatch    = errors.New("callback signature mismatch")
	ErrPaymentNotValidated  = errors.New("gateway did not validate the payment")
	ErrPaymentMismatch      = errors.New("validated payment does not match the order")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrPaymentSettled       = errors.New("payment is already settled")
	ErrPaymentNotRefundable = errors.New("only successful payments can be refunded")
	ErrPaymentRefunded      = errors.New("payment was refunded")
)

// PaymentService drives the payment half of the enrollment state machine
type PaymentService struct {
	repos    *repositories.Registry
	gateway  PaymentGateway
	invoices *InvoiceService
	mailer   Mailer
	cfg      *config.Config
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	repos *repositories.Registry,
	gateway PaymentGateway,
	invoices *InvoiceService,
	mailer Mailer,
	cfg *config.Config,
) *PaymentService {
	return &PaymentService{
		repos:    repos,
		gateway:  gateway,
		invoices: invoices,
		mailer:   mailer,
		cfg:      cfg,
	}
}

// InitPaymentInput represents checkout input
type InitPaymentInput struct {
	EnrollmentID string `json:"enrollmentId" validate:"required,uuid"`
}

// InitPaymentResult is where to send the browser
type InitPaymentResult struct {
	URL           string `json:"url"`
	TransactionID string `json:"transactionId"`
}

// CallbackResult reports what a gateway callback did
type CallbackResult struct {
	EnrollmentID string                  `json:"enrollmentId"`
	Status       domain.EnrollmentStatus `json:"status"`
}

// ListPaymentsInput filters admin payment listings
type ListPaymentsInput struct {
	Status string
	UserID uint
}

type settlement struct {
	event     domain.EnrollmentEvent
	valID     string
	bankTrxID string
	cardType  string
	method    domain.PaymentMethod
}

// NewTransactionID returns an opaque merchant transaction id
func NewTransactionID() string {
	return "TXN" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:24]
}

// Initiate opens a gateway checkout for the caller's enrollment. Failed or
// cancelled enrollments may start a new attempt; older pending attempts are
// closed.
func (s *PaymentService) Initiate(ctx context.Context, actor domain.Actor, enrollmentID string) (*InitPaymentResult, error) {
	enrollment, err := s.repos.Enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, err
	}
	if enrollment.StudentID != actor.UserID {
		return nil, ErrEnrollmentNotFound
	}
	if err := payable(enrollment, domain.EventInitiatePayment); err != nil {
		return nil, err
	}

	now := time.Now()
	payment := &models.Payment{
		EnrollmentID: enrollment.ID,
		UserID:       enrollment.StudentID,
		CourseID:     enrollment.CourseID,
		Amount:       enrollment.CoursePrice,
		Currency:     s.cfg.Gateway.Currency,
		Status:       domain.PaymentPending,
		Method:       domain.MethodGateway,
		TrxID:        NewTransactionID(),
	}

	err = s.repos.Transaction(ctx, func(tx *repositories.Registry) error {
		if err := tx.Payments.CloseOpenAttempts(ctx, enrollment.ID, domain.PaymentCancelled); err != nil {
			return err
		}
		if err := tx.Payments.Create(ctx, payment); err != nil {
			return err
		}
		return tx.Enrollments.Apply(ctx, enrollment.ID, domain.EventInitiatePayment, map[string]interface{}{
			"transaction_id":   payment.TrxID,
			"payment_start_at": &now,
		})
	})
	if errors.Is(err, domain.ErrStaleState) {
		return nil, ErrAlreadyPaid
	}
	if err != nil {
		return nil, err
	}

	callback := s.cfg.PublicURL + "/api/payments"
	session, err := s.gateway.InitSession(ctx, domain.CheckoutRequest{
		TransactionID:   payment.TrxID,
		Amount:          payment.Amount,
		Currency:        payment.Currency,
		ProductName:     enrollment.CourseTitle,
		ProductCategory: "Online Course",
		CustomerName:    enrollment.StudentName,
		CustomerEmail:   enrollment.StudentEmail,
		SuccessURL:      callback + "/success",
		FailURL:         callback + "/fail",
		CancelURL:       callback + "/cancel",
		IPNURL:          callback + "/ipn",
		EnrollmentID:    enrollment.ID,
		StudentID:       strconv.FormatUint(uint64(enrollment.StudentID), 10),
	})
	if err != nil {
		log.Printf("❌ Gateway init failed for %s: %v", payment.TrxID, err)
		s.abandon(ctx, payment, domain.PaymentFailed, domain.EventPaymentFailed)
		return nil, fmt.Errorf("%w: %v", ErrGatewayFailed, err)
	}

	log.Printf("✅ Checkout opened: %s for enrollment %s", payment.TrxID, enrollment.ID)
	return &InitPaymentResult{URL: session.GatewayURL, TransactionID: payment.TrxID}, nil
}

// HandleSuccess settles a payment reported successful by the browser
// redirect. The callback only names the transaction; the outcome comes from
// the gateway's validation API.
func (s *PaymentService) HandleSuccess(ctx context.Context, fields map[string]string) (*CallbackResult, error) {
	payment, err := s.lookup(ctx, fields)
	if err != nil {
		return nil, err
	}

	switch payment.Status {
	case domain.PaymentSuccess:
		return &CallbackResult{EnrollmentID: payment.EnrollmentID, Status: domain.EnrollmentPaid}, nil
	case domain.PaymentRefunded:
		return nil, ErrPaymentRefunded
	}

	valID := fields["val_id"]
	if valID == "" {
		return nil, ErrInvalidCallback
	}

	tx, err := s.gateway.Validate(ctx, valID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayFailed, err)
	}
	if !tx.IsValid() {
		log.Printf("⚠️ Validation of %s returned %s", payment.TrxID, tx.Status)
		return nil, ErrPaymentNotValidated
	}

	return s.settleVerified(ctx, payment, tx)
}

// HandleFail records a failed checkout after asking the gateway about it
func (s *PaymentService) HandleFail(ctx context.Context, fields map[string]string) (*CallbackResult, error) {
	return s.handleUnsuccessful(ctx, fields, domain.PaymentFailed, domain.EventPaymentFailed)
}

// HandleCancel records a cancelled checkout after asking the gateway about it
func (s *PaymentService) HandleCancel(ctx context.Context, fields map[string]string) (*CallbackResult, error) {
	return s.handleUnsuccessful(ctx, fields, domain.PaymentCancelled, domain.EventPaymentCancel)
}

// HandleIPN processes the gateway's server-to-server notification
func (s *PaymentService) HandleIPN(ctx context.Context, fields map[string]string) (*CallbackResult, error) {
	switch strings.ToUpper(fields["status"]) {
	case "VALID", "VALIDATED":
		return s.HandleSuccess(ctx, fields)
	case "FAILED":
		return s.HandleFail(ctx, fields)
	default:
		return s.HandleCancel(ctx, fields)
	}
}

func (s *PaymentService) lookup(ctx context.Context, fields map[string]string) (*models.Payment, error) {
	tranID := fields["tran_id"]
	if tranID == "" {
		return nil, ErrInvalidCallback
	}

	if fields["verify_sign"] != "" && !s.gateway.VerifySign(fields) {
		log.Printf("⚠️ Signature mismatch on callback for %s", tranID)
		return nil, ErrSignatureMismatch
	}

	payment, err := s.repos.Payments.GetByTrxID(ctx, tranID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownTransaction
		}
		return nil, err
	}
	return payment, nil
}

func (s *PaymentService) handleUnsuccessful(ctx context.Context, fields map[string]string, status domain.PaymentStatus, ev domain.EnrollmentEvent) (*CallbackResult, error) {
	payment, err := s.lookup(ctx, fields)
	if err != nil {
		return nil, err
	}
	if payment.Status != domain.PaymentPending {
		return s.current(ctx, payment.EnrollmentID)
	}

	txs, err := s.gateway.QueryTransaction(ctx, payment.TrxID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayFailed, err)
	}
	for i := range txs {
		if txs[i].IsValid() {
			log.Printf("⚠️ %s callback for %s but gateway reports it paid", ev, payment.TrxID)
			return s.settleVerified(ctx, payment, &txs[i])
		}
	}

	s.abandon(ctx, payment, status, ev)
	return s.current(ctx, payment.EnrollmentID)
}

func (s *PaymentService) settleVerified(ctx context.Context, payment *models.Payment, tx *domain.GatewayTransaction) (*CallbackResult, error) {
	if tx.TransactionID != payment.TrxID ||
		!tx.Amount.Equal(payment.Amount) ||
		!strings.EqualFold(tx.Currency, payment.Currency) {
		log.Printf("❌ Payment %s mismatch: gateway %s %s %s, stored %s %s",
			payment.TrxID, tx.TransactionID, tx.Amount, tx.Currency, payment.Amount, payment.Currency)
		return nil, ErrPaymentMismatch
	}

	return s.settle(ctx, payment, settlement{
		event:     domain.EventPaymentVerified,
		valID:     tx.ValidationID,
		bankTrxID: tx.BankTransactionID,
		cardType:  tx.CardType,
		method:    domain.MethodGateway,
	})
}

// settle marks the payment successful and, in the same transaction, moves
// the enrollment to paid, adds the student to the course and records the
// invoice. Whichever caller flips the payment row first does the work.
func (s *PaymentService) settle(ctx context.Context, payment *models.Payment, st settlement) (*CallbackResult, error) {
	var (
		enrollment *models.Enrollment
		invoice    *models.Invoice
	)

	err := s.repos.Transaction(ctx, func(tx *repositories.Registry) error {
		updates := map[string]interface{}{
			"status": domain.PaymentSuccess,
			"method": st.method,
		}
		if st.valID != "" {
			updates["val_id"] = st.valID
		}
		if st.bankTrxID != "" {
			updates["bank_trx_id"] = st.bankTrxID
		}
		if st.cardType != "" {
			updates["card_type"] = st.cardType
		}

		err := tx.Payments.TransitionStatus(ctx, payment.ID,
			[]domain.PaymentStatus{domain.PaymentPending, domain.PaymentFailed, domain.PaymentCancelled}, updates)
		if errors.Is(err, domain.ErrStaleState) {
			return nil // settled by a concurrent callback
		}
		if err != nil {
			return err
		}

		settled, err := tx.Payments.GetByID(ctx, payment.ID)
		if err != nil {
			return err
		}

		now := time.Now()
		enrollmentUpdates := map[string]interface{}{
			"transaction_id": settled.TrxID,
			"paid_at":        &now,
		}
		if settled.ValID != nil {
			enrollmentUpdates["validation_id"] = *settled.ValID
		}

		err = tx.Enrollments.Apply(ctx, settled.EnrollmentID, st.event, enrollmentUpdates)
		if errors.Is(err, domain.ErrStaleState) && st.method == domain.MethodManual {
			// nothing was captured, so there is nothing to keep
			return ErrAlreadyPaid
		}
		if errors.Is(err, domain.ErrStaleState) {
			log.Printf("⚠️ Payment %s captured but enrollment %s is no longer payable; refund required",
				settled.TrxID, settled.EnrollmentID)
			return nil
		}
		if err != nil {
			return err
		}

		e, err := tx.Enrollments.GetByID(ctx, settled.EnrollmentID)
		if err != nil {
			return err
		}

		if err := tx.Courses.AddStudent(ctx, e.CourseID, e.StudentID); err != nil {
			return err
		}

		inv := newInvoice(e, settled)
		created, err := tx.Invoices.CreateIfAbsent(ctx, inv)
		if err != nil {
			return err
		}
		if created {
			enrollment, invoice = e, inv
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if invoice != nil {
		log.Printf("✅ Payment %s settled, invoice %s issued", payment.TrxID, invoice.InvoiceNumber)
		s.sendReceipt(ctx, enrollment, invoice)
	}

	return s.current(ctx, payment.EnrollmentID)
}

// abandon closes a pending attempt and moves the enrollment along ev when
// the attempt is still the enrollment's current one
func (s *PaymentService) abandon(ctx context.Context, payment *models.Payment, status domain.PaymentStatus, ev domain.EnrollmentEvent) {
	err := s.repos.Transaction(ctx, func(tx *repositories.Registry) error {
		err := tx.Payments.TransitionStatus(ctx, payment.ID,
			[]domain.PaymentStatus{domain.PaymentPending}, map[string]interface{}{"status": status})
		if errors.Is(err, domain.ErrStaleState) {
			return nil
		}
		if err != nil {
			return err
		}

		e, err := tx.Enrollments.GetByID(ctx, payment.EnrollmentID)
		if err != nil {
			return err
		}
		if e.TransactionID == nil || *e.TransactionID != payment.TrxID {
			return nil
		}

		err = tx.Enrollments.Apply(ctx, e.ID, ev, nil)
		if errors.Is(err, domain.ErrStaleState) {
			return nil
		}
		return err
	})
	if err != nil {
		log.Printf("❌ Failed to close payment %s: %v", payment.TrxID, err)
	}
}

func (s *PaymentService) current(ctx context.Context, enrollmentID string) (*CallbackResult, error) {
	e, err := s.repos.Enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	return &CallbackResult{EnrollmentID: e.ID, Status: e.Status}, nil
}

func (s *PaymentService) sendReceipt(ctx context.Context, e *models.Enrollment, inv *models.Invoice) {
	if s.mailer == nil {
		return
	}
	msg, err := s.invoices.ReceiptMessage(e, inv)
	if err != nil {
		log.Printf("❌ Failed to render receipt for %s: %v", e.ID, err)
		return
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		log.Printf("❌ Failed to send receipt for %s: %v", e.ID, err)
	}
}

// ConfirmPayment is the admin path for a payment settled outside the gateway
func (s *PaymentService) ConfirmPayment(ctx context.Context, adminID, paymentID uint) (*models.Payment, error) {
	payment, err := s.payment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status == domain.PaymentSuccess || payment.Status == domain.PaymentRefunded {
		return nil, ErrPaymentSettled
	}

	enrollment, err := s.repos.Enrollments.GetByID(ctx, payment.EnrollmentID)
	if err != nil {
		return nil, err
	}
	if err := payable(enrollment, domain.EventAdminConfirm); err != nil {
		return nil, err
	}

	if _, err := s.settle(ctx, payment, settlement{event: domain.EventAdminConfirm, method: domain.MethodManual}); err != nil {
		return nil, err
	}

	log.Printf("✅ Payment #%d confirmed by admin %d", paymentID, adminID)
	return s.payment(ctx, paymentID)
}

// ConfirmEnrollment records a manual payment for an enrollment that has no
// settled attempt and confirms it
func (s *PaymentService) ConfirmEnrollment(ctx context.Context, adminID uint, enrollmentID string) (*models.Payment, error) {
	enrollment, err := s.repos.Enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, err
	}
	if err := payable(enrollment, domain.EventAdminConfirm); err != nil {
		return nil, err
	}

	payment := &models.Payment{
		EnrollmentID: enrollment.ID,
		UserID:       enrollment.StudentID,
		CourseID:     enrollment.CourseID,
		Amount:       enrollment.CoursePrice,
		Currency:     s.cfg.Gateway.Currency,
		Status:       domain.PaymentPending,
		Method:       domain.MethodManual,
		TrxID:        NewTransactionID(),
	}
	err = s.repos.Transaction(ctx, func(tx *repositories.Registry) error {
		if err := tx.Payments.CloseOpenAttempts(ctx, enrollment.ID, domain.PaymentCancelled); err != nil {
			return err
		}
		return tx.Payments.Create(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	return s.ConfirmPayment(ctx, adminID, payment.ID)
}

// Refund records a refund of a successful payment. When the payment is the
// one that paid its enrollment, access is revoked.
func (s *PaymentService) Refund(ctx context.Context, adminID, paymentID uint, reason string) (*models.Payment, error) {
	payment, err := s.payment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	err = s.repos.Transaction(ctx, func(tx *repositories.Registry) error {
		err := tx.Payments.TransitionStatus(ctx, payment.ID,
			[]domain.PaymentStatus{domain.PaymentSuccess},
			map[string]interface{}{"status": domain.PaymentRefunded, "refund_reason": strings.TrimSpace(reason)})
		if errors.Is(err, domain.ErrStaleState) {
			return ErrPaymentNotRefundable
		}
		if err != nil {
			return err
		}

		e, err := tx.Enrollments.GetByID(ctx, payment.EnrollmentID)
		if err != nil {
			return err
		}
		if e.TransactionID == nil || *e.TransactionID != payment.TrxID {
			return nil // duplicate capture; enrollment was paid by another attempt
		}

		if err := tx.Enrollments.Apply(ctx, e.ID, domain.EventRefund, nil); err != nil {
			if errors.Is(err, domain.ErrStaleState) {
				return nil
			}
			return err
		}
		return tx.Courses.RemoveStudent(ctx, e.CourseID, e.StudentID)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Payment #%d refunded by admin %d", paymentID, adminID)
	return s.payment(ctx, paymentID)
}

// ListPayments lists payment attempts for admins
func (s *PaymentService) ListPayments(ctx context.Context, input ListPaymentsInput, params *pagination.Params) (*pagination.Page[*models.Payment], error) {
	payments, total, err := s.repos.Payments.List(ctx, repositories.PaymentFilter{
		Status: strings.ToUpper(input.Status),
		UserID: input.UserID,
	}, params.Offset, params.Limit)
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(payments, params, total), nil
}

// ExpireStale cancels checkouts that have been awaiting payment longer than maxAge
func (s *PaymentService) ExpireStale(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	stale, err := s.repos.Enrollments.ListStaleAwaiting(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, e := range stale {
		err := s.repos.Transaction(ctx, func(tx *repositories.Registry) error {
			if err := tx.Enrollments.ExpireIfStale(ctx, e.ID, cutoff); err != nil {
				return err
			}
			return tx.Payments.CloseOpenAttempts(ctx, e.ID, domain.PaymentCancelled)
		})
		if errors.Is(err, domain.ErrStaleState) {
			continue
		}
		if err != nil {
			return expired, err
		}
		expired++
	}
	return expired, nil
}

// payable rejects events the enrollment can no longer take
func payable(e *models.Enrollment, ev domain.EnrollmentEvent) error {
	switch {
	case e.Status == domain.EnrollmentRefunded:
		return ErrEnrollmentRefunded
	case !e.Status.CanApply(ev):
		return ErrAlreadyPaid
	}
	return nil
}

func (s *PaymentService) payment(ctx context.Context, id uint) (*models.Payment, error) {
	payment, err := s.repos.Payments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}
