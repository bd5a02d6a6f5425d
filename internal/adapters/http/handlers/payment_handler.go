package handlers

import (
	"errors"
	"log"
	"net/url"

	"coursemart/internal/config"
	"coursemart/internal/core/domain"
	"coursemart/internal/core/services"
	"coursemart/internal/pkg/pagination"
	"coursemart/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PaymentHandler handles checkout, gateway callbacks and payment administration
type PaymentHandler struct {
	paymentService *services.PaymentService
	cfg            *config.Config
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *services.PaymentService, cfg *config.Config) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, cfg: cfg}
}

// InitPaymentRequest starts a checkout for an enrollment
type InitPaymentRequest struct {
	EnrollmentID string `json:"enrollmentId" validate:"required,uuid"`
}

// RefundRequest records why a payment was refunded
type RefundRequest struct {
	Reason string `json:"reason" validate:"notblank,max=1000"`
}

// Init opens a gateway checkout session
// @Summary Initiate payment
// @Description Returns the hosted checkout URL of the gateway
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body InitPaymentRequest true "Enrollment"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /payments/init [post]
func (h *PaymentHandler) Init(c *fiber.Ctx) error {
	actor, _ := currentActor(c)

	var req InitPaymentRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	result, err := h.paymentService.Initiate(c.UserContext(), actor, req.EnrollmentID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEnrollmentNotFound):
			return response.NotFound(c, "Enrollment not found")
		case errors.Is(err, services.ErrAlreadyPaid):
			return response.Conflict(c, "Enrollment is already paid")
		case errors.Is(err, services.ErrEnrollmentRefunded):
			return response.Conflict(c, "Enrollment was refunded")
		case errors.Is(err, services.ErrGatewayFailed):
			return response.BadGateway(c, err.Error())
		default:
			return response.InternalServerError("Failed to initiate payment", err)
		}
	}

	return response.Success(c, "Payment session created", result)
}

// Success is the gateway's browser redirect after a completed checkout
// @Summary Gateway success callback
// @Tags Payments
// @Accept x-www-form-urlencoded
// @Success 302
// @Router /payments/success [post]
func (h *PaymentHandler) Success(c *fiber.Ctx) error {
	result, err := h.paymentService.HandleSuccess(c.UserContext(), callbackFields(c))
	if err != nil {
		log.Printf("⚠️ Success callback rejected: %v", err)
		return h.redirect(c, "fail", result)
	}
	return h.redirect(c, "success", result)
}

// Fail is the gateway's browser redirect after a failed checkout
// @Summary Gateway fail callback
// @Tags Payments
// @Accept x-www-form-urlencoded
// @Success 302
// @Router /payments/fail [post]
func (h *PaymentHandler) Fail(c *fiber.Ctx) error {
	result, err := h.paymentService.HandleFail(c.UserContext(), callbackFields(c))
	if err != nil {
		log.Printf("⚠️ Fail callback: %v", err)
	}
	return h.redirect(c, pageFor(result, "fail"), result)
}

// Cancel is the gateway's browser redirect after the customer cancelled
// @Summary Gateway cancel callback
// @Tags Payments
// @Accept x-www-form-urlencoded
// @Success 302
// @Router /payments/cancel [post]
func (h *PaymentHandler) Cancel(c *fiber.Ctx) error {
	result, err := h.paymentService.HandleCancel(c.UserContext(), callbackFields(c))
	if err != nil {
		log.Printf("⚠️ Cancel callback: %v", err)
	}
	return h.redirect(c, pageFor(result, "cancel"), result)
}

// IPN is the gateway's server-to-server notification
// @Summary Gateway IPN
// @Tags Payments
// @Accept x-www-form-urlencoded
// @Produce json
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /payments/ipn [post]
func (h *PaymentHandler) IPN(c *fiber.Ctx) error {
	result, err := h.paymentService.HandleIPN(c.UserContext(), callbackFields(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCallback),
			errors.Is(err, services.ErrUnknownTransaction),
			errors.Is(err, services.ErrSignatureMismatch),
			errors.Is(err, services.ErrPaymentMismatch),
			errors.Is(err, services.ErrPaymentNotValidated),
			errors.Is(err, services.ErrPaymentRefunded):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, services.ErrGatewayFailed):
			return response.BadGateway(c, err.Error())
		default:
			return response.InternalServerError("Failed to process notification", err)
		}
	}

	return response.Success(c, "Notification processed", result)
}

// List lists payment attempts
// @Summary List payments
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "PENDING | SUCCESS | FAILED | CANCELLED | REFUNDED"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /admin/payments [get]
func (h *PaymentHandler) List(c *fiber.Ctx) error {
	input := services.ListPaymentsInput{
		Status: c.Query("status"),
		UserID: uint(c.QueryInt("userId", 0)),
	}

	result, err := h.paymentService.ListPayments(c.UserContext(), input, pagination.GetParams(c))
	if err != nil {
		return response.InternalServerError("Failed to list payments", err)
	}

	return response.Success(c, "Payments retrieved successfully", result)
}

// Confirm marks a payment as received outside the gateway
// @Summary Confirm payment
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Payment ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/payments/{id}/confirm [post]
func (h *PaymentHandler) Confirm(c *fiber.Ctx) error {
	actor, _ := currentActor(c)
	id, ok := uintParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid payment ID")
	}

	payment, err := h.paymentService.ConfirmPayment(c.UserContext(), actor.UserID, id)
	if err != nil {
		return h.adminError(c, err, "Failed to confirm payment")
	}

	return response.Success(c, "Payment confirmed", payment)
}

// ConfirmEnrollment records and confirms a manual payment for an enrollment
// @Summary Confirm enrollment payment
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/enrollments/{id}/confirm-payment [post]
func (h *PaymentHandler) ConfirmEnrollment(c *fiber.Ctx) error {
	actor, _ := currentActor(c)

	payment, err := h.paymentService.ConfirmEnrollment(c.UserContext(), actor.UserID, c.Params("id"))
	if err != nil {
		return h.adminError(c, err, "Failed to confirm payment")
	}

	return response.Success(c, "Payment confirmed", payment)
}

// Refund records a refund and revokes course access
// @Summary Refund payment
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Payment ID"
// @Param body body RefundRequest true "Reason"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/payments/{id}/refund [post]
func (h *PaymentHandler) Refund(c *fiber.Ctx) error {
	actor, _ := currentActor(c)
	id, ok := uintParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid payment ID")
	}

	var req RefundRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	payment, err := h.paymentService.Refund(c.UserContext(), actor.UserID, id, req.Reason)
	if err != nil {
		return h.adminError(c, err, "Failed to refund payment")
	}

	return response.Success(c, "Payment refunded", payment)
}

func (h *PaymentHandler) adminError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrPaymentNotFound):
		return response.NotFound(c, "Payment not found")
	case errors.Is(err, services.ErrEnrollmentNotFound):
		return response.NotFound(c, "Enrollment not found")
	case errors.Is(err, services.ErrPaymentSettled),
		errors.Is(err, services.ErrPaymentNotRefundable),
		errors.Is(err, services.ErrAlreadyPaid),
		errors.Is(err, services.ErrEnrollmentRefunded),
		errors.Is(err, domain.ErrStaleState):
		return response.Conflict(c, err.Error())
	default:
		return response.InternalServerError(fallback, err)
	}
}

// redirect sends the browser back to the storefront result page
func (h *PaymentHandler) redirect(c *fiber.Ctx, page string, result *services.CallbackResult) error {
	target := h.cfg.FrontendURL + "/payment/" + page
	if result != nil && result.EnrollmentID != "" {
		target += "?" + url.Values{"enrollmentId": {result.EnrollmentID}}.Encode()
	}
	return c.Redirect(target, fiber.StatusFound)
}

// pageFor picks the result page from the settled state; a fail or cancel
// callback can still end paid when the gateway captured the money.
func pageFor(result *services.CallbackResult, fallback string) string {
	if result != nil && result.Status == domain.EnrollmentPaid {
		return "success"
	}
	return fallback
}

// callbackFields collects the form fields posted by the gateway, falling
// back to the query string.
func callbackFields(c *fiber.Ctx) map[string]string {
	fields := map[string]string{}
	c.Request().URI().QueryArgs().VisitAll(func(k, v []byte) {
		fields[string(k)] = string(v)
	})
	c.Request().PostArgs().VisitAll(func(k, v []byte) {
		fields[string(k)] = string(v)
	})
	return fields
}
