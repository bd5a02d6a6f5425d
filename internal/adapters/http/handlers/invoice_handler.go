package handlers

import (
	"errors"

	"coursemart/internal/core/services"
	"coursemart/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// InvoiceHandler handles invoice endpoints
type InvoiceHandler struct {
	invoiceService *services.InvoiceService
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoiceService *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// Get returns the invoice record and a signed download link
// @Summary Get invoice
// @Tags Invoices
// @Produce json
// @Security BearerAuth
// @Param enrollmentId path string true "Enrollment ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /invoices/{enrollmentId} [get]
func (h *InvoiceHandler) Get(c *fiber.Ctx) error {
	actor, _ := currentActor(c)

	view, err := h.invoiceService.Get(c.UserContext(), actor, c.Params("enrollmentId"))
	if err != nil {
		return h.invoiceError(c, err)
	}

	return response.Success(c, "Invoice retrieved successfully", view)
}

// Download streams the invoice PDF
// @Summary Download invoice PDF
// @Description Requires the signed token from the invoice endpoint or an owner/admin session
// @Tags Invoices
// @Produce application/pdf
// @Param enrollmentId path string true "Enrollment ID"
// @Param token query string false "Signed download token"
// @Success 200 {file} file
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /invoices/download/{enrollmentId} [get]
func (h *InvoiceHandler) Download(c *fiber.Ctx) error {
	data, filename, err := h.invoiceService.Download(c.UserContext(), c.Params("enrollmentId"), c.Query("token"), optionalActor(c))
	if err != nil {
		return h.invoiceError(c, err)
	}

	return sendPDF(c, filename, data)
}

func (h *InvoiceHandler) invoiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrEnrollmentNotFound):
		return response.NotFound(c, "Enrollment not found")
	case errors.Is(err, services.ErrInvoiceNotFound):
		return response.NotFound(c, "Invoice not found")
	case errors.Is(err, services.ErrLoginRequired):
		return response.Unauthorized(c, "Access token or download link required")
	case errors.Is(err, services.ErrDownloadLinkInvalid):
		return response.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrNotEnrollmentOwner):
		return response.Forbidden(c, "Enrollment belongs to another student")
	case errors.Is(err, services.ErrInvoiceUnavailable):
		return response.Forbidden(c, err.Error())
	default:
		return response.InternalServerError("Failed to get invoice", err)
	}
}
