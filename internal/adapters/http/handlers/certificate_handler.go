package handlers

import (
	"errors"

	"coursemart/internal/core/services"
	"coursemart/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CertificateHandler handles certificate endpoints
type CertificateHandler struct {
	certificateService *services.CertificateService
}

// NewCertificateHandler creates a new certificate handler
func NewCertificateHandler(certificateService *services.CertificateService) *CertificateHandler {
	return &CertificateHandler{certificateService: certificateService}
}

// Mine lists the caller's certificates
// @Summary My certificates
// @Tags Certificates
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /certificates/my-certificates [get]
func (h *CertificateHandler) Mine(c *fiber.Ctx) error {
	actor, _ := currentActor(c)

	certificates, err := h.certificateService.MyCertificates(c.UserContext(), actor.UserID)
	if err != nil {
		return response.InternalServerError("Failed to list certificates", err)
	}

	return response.Success(c, "Certificates retrieved successfully", certificates)
}

// Download streams a certificate PDF
// @Summary Download certificate
// @Tags Certificates
// @Produce application/pdf
// @Security BearerAuth
// @Param enrollmentId path string true "Enrollment ID"
// @Success 200 {file} file
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /certificates/download/{enrollmentId} [get]
func (h *CertificateHandler) Download(c *fiber.Ctx) error {
	actor, _ := currentActor(c)

	data, filename, err := h.certificateService.Download(c.UserContext(), actor, c.Params("enrollmentId"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEnrollmentNotFound):
			return response.NotFound(c, "Enrollment not found")
		case errors.Is(err, services.ErrNotEnrollmentOwner):
			return response.Forbidden(c, "Enrollment belongs to another student")
		case errors.Is(err, services.ErrCertificateUnavailable):
			return response.Forbidden(c, err.Error())
		default:
			return response.InternalServerError("Failed to render certificate", err)
		}
	}

	return sendPDF(c, filename, data)
}
