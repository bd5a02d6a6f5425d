package handlers

import (
	"errors"

	"coursemart/internal/core/services"
	"coursemart/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// EnrollmentHandler handles enrollment endpoints
type EnrollmentHandler struct {
	enrollmentService *services.EnrollmentService
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(enrollmentService *services.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentService: enrollmentService}
}

// Create enrolls the caller in a course
// @Summary Enroll in a course
// @Tags Enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateEnrollmentInput true "Course"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /enrollments [post]
func (h *EnrollmentHandler) Create(c *fiber.Ctx) error {
	actor, _ := currentActor(c)

	var input services.CreateEnrollmentInput
	if ok, err := bind(c, &input); !ok {
		return err
	}

	enrollment, err := h.enrollmentService.Create(c.UserContext(), actor, input.CourseID)
	if err != nil {
		return h.enrollmentError(c, err, "Failed to create enrollment")
	}

	return response.Created(c, "Enrollment created successfully", fiber.Map{
		"enrollmentId": enrollment.ID,
		"enrollment":   enrollment,
	})
}

// MyEnrollments lists the caller's enrollments
// @Summary My enrollments
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /enrollments/my-enrollments [get]
func (h *EnrollmentHandler) MyEnrollments(c *fiber.Ctx) error {
	actor, _ := currentActor(c)

	enrollments, err := h.enrollmentService.MyEnrollments(c.UserContext(), actor.UserID)
	if err != nil {
		return response.InternalServerError("Failed to list enrollments", err)
	}

	return response.Success(c, "Enrollments retrieved successfully", enrollments)
}

// Get returns one enrollment
// @Summary Get enrollment
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /enrollments/{id} [get]
func (h *EnrollmentHandler) Get(c *fiber.Ctx) error {
	actor, _ := currentActor(c)

	enrollment, err := h.enrollmentService.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return h.enrollmentError(c, err, "Failed to get enrollment")
	}

	return response.Success(c, "Enrollment retrieved successfully", enrollment)
}

// UpdateProgress records course progress
// @Summary Update progress
// @Description Reaching 100 stamps the completion date and unlocks the certificate
// @Tags Enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Param body body services.UpdateProgressInput true "Progress 0-100"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /enrollments/{id}/progress [put]
func (h *EnrollmentHandler) UpdateProgress(c *fiber.Ctx) error {
	actor, _ := currentActor(c)

	var input services.UpdateProgressInput
	if ok, err := bind(c, &input); !ok {
		return err
	}

	enrollment, err := h.enrollmentService.UpdateProgress(c.UserContext(), actor, c.Params("id"), *input.Progress)
	if err != nil {
		return h.enrollmentError(c, err, "Failed to update progress")
	}

	return response.Success(c, "Progress updated successfully", enrollment)
}

func (h *EnrollmentHandler) enrollmentError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrCourseNotFound):
		return response.NotFound(c, "Course not found")
	case errors.Is(err, services.ErrEnrollmentNotFound):
		return response.NotFound(c, "Enrollment not found")
	case errors.Is(err, services.ErrUserNotFound):
		return response.Unauthorized(c, "User no longer exists")
	case errors.Is(err, services.ErrAlreadyEnrolled):
		return response.Conflict(c, "Already enrolled in this course")
	case errors.Is(err, services.ErrEnrollmentRefunded):
		return response.Conflict(c, "Enrollment in this course was refunded")
	case errors.Is(err, services.ErrNotEnrollmentOwner):
		return response.Forbidden(c, "Enrollment belongs to another student")
	case errors.Is(err, services.ErrInvalidProgress):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrEnrollmentNotPaid):
		return response.Forbidden(c, err.Error())
	default:
		return response.InternalServerError(fallback, err)
	}
}
