package handlers

import (
	"errors"
	"strings"

	"coursemart/internal/core/services"
	"coursemart/internal/pkg/pagination"
	"coursemart/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// CourseHandler handles catalog and course moderation endpoints
type CourseHandler struct {
	courseService *services.CourseService
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(courseService *services.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

// RejectRequest carries the reason shown to the instructor
type RejectRequest struct {
	Reason string `json:"reason" validate:"notblank,max=1000"`
}

// SetPriceRequest sets a course price
type SetPriceRequest struct {
	Price decimal.Decimal `json:"price"`
}

// List returns the published catalog
// @Summary List published courses
// @Tags Courses
// @Produce json
// @Param category query string false "Category"
// @Param q query string false "Search in title and description"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /courses [get]
func (h *CourseHandler) List(c *fiber.Ctx) error {
	input := services.ListCoursesInput{
		Category: strings.TrimSpace(c.Query("category")),
		Query:    strings.TrimSpace(c.Query("q")),
	}

	result, err := h.courseService.ListPublished(c.UserContext(), input, pagination.GetParams(c))
	if err != nil {
		return response.InternalServerError("Failed to list courses", err)
	}

	return response.Success(c, "Courses retrieved successfully", result)
}

// Mine returns the caller's own courses in every status
// @Summary List my courses
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /courses/mine [get]
func (h *CourseHandler) Mine(c *fiber.Ctx) error {
	actor, _ := currentActor(c)

	courses, err := h.courseService.ListMine(c.UserContext(), actor)
	if err != nil {
		return response.InternalServerError("Failed to list courses", err)
	}

	return response.Success(c, "Courses retrieved successfully", courses)
}

// Get returns one course
// @Summary Get course
// @Description Unpublished courses are visible to their instructor and admins only
// @Tags Courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *fiber.Ctx) error {
	id, ok := uintParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid course ID")
	}

	course, err := h.courseService.Get(c.UserContext(), id, optionalActor(c))
	if err != nil {
		return h.courseError(c, err, "Failed to get course")
	}

	return response.Success(c, "Course retrieved successfully", course)
}

// Create creates a draft course
// @Summary Create course
// @Tags Courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateCourseInput true "Course"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /courses [post]
func (h *CourseHandler) Create(c *fiber.Ctx) error {
	actor, _ := currentActor(c)

	var input services.CreateCourseInput
	if ok, err := bind(c, &input); !ok {
		return err
	}

	course, err := h.courseService.Create(c.UserContext(), actor, &input)
	if err != nil {
		return h.courseError(c, err, "Failed to create course")
	}

	return response.Created(c, "Course created successfully", course)
}

// Update edits course content
// @Summary Update course
// @Tags Courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param body body services.UpdateCourseInput true "Fields to change"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c *fiber.Ctx) error {
	actor, _ := currentActor(c)
	id, ok := uintParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid course ID")
	}

	var input services.UpdateCourseInput
	if ok, err := bind(c, &input); !ok {
		return err
	}

	course, err := h.courseService.Update(c.UserContext(), actor, id, &input)
	if err != nil {
		return h.courseError(c, err, "Failed to update course")
	}

	return response.Success(c, "Course updated successfully", course)
}

// Submit sends a draft or rejected course for approval
// @Summary Submit course for approval
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /courses/{id}/submit [put]
func (h *CourseHandler) Submit(c *fiber.Ctx) error {
	actor, _ := currentActor(c)
	id, ok := uintParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid course ID")
	}

	course, err := h.courseService.Submit(c.UserContext(), actor, id)
	if err != nil {
		return h.courseError(c, err, "Failed to submit course")
	}

	return response.Success(c, "Course submitted for approval", course)
}

// Delete soft-deletes a course
// @Summary Delete course
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *fiber.Ctx) error {
	id, ok := uintParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid course ID")
	}

	if err := h.courseService.Delete(c.UserContext(), id); err != nil {
		return h.courseError(c, err, "Failed to delete course")
	}

	return response.Success(c, "Course deleted successfully", nil)
}

// Approve publishes a pending course
// @Summary Approve course
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/courses/{id}/approve [patch]
func (h *CourseHandler) Approve(c *fiber.Ctx) error {
	id, ok := uintParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid course ID")
	}

	course, err := h.courseService.Approve(c.UserContext(), id)
	if err != nil {
		return h.courseError(c, err, "Failed to approve course")
	}

	return response.Success(c, "Course approved", course)
}

// Reject rejects a pending or published course
// @Summary Reject course
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param body body RejectRequest true "Reason"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/courses/{id}/reject [patch]
func (h *CourseHandler) Reject(c *fiber.Ctx) error {
	id, ok := uintParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid course ID")
	}

	var req RejectRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	course, err := h.courseService.Reject(c.UserContext(), id, req.Reason)
	if err != nil {
		return h.courseError(c, err, "Failed to reject course")
	}

	return response.Success(c, "Course rejected", course)
}

// SetPrice sets the price charged to future enrollments
// @Summary Set course price
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param body body SetPriceRequest true "Price"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /admin/courses/{id}/price [patch]
func (h *CourseHandler) SetPrice(c *fiber.Ctx) error {
	id, ok := uintParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid course ID")
	}

	var req SetPriceRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	course, err := h.courseService.SetPrice(c.UserContext(), id, req.Price)
	if err != nil {
		return h.courseError(c, err, "Failed to update price")
	}

	return response.Success(c, "Course price updated", course)
}

func (h *CourseHandler) courseError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrCourseNotFound):
		return response.NotFound(c, "Course not found")
	case errors.Is(err, services.ErrNotCourseOwner):
		return response.Forbidden(c, "You do not own this course")
	case errors.Is(err, services.ErrInvalidPrice),
		errors.Is(err, services.ErrRejectReasonRequired):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrCourseNotPending),
		errors.Is(err, services.ErrCourseNotSubmittable),
		errors.Is(err, services.ErrCourseNotRejectable):
		return response.Conflict(c, err.Error())
	default:
		return response.InternalServerError(fallback, err)
	}
}
