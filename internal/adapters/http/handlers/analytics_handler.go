package handlers

import (
	"errors"

	"coursemart/internal/core/services"
	"coursemart/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AnalyticsHandler serves instructor dashboards and the admin report
type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsService *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// Courses reports enrollments and earnings per course of the caller
// @Summary Course analytics
// @Tags Instructor
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /instructor/analytics/courses [get]
func (h *AnalyticsHandler) Courses(c *fiber.Ctx) error {
	actor, _ := currentActor(c)

	stats, err := h.analyticsService.InstructorCourses(c.UserContext(), actor.UserID)
	if err != nil {
		return response.InternalServerError("Failed to load analytics", err)
	}

	return response.Success(c, "Course analytics retrieved successfully", stats)
}

// Earnings buckets the caller's earnings by period
// @Summary Earnings report
// @Tags Instructor
// @Produce json
// @Security BearerAuth
// @Param period query string false "monthly | weekly" default(monthly)
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /instructor/analytics/earnings [get]
func (h *AnalyticsHandler) Earnings(c *fiber.Ctx) error {
	actor, _ := currentActor(c)

	report, err := h.analyticsService.Earnings(c.UserContext(), actor.UserID, c.Query("period", services.PeriodMonthly))
	if err != nil {
		if errors.Is(err, services.ErrInvalidPeriod) {
			return response.BadRequest(c, err.Error())
		}
		return response.InternalServerError("Failed to load earnings", err)
	}

	return response.Success(c, "Earnings retrieved successfully", report)
}

// Summary is the platform-wide admin report
// @Summary Admin summary
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/reports/summary [get]
func (h *AnalyticsHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.analyticsService.Summary(c.UserContext())
	if err != nil {
		return response.InternalServerError("Failed to build summary", err)
	}

	return response.Success(c, "Summary retrieved successfully", summary)
}
