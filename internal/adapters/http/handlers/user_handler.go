package handlers

import (
	"errors"

	"coursemart/internal/core/domain"
	"coursemart/internal/core/services"
	"coursemart/internal/pkg/pagination"
	"coursemart/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles profile and user administration endpoints
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// SetStatusRequest changes a user's account status
type SetStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active blocked"`
}

// SetRoleRequest changes a user's role
type SetRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=student instructor admin"`
}

// ListUsers handles listing all users (Admin only)
// @Summary List users
// @Description Paginated list of users, optionally filtered by role (Admin only)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param role query string false "student | instructor | admin"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/users [get]
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	result, err := h.userService.ListUsers(c.UserContext(), c.Query("role"), pagination.GetParams(c))
	if err != nil {
		return response.InternalServerError("Failed to list users", err)
	}

	return response.Success(c, "Users retrieved successfully", result)
}

// UpdateMe updates the caller's profile
// @Summary Update my profile
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.UpdateProfileInput true "Profile"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /users/me [put]
func (h *UserHandler) UpdateMe(c *fiber.Ctx) error {
	actor, ok := currentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.UpdateProfileInput
	if ok, err := bind(c, &input); !ok {
		return err
	}

	user, err := h.userService.UpdateProfile(c.UserContext(), actor.UserID, &input)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError("Failed to update profile", err)
	}

	return response.Success(c, "Profile updated successfully", user)
}

// SetStatus blocks or unblocks a user
// @Summary Block or unblock a user
// @Description Blocking also revokes the user's refresh tokens (Admin only)
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body SetStatusRequest true "New status"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id}/status [patch]
func (h *UserHandler) SetStatus(c *fiber.Ctx) error {
	actor, _ := currentActor(c)
	id, ok := uintParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req SetStatusRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	user, err := h.userService.SetStatus(c.UserContext(), actor.UserID, id, domain.UserStatus(req.Status))
	if err != nil {
		return h.adminError(c, err)
	}

	return response.Success(c, "User status updated", user)
}

// SetRole changes a user's role
// @Summary Change a user's role
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body SetRoleRequest true "New role"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id}/role [patch]
func (h *UserHandler) SetRole(c *fiber.Ctx) error {
	actor, _ := currentActor(c)
	id, ok := uintParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req SetRoleRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	user, err := h.userService.SetRole(c.UserContext(), actor.UserID, id, domain.Role(req.Role))
	if err != nil {
		return h.adminError(c, err)
	}

	return response.Success(c, "User role updated", user)
}

func (h *UserHandler) adminError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return response.NotFound(c, "User not found")
	case errors.Is(err, services.ErrCannotModifySelf),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrUnknownRole):
		return response.BadRequest(c, err.Error())
	default:
		return response.InternalServerError("Failed to update user", err)
	}
}
