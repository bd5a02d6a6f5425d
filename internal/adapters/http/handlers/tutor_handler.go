package handlers

import (
	"errors"

	"coursemart/internal/core/services"
	"coursemart/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// TutorHandler proxies AI tutor chats
type TutorHandler struct {
	tutorService *services.TutorService
}

// NewTutorHandler creates a new tutor handler
func NewTutorHandler(tutorService *services.TutorService) *TutorHandler {
	return &TutorHandler{tutorService: tutorService}
}

// Chat answers a tutor conversation
// @Summary Chat with the AI tutor
// @Tags Tutor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.ChatInput true "Conversation"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 502 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /tutor/chat [post]
func (h *TutorHandler) Chat(c *fiber.Ctx) error {
	actor, _ := currentActor(c)

	var input services.ChatInput
	if ok, err := bind(c, &input); !ok {
		return err
	}

	reply, err := h.tutorService.Chat(c.UserContext(), actor, &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTutorUnavailable):
			return response.ServiceUnavailable(c, err.Error())
		case errors.Is(err, services.ErrCourseNotFound):
			return response.NotFound(c, "Course not found")
		case errors.Is(err, services.ErrTutorNoAccess):
			return response.Forbidden(c, err.Error())
		case errors.Is(err, services.ErrTutorFailed):
			return response.BadGateway(c, "AI tutor is temporarily unavailable")
		default:
			return response.InternalServerError("Failed to reach the tutor", err)
		}
	}

	return response.Success(c, "Reply generated", reply)
}
