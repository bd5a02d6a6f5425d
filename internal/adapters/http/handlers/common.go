package handlers

import (
	"strconv"

	"coursemart/internal/core/domain"
	"coursemart/internal/pkg/response"
	"coursemart/internal/pkg/validate"

	"github.com/gofiber/fiber/v2"
)

// currentActor returns the authenticated caller set by the auth middleware
func currentActor(c *fiber.Ctx) (domain.Actor, bool) {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return domain.Actor{}, false
	}
	role, _ := c.Locals("role").(string)
	return domain.Actor{UserID: userID, Role: domain.Role(role)}, true
}

// optionalActor is currentActor for routes behind OptionalAuth
func optionalActor(c *fiber.Ctx) *domain.Actor {
	actor, ok := currentActor(c)
	if !ok {
		return nil
	}
	return &actor
}

// bind parses the JSON body into dst and validates it. It writes the error
// response itself and reports false when the handler should stop.
func bind(c *fiber.Ctx, dst interface{}) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, response.BadRequest(c, "Invalid request body")
	}
	if fields := validate.Struct(dst); fields != nil {
		return false, response.ValidationError(c, fields)
	}
	return true, nil
}

// uintParam parses a positive numeric route parameter
func uintParam(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// sendPDF writes a PDF document as an attachment
func sendPDF(c *fiber.Ctx, filename string, data []byte) error {
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(data)
}
