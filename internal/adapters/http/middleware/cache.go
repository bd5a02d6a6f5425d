package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// CacheControl sets public cache headers on successful anonymous GET responses
func CacheControl(maxAge time.Duration) fiber.Handler {
	value := "public, max-age=" + strconv.Itoa(int(maxAge.Seconds()))

	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() == fiber.MethodGet && c.Response().StatusCode() == fiber.StatusOK {
			if _, authed := c.Locals("userID").(uint); authed {
				c.Set(fiber.HeaderCacheControl, "private, no-store")
			} else {
				c.Set(fiber.HeaderCacheControl, value)
			}
		}

		return err
	}
}

// CatalogCache caches the public course catalog briefly
func CatalogCache() fiber.Handler {
	return CacheControl(1 * time.Minute)
}

// NoStore marks responses that must never be cached (tokens, documents)
func NoStore() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.Next()
	}
}
