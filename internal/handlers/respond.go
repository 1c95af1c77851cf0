package handlers

import (
	"errors"
	"log"

	"momentum/internal/apperr"
	"momentum/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OK writes the success envelope with a payload.
func OK(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// Created writes the success envelope with a 201 status.
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// Message writes the success envelope with only a message.
func Message(c *fiber.Ctx, message string) error {
	return c.JSON(fiber.Map{
		"success": true,
		"message": message,
	})
}

// ErrorHandler is the central fiber error handler: typed application errors
// map to their status and envelope, everything else becomes an opaque 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrRateLimited) {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"success": false,
			"message": "Too many requests, slow down",
		})
	}

	if appErr := apperr.From(err); appErr != nil {
		if appErr.Kind == apperr.KindInternal {
			log.Printf("❌ Internal error on %s %s: %v", c.Method(), c.Path(), err)
		}
		body := fiber.Map{
			"success": false,
			"message": appErr.Message,
		}
		if len(appErr.Fields) > 0 {
			body["errors"] = appErr.Fields
		}
		return c.Status(appErr.StatusCode()).JSON(body)
	}

	// fiber's own errors (404 route misses, body limits, ...) keep their code.
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"success": false,
			"message": fiberErr.Message,
		})
	}

	log.Printf("❌ Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": "internal server error",
	})
}
