package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"momentum/internal/apperr"
	"momentum/internal/services"

	"github.com/gofiber/fiber/v2"
)

func newErrorTestApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
}

func doRequest(t *testing.T, app *fiber.App, method, path string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("failed to parse response %q: %v", raw, err)
	}
	return resp.StatusCode, body
}

func TestErrorHandlerMapsAppErrors(t *testing.T) {
	app := newErrorTestApp()
	app.Get("/validation", func(c *fiber.Ctx) error {
		return apperr.Validation("task name is required", apperr.FieldError{Field: "name", Message: "cannot be empty"})
	})
	app.Get("/unauthorized", func(c *fiber.Ctx) error {
		return apperr.Unauthorized("missing token")
	})
	app.Get("/forbidden", func(c *fiber.Ctx) error {
		return apperr.Forbidden("viewers cannot edit tasks")
	})
	app.Get("/notfound", func(c *fiber.Ctx) error {
		return apperr.NotFound("project")
	})
	app.Get("/internal", func(c *fiber.Ctx) error {
		return apperr.Internal(errors.New("mongo timeout"))
	})

	tests := []struct {
		path       string
		wantStatus int
		wantMsg    string
	}{
		{"/validation", 400, "task name is required"},
		{"/unauthorized", 401, "missing token"},
		{"/forbidden", 403, "viewers cannot edit tasks"},
		{"/notfound", 404, "project not found"},
		{"/internal", 500, "internal server error"},
	}
	for _, tc := range tests {
		status, body := doRequest(t, app, "GET", tc.path)
		if status != tc.wantStatus {
			t.Errorf("%s status = %d, want %d", tc.path, status, tc.wantStatus)
		}
		if body["success"] != false {
			t.Errorf("%s success = %v, want false", tc.path, body["success"])
		}
		if body["message"] != tc.wantMsg {
			t.Errorf("%s message = %q, want %q", tc.path, body["message"], tc.wantMsg)
		}
	}
}

func TestErrorHandlerIncludesFieldErrors(t *testing.T) {
	app := newErrorTestApp()
	app.Get("/v", func(c *fiber.Ctx) error {
		return apperr.Validation("invalid task", apperr.FieldError{Field: "priority", Message: "unknown value"})
	})

	_, body := doRequest(t, app, "GET", "/v")
	fields, ok := body["errors"].([]interface{})
	if !ok || len(fields) != 1 {
		t.Fatalf("errors = %v, want one field error", body["errors"])
	}
	field := fields[0].(map[string]interface{})
	if field["field"] != "priority" {
		t.Errorf("field = %v, want priority", field["field"])
	}
}

func TestErrorHandlerInternalHidesCause(t *testing.T) {
	app := newErrorTestApp()
	app.Get("/boom", func(c *fiber.Ctx) error {
		return apperr.Internal(errors.New("dial tcp 10.0.0.3:27017: connection refused"))
	})

	status, body := doRequest(t, app, "GET", "/boom")
	if status != 500 {
		t.Fatalf("status = %d, want 500", status)
	}
	if msg, _ := body["message"].(string); strings.Contains(msg, "27017") {
		t.Errorf("internal cause leaked to client: %q", msg)
	}
}

func TestErrorHandlerRateLimited(t *testing.T) {
	app := newErrorTestApp()
	app.Get("/chat", func(c *fiber.Ctx) error {
		return services.ErrRateLimited
	})

	status, body := doRequest(t, app, "GET", "/chat")
	if status != fiber.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", status)
	}
	if body["success"] != false {
		t.Errorf("success = %v, want false", body["success"])
	}
}

func TestErrorHandlerKeepsFiberCodes(t *testing.T) {
	app := newErrorTestApp()

	status, body := doRequest(t, app, "GET", "/no-such-route")
	if status != 404 {
		t.Errorf("status = %d, want 404", status)
	}
	if body["success"] != false {
		t.Errorf("success = %v, want false", body["success"])
	}
}

func TestSuccessEnvelopes(t *testing.T) {
	app := newErrorTestApp()
	app.Get("/ok", func(c *fiber.Ctx) error {
		return OK(c, fiber.Map{"id": "abc"})
	})
	app.Post("/created", func(c *fiber.Ctx) error {
		return Created(c, fiber.Map{"id": "abc"})
	})
	app.Delete("/gone", func(c *fiber.Ctx) error {
		return Message(c, "Task deleted")
	})

	status, body := doRequest(t, app, "GET", "/ok")
	if status != 200 || body["success"] != true {
		t.Errorf("OK: status=%d body=%v", status, body)
	}
	data := body["data"].(map[string]interface{})
	if data["id"] != "abc" {
		t.Errorf("OK data = %v", data)
	}

	status, body = doRequest(t, app, "POST", "/created")
	if status != 201 || body["success"] != true {
		t.Errorf("Created: status=%d body=%v", status, body)
	}

	status, body = doRequest(t, app, "DELETE", "/gone")
	if status != 200 || body["message"] != "Task deleted" {
		t.Errorf("Message: status=%d body=%v", status, body)
	}
}
