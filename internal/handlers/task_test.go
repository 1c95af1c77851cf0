package handlers

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPreviewDescription(t *testing.T) {
	app := newErrorTestApp()
	h := &TaskHandler{}
	app.Post("/api/tasks/preview", h.PreviewDescription)

	payload := `{"markdown":"# Plan\n\n- [ ] write ~~docs~~ tests"}`
	req := httptest.NewRequest("POST", "/api/tasks/preview", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	raw, _ := io.ReadAll(resp.Body)
	var body struct {
		Success bool `json:"success"`
		Data    struct {
			HTML string `json:"html"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !body.Success {
		t.Fatal("expected success envelope")
	}
	if !strings.Contains(body.Data.HTML, "<h1") {
		t.Errorf("heading not rendered: %q", body.Data.HTML)
	}
	if !strings.Contains(body.Data.HTML, "<del>") {
		t.Errorf("GFM strikethrough not rendered: %q", body.Data.HTML)
	}
}

func TestPreviewDescriptionRejectsBadBody(t *testing.T) {
	app := newErrorTestApp()
	h := &TaskHandler{}
	app.Post("/api/tasks/preview", h.PreviewDescription)

	req := httptest.NewRequest("POST", "/api/tasks/preview", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 400 {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
