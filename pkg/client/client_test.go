package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func writeEnvelope(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": status >= 200 && status < 300,
		"data":    data,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	})
}

func TestDoSendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeEnvelope(w, 200, map[string]string{"id": "p1"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.SetToken("tok-123")
	if _, err := c.CreateProject(context.Background(), "Demo"); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestDoReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, 404, "project not found")
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.FetchBoard(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T", err)
	}
	if apiErr.Status != 404 || apiErr.Message != "project not found" {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestDoRejectsFailedEnvelopeWith200(t *testing.T) {
	// A success status with success:false is still an error.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, 200, "something went sideways")
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.FetchBoard(context.Background(), "p1"); err == nil {
		t.Fatal("expected error for success:false envelope")
	}
}

func TestLoginStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" {
			writeError(w, 404, "not found")
			return
		}
		writeEnvelope(w, 200, map[string]interface{}{
			"access_token": "issued-token",
			"user":         map[string]string{"id": "u1", "email": "a@b.c"},
			"expires_in":   900,
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	creds, err := c.Login(context.Background(), "a@b.c", "password1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if creds.AccessToken != "issued-token" || creds.User.ID != "u1" {
		t.Errorf("credentials = %+v", creds)
	}
	if c.token != "issued-token" {
		t.Errorf("client token = %q, want issued-token", c.token)
	}
}
