package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"crowdvest/internal/models"
)

func performRequest(t *testing.T, app *fiber.App, method, target string) (*http.Response, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	resp.Body.Close()

	var parsed map[string]any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &parsed); err != nil {
			t.Fatalf("response is not JSON: %s", body)
		}
	}
	return resp, parsed
}

func TestRespondErrorStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", models.NewValidationError("bad input"), fiber.StatusBadRequest},
		{"authorization", models.NewAuthorizationError("no access"), fiber.StatusForbidden},
		{"not found", models.NewNotFoundError("Project"), fiber.StatusNotFound},
		{"invalid state", models.NewInvalidStateError("closed"), fiber.StatusConflict},
		{"internal stays opaque", errors.New("connection reset"), fiber.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/boom", func(c *fiber.Ctx) error {
				return respondError(c, "TEST", tc.err)
			})

			resp, body := performRequest(t, app, http.MethodGet, "/boom")
			if resp.StatusCode != tc.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.wantStatus)
			}
			if tc.wantStatus == fiber.StatusInternalServerError {
				if body["error"] != "Internal server error" {
					t.Errorf("internal error leaked detail: %v", body["error"])
				}
			}
		})
	}
}

func TestRespondErrorNamesRequiredPlan(t *testing.T) {
	app := fiber.New()
	app.Get("/gated", func(c *fiber.Ctx) error {
		return respondError(c, "TEST", models.NewPlanRequiredError("ROI filter unavailable", models.PlanBasic))
	})

	resp, body := performRequest(t, app, http.MethodGet, "/gated")
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
	if body["required_plan"] != models.PlanBasic {
		t.Errorf("required_plan = %v, want %q", body["required_plan"], models.PlanBasic)
	}
}

func TestHealthEndpoint(t *testing.T) {
	app := fiber.New()
	handler := NewHealthHandler(nil)
	app.Get("/health", handler.Health)
	app.Get("/ready", handler.Ready)

	resp, body := performRequest(t, app, http.MethodGet, "/health")
	if resp.StatusCode != fiber.StatusOK || body["status"] != "ok" {
		t.Errorf("health = %d %v", resp.StatusCode, body)
	}

	// Without a database handle, readiness still reports ready
	resp, body = performRequest(t, app, http.MethodGet, "/ready")
	if resp.StatusCode != fiber.StatusOK || body["status"] != "ready" {
		t.Errorf("ready = %d %v", resp.StatusCode, body)
	}
}
