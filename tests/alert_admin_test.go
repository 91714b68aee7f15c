package tests

import (
	"net/http"
	"os"
	"strings"
	"testing"
)

func userToken() string {
	return strings.TrimSpace(os.Getenv("BIDWATCH_USER_TOKEN"))
}

func TestRealQueueStats(t *testing.T) {
	t.Run("unauthorized_without_token", func(t *testing.T) {
		// Act
		status, body := doJSON(t, http.MethodGet, "/api/v1/alert/notifications/stats", nil, "")

		// Assert
		if status != http.StatusUnauthorized {
			t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, status)
		}
		env := decodeError(t, body)
		if env.Message == "" {
			t.Fatalf("expected error message, got empty")
		}
	})

	t.Run("success_with_token", func(t *testing.T) {
		// Arrange
		token := userToken()
		if token == "" {
			t.Skip("BIDWATCH_USER_TOKEN is not set")
		}

		// Act
		status, body := doJSON(t, http.MethodGet, "/api/v1/alert/notifications/stats", nil, token)

		// Assert
		if status != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, status, body)
		}
		var stats struct {
			Pending     int64   `json:"pending"`
			Processing  int64   `json:"processing"`
			Sent        int64   `json:"sent"`
			Failed      int64   `json:"failed"`
			Cancelled   int64   `json:"cancelled"`
			SuccessRate float64 `json:"success_rate"`
		}
		decodeSuccess(t, body, &stats)
		if stats.SuccessRate < 0 || stats.SuccessRate > 1 {
			t.Fatalf("success rate %f out of range [0,1]", stats.SuccessRate)
		}
	})
}

func TestRealRetryNotification(t *testing.T) {
	t.Run("unauthorized_without_token", func(t *testing.T) {
		// Act
		status, _ := doJSON(t, http.MethodPost, "/api/v1/alert/notifications/1/retry", nil, "")

		// Assert
		if status != http.StatusUnauthorized {
			t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, status)
		}
	})

	t.Run("not_found_for_unknown_job", func(t *testing.T) {
		// Arrange
		token := userToken()
		if token == "" {
			t.Skip("BIDWATCH_USER_TOKEN is not set")
		}

		// Act
		status, body := doJSON(t, http.MethodPost, "/api/v1/alert/notifications/999999999/retry", nil, token)

		// Assert
		if status != http.StatusNotFound {
			t.Fatalf("expected status %d, got %d: %s", http.StatusNotFound, status, body)
		}
	})
}

func TestRealCancelNotification(t *testing.T) {
	t.Run("not_found_for_unknown_job", func(t *testing.T) {
		// Arrange
		token := userToken()
		if token == "" {
			t.Skip("BIDWATCH_USER_TOKEN is not set")
		}

		// Act
		status, _ := doJSON(t, http.MethodPost, "/api/v1/alert/notifications/999999999/cancel", nil, token)

		// Assert
		if status != http.StatusNotFound {
			t.Fatalf("expected status %d, got %d", http.StatusNotFound, status)
		}
	})
}

func TestRealBulkNotificationActions(t *testing.T) {
	t.Run("retry_failed_rejects_negative_user", func(t *testing.T) {
		// Arrange
		token := userToken()
		if token == "" {
			t.Skip("BIDWATCH_USER_TOKEN is not set")
		}
		payload := map[string]any{"user_id": -1}

		// Act
		status, body := doJSON(t, http.MethodPost, "/api/v1/alert/notifications/retry-failed", payload, token)

		// Assert
		if status != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, status)
		}
		env := decodeError(t, body)
		if _, ok := env.Error["user_id"]; !ok {
			t.Fatalf("expected user_id field error, got %v", env.Error)
		}
	})

	t.Run("retry_failed_accepts_empty_scope", func(t *testing.T) {
		// Arrange
		token := userToken()
		if token == "" {
			t.Skip("BIDWATCH_USER_TOKEN is not set")
		}

		// Act
		status, body := doJSON(t, http.MethodPost, "/api/v1/alert/notifications/retry-failed", nil, token)

		// Assert
		if status != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, status, body)
		}
		var resp struct {
			Affected int64 `json:"affected"`
		}
		decodeSuccess(t, body, &resp)
		if resp.Affected < 0 {
			t.Fatalf("affected count must not be negative, got %d", resp.Affected)
		}
	})

	t.Run("cancel_pending_returns_count", func(t *testing.T) {
		// Arrange
		token := userToken()
		if token == "" {
			t.Skip("BIDWATCH_USER_TOKEN is not set")
		}
		payload := map[string]any{"user_id": 424242}

		// Act
		status, body := doJSON(t, http.MethodPost, "/api/v1/alert/notifications/cancel-pending", payload, token)

		// Assert
		if status != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, status, body)
		}
		var resp struct {
			Affected int64 `json:"affected"`
		}
		decodeSuccess(t, body, &resp)
		if resp.Affected < 0 {
			t.Fatalf("affected count must not be negative, got %d", resp.Affected)
		}
	})
}
