package inbound

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/shandysiswandi/bidwatch/internal/pkg/config"
	"github.com/shandysiswandi/bidwatch/internal/pkg/router"
)

func RegisterHTTPEndpoint(r *router.Router, cfg config.Config, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Cron-style triggers: exempt from JWT, guarded by a static cron token.
	cron := middlewareCronToken(cfg)
	r.POST("/api/v1/alert/process-new-contracts", end.ProcessNewContracts, cron)
	r.POST("/api/v1/alert/deadline-reminders", end.SendDeadlineReminders, cron)
	r.POST("/api/v1/alert/notifications/process-pending", end.ProcessPending, cron)

	r.GET("/api/v1/alert/notifications/stats", end.QueueStats)
	r.POST("/api/v1/alert/notifications/:id/retry", end.RetryNotification)
	r.POST("/api/v1/alert/notifications/:id/cancel", end.CancelNotification)
	r.POST("/api/v1/alert/notifications/retry-failed", end.RetryAllFailed)
	r.POST("/api/v1/alert/notifications/cancel-pending", end.CancelAllPending)
}

func middlewareCronToken(cfg config.Config) router.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := cfg.GetString("modules.alert.cron_token")

			p := strings.Fields(r.Header.Get("Authorization"))
			if token == "" || len(p) != 2 || !strings.EqualFold(p[0], "Bearer") ||
				subtle.ConstantTimeCompare([]byte(p[1]), []byte(token)) != 1 {
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusUnauthorized)
				//nolint:errcheck // best effort response body
				w.Write([]byte(`{"message":"Authentication required"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
