package alert

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/bidwatch/internal/alert/inbound"
	"github.com/shandysiswandi/bidwatch/internal/alert/outbound/chat"
	"github.com/shandysiswandi/bidwatch/internal/alert/outbound/db"
	"github.com/shandysiswandi/bidwatch/internal/alert/outbound/email"
	"github.com/shandysiswandi/bidwatch/internal/alert/usecase"
	"github.com/shandysiswandi/bidwatch/internal/pkg/clock"
	"github.com/shandysiswandi/bidwatch/internal/pkg/config"
	"github.com/shandysiswandi/bidwatch/internal/pkg/goroutine"
	"github.com/shandysiswandi/bidwatch/internal/pkg/idempotency"
	"github.com/shandysiswandi/bidwatch/internal/pkg/instrument"
	"github.com/shandysiswandi/bidwatch/internal/pkg/mail"
	"github.com/shandysiswandi/bidwatch/internal/pkg/messaging"
	"github.com/shandysiswandi/bidwatch/internal/pkg/router"
	"github.com/shandysiswandi/bidwatch/internal/pkg/uid"
	"github.com/shandysiswandi/bidwatch/internal/pkg/validator"
)

type Dependency struct {
	Ctx         context.Context
	DBConn      *pgxpool.Pool
	Messaging   messaging.Messaging
	Config      config.Config
	Instrument  instrument.Instrumentation
	UID         uid.NumberID
	UUID        uid.StringID
	Clock       clock.Clocker
	Goroutine   *goroutine.Manager
	Validator   validator.Validator
	Idempotency idempotency.Idempotency
	Router      *router.Router
	Mail        mail.Mail
}

func New(dep Dependency) error {
	dbAlert := db.NewDB(dep.DBConn, dep.Instrument)
	emailSender := email.New(dep.Mail, dep.UUID, dep.Clock, dep.Instrument)
	chatSender := chat.New(
		dep.Messaging,
		dep.Config.GetString("modules.alert.chat_gateway_destination"),
		dep.UUID,
		dep.Clock,
		dep.Instrument,
	)

	uc := usecase.NewAlert(usecase.Dependency{
		RepoDB:      dbAlert,
		Senders:     []usecase.ChannelSender{emailSender, chatSender},
		Config:      dep.Config,
		UID:         dep.UID,
		Clock:       dep.Clock,
		Validator:   dep.Validator,
		Idempotency: dep.Idempotency,
		Instrument:  dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, dep.Config, uc)
	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)
		registerStaleSweeper(dep.Ctx, dep.Config, dep.Goroutine, uc)
	}

	return nil
}

// registerStaleSweeper periodically reclaims jobs stuck in processing after
// a worker crash.
func registerStaleSweeper(ctx context.Context, cfg config.Config, routine *goroutine.Manager, uc *usecase.Usecase) {
	interval := cfg.GetMinute("modules.alert.sweep_interval_minutes")
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	routine.Go(ctx, func(pCtx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-pCtx.Done():
				return nil
			case <-ticker.C:
				count, err := uc.ReclaimStale(pCtx)
				if err != nil {
					slog.ErrorContext(pCtx, "failed to reclaim stale notification jobs", "error", err)
					continue
				}
				if count > 0 {
					slog.InfoContext(pCtx, "reclaimed stale notification jobs", "count", count)
				}
			}
		}
	})
}
