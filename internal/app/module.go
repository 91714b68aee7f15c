package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/bidwatch/internal/alert"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.alert.enabled") {
		if err := alert.New(alert.Dependency{
			Ctx:         a.ctx,
			DBConn:      a.dbConn,
			Messaging:   a.messaging,
			Config:      a.config,
			Instrument:  a.ins,
			UID:         a.uid,
			UUID:        a.uuid,
			Clock:       a.clock,
			Goroutine:   a.goroutine,
			Validator:   a.validator,
			Idempotency: a.idemp,
			Router:      a.router,
			Mail:        a.mail,
		}); err != nil {
			slog.Error("failed to init module alert", "error", err)
			os.Exit(1)
		}
	}
}
