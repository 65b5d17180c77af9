// Package workers holds the background jobs of the attendance context.
package workers

import (
	"context"
	"log/slog"

	"crewdeck/contexts/workforce/attendance-service/domain/services"
	"crewdeck/contexts/workforce/attendance-service/ports"
)

// AutoCloseNote marks records closed by the worker rather than the user.
const AutoCloseNote = "auto_closed"

// AutoCloser closes records left open past the workday end, stamping
// the clock-out at the boundary. Scheduled after the workday ends.
type AutoCloser struct {
	Repository ports.Repository
	Clock      ports.Clock
	Workday    services.WorkdayWindow
	Logger     *slog.Logger
}

func (w AutoCloser) RunOnce(ctx context.Context) (int, error) {
	now := w.Clock.Now().UTC()
	window := w.Workday
	if !window.IsValid() {
		window = services.DefaultWorkday
	}

	open, err := w.Repository.ListOpenRecords(ctx, now)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, record := range open {
		boundary := window.EndOfDay(record.ClockIn)
		if boundary.After(now) {
			continue
		}
		if boundary.Before(record.ClockIn) {
			// Clocked in after the workday end; close with zero hours.
			boundary = record.ClockIn
		}
		if _, err := w.Repository.CloseRecord(ctx, record.RecordID, boundary, services.TotalHours(record.ClockIn, boundary), AutoCloseNote, now); err != nil {
			w.logger().Warn("auto close failed",
				"event", "attendance_auto_close_failed",
				"module", "workforce/attendance-service",
				"layer", "worker",
				"record_id", record.RecordID,
				"error", err,
			)
			continue
		}
		closed++
	}

	if closed > 0 {
		w.logger().Info("open attendance records closed",
			"event", "attendance_auto_close_completed",
			"module", "workforce/attendance-service",
			"layer", "worker",
			"closed", closed,
		)
	}
	return closed, nil
}

func (w AutoCloser) logger() *slog.Logger {
	if w.Logger == nil {
		return slog.Default()
	}
	return w.Logger
}
