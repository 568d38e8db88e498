package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// SyncBooking pushes b to its owner's calendar and records the outcome on the
// booking. It is keyed by the booking id: a booking already marked succeeded
// is skipped, and the event id derived from the booking id makes a repeated
// insert land on the same event.
func (a *App) SyncBooking(ctx context.Context, b *Booking) error {
	if b.SyncStatus == SyncSucceeded {
		return nil
	}

	var (
		eventID string
		err     error
	)
	if a.Calendar == nil {
		err = ErrCalendarUnavailable
	} else {
		eventID, err = a.Calendar.InsertEvent(ctx, b.UserID, eventForBooking(b, a.Location))
	}

	if err != nil {
		a.Logger.Warn("calendar sync failed",
			zap.String("booking_id", b.ID),
			zap.String("user_id", b.UserID),
			zap.Int("attempt", b.SyncAttempts+1),
			zap.Error(err))
		if rerr := a.DB.RecordSyncFailure(context.WithoutCancel(ctx), b.ID, err.Error()); rerr != nil {
			a.Logger.Error("record calendar sync failure", zap.String("booking_id", b.ID), zap.Error(rerr))
		}
		b.SyncStatus = SyncFailed
		b.SyncAttempts++
		b.SyncError = err.Error()
		return fmt.Errorf("sync booking %s: %w", b.ID, err)
	}

	if err := a.DB.RecordSyncSuccess(context.WithoutCancel(ctx), b.ID, eventID); err != nil {
		return fmt.Errorf("record sync of booking %s: %w", b.ID, err)
	}
	b.SyncStatus = SyncSucceeded
	b.EventID = eventID
	b.SyncError = ""
	a.Logger.Info("booking synced to calendar",
		zap.String("booking_id", b.ID),
		zap.String("event_id", eventID))
	return nil
}

func eventForBooking(b *Booking, loc *time.Location) CalendarEvent {
	ev := CalendarEvent{
		ID:            calendarEventID(b.ID),
		RequestID:     b.ID,
		Summary:       "Booking with " + b.Name,
		Start:         b.Date.In(loc),
		End:           b.Date.In(loc).Add(time.Hour),
		AttendeeEmail: b.Email,
		AttendeeName:  b.Name,
	}
	if b.Observations != nil {
		ev.Description = *b.Observations
	}
	return ev
}

type SyncWorkerConfig struct {
	Interval    time.Duration
	MaxAttempts int
	BatchSize   int
}

// SyncWorker retries calendar syncs that were left pending or failed.
type SyncWorker struct {
	app         *App
	interval    time.Duration
	maxAttempts int
	batchSize   int
}

func NewSyncWorker(a *App, cfg SyncWorkerConfig) *SyncWorker {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &SyncWorker{
		app:         a,
		interval:    cfg.Interval,
		maxAttempts: cfg.MaxAttempts,
		batchSize:   cfg.BatchSize,
	}
}

func (w *SyncWorker) Run(ctx context.Context) {
	w.app.Logger.Info("calendar sync worker started", zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.app.Logger.Info("calendar sync worker stopped")
			return
		case <-ticker.C:
			if err := w.RunOnce(ctx); err != nil {
				w.app.Logger.Error("calendar sync batch failed", zap.Error(err))
			}
		}
	}
}

// RunOnce retries one batch. Bookings younger than one interval are left to
// the request that created them.
func (w *SyncWorker) RunOnce(ctx context.Context) error {
	cutoff := w.app.now().Add(-w.interval)
	bookings, err := w.app.DB.ListUnsyncedBookings(ctx, cutoff, w.maxAttempts, w.batchSize)
	if err != nil {
		return fmt.Errorf("list unsynced bookings: %w", err)
	}
	for i := range bookings {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		callCtx, cancel := context.WithTimeout(ctx, calendarSyncTimeout)
		// failures are recorded and logged by SyncBooking
		_ = w.app.SyncBooking(callCtx, &bookings[i])
		cancel()
	}
	return nil
}
