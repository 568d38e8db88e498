package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const calendarSyncTimeout = 15 * time.Second

// CreateBooking reserves in.Date on username's page and then mirrors the
// booking to the owner's calendar. The booking stays committed when the
// calendar step fails; its sync status records the outcome.
func (a *App) CreateBooking(ctx context.Context, username string, in scheduleInput) (*Booking, error) {
	user, err := a.DB.UserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := a.checkWithinTemplate(ctx, user.ID, in.Date); err != nil {
		return nil, err
	}

	taken, err := a.DB.BookingExists(ctx, user.ID, in.Date)
	if err != nil {
		return nil, fmt.Errorf("check slot: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("slot %s: %w", in.Date.Format(time.RFC3339), ErrConflict)
	}

	b := &Booking{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		Date:         in.Date,
		Name:         in.Name,
		Email:        in.Email,
		Observations: in.Observations,
		SyncStatus:   SyncPending,
	}
	// the unique (user_id, date) constraint turns a lost race into ErrConflict
	if err := a.DB.CreateBooking(ctx, b); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	a.Logger.Info("booking created",
		zap.String("booking_id", b.ID),
		zap.String("user_id", user.ID),
		zap.Time("date", b.Date))

	syncCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), calendarSyncTimeout)
	defer cancel()
	_ = a.SyncBooking(syncCtx, b)

	return b, nil
}

// checkWithinTemplate rejects a date whose hour is not one of the owner's
// slots for that weekday.
func (a *App) checkWithinTemplate(ctx context.Context, userID string, date time.Time) error {
	local := date.In(a.Location)
	interval, err := a.DB.TimeIntervalForWeekDay(ctx, userID, int(local.Weekday()))
	if errors.Is(err, ErrNotFound) {
		return &ValidationError{Fields: map[string]string{"date": msgSlotUnavailable}}
	}
	if err != nil {
		return fmt.Errorf("lookup interval: %w", err)
	}
	if !slices.Contains(possibleHours(*interval), local.Hour()) {
		return &ValidationError{Fields: map[string]string{"date": msgSlotUnavailable}}
	}
	return nil
}
