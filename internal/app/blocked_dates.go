package app

import (
	"context"
	"fmt"
	"time"
)

type BlockedDates struct {
	BlockedWeekDays []int `json:"blockedWeekDays"`
	BlockedDates    []int `json:"blockedDates"`
}

// GetBlockedDates reports the weekdays without any interval and the days of
// the month whose slots are all taken.
func (a *App) GetBlockedDates(ctx context.Context, username string, year int, month time.Month) (BlockedDates, error) {
	user, err := a.DB.UserByUsername(ctx, username)
	if err != nil {
		return BlockedDates{}, fmt.Errorf("lookup user: %w", err)
	}

	intervals, err := a.DB.ListTimeIntervals(ctx, user.ID)
	if err != nil {
		return BlockedDates{}, fmt.Errorf("list intervals: %w", err)
	}

	counts, err := a.DB.DailyBookingCounts(ctx, user.ID, year, month, a.Location)
	if err != nil {
		return BlockedDates{}, fmt.Errorf("count bookings: %w", err)
	}

	return BlockedDates{
		BlockedWeekDays: blockedWeekDays(intervals),
		BlockedDates:    fullyBookedDays(year, month, a.Location, counts, intervals),
	}, nil
}
