package app

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// Store is the persistence surface the handlers depend on. PgStore is the
// production implementation.
type Store interface {
	CreateUser(ctx context.Context, u *User) error
	UserByUsername(ctx context.Context, username string) (*User, error)
	UpdateBio(ctx context.Context, userID, bio string) error

	ReplaceTimeIntervals(ctx context.Context, userID string, intervals []TimeInterval) error
	ListTimeIntervals(ctx context.Context, userID string) ([]TimeInterval, error)
	TimeIntervalForWeekDay(ctx context.Context, userID string, weekDay int) (*TimeInterval, error)

	BookingExists(ctx context.Context, userID string, date time.Time) (bool, error)
	CreateBooking(ctx context.Context, b *Booking) error
	// ListBookingsBetween returns bookings with from <= date <= to.
	ListBookingsBetween(ctx context.Context, userID string, from, to time.Time) ([]Booking, error)
	// DailyBookingCounts groups a month's bookings by local day of month.
	DailyBookingCounts(ctx context.Context, userID string, year int, month time.Month, loc *time.Location) ([]DayCount, error)

	RecordSyncSuccess(ctx context.Context, bookingID, eventID string) error
	RecordSyncFailure(ctx context.Context, bookingID, reason string) error
	ListUnsyncedBookings(ctx context.Context, createdBefore time.Time, maxAttempts, limit int) ([]Booking, error)

	CalendarToken(ctx context.Context, userID string) (*oauth2.Token, error)
	SaveCalendarToken(ctx context.Context, userID string, tok *oauth2.Token) error

	Ping(ctx context.Context) error
}
