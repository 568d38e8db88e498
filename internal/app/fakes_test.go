package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// brt is a fixed UTC-3 zone so tests do not depend on the tz database.
var brt = time.FixedZone("BRT", -3*60*60)

// testNow is Wednesday 2026-10-14 12:00 local.
var testNow = time.Date(2026, 10, 14, 12, 0, 0, 0, brt)

type fakeStore struct {
	mu        sync.Mutex
	users     map[string]*User
	intervals map[string][]TimeInterval
	bookings  []Booking
	tokens    map[string]*oauth2.Token
	// skipExistsCheck makes BookingExists always report false so the insert
	// path has to catch the duplicate, as a racing request would.
	skipExistsCheck bool
	// failSyncSuccess makes that many RecordSyncSuccess calls fail.
	failSyncSuccess int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     map[string]*User{},
		intervals: map[string][]TimeInterval{},
		tokens:    map[string]*oauth2.Token{},
	}
}

func (f *fakeStore) addUser(username string, intervals ...TimeInterval) *User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &User{ID: uuid.NewString(), Username: username, Name: "User " + username}
	f.users[u.ID] = u
	for i := range intervals {
		intervals[i].UserID = u.ID
	}
	f.intervals[u.ID] = intervals
	return u
}

func (f *fakeStore) addBooking(userID string, date time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookings = append(f.bookings, Booking{
		ID: uuid.NewString(), UserID: userID, Date: date,
		Name: "Visitor", Email: "visitor@example.com", SyncStatus: SyncSucceeded,
	})
}

func (f *fakeStore) bookingsFor(userID string) []Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Booking
	for _, b := range f.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func (f *fakeStore) CreateUser(_ context.Context, u *User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Username == u.Username {
			return ErrConflict
		}
	}
	u.CreatedAt = time.Now()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeStore) UserByUsername(_ context.Context, username string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) UpdateBio(_ context.Context, userID, bio string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.Bio = bio
	return nil
}

func (f *fakeStore) ReplaceTimeIntervals(_ context.Context, userID string, intervals []TimeInterval) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[userID]; !ok {
		return ErrNotFound
	}
	f.intervals[userID] = append([]TimeInterval(nil), intervals...)
	return nil
}

func (f *fakeStore) ListTimeIntervals(_ context.Context, userID string) ([]TimeInterval, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]TimeInterval(nil), f.intervals[userID]...), nil
}

func (f *fakeStore) TimeIntervalForWeekDay(_ context.Context, userID string, weekDay int) (*TimeInterval, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, iv := range f.intervals[userID] {
		if iv.WeekDay == weekDay {
			cp := iv
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) BookingExists(_ context.Context, userID string, date time.Time) (bool, error) {
	if f.skipExistsCheck {
		return false, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.UserID == userID && b.Date.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateBooking(_ context.Context, b *Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.bookings {
		if existing.UserID == b.UserID && existing.Date.Equal(b.Date) {
			return ErrConflict
		}
	}
	f.bookings = append(f.bookings, *b)
	return nil
}

func (f *fakeStore) ListBookingsBetween(_ context.Context, userID string, from, to time.Time) ([]Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Booking
	for _, b := range f.bookings {
		if b.UserID == userID && !b.Date.Before(from) && !b.Date.After(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) DailyBookingCounts(_ context.Context, userID string, year int, month time.Month, loc *time.Location) ([]DayCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	perDay := map[int]int{}
	for _, b := range f.bookings {
		local := b.Date.In(loc)
		if b.UserID == userID && local.Year() == year && local.Month() == month {
			perDay[local.Day()]++
		}
	}
	out := make([]DayCount, 0, len(perDay))
	for day, n := range perDay {
		out = append(out, DayCount{Day: day, Amount: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

func (f *fakeStore) booking(id string) (*Booking, error) {
	for i := range f.bookings {
		if f.bookings[i].ID == id {
			return &f.bookings[i], nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) RecordSyncSuccess(_ context.Context, bookingID, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSyncSuccess > 0 {
		f.failSyncSuccess--
		return errors.New("connection reset")
	}
	b, err := f.booking(bookingID)
	if err != nil {
		return err
	}
	b.SyncStatus = SyncSucceeded
	b.EventID = eventID
	b.SyncAttempts++
	b.SyncError = ""
	return nil
}

func (f *fakeStore) RecordSyncFailure(_ context.Context, bookingID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, err := f.booking(bookingID)
	if err != nil {
		return err
	}
	if b.SyncStatus == SyncSucceeded {
		return nil
	}
	b.SyncStatus = SyncFailed
	b.SyncAttempts++
	b.SyncError = reason
	return nil
}

func (f *fakeStore) ListUnsyncedBookings(_ context.Context, createdBefore time.Time, maxAttempts, limit int) ([]Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Booking
	for _, b := range f.bookings {
		if b.SyncStatus == SyncSucceeded || b.SyncAttempts >= maxAttempts || !b.CreatedAt.Before(createdBefore) {
			continue
		}
		out = append(out, b)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) CalendarToken(_ context.Context, userID string) (*oauth2.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tok, ok := f.tokens[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *tok
	return &cp, nil
}

func (f *fakeStore) SaveCalendarToken(_ context.Context, userID string, tok *oauth2.Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[userID]; !ok {
		return ErrNotFound
	}
	cp := *tok
	f.tokens[userID] = &cp
	return nil
}

// fakeCalendar keeps one event per id, the way the provider refuses a
// duplicate id and GoogleCalendar reports that as the existing event.
type fakeCalendar struct {
	mu      sync.Mutex
	events  []CalendarEvent
	inserts int
	err     error
}

func (c *fakeCalendar) InsertEvent(_ context.Context, _ string, ev CalendarEvent) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inserts++
	if c.err != nil {
		return "", c.err
	}
	for _, existing := range c.events {
		if existing.ID == ev.ID {
			return ev.ID, nil
		}
	}
	c.events = append(c.events, ev)
	return ev.ID, nil
}

func (c *fakeCalendar) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

var errUpstream = errors.New("calendar upstream unavailable")

func newTestApp(t *testing.T) (*App, *fakeStore, *fakeCalendar) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := newFakeStore()
	cal := &fakeCalendar{}
	a := &App{
		DB:       store,
		Calendar: cal,
		Logger:   zap.NewNop(),
		Sessions: NewSessionIssuer("test-secret", time.Hour),
		Location: brt,
		Now:      func() time.Time { return testNow },
	}
	return a, store, cal
}

// mondayMorning is 09:00-12:00 on Mondays.
func mondayMorning() TimeInterval {
	return TimeInterval{WeekDay: 1, TimeStartInMinutes: 540, TimeEndInMinutes: 720}
}
