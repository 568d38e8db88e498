package app

import "time"

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio,omitempty"`
	Email     string    `json:"email,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TimeInterval is one entry of a user's weekly availability template.
// Minutes are counted from local midnight.
type TimeInterval struct {
	ID                 int       `json:"id"`
	UserID             string    `json:"user_id"`
	WeekDay            int       `json:"week_day"`
	TimeStartInMinutes int       `json:"time_start_in_minutes"`
	TimeEndInMinutes   int       `json:"time_end_in_minutes"`
	CreatedAt          time.Time `json:"created_at,omitempty"`
}

type SyncStatus string

const (
	SyncPending   SyncStatus = "pending"
	SyncSucceeded SyncStatus = "succeeded"
	SyncFailed    SyncStatus = "failed"
)

// Booking is a reserved hour on a user's page. Date is always the top of an hour.
type Booking struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Date         time.Time  `json:"date"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Observations *string    `json:"observations,omitempty"`
	SyncStatus   SyncStatus `json:"calendar_sync_status"`
	EventID      string     `json:"calendar_event_id,omitempty"`
	SyncAttempts int        `json:"calendar_sync_attempts"`
	SyncError    string     `json:"calendar_sync_error,omitempty"`
	CreatedAt    time.Time  `json:"created_at,omitempty"`
}

// DayCount is the number of bookings that fall on one local day of a month.
type DayCount struct {
	Day    int
	Amount int
}
