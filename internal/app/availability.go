package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Availability is the response of the availability query. PossibleTimes is
// nil for past dates and is then left out of the JSON, which tells a past
// date apart from a weekday without a template.
type Availability struct {
	Availability  []int `json:"availability"`
	PossibleTimes []int `json:"possibleTimes"`
}

func (av Availability) MarshalJSON() ([]byte, error) {
	if av.PossibleTimes == nil {
		return json.Marshal(struct {
			Availability []int `json:"availability"`
		}{av.Availability})
	}
	type plain Availability
	return json.Marshal(plain(av))
}

// GetAvailability returns the hour slots of day for username and the subset
// that can still be booked. day is local midnight in a.Location.
func (a *App) GetAvailability(ctx context.Context, username string, day time.Time) (Availability, error) {
	empty := Availability{Availability: []int{}, PossibleTimes: []int{}}
	now := a.now()

	// past dates never offer anything, whatever the template says
	if endOfDay(day).Before(now) {
		return Availability{Availability: []int{}}, nil
	}

	user, err := a.DB.UserByUsername(ctx, username)
	if err != nil {
		return empty, fmt.Errorf("lookup user: %w", err)
	}

	interval, err := a.DB.TimeIntervalForWeekDay(ctx, user.ID, int(day.Weekday()))
	if errors.Is(err, ErrNotFound) {
		return empty, nil
	}
	if err != nil {
		return empty, fmt.Errorf("lookup interval: %w", err)
	}

	possible := possibleHours(*interval)
	if len(possible) == 0 {
		return empty, nil
	}

	startHour := interval.TimeStartInMinutes / 60
	endHour := interval.TimeEndInMinutes / 60
	bookings, err := a.DB.ListBookingsBetween(ctx, user.ID, atHour(day, startHour), atHour(day, endHour))
	if err != nil {
		return empty, fmt.Errorf("list bookings: %w", err)
	}
	booked := make([]time.Time, 0, len(bookings))
	for _, b := range bookings {
		booked = append(booked, b.Date)
	}

	return Availability{
		Availability:  availableHours(day, possible, booked, now),
		PossibleTimes: possible,
	}, nil
}
