package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type availabilityQuery struct {
	Date string `form:"date" binding:"required"`
}

type blockedDatesQuery struct {
	Year  string `form:"year" binding:"required"`
	Month string `form:"month" binding:"required"`
}

type scheduleRequest struct {
	Name         string  `json:"name" binding:"required"`
	Email        string  `json:"email" binding:"required,email"`
	Observations *string `json:"observations"`
	Date         string  `json:"date" binding:"required"`
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3"`
	Name     string `json:"name" binding:"required,min=3"`
}

type profileRequest struct {
	Bio *string `json:"bio" binding:"required"`
}

type timeIntervalInput struct {
	WeekDay            *int `json:"weekDay" binding:"required,min=0,max=6"`
	StartTimeInMinutes *int `json:"startTimeInMinutes" binding:"required,min=0,max=1440"`
	EndTimeInMinutes   *int `json:"endTimeInMinutes" binding:"required,min=0,max=1440"`
}

type timeIntervalsRequest struct {
	Intervals []timeIntervalInput `json:"intervals" binding:"required,min=1,dive"`
}

// scheduleInput is a validated booking request.
type scheduleInput struct {
	Name         string
	Email        string
	Observations *string
	Date         time.Time
}

var usernamePattern = regexp.MustCompile(`(?i)^[a-z-]+$`)

// parseCalendarDate accepts YYYY-MM-DD (read in loc) or an RFC 3339 timestamp,
// and returns local midnight of that date.
func parseCalendarDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if d, err := time.ParseInLocation(time.DateOnly, raw, loc); err == nil {
		return d, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, &ValidationError{Fields: map[string]string{"date": "Invalid date"}}
	}
	return startOfDay(t, loc), nil
}

func (q blockedDatesQuery) parse() (int, time.Month, error) {
	fields := FieldErrors{}
	year, err := strconv.Atoi(strings.TrimSpace(q.Year))
	if err != nil {
		fields.Add("year", "Year must be a number")
	}
	month, err := strconv.Atoi(strings.TrimSpace(q.Month))
	switch {
	case err != nil:
		fields.Add("month", "Month must be a number")
	case month < 1 || month > 12:
		fields.Add("month", "Month must be between 1 and 12")
	}
	if err := fields.Err(); err != nil {
		return 0, 0, err
	}
	return year, time.Month(month), nil
}

func (r scheduleRequest) validate(now time.Time, loc *time.Location) (scheduleInput, error) {
	fields := FieldErrors{}
	name := strings.TrimSpace(r.Name)
	if name == "" {
		fields.Add("name", "is required")
	}
	var date time.Time
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(r.Date))
	if err != nil {
		fields.Add("date", "Invalid datetime")
	} else {
		date = truncateToHour(t, loc)
		if !date.After(now) {
			fields.Add("date", "Cannot schedule a date in the past")
		}
	}
	if err := fields.Err(); err != nil {
		return scheduleInput{}, err
	}
	return scheduleInput{
		Name:         name,
		Email:        strings.TrimSpace(r.Email),
		Observations: r.Observations,
		Date:         date,
	}, nil
}

func (r registerRequest) validate() (registerRequest, error) {
	fields := FieldErrors{}
	if !usernamePattern.MatchString(r.Username) {
		fields.Add("username", "Only letters and hyphens are allowed")
	}
	if err := fields.Err(); err != nil {
		return registerRequest{}, err
	}
	return registerRequest{
		Username: strings.ToLower(r.Username),
		Name:     strings.TrimSpace(r.Name),
	}, nil
}

func (r timeIntervalsRequest) validate() ([]TimeInterval, error) {
	fields := FieldErrors{}
	seen := map[int]bool{}
	out := make([]TimeInterval, 0, len(r.Intervals))
	for i, in := range r.Intervals {
		prefix := fmt.Sprintf("intervals[%d].", i)
		wd, start, end := *in.WeekDay, *in.StartTimeInMinutes, *in.EndTimeInMinutes
		if seen[wd] {
			fields.Add(prefix+"weekDay", "only one interval per week day")
		}
		seen[wd] = true
		if end-start < 60 {
			fields.Add(prefix+"endTimeInMinutes", "must be at least one hour after the start time")
		}
		out = append(out, TimeInterval{WeekDay: wd, TimeStartInMinutes: start, TimeEndInMinutes: end})
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// bindError turns a gin binding failure into a ValidationError with one message
// per field.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := FieldErrors{}
		for _, fe := range verrs {
			fields.Add(fieldPath(fe.Namespace()), fieldMessage(fe))
		}
		return fields.Err()
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr):
		return &ValidationError{Fields: map[string]string{typeErr.Field: "has the wrong type"}}
	case errors.As(err, &syntaxErr):
		return &ValidationError{Fields: map[string]string{"body": "malformed JSON"}}
	}
	return &ValidationError{Fields: map[string]string{"body": err.Error()}}
}

// fieldPath drops the root struct name and lower-cases the first letter of
// every segment so paths match the JSON and query names.
func fieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToLower(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, ".")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "Invalid email"
	case "min":
		if fe.Kind() == reflect.String {
			return "must have at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	}
	return "is invalid"
}
