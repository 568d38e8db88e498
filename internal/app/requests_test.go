package app

import (
	"errors"
	"testing"
	"time"
)

func issues(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	return verr.Fields
}

func TestParseCalendarDate(t *testing.T) {
	want := time.Date(2026, 10, 19, 0, 0, 0, 0, brt)
	for _, raw := range []string{"2026-10-19", " 2026-10-19 ", "2026-10-19T15:00:00-03:00", "2026-10-19T12:00:00Z"} {
		got, err := parseCalendarDate(raw, brt)
		if err != nil {
			t.Fatalf("%q: %v", raw, err)
		}
		if !got.Equal(want) {
			t.Errorf("%q: got %s, want %s", raw, got, want)
		}
	}
	// 01:00 UTC is still the previous day in BRT
	got, _ := parseCalendarDate("2026-10-19T01:00:00Z", brt)
	if got.Day() != 18 {
		t.Errorf("got %s, want the 18th", got)
	}

	_, err := parseCalendarDate("19/10/2026", brt)
	if issues(t, err)["date"] == "" {
		t.Fatal("expected a date issue")
	}
}

func TestBlockedDatesQueryParse(t *testing.T) {
	year, month, err := blockedDatesQuery{Year: "2026", Month: "2"}.parse()
	if err != nil || year != 2026 || month != time.February {
		t.Fatalf("parse = %d %s %v", year, month, err)
	}

	_, _, err = blockedDatesQuery{Year: "twenty", Month: "13"}.parse()
	got := issues(t, err)
	if got["year"] != "Year must be a number" || got["month"] != "Month must be between 1 and 12" {
		t.Fatalf("issues = %v", got)
	}
}

func TestScheduleRequestValidate(t *testing.T) {
	notes := "hello"
	in, err := scheduleRequest{
		Name: "  Grace ", Email: "grace@example.com", Observations: &notes, Date: "2026-10-19T13:59:59Z",
	}.validate(testNow, brt)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if in.Name != "Grace" {
		t.Errorf("name = %q", in.Name)
	}
	if want := time.Date(2026, 10, 19, 10, 0, 0, 0, brt); !in.Date.Equal(want) || in.Date.Location() != brt {
		t.Errorf("date = %s, want %s", in.Date, want)
	}
	if in.Observations == nil || *in.Observations != notes {
		t.Errorf("observations = %v", in.Observations)
	}

	_, err = scheduleRequest{Name: "Grace", Email: "grace@example.com", Date: "2026-10-13T10:00:00-03:00"}.validate(testNow, brt)
	if msg := issues(t, err)["date"]; msg != "Cannot schedule a date in the past" {
		t.Fatalf("date issue = %q", msg)
	}
}

func TestRegisterRequestValidate(t *testing.T) {
	got, err := registerRequest{Username: "Ada-Lovelace", Name: " Ada Lovelace "}.validate()
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got.Username != "ada-lovelace" || got.Name != "Ada Lovelace" {
		t.Fatalf("got %+v", got)
	}

	for _, bad := range []string{"ada lovelace", "ada1", "ada_lovelace", "adá"} {
		if _, err := (registerRequest{Username: bad, Name: "Ada"}).validate(); err == nil {
			t.Errorf("%q accepted", bad)
		}
	}
}

func TestTimeIntervalsRequestValidate(t *testing.T) {
	iv := func(wd, start, end int) timeIntervalInput {
		return timeIntervalInput{WeekDay: &wd, StartTimeInMinutes: &start, EndTimeInMinutes: &end}
	}

	got, err := timeIntervalsRequest{Intervals: []timeIntervalInput{iv(1, 540, 720), iv(3, 600, 660)}}.validate()
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(got) != 2 || got[1].WeekDay != 3 || got[1].TimeEndInMinutes != 660 {
		t.Fatalf("got %+v", got)
	}

	_, err = timeIntervalsRequest{Intervals: []timeIntervalInput{iv(1, 540, 720), iv(1, 800, 900), iv(2, 600, 659)}}.validate()
	fields := issues(t, err)
	if fields["intervals[1].weekDay"] == "" || fields["intervals[2].endTimeInMinutes"] == "" {
		t.Fatalf("issues = %v", fields)
	}
}

func TestFieldPath(t *testing.T) {
	cases := map[string]string{
		"scheduleRequest.Email":                     "email",
		"timeIntervalsRequest.Intervals[2].WeekDay": "intervals[2].weekDay",
		"Date": "date",
	}
	for in, want := range cases {
		if got := fieldPath(in); got != want {
			t.Errorf("fieldPath(%q) = %q, want %q", in, got, want)
		}
	}
}
