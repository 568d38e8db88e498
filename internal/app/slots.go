package app

import (
	"sort"
	"time"
)

// possibleHours expands a weekly interval into its hour slots. The end hour is
// exclusive, so an interval ending at 12:30 offers 11 as its last slot.
func possibleHours(iv TimeInterval) []int {
	startHour := iv.TimeStartInMinutes / 60
	endHour := iv.TimeEndInMinutes / 60
	hours := []int{}
	for h := startHour; h < endHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

// availableHours drops every candidate hour that is already booked or already
// started relative to now. day must be local midnight of the requested date.
func availableHours(day time.Time, candidates []int, booked []time.Time, now time.Time) []int {
	taken := make(map[int]struct{}, len(booked))
	for _, b := range booked {
		taken[b.In(day.Location()).Hour()] = struct{}{}
	}
	out := []int{}
	for _, h := range candidates {
		if _, ok := taken[h]; ok {
			continue
		}
		if atHour(day, h).Before(now) {
			continue
		}
		out = append(out, h)
	}
	return out
}

// slotCapacity is the number of whole hours an interval spans.
func slotCapacity(iv TimeInterval) int {
	return (iv.TimeEndInMinutes - iv.TimeStartInMinutes) / 60
}

func blockedWeekDays(intervals []TimeInterval) []int {
	configured := make(map[int]bool, len(intervals))
	for _, iv := range intervals {
		configured[iv.WeekDay] = true
	}
	out := []int{}
	for wd := 0; wd <= 6; wd++ {
		if !configured[wd] {
			out = append(out, wd)
		}
	}
	return out
}

// fullyBookedDays reports the days of the month whose booking count reaches the
// capacity of the interval for that weekday. Days whose weekday has no interval
// are never reported.
func fullyBookedDays(year int, month time.Month, loc *time.Location, counts []DayCount, intervals []TimeInterval) []int {
	byWeekDay := make(map[int]TimeInterval, len(intervals))
	for _, iv := range intervals {
		if _, ok := byWeekDay[iv.WeekDay]; !ok {
			byWeekDay[iv.WeekDay] = iv
		}
	}
	out := []int{}
	for _, dc := range counts {
		wd := int(time.Date(year, month, dc.Day, 0, 0, 0, 0, loc).Weekday())
		iv, ok := byWeekDay[wd]
		if !ok {
			continue
		}
		if dc.Amount >= slotCapacity(iv) {
			out = append(out, dc.Day)
		}
	}
	sort.Ints(out)
	return out
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func endOfDay(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), day.Location())
}

func atHour(day time.Time, hour int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, hour, 0, 0, 0, day.Location())
}

// truncateToHour cuts minutes and below in loc, which also handles zones with
// non-whole-hour offsets.
func truncateToHour(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), 0, 0, 0, loc)
}
