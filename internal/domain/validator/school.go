package validator

import (
	"fmt"
	"time"

	"airscout/internal/domain/entity"
)

// PeakPeriod names the school zone schedule state at a given instant.
type PeakPeriod string

const (
	PeriodMorningDropoff  PeakPeriod = "morning_dropoff"
	PeriodAfternoonPickup PeakPeriod = "afternoon_pickup"
	PeriodOffPeak         PeakPeriod = "off_peak"
	PeriodWeekend         PeakPeriod = "weekend"
)

// SchoolPeakSeverity is hard-coded to the scale maximum during peak windows:
// idling diesel buses dominate any congestion signal.
const SchoolPeakSeverity = 5

// Peak windows in local wall-clock time, start inclusive, end exclusive.
const (
	morningStartHour   = 7
	morningEndHour     = 9
	afternoonStartHour = 14
	afternoonEndHour   = 16
)

// PeakState reports whether t falls inside a school peak window and which
// period it is. The instant must already be in the region's local timezone;
// boundaries are half-open, so 09:00:00 sharp is off-peak.
func PeakState(t time.Time) (bool, PeakPeriod) {
	if !schoolWeekday(t.Weekday()) {
		return false, PeriodWeekend
	}

	minutes := t.Hour()*60 + t.Minute()
	switch {
	case minutes >= morningStartHour*60 && minutes < morningEndHour*60:
		return true, PeriodMorningDropoff
	case minutes >= afternoonStartHour*60 && minutes < afternoonEndHour*60:
		return true, PeriodAfternoonPickup
	}

	return false, PeriodOffPeak
}

// NextPeakStart returns the start of the next peak window strictly after the
// current position of t, in t's location.
func NextPeakStart(t time.Time) time.Time {
	if schoolWeekday(t.Weekday()) {
		minutes := t.Hour()*60 + t.Minute()
		if minutes < morningStartHour*60 {
			return dayAt(t, morningStartHour)
		}
		if minutes < afternoonStartHour*60 {
			return dayAt(t, afternoonStartHour)
		}
	}

	next := t.AddDate(0, 0, 1)
	for !schoolWeekday(next.Weekday()) {
		next = next.AddDate(0, 0, 1)
	}

	return dayAt(next, morningStartHour)
}

// BuildSchoolHazard materializes the peak-window hazard for one school.
// Only called while a peak window is active.
func BuildSchoolHazard(school entity.School, period PeakPeriod, expiry time.Duration, now time.Time) entity.Hazard {
	return entity.Hazard{
		Source:      entity.NewSourceID(entity.HazardTypeSchool, school.SchoolID),
		Severity:    SchoolPeakSeverity,
		Location:    school.Location,
		Description: fmt.Sprintf("School Zone - %s (%s)", school.Name, period),
		Metadata: map[string]any{
			"school_id":     school.SchoolID,
			"school_name":   school.Name,
			"school_type":   school.SchoolType,
			"period":        string(period),
			"zone_radius_m": school.ZoneRadiusMeters,
		},
		ExpiresAt: now.Add(expiry),
	}
}

func schoolWeekday(d time.Weekday) bool {
	return d >= time.Monday && d <= time.Friday
}

func dayAt(t time.Time, hour int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, t.Location())
}
