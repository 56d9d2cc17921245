// Package lifecalendar converts between calendar dates and the age-relative
// week coordinates of the life grid.
//
// The numbering is calendar-year-relative, not ISO-8601: week 0 of every age
// year starts on Jan 1 of the corresponding calendar year, so week boundaries
// do not align across years. Dependent recurrence and display logic is written
// against this exact formula; do not substitute ISO week semantics.
package lifecalendar

import (
	"fmt"
	"time"

	"github.com/nholden/lifeweeks/internal/constants"
)

// MaxWeekIndex is the highest week index a date can map to. Days 364 and 365
// of a calendar year fall past the 52 full boxes and land in a short week 52.
const MaxWeekIndex = constants.WeeksPerYear

// Coordinate locates a day (or a whole week, when Day is nil) on the grid.
type Coordinate struct {
	AgeYear   int
	WeekIndex int
	Day       *int // 1-7, nil means unspecified day within the week
}

func (c Coordinate) String() string {
	if c.Day == nil {
		return fmt.Sprintf("(age %d, week %d)", c.AgeYear, c.WeekIndex)
	}
	return fmt.Sprintf("(age %d, week %d, day %d)", c.AgeYear, c.WeekIndex, *c.Day)
}

// InvalidCoordinateError reports a triple outside the documented ranges.
type InvalidCoordinateError struct {
	Coord  Coordinate
	Reason string
}

func (e *InvalidCoordinateError) Error() string {
	return fmt.Sprintf("invalid coordinate %s: %s", e.Coord, e.Reason)
}

// DateToCoordinates maps a calendar date onto the grid anchored at birth.
// Only the date components matter; time of day and timezone offsets are
// ignored. Dates before birth's calendar year or past age MaxAgeYears are
// rejected.
func DateToCoordinates(date, birth time.Time) (Coordinate, error) {
	ageYear := date.Year() - birth.Year()
	if ageYear < 0 {
		return Coordinate{}, &InvalidCoordinateError{
			Coord:  Coordinate{AgeYear: ageYear},
			Reason: "date precedes birth year",
		}
	}
	if ageYear > constants.MaxAgeYears {
		return Coordinate{}, &InvalidCoordinateError{
			Coord:  Coordinate{AgeYear: ageYear},
			Reason: fmt.Sprintf("age year exceeds grid bound %d", constants.MaxAgeYears),
		}
	}

	daysSinceJan1 := date.YearDay() - 1
	day := daysSinceJan1%constants.DaysPerWeek + 1
	return Coordinate{
		AgeYear:   ageYear,
		WeekIndex: daysSinceJan1 / constants.DaysPerWeek,
		Day:       &day,
	}, nil
}

// CoordinatesToDate maps a coordinate back to a calendar date at midnight UTC.
// A nil Day is rejected here; defaulting an unspecified day to 1 is a caller
// policy, not calculator behavior. Out-of-range triples fail with
// *InvalidCoordinateError rather than clamping. Week MaxWeekIndex is accepted
// only for the one or two trailing days that actually exist in the target
// calendar year.
func CoordinatesToDate(c Coordinate, birth time.Time) (time.Time, error) {
	if c.Day == nil {
		return time.Time{}, &InvalidCoordinateError{Coord: c, Reason: "day in week is unspecified"}
	}
	if c.AgeYear < 0 || c.AgeYear > constants.MaxAgeYears {
		return time.Time{}, &InvalidCoordinateError{
			Coord:  c,
			Reason: fmt.Sprintf("age year out of range 0-%d", constants.MaxAgeYears),
		}
	}
	if c.WeekIndex < 0 || c.WeekIndex > MaxWeekIndex {
		return time.Time{}, &InvalidCoordinateError{
			Coord:  c,
			Reason: fmt.Sprintf("week index out of range 0-%d", MaxWeekIndex),
		}
	}
	if *c.Day < 1 || *c.Day > constants.DaysPerWeek {
		return time.Time{}, &InvalidCoordinateError{Coord: c, Reason: "day in week out of range 1-7"}
	}

	year := birth.Year() + c.AgeYear
	totalDays := c.WeekIndex*constants.DaysPerWeek + (*c.Day - 1)
	date := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, totalDays)
	if date.Year() != year {
		return time.Time{}, &InvalidCoordinateError{
			Coord:  c,
			Reason: fmt.Sprintf("resolves past Dec 31 of year %d", year),
		}
	}
	return date, nil
}

// Normalize strips the time-of-day and timezone from an instant, returning the
// same calendar date at midnight UTC. Coordinate math operates on normalized
// dates so the mapping is timezone-stable.
func Normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
