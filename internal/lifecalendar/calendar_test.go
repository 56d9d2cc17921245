package lifecalendar

import (
	"errors"
	"testing"
	"time"

	"github.com/nholden/lifeweeks/internal/constants"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(n int) *int { return &n }

func TestDateToCoordinates_KnownDates(t *testing.T) {
	birth := date(2000, time.January, 1)

	tests := []struct {
		name     string
		d        time.Time
		ageYear  int
		week     int
		day      int
	}{
		{"birth day itself", date(2000, time.January, 1), 0, 0, 1},
		{"jan 7 closes week 0", date(2000, time.January, 7), 0, 0, 7},
		{"jan 8 opens week 1", date(2000, time.January, 8), 0, 1, 1},
		{"day 71 of 2025", date(2025, time.March, 12), 25, 10, 1},
		{"mid-year", date(2030, time.July, 1), 30, 25, 7},
		{"dec 31 non-leap spills into week 52", date(2001, time.December, 31), 1, 52, 1},
		{"dec 31 leap year", date(2000, time.December, 31), 0, 52, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := DateToCoordinates(tt.d, birth)
			if err != nil {
				t.Fatalf("DateToCoordinates(%v): %v", tt.d, err)
			}
			if c.AgeYear != tt.ageYear || c.WeekIndex != tt.week {
				t.Errorf("got (age %d, week %d), want (age %d, week %d)", c.AgeYear, c.WeekIndex, tt.ageYear, tt.week)
			}
			if c.Day == nil || *c.Day != tt.day {
				t.Errorf("got day %v, want %d", c.Day, tt.day)
			}
		})
	}
}

func TestDateToCoordinates_BeforeBirthYear(t *testing.T) {
	birth := date(2000, time.June, 15)
	_, err := DateToCoordinates(date(1999, time.December, 31), birth)
	var invalid *InvalidCoordinateError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidCoordinateError, got %v", err)
	}
}

func TestDateToCoordinates_PastGridBound(t *testing.T) {
	birth := date(1900, time.January, 1)
	_, err := DateToCoordinates(date(1995, time.January, 1), birth)
	var invalid *InvalidCoordinateError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidCoordinateError for age 95, got %v", err)
	}
}

func TestCoordinatesToDate_ExampleScenario(t *testing.T) {
	// Birth 2000-01-01, (age 25, week 10, day 3) is day 73 of 2025.
	birth := date(2000, time.January, 1)
	got, err := CoordinatesToDate(Coordinate{AgeYear: 25, WeekIndex: 10, Day: intPtr(3)}, birth)
	if err != nil {
		t.Fatalf("CoordinatesToDate: %v", err)
	}
	want := date(2025, time.March, 14)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCoordinatesToDate_InvalidTriples(t *testing.T) {
	birth := date(2000, time.January, 1)

	tests := []struct {
		name  string
		coord Coordinate
	}{
		{"negative age", Coordinate{AgeYear: -1, WeekIndex: 0, Day: intPtr(1)}},
		{"age past bound", Coordinate{AgeYear: constants.MaxAgeYears + 1, WeekIndex: 0, Day: intPtr(1)}},
		{"week too large", Coordinate{AgeYear: 10, WeekIndex: 53, Day: intPtr(1)}},
		{"negative week", Coordinate{AgeYear: 10, WeekIndex: -1, Day: intPtr(1)}},
		{"day zero", Coordinate{AgeYear: 10, WeekIndex: 5, Day: intPtr(0)}},
		{"day eight", Coordinate{AgeYear: 10, WeekIndex: 5, Day: intPtr(8)}},
		{"nil day", Coordinate{AgeYear: 10, WeekIndex: 5}},
		{"week 52 past year end", Coordinate{AgeYear: 1, WeekIndex: 52, Day: intPtr(3)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CoordinatesToDate(tt.coord, birth)
			var invalid *InvalidCoordinateError
			if !errors.As(err, &invalid) {
				t.Errorf("expected InvalidCoordinateError, got %v", err)
			}
		})
	}
}

func TestCoordinatesToDate_Week52Stub(t *testing.T) {
	// 2001 is not a leap year: only day 1 of week 52 (Dec 31) exists.
	birth := date(2000, time.January, 1)
	got, err := CoordinatesToDate(Coordinate{AgeYear: 1, WeekIndex: 52, Day: intPtr(1)}, birth)
	if err != nil {
		t.Fatalf("CoordinatesToDate week 52 day 1: %v", err)
	}
	if !got.Equal(date(2001, time.December, 31)) {
		t.Errorf("got %v, want 2001-12-31", got)
	}
}

func TestRoundTrip_FullGrid(t *testing.T) {
	birth := date(1990, time.March, 7)

	for age := 0; age < 90; age++ {
		for week := 0; week < constants.WeeksPerYear; week++ {
			for day := 1; day <= constants.DaysPerWeek; day++ {
				c := Coordinate{AgeYear: age, WeekIndex: week, Day: intPtr(day)}
				d, err := CoordinatesToDate(c, birth)
				if err != nil {
					t.Fatalf("CoordinatesToDate(%s): %v", c, err)
				}
				back, err := DateToCoordinates(d, birth)
				if err != nil {
					t.Fatalf("DateToCoordinates(%v): %v", d, err)
				}
				if back.AgeYear != age || back.WeekIndex != week || *back.Day != day {
					t.Fatalf("round trip %s -> %v -> %s", c, d, back)
				}
			}
		}
	}
}

func TestRoundTrip_EveryDateOfYear(t *testing.T) {
	// The inverse direction: every real date survives date -> coordinate -> date,
	// including the week-52 stub at year end.
	birth := date(2000, time.January, 1)
	d := date(2024, time.January, 1)
	for d.Year() == 2024 {
		c, err := DateToCoordinates(d, birth)
		if err != nil {
			t.Fatalf("DateToCoordinates(%v): %v", d, err)
		}
		back, err := CoordinatesToDate(c, birth)
		if err != nil {
			t.Fatalf("CoordinatesToDate(%s): %v", c, err)
		}
		if !back.Equal(d) {
			t.Fatalf("round trip %v -> %s -> %v", d, c, back)
		}
		d = d.AddDate(0, 0, 1)
	}
}

func TestMonotonicity_WithinYear(t *testing.T) {
	birth := date(2000, time.January, 1)
	prevWeek, prevDay := -1, 0
	d := date(2027, time.January, 1)
	for d.Year() == 2027 {
		c, err := DateToCoordinates(d, birth)
		if err != nil {
			t.Fatalf("DateToCoordinates(%v): %v", d, err)
		}
		if c.WeekIndex < prevWeek || (c.WeekIndex == prevWeek && *c.Day <= prevDay) {
			t.Fatalf("coordinates went backwards at %v: (%d,%d) after (%d,%d)",
				d, c.WeekIndex, *c.Day, prevWeek, prevDay)
		}
		prevWeek, prevDay = c.WeekIndex, *c.Day
		d = d.AddDate(0, 0, 1)
	}
}

func TestNormalize(t *testing.T) {
	loc := time.FixedZone("UTC+13", 13*3600)
	instant := time.Date(2025, time.June, 3, 23, 45, 12, 0, loc)
	got := Normalize(instant)
	if !got.Equal(date(2025, time.June, 3)) {
		t.Errorf("Normalize(%v) = %v, want 2025-06-03 UTC", instant, got)
	}
}
