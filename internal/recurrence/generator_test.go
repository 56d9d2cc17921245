package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/nholden/lifeweeks/internal/lifecalendar"
	"github.com/nholden/lifeweeks/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(n int) *int { return &n }

// fakeIndex satisfies DuplicateChecker with a set of (age, week, title) keys.
type fakeIndex struct {
	goals map[[2]int]map[string]bool
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{goals: make(map[[2]int]map[string]bool)}
}

func (f *fakeIndex) add(age, week int, title string) {
	key := [2]int{age, week}
	if f.goals[key] == nil {
		f.goals[key] = make(map[string]bool)
	}
	f.goals[key][title] = true
}

func (f *fakeIndex) HasGoalTitled(age, week int, title string) bool {
	return f.goals[[2]int{age, week}][title]
}

func template(birth time.Time, d time.Time, freq models.Frequency, end time.Time) models.Entry {
	coord, err := lifecalendar.DateToCoordinates(d, birth)
	if err != nil {
		panic(err)
	}
	return models.Entry{
		ID:               "template-1",
		Type:             models.EntryTypeMemory,
		AgeYear:          coord.AgeYear,
		WeekIndex:        coord.WeekIndex,
		Day:              coord.Day,
		Title:            "Wedding anniversary",
		Description:      "Dinner at the old place",
		Tags:             []string{"family"},
		IsRecurring:      true,
		Frequency:        freq,
		RecurringEndDate: &end,
	}
}

func resolveDates(t *testing.T, birth time.Time, instances []models.Entry) []time.Time {
	t.Helper()
	var out []time.Time
	for _, inst := range instances {
		d, err := lifecalendar.CoordinatesToDate(lifecalendar.Coordinate{
			AgeYear:   inst.AgeYear,
			WeekIndex: inst.WeekIndex,
			Day:       inst.Day,
		}, birth)
		if err != nil {
			t.Fatalf("instance coordinates unresolvable: %v", err)
		}
		out = append(out, d)
	}
	return out
}

func TestGenerate_YearlyExampleScenario(t *testing.T) {
	// Birth 2000-01-01, yearly template in March 2025, end date 2028-01-01,
	// "now" past the 2025 occurrence: exactly the 2026 and 2027 instances.
	birth := date(2000, time.January, 1)
	tmpl := template(birth, date(2025, time.March, 14), models.FrequencyYearly, date(2028, time.January, 1))
	now := date(2025, time.June, 1)

	plan, err := New().Generate(tmpl, birth, now, newFakeIndex())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	got := resolveDates(t, birth, plan.Instances)
	want := []time.Time{date(2026, time.March, 14), date(2027, time.March, 14)}
	if len(got) != len(want) {
		t.Fatalf("got %d instances (%v), want %d", len(got), got, len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("instance %d on %v, want %v", i, got[i], want[i])
		}
	}
}

func TestGenerate_YearlyAnchorStability(t *testing.T) {
	// Anchoring on (month, day) must not drift across leap years the way
	// repeated +365d arithmetic would.
	birth := date(1990, time.January, 1)
	tmpl := template(birth, date(2022, time.July, 10), models.FrequencyYearly, date(2027, time.December, 31))
	now := date(2022, time.August, 1)

	plan, err := New().Generate(tmpl, birth, now, newFakeIndex())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for i, d := range resolveDates(t, birth, plan.Instances) {
		if d.Month() != time.July || d.Day() != 10 {
			t.Errorf("instance %d drifted to %v, want July 10", i, d)
		}
	}
	if len(plan.Instances) != 5 {
		t.Errorf("got %d instances, want 5 (2023-2027)", len(plan.Instances))
	}
}

func TestGenerate_Feb29SkipsNonLeapYears(t *testing.T) {
	birth := date(2000, time.January, 1)
	tmpl := template(birth, date(2024, time.February, 29), models.FrequencyYearly, date(2029, time.December, 31))
	now := date(2024, time.March, 1)

	plan, err := New().Generate(tmpl, birth, now, newFakeIndex())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	got := resolveDates(t, birth, plan.Instances)
	// Across 2025-2029 only 2028 is a leap year; never a shift to Mar 1.
	if len(got) != 1 {
		t.Fatalf("got %d instances (%v), want only 2028-02-29", len(got), got)
	}
	if !got[0].Equal(date(2028, time.February, 29)) {
		t.Errorf("got %v, want 2028-02-29", got[0])
	}
}

func TestGenerate_Weekly(t *testing.T) {
	birth := date(2000, time.January, 1)
	tmpl := template(birth, date(2026, time.April, 1), models.FrequencyWeekly, date(2026, time.May, 1))
	now := date(2026, time.April, 2)

	plan, err := New().Generate(tmpl, birth, now, newFakeIndex())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	got := resolveDates(t, birth, plan.Instances)
	want := []time.Time{
		date(2026, time.April, 8),
		date(2026, time.April, 15),
		date(2026, time.April, 22),
		date(2026, time.April, 29),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d instances (%v), want %d", len(got), got, len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("instance %d on %v, want %v", i, got[i], want[i])
		}
	}
}

func TestGenerate_MonthlyClampsToShortMonths(t *testing.T) {
	birth := date(2000, time.January, 1)
	tmpl := template(birth, date(2026, time.January, 31), models.FrequencyMonthly, date(2026, time.April, 30))
	now := date(2026, time.February, 1)

	plan, err := New().Generate(tmpl, birth, now, newFakeIndex())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	got := resolveDates(t, birth, plan.Instances)
	// Jan 31 -> Feb 28, then each step advances from the clamped date.
	want := []time.Time{
		date(2026, time.February, 28),
		date(2026, time.March, 28),
		date(2026, time.April, 28),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d instances (%v), want %d", len(got), got, len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("instance %d on %v, want %v", i, got[i], want[i])
		}
	}
}

func TestGenerate_EndDateBeforeNow(t *testing.T) {
	birth := date(2000, time.January, 1)
	tmpl := template(birth, date(2020, time.May, 5), models.FrequencyYearly, date(2022, time.December, 31))
	now := date(2025, time.January, 1)

	plan, err := New().Generate(tmpl, birth, now, newFakeIndex())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(plan.Instances) != 0 {
		t.Errorf("got %d instances for an elapsed end date, want 0", len(plan.Instances))
	}
}

func TestGenerate_StopsAtGridBound(t *testing.T) {
	// End date far past age 90: iteration stops at the grid bound instead.
	birth := date(1940, time.January, 1)
	tmpl := template(birth, date(2025, time.June, 1), models.FrequencyYearly, date(2045, time.December, 31))
	now := date(2025, time.July, 1)

	plan, err := New().Generate(tmpl, birth, now, newFakeIndex())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, inst := range plan.Instances {
		if inst.AgeYear > 90 {
			t.Errorf("instance at age %d exceeds grid bound", inst.AgeYear)
		}
	}
	// 2026 through 2030 (age 90) inclusive.
	if len(plan.Instances) != 5 {
		t.Errorf("got %d instances, want 5", len(plan.Instances))
	}
}

func TestGenerate_IdempotentAgainstIndex(t *testing.T) {
	birth := date(2000, time.January, 1)
	tmpl := template(birth, date(2025, time.March, 14), models.FrequencyYearly, date(2028, time.January, 1))
	now := date(2025, time.June, 1)

	ix := newFakeIndex()
	first, err := New().Generate(tmpl, birth, now, ix)
	if err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	for _, inst := range first.Instances {
		ix.add(inst.AgeYear, inst.WeekIndex, inst.Title)
	}

	second, err := New().Generate(tmpl, birth, now, ix)
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	if len(second.Instances) != 0 {
		t.Errorf("second run created %d instances, want 0", len(second.Instances))
	}
	if second.Skipped != len(first.Instances) {
		t.Errorf("second run skipped %d, want %d", second.Skipped, len(first.Instances))
	}
}

func TestGenerate_InstanceFields(t *testing.T) {
	birth := date(2000, time.January, 1)
	tmpl := template(birth, date(2025, time.March, 14), models.FrequencyYearly, date(2027, time.January, 1))
	tmpl.LeadTime = 2
	tmpl.LeadTimeUnit = models.LeadTimeWeeks
	now := date(2025, time.June, 1)

	plan, err := New().Generate(tmpl, birth, now, newFakeIndex())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(plan.Instances) != 1 {
		t.Fatalf("got %d instances, want 1", len(plan.Instances))
	}
	inst := plan.Instances[0]

	if inst.ID == "" || inst.ID == tmpl.ID {
		t.Error("instance must get a fresh id")
	}
	if inst.Type != models.EntryTypeGoal {
		t.Errorf("instance type %q, want goal", inst.Type)
	}
	if inst.ParentMemoryID != tmpl.ID {
		t.Errorf("parent id %q, want %q", inst.ParentMemoryID, tmpl.ID)
	}
	if inst.IsRecurring {
		t.Error("generated instances must never be recurring")
	}
	if inst.Title != tmpl.Title || inst.Description != tmpl.Description {
		t.Error("display payload not copied")
	}
	if !inst.ReminderEnabled || inst.ReminderAt == nil {
		t.Fatal("expected a reminder derived from the lead time")
	}
	if want := date(2026, time.February, 28); !inst.ReminderAt.Equal(want) {
		t.Errorf("reminder at %v, want %v (14 days before 2026-03-14)", inst.ReminderAt, want)
	}
}

func TestGenerate_LeadTimeMonths(t *testing.T) {
	birth := date(2000, time.January, 1)
	tmpl := template(birth, date(2025, time.March, 31), models.FrequencyYearly, date(2027, time.January, 1))
	tmpl.LeadTime = 1
	tmpl.LeadTimeUnit = models.LeadTimeMonths
	now := date(2025, time.June, 1)

	plan, err := New().Generate(tmpl, birth, now, newFakeIndex())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(plan.Instances) != 1 {
		t.Fatalf("got %d instances, want 1", len(plan.Instances))
	}
	// One calendar month before Mar 31 clamps to Feb 28.
	if want := date(2026, time.February, 28); !plan.Instances[0].ReminderAt.Equal(want) {
		t.Errorf("reminder at %v, want %v", plan.Instances[0].ReminderAt, want)
	}
}

func TestGenerate_NonTemplateRejected(t *testing.T) {
	birth := date(2000, time.January, 1)
	goal := models.Entry{ID: "g", Type: models.EntryTypeGoal, Title: "x"}
	if _, err := New().Generate(goal, birth, date(2025, time.January, 1), newFakeIndex()); err == nil {
		t.Error("expected error for non-template entry")
	}
}

func TestGenerate_CorruptCoordinatesFailWhole(t *testing.T) {
	birth := date(2000, time.January, 1)
	end := date(2030, time.January, 1)
	tmpl := models.Entry{
		ID:               "corrupt",
		Type:             models.EntryTypeMemory,
		Title:            "x",
		AgeYear:          300,
		WeekIndex:        10,
		IsRecurring:      true,
		Frequency:        models.FrequencyYearly,
		RecurringEndDate: &end,
	}
	_, err := New().Generate(tmpl, birth, date(2025, time.January, 1), newFakeIndex())
	var unresolvable *TemplateUnresolvableError
	if !errors.As(err, &unresolvable) {
		t.Fatalf("expected TemplateUnresolvableError, got %v", err)
	}
}
