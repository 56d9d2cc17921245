// Package recurrence materializes future goal instances from a recurring
// template memory.
package recurrence

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nholden/lifeweeks/internal/constants"
	"github.com/nholden/lifeweeks/internal/lifecalendar"
	"github.com/nholden/lifeweeks/internal/models"
)

// DuplicateChecker answers whether a week box already holds a goal with the
// given title. The store façade passes the entry index; generation through the
// same checker is idempotent.
type DuplicateChecker interface {
	HasGoalTitled(ageYear, weekIndex int, title string) bool
}

// Plan is the outcome of a generation pass. The generator performs no I/O;
// committing the instances (persist, then index) is the façade's job, so a
// partial commit leaves the index consistent with what was actually written.
type Plan struct {
	TemplateID string
	Instances  []models.Entry
	Skipped    int // duplicates detected and not materialized
}

// TemplateUnresolvableError means the template's coordinates do not resolve to
// a calendar date, so no instances can be derived from it.
type TemplateUnresolvableError struct {
	TemplateID string
	Cause      error
}

func (e *TemplateUnresolvableError) Error() string {
	return fmt.Sprintf("template %s date unresolvable: %v", e.TemplateID, e.Cause)
}

func (e *TemplateUnresolvableError) Unwrap() error { return e.Cause }

type Generator struct{}

func New() *Generator {
	return &Generator{}
}

// Generate produces the future goal instances for a recurring template memory,
// up to its end date and the grid bound. Candidates at or before now are
// skipped but iteration keeps advancing past them. Duplicates (same week box,
// same title, goal kind) are counted, not re-created.
func (g *Generator) Generate(template models.Entry, birth, now time.Time, dup DuplicateChecker) (Plan, error) {
	plan := Plan{TemplateID: template.ID}

	if !template.IsTemplate() {
		return plan, fmt.Errorf("entry %s is not a recurring template memory", template.ID)
	}
	if template.RecurringEndDate == nil {
		return plan, fmt.Errorf("template %s has no recurring end date", template.ID)
	}

	// Defaulting an unspecified day to 1 is this caller's policy.
	day := 1
	if template.Day != nil {
		day = *template.Day
	}
	start, err := lifecalendar.CoordinatesToDate(lifecalendar.Coordinate{
		AgeYear:   template.AgeYear,
		WeekIndex: template.WeekIndex,
		Day:       &day,
	}, birth)
	if err != nil {
		return plan, &TemplateUnresolvableError{TemplateID: template.ID, Cause: err}
	}

	end := lifecalendar.Normalize(*template.RecurringEndDate)
	today := lifecalendar.Normalize(now)
	anchorMonth, anchorDay := start.Month(), start.Day()

	current := start
	for {
		var candidate time.Time
		switch template.Frequency {
		case models.FrequencyYearly:
			// Advance by year and reapply the exact anchor, never by adding
			// 365/366 days. A Feb 29 anchor skips non-leap target years.
			year := current.Year() + 1
			current = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
			if anchorMonth == time.February && anchorDay == 29 && !isLeapYear(year) {
				if current.After(end) || year-birth.Year() > constants.MaxAgeYears {
					return plan, nil
				}
				continue
			}
			candidate = time.Date(year, anchorMonth, anchorDay, 0, 0, 0, 0, time.UTC)
		case models.FrequencyWeekly:
			candidate = current.AddDate(0, 0, 7)
			current = candidate
		case models.FrequencyMonthly:
			candidate = addMonths(current, 1)
			current = candidate
		default:
			return plan, fmt.Errorf("template %s has invalid frequency %q", template.ID, template.Frequency)
		}

		if candidate.After(end) || candidate.Year()-birth.Year() > constants.MaxAgeYears {
			return plan, nil
		}
		if template.Frequency == models.FrequencyYearly {
			current = candidate
		}

		// Only future instances are materialized.
		if !candidate.After(today) {
			continue
		}

		coord, err := lifecalendar.DateToCoordinates(candidate, birth)
		if err != nil {
			return plan, &TemplateUnresolvableError{TemplateID: template.ID, Cause: err}
		}

		if dup != nil && dup.HasGoalTitled(coord.AgeYear, coord.WeekIndex, template.Title) {
			plan.Skipped++
			continue
		}

		plan.Instances = append(plan.Instances, g.instance(template, coord, candidate, now))
	}
}

func (g *Generator) instance(template models.Entry, coord lifecalendar.Coordinate, date, now time.Time) models.Entry {
	inst := models.Entry{
		ID:          uuid.New().String(),
		UserID:      template.UserID,
		Type:        models.EntryTypeGoal,
		AgeYear:     coord.AgeYear,
		WeekIndex:   coord.WeekIndex,
		Day:         coord.Day,
		Title:       template.Title,
		Description: template.Description,
		MediaRefs:   append([]string(nil), template.MediaRefs...),
		Tags:        append([]string(nil), template.Tags...),
		Location:    template.Location,
		// Generated instances are never themselves recurring.
		IsRecurring:    false,
		ParentMemoryID: template.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if template.LeadTime > 0 {
		at := subtractLead(date, template.LeadTime, template.LeadTimeUnit)
		inst.ReminderAt = &at
		inst.ReminderEnabled = true
	}
	return inst
}

// subtractLead computes the reminder date: days subtract days, weeks subtract
// 7×n days, months subtract n calendar months (end-of-month clamped).
func subtractLead(date time.Time, n int, unit models.LeadTimeUnit) time.Time {
	switch unit {
	case models.LeadTimeWeeks:
		return date.AddDate(0, 0, -7*n)
	case models.LeadTimeMonths:
		return addMonths(date, -n)
	default:
		return date.AddDate(0, 0, -n)
	}
}

// addMonths advances by calendar months, clamping to the last day of the
// target month instead of letting Jan 31 + 1 month normalize into March.
func addMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	firstOfTarget := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	if last := daysInMonth(firstOfTarget.Year(), firstOfTarget.Month()); day > last {
		day = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
