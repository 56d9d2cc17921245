// Package lifecycle governs a goal's transitions: active, completed, and
// finally converted into a memory once its date has passed.
package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nholden/lifeweeks/internal/lifecalendar"
	"github.com/nholden/lifeweeks/internal/models"
)

// Conversion pairs a due goal with the memory that supersedes it. The store
// façade commits each conversion independently: persist the memory, delete the
// goal, update the index.
type Conversion struct {
	Goal   models.Entry
	Memory models.Entry
}

// SweepPlan is the outcome of a planning pass over all goals.
type SweepPlan struct {
	Conversions []Conversion
	Failures    []ConversionFailure
}

// ConversionFailure records a goal that could not be processed. Failures never
// abort the remaining conversions.
type ConversionFailure struct {
	GoalID string
	Err    error
}

// SweepError reports the goals that failed during a sweep so the caller can
// retry just those.
type SweepError struct {
	Failures []ConversionFailure
}

func (e *SweepError) Error() string {
	ids := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		ids[i] = f.GoalID
	}
	return fmt.Sprintf("sweep failed for %d goal(s): %s", len(e.Failures), strings.Join(ids, ", "))
}

// MarkCompleted flags a goal as done and records whether it should convert to
// a memory once its date has passed. No structural change happens here.
func MarkCompleted(goal models.Entry, convert bool, now time.Time) (models.Entry, error) {
	if goal.Type != models.EntryTypeGoal {
		return models.Entry{}, fmt.Errorf("entry %s is not a goal", goal.ID)
	}
	goal.IsCompleted = true
	goal.CompletedAt = &now
	goal.ConvertToMemory = convert
	goal.UpdatedAt = now
	return goal, nil
}

// PlanSweep selects every completed goal marked for conversion whose resolved
// due date lies in the past, and builds the replacement memory for each. Goals
// with unresolvable coordinates are reported as failures, not fatal errors.
func PlanSweep(entries []models.Entry, birth, now time.Time) SweepPlan {
	var plan SweepPlan
	today := lifecalendar.Normalize(now)

	for _, e := range entries {
		if e.Type != models.EntryTypeGoal || !e.IsCompleted || !e.ConvertToMemory {
			continue
		}

		// Day defaults to 1 when unspecified; the due date floats at the start
		// of its week.
		day := 1
		if e.Day != nil {
			day = *e.Day
		}
		due, err := lifecalendar.CoordinatesToDate(lifecalendar.Coordinate{
			AgeYear:   e.AgeYear,
			WeekIndex: e.WeekIndex,
			Day:       &day,
		}, birth)
		if err != nil {
			plan.Failures = append(plan.Failures, ConversionFailure{GoalID: e.ID, Err: err})
			continue
		}
		if !due.Before(today) {
			continue
		}

		plan.Conversions = append(plan.Conversions, Conversion{
			Goal:   e,
			Memory: convert(e, now),
		})
	}
	return plan
}

// convert builds the memory that replaces a converted goal. The memory gets a
// new identity and fresh timestamps; the goal entry itself is deleted by the
// caller, preserving the history split between plan and outcome.
func convert(goal models.Entry, now time.Time) models.Entry {
	return models.Entry{
		ID:          uuid.New().String(),
		UserID:      goal.UserID,
		Type:        models.EntryTypeMemory,
		AgeYear:     goal.AgeYear,
		WeekIndex:   goal.WeekIndex,
		Day:         goal.Day,
		Title:       goal.Title,
		Description: goal.Description,
		MediaRefs:   append([]string(nil), goal.MediaRefs...),
		Tags:        append([]string(nil), goal.Tags...),
		Location:    goal.Location,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
