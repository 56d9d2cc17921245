// Package validation checks a user's entry set for structural problems the
// doctor command reports.
package validation

import (
	"fmt"

	"github.com/nholden/lifeweeks/internal/constants"
	"github.com/nholden/lifeweeks/internal/models"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictInvalidEntry       ConflictType = "invalid_entry"
	ConflictOutOfRangePlacement ConflictType = "out_of_range_placement"
	ConflictOrphanedGoal       ConflictType = "orphaned_goal"
	ConflictParentNotTemplate  ConflictType = "parent_not_template"
	ConflictRecurringGoal      ConflictType = "recurring_goal"
	ConflictCompletedMemory    ConflictType = "completed_memory"
)

// Conflict represents a detected problem in the entry set
type Conflict struct {
	Type        ConflictType
	Description string
	EntryIDs    []string
}

// Result contains all detected conflicts
type Result struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (r *Result) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (r *Result) FormatReport() string {
	if !r.HasConflicts() {
		return "No conflicts detected."
	}

	report := "Conflicts detected:\n"
	for _, conflict := range r.Conflicts {
		report += fmt.Sprintf("- %s\n", conflict.Description)
	}
	return report
}

// Validator validates an entry set for conflicts
type Validator struct{}

// New creates a new Validator
func New() *Validator {
	return &Validator{}
}

// CheckEntries inspects the full entry set. Structural rules: placements stay
// on the grid, generated goals reference an existing recurring template, goals
// are never themselves recurring, and memories carry no completion state.
func (v *Validator) CheckEntries(entries []models.Entry) Result {
	var result Result

	byID := make(map[string]models.Entry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}

	for _, e := range entries {
		if e.ID == "" || e.Title == "" {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictInvalidEntry,
				Description: fmt.Sprintf("entry %q (%s) is missing its id or title", e.Title, e.ID),
				EntryIDs:    []string{e.ID},
			})
		}

		if e.AgeYear < 0 || e.AgeYear > constants.MaxAgeYears ||
			e.WeekIndex < 0 || e.WeekIndex > constants.WeeksPerYear ||
			(e.Day != nil && (*e.Day < 1 || *e.Day > constants.DaysPerWeek)) {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictOutOfRangePlacement,
				Description: fmt.Sprintf("entry %q (%s) is placed off the grid at age %d week %d", e.Title, e.ID, e.AgeYear, e.WeekIndex),
				EntryIDs:    []string{e.ID},
			})
		}

		if e.ParentMemoryID != "" {
			parent, ok := byID[e.ParentMemoryID]
			if !ok {
				result.Conflicts = append(result.Conflicts, Conflict{
					Type:        ConflictOrphanedGoal,
					Description: fmt.Sprintf("goal %q (%s) references missing template %s", e.Title, e.ID, e.ParentMemoryID),
					EntryIDs:    []string{e.ID},
				})
			} else if !parent.IsTemplate() {
				result.Conflicts = append(result.Conflicts, Conflict{
					Type:        ConflictParentNotTemplate,
					Description: fmt.Sprintf("goal %q (%s) references %s, which is not a recurring template memory", e.Title, e.ID, e.ParentMemoryID),
					EntryIDs:    []string{e.ID, e.ParentMemoryID},
				})
			}
		}

		if e.Type == models.EntryTypeGoal && e.IsRecurring {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictRecurringGoal,
				Description: fmt.Sprintf("goal %q (%s) is marked recurring; only template memories recur", e.Title, e.ID),
				EntryIDs:    []string{e.ID},
			})
		}

		if e.Type == models.EntryTypeMemory && e.IsCompleted {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictCompletedMemory,
				Description: fmt.Sprintf("memory %q (%s) carries completion state", e.Title, e.ID),
				EntryIDs:    []string{e.ID},
			})
		}
	}

	return result
}
