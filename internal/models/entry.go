package models

import (
	"fmt"
	"time"

	"github.com/nholden/lifeweeks/internal/constants"
)

type EntryType string

const (
	EntryTypeMemory EntryType = "memory"
	EntryTypeGoal   EntryType = "goal"
)

type Frequency string

const (
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

type LeadTimeUnit string

const (
	LeadTimeDays   LeadTimeUnit = "days"
	LeadTimeWeeks  LeadTimeUnit = "weeks"
	LeadTimeMonths LeadTimeUnit = "months"
)

// Entry is a single item attached to a week box of the life grid: a memory
// (past, factual) or a goal (future, aspirational).
type Entry struct {
	ID     string    `json:"id"`
	UserID string    `json:"user_id,omitempty"`
	Type   EntryType `json:"entry_type"`

	// Placement on the grid. Day is optional; a nil Day means the entry floats
	// within its week and matches any day filter.
	AgeYear   int  `json:"age_year"`
	WeekIndex int  `json:"week_index"`
	Day       *int `json:"day_in_week,omitempty"` // 1-7

	// Display payload
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	MediaRefs   []string `json:"media_refs,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Location    string   `json:"location,omitempty"`

	// Recurrence template fields (memory entries only)
	IsRecurring      bool         `json:"is_recurring"`
	Frequency        Frequency    `json:"frequency,omitempty"`
	RecurringEndDate *time.Time   `json:"recurring_end_date,omitempty"`
	LeadTime         int          `json:"notification_lead_time,omitempty"`
	LeadTimeUnit     LeadTimeUnit `json:"lead_time_unit,omitempty"`

	// Goal lifecycle fields
	IsCompleted     bool       `json:"is_completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	ConvertToMemory bool       `json:"convert_to_memory_when_passed"`
	ParentMemoryID  string     `json:"parent_memory_id,omitempty"`

	// Reminder fields. NotificationID is the external scheduler's opaque handle.
	ReminderAt      *time.Time `json:"reminder_date,omitempty"`
	ReminderEnabled bool       `json:"reminder_enabled"`
	NotificationID  string     `json:"notification_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsTemplate reports whether the entry is a recurring template memory.
func (e *Entry) IsTemplate() bool {
	return e.Type == EntryTypeMemory && e.IsRecurring
}

// IsGeneratedInstance reports whether the entry was spawned from a template.
func (e *Entry) IsGeneratedInstance() bool {
	return e.Type == EntryTypeGoal && e.ParentMemoryID != ""
}

func (e *Entry) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("entry id cannot be empty")
	}
	if e.Title == "" {
		return fmt.Errorf("entry title cannot be empty")
	}

	switch e.Type {
	case EntryTypeMemory, EntryTypeGoal:
	default:
		return fmt.Errorf("invalid entry type %q", e.Type)
	}

	if e.AgeYear < 0 || e.AgeYear > constants.MaxAgeYears {
		return fmt.Errorf("age year %d out of range 0-%d", e.AgeYear, constants.MaxAgeYears)
	}
	if e.WeekIndex < 0 || e.WeekIndex > constants.WeeksPerYear {
		return fmt.Errorf("week index %d out of range 0-%d", e.WeekIndex, constants.WeeksPerYear)
	}
	if e.Day != nil && (*e.Day < 1 || *e.Day > constants.DaysPerWeek) {
		return fmt.Errorf("day in week %d out of range 1-%d", *e.Day, constants.DaysPerWeek)
	}

	if e.IsRecurring {
		if e.Type != EntryTypeMemory {
			return fmt.Errorf("only memory entries can be recurring templates")
		}
		switch e.Frequency {
		case FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		default:
			return fmt.Errorf("invalid recurrence frequency %q", e.Frequency)
		}
		if e.RecurringEndDate == nil {
			return fmt.Errorf("recurring entries require an end date")
		}
		if e.LeadTime < 0 {
			return fmt.Errorf("notification lead time cannot be negative")
		}
		if e.LeadTime > 0 {
			switch e.LeadTimeUnit {
			case LeadTimeDays, LeadTimeWeeks, LeadTimeMonths:
			default:
				return fmt.Errorf("invalid lead time unit %q", e.LeadTimeUnit)
			}
		}
	}

	if e.ParentMemoryID != "" && e.Type != EntryTypeGoal {
		return fmt.Errorf("parent memory reference is only valid on goal entries")
	}
	if e.IsCompleted && e.Type != EntryTypeGoal {
		return fmt.Errorf("only goal entries can be completed")
	}

	return nil
}
