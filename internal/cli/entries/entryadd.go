package entries

import (
	"fmt"
	"time"

	"github.com/nholden/lifeweeks/internal/cli"
	"github.com/nholden/lifeweeks/internal/constants"
	"github.com/nholden/lifeweeks/internal/models"
)

type EntryAddCmd struct {
	Title string `arg:"" help:"Entry title."`

	Type     string `short:"t" help:"Entry type (memory|goal)." default:"memory"`
	AgeYear  int    `short:"a" help:"Age year on the grid (0-90)." required:""`
	Week     int    `short:"w" help:"Week index within the age year (0-52)." required:""`
	Day      string `short:"d" help:"Day in week (weekday name or 1-7); omit to let the entry float within its week."`
	Date     string `help:"Place by calendar date (YYYY-MM-DD) instead of --age-year/--week."`

	Description string `help:"Longer description."`
	Tags        string `help:"Comma-separated tags."`
	Location    string `help:"Location."`
	Media       string `help:"Comma-separated media references (paths or URLs)."`

	Recurring bool   `help:"Mark the memory as a recurring template."`
	Frequency string `short:"f" help:"Recurrence frequency (weekly|monthly|yearly)."`
	EndDate   string `help:"Recurrence end date (YYYY-MM-DD)."`
	LeadTime  int    `help:"Reminder lead time before each generated instance."`
	LeadUnit  string `help:"Lead time unit (days|weeks|months)." default:"days"`

	ConvertToMemory bool   `help:"For goals: convert to a memory automatically once the date has passed."`
	RemindAt        string `help:"Reminder timestamp (RFC3339 or YYYY-MM-DD)."`
}

func (c *EntryAddCmd) Validate() error {
	switch models.EntryType(c.Type) {
	case models.EntryTypeMemory, models.EntryTypeGoal:
	default:
		return fmt.Errorf("invalid type %q (expected memory or goal)", c.Type)
	}

	if c.Recurring {
		if models.EntryType(c.Type) != models.EntryTypeMemory {
			return fmt.Errorf("only memory entries can be recurring templates")
		}
		switch models.Frequency(c.Frequency) {
		case models.FrequencyWeekly, models.FrequencyMonthly, models.FrequencyYearly:
		default:
			return fmt.Errorf("--frequency must be weekly, monthly, or yearly for recurring entries")
		}
		if c.EndDate == "" {
			return fmt.Errorf("--end-date is required for recurring entries")
		}
	}

	if c.LeadTime < 0 {
		return fmt.Errorf("--lead-time cannot be negative")
	}
	switch models.LeadTimeUnit(c.LeadUnit) {
	case models.LeadTimeDays, models.LeadTimeWeeks, models.LeadTimeMonths:
	default:
		return fmt.Errorf("invalid --lead-unit %q (expected days, weeks, or months)", c.LeadUnit)
	}
	return nil
}

func (c *EntryAddCmd) Run(ctx *cli.Context) error {
	entry := models.Entry{
		Type:        models.EntryType(c.Type),
		AgeYear:     c.AgeYear,
		WeekIndex:   c.Week,
		Title:       c.Title,
		Description: c.Description,
		Tags:        cli.SplitList(c.Tags),
		MediaRefs:   cli.SplitList(c.Media),
		Location:    c.Location,
	}

	if c.Date != "" {
		coord, err := placeByDate(ctx, c.Date)
		if err != nil {
			return err
		}
		entry.AgeYear = coord.AgeYear
		entry.WeekIndex = coord.WeekIndex
		entry.Day = coord.Day
	} else {
		day, err := cli.ParseDay(c.Day)
		if err != nil {
			return err
		}
		entry.Day = day
	}

	if c.Recurring {
		end, err := cli.ParseDate(c.EndDate)
		if err != nil {
			return err
		}
		entry.IsRecurring = true
		entry.Frequency = models.Frequency(c.Frequency)
		entry.RecurringEndDate = &end
		entry.LeadTime = c.LeadTime
		entry.LeadTimeUnit = models.LeadTimeUnit(c.LeadUnit)
	}

	if entry.Type == models.EntryTypeGoal {
		entry.ConvertToMemory = c.ConvertToMemory
	}

	if c.RemindAt != "" {
		at, err := parseReminder(c.RemindAt)
		if err != nil {
			return err
		}
		entry.ReminderAt = &at
		entry.ReminderEnabled = true
	}

	created, err := ctx.App.CreateEntry(entry)
	if err != nil {
		return err
	}

	fmt.Printf("Added %s: %s (ID: %s)\n", created.Type, created.Title, created.ID)
	if created.ReminderEnabled && created.NotificationID == "" {
		fmt.Println("Note: reminder could not be scheduled (notification agent unreachable).")
	}

	ctx.PerformAutomaticBackup()
	return nil
}

func parseReminder(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(constants.DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid reminder %q (expected RFC3339 or YYYY-MM-DD)", s)
	}
	return t, nil
}
