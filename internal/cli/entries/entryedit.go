package entries

import (
	"fmt"

	"github.com/nholden/lifeweeks/internal/cli"
	"github.com/nholden/lifeweeks/internal/models"
)

type EntryEditCmd struct {
	ID string `arg:"" help:"ID of the entry to edit."`

	Title       *string `help:"New title."`
	Description *string `help:"New description."`
	Tags        *string `help:"New comma-separated tags (replaces existing)."`
	Location    *string `help:"New location."`
	Media       *string `help:"New comma-separated media references (replaces existing)."`

	AgeYear *int    `short:"a" help:"Move to a different age year."`
	Week    *int    `short:"w" help:"Move to a different week index."`
	Day     *string `short:"d" help:"Move to a day in week (name or 1-7); pass 'none' to float."`
	Date    *string `help:"Move by calendar date (YYYY-MM-DD)."`

	EndDate  *string `help:"New recurrence end date (YYYY-MM-DD), for templates."`
	LeadTime *int    `help:"New reminder lead time, for templates."`

	RemindAt      *string `help:"New reminder timestamp (RFC3339 or YYYY-MM-DD); pass 'none' to clear."`
	ConvertToMemory *bool `help:"For goals: whether to convert to a memory once passed."`
}

func (c *EntryEditCmd) Run(ctx *cli.Context) error {
	entry, err := ctx.App.GetEntry(c.ID)
	if err != nil {
		return err
	}

	if c.Title != nil {
		entry.Title = *c.Title
	}
	if c.Description != nil {
		entry.Description = *c.Description
	}
	if c.Tags != nil {
		entry.Tags = cli.SplitList(*c.Tags)
	}
	if c.Location != nil {
		entry.Location = *c.Location
	}
	if c.Media != nil {
		entry.MediaRefs = cli.SplitList(*c.Media)
	}

	if c.Date != nil {
		coord, err := placeByDate(ctx, *c.Date)
		if err != nil {
			return err
		}
		entry.AgeYear = coord.AgeYear
		entry.WeekIndex = coord.WeekIndex
		entry.Day = coord.Day
	} else {
		if c.AgeYear != nil {
			entry.AgeYear = *c.AgeYear
		}
		if c.Week != nil {
			entry.WeekIndex = *c.Week
		}
		if c.Day != nil {
			if *c.Day == "none" {
				entry.Day = nil
			} else {
				day, err := cli.ParseDay(*c.Day)
				if err != nil {
					return err
				}
				entry.Day = day
			}
		}
	}

	if c.EndDate != nil {
		if !entry.IsTemplate() {
			return fmt.Errorf("--end-date only applies to recurring templates")
		}
		end, err := cli.ParseDate(*c.EndDate)
		if err != nil {
			return err
		}
		entry.RecurringEndDate = &end
	}
	if c.LeadTime != nil {
		if !entry.IsTemplate() {
			return fmt.Errorf("--lead-time only applies to recurring templates")
		}
		entry.LeadTime = *c.LeadTime
	}

	if c.RemindAt != nil {
		if *c.RemindAt == "none" {
			entry.ReminderAt = nil
			entry.ReminderEnabled = false
		} else {
			at, err := parseReminder(*c.RemindAt)
			if err != nil {
				return err
			}
			entry.ReminderAt = &at
			entry.ReminderEnabled = true
		}
	}

	if c.ConvertToMemory != nil {
		if entry.Type != models.EntryTypeGoal {
			return fmt.Errorf("--convert-to-memory only applies to goals")
		}
		entry.ConvertToMemory = *c.ConvertToMemory
	}

	updated, err := ctx.App.UpdateEntry(entry)
	if err != nil {
		return err
	}

	fmt.Printf("Updated %s: %s\n", updated.Type, updated.Title)
	ctx.PerformAutomaticBackup()
	return nil
}
