package entries

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nholden/lifeweeks/internal/cli"
	"github.com/nholden/lifeweeks/internal/models"
)

type EntryListCmd struct {
	Type      string `short:"t" help:"Filter by type (memory|goal)."`
	Tag       string `help:"Filter by tag."`
	Recurring bool   `help:"Only recurring templates."`
	Completed bool   `help:"Only completed goals."`
}

func (c *EntryListCmd) Run(ctx *cli.Context) error {
	entries := ctx.App.Entries()

	var filtered []models.Entry
	for _, e := range entries {
		if c.Type != "" && string(e.Type) != c.Type {
			continue
		}
		if c.Recurring && !e.IsTemplate() {
			continue
		}
		if c.Completed && !e.IsCompleted {
			continue
		}
		if c.Tag != "" && !hasTag(e, c.Tag) {
			continue
		}
		filtered = append(filtered, e)
	}

	if len(filtered) == 0 {
		fmt.Println("No entries found.")
		return nil
	}

	sort.Slice(filtered, func(i, j int) bool {
		a, b := filtered[i], filtered[j]
		if a.AgeYear != b.AgeYear {
			return a.AgeYear < b.AgeYear
		}
		if a.WeekIndex != b.WeekIndex {
			return a.WeekIndex < b.WeekIndex
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	for _, e := range filtered {
		fmt.Println(cli.FormatEntry(e))
	}
	fmt.Printf("\n%d entries\n", len(filtered))
	return nil
}

func hasTag(e models.Entry, tag string) bool {
	for _, t := range e.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}
