package weeks

import (
	"fmt"

	"github.com/nholden/lifeweeks/internal/cli"
	"github.com/nholden/lifeweeks/internal/lifecalendar"
)

type WeekCmd struct {
	AgeYear int    `arg:"" optional:"" help:"Age year on the grid."`
	Week    int    `arg:"" optional:"" help:"Week index within the age year."`
	Day     string `short:"d" help:"Narrow to a day in week (name or 1-7); entries without a day always match."`
	Date    string `help:"Show the week containing this calendar date (YYYY-MM-DD) instead."`
}

func (c *WeekCmd) Run(ctx *cli.Context) error {
	ageYear, weekIndex := c.AgeYear, c.Week

	day, err := cli.ParseDay(c.Day)
	if err != nil {
		return err
	}

	if c.Date != "" {
		date, err := cli.ParseDate(c.Date)
		if err != nil {
			return err
		}
		profile := ctx.App.Profile()
		coord, err := lifecalendar.DateToCoordinates(date, profile.Birth())
		if err != nil {
			return err
		}
		ageYear, weekIndex = coord.AgeYear, coord.WeekIndex
		if day == nil {
			day = coord.Day
		}
	}

	entries := ctx.App.Week(ageYear, weekIndex, day)

	header := fmt.Sprintf("Age %d, week %d", ageYear, weekIndex)
	if day != nil {
		header += fmt.Sprintf(", day %d", *day)
	}
	fmt.Println(header)

	if len(entries) == 0 {
		fmt.Println("  (empty)")
		return nil
	}
	for _, e := range entries {
		fmt.Println("  " + cli.FormatEntry(e))
	}
	return nil
}
