package weeks

import (
	"fmt"
	"strings"
	"time"

	"github.com/nholden/lifeweeks/internal/cli"
	"github.com/nholden/lifeweeks/internal/constants"
	"github.com/nholden/lifeweeks/internal/lifecalendar"
	"github.com/nholden/lifeweeks/internal/models"
)

type GridCmd struct {
	From int `help:"First age year to render." default:"0"`
	To   int `help:"Last age year to render." default:"90"`
}

// Run renders the life grid: one row per age year, one cell per week.
// '.' empty week, 'o' memories only, 'G' has an open goal, '#' the
// current week.
func (c *GridCmd) Run(ctx *cli.Context) error {
	if c.From < 0 || c.To > constants.MaxAgeYears || c.From > c.To {
		return fmt.Errorf("invalid range %d-%d (grid covers ages 0-%d)", c.From, c.To, constants.MaxAgeYears)
	}

	profile := ctx.App.Profile()
	birth := profile.Birth()

	type cell struct {
		memories int
		goals    int
	}
	cells := make(map[[2]int]cell)
	for _, e := range ctx.App.Entries() {
		key := [2]int{e.AgeYear, e.WeekIndex}
		cur := cells[key]
		if e.Type == models.EntryTypeGoal && !e.IsCompleted {
			cur.goals++
		} else {
			cur.memories++
		}
		cells[key] = cur
	}

	var nowAge, nowWeek = -1, -1
	if coord, err := lifecalendar.DateToCoordinates(lifecalendar.Normalize(time.Now()), birth); err == nil {
		nowAge, nowWeek = coord.AgeYear, coord.WeekIndex
	}

	if profile.DisplayName != "" {
		fmt.Printf("%s — born %s\n\n", profile.DisplayName, profile.BirthDate)
	} else {
		fmt.Printf("Born %s\n\n", profile.BirthDate)
	}

	var row strings.Builder
	for age := c.From; age <= c.To; age++ {
		row.Reset()
		fmt.Fprintf(&row, "%3d  ", age)
		for week := 0; week <= lifecalendar.MaxWeekIndex; week++ {
			switch {
			case age == nowAge && week == nowWeek:
				row.WriteByte('#')
			case cells[[2]int{age, week}].goals > 0:
				row.WriteByte('G')
			case cells[[2]int{age, week}].memories > 0:
				row.WriteByte('o')
			default:
				row.WriteByte('.')
			}
		}
		fmt.Println(row.String())
	}

	fmt.Println("\n  # this week   o memories   G open goals   . empty")
	return nil
}
