package entries

import (
	"github.com/nholden/lifeweeks/internal/cli"
	"github.com/nholden/lifeweeks/internal/lifecalendar"
)

// placeByDate maps a calendar date onto the grid using the loaded profile's
// birth date.
func placeByDate(ctx *cli.Context, s string) (lifecalendar.Coordinate, error) {
	date, err := cli.ParseDate(s)
	if err != nil {
		return lifecalendar.Coordinate{}, err
	}
	profile := ctx.App.Profile()
	return lifecalendar.DateToCoordinates(date, profile.Birth())
}
