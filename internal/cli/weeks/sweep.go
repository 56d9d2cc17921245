package weeks

import (
	"errors"
	"fmt"
	"time"

	"github.com/nholden/lifeweeks/internal/cli"
	"github.com/nholden/lifeweeks/internal/lifecycle"
)

type SweepCmd struct{}

func (c *SweepCmd) Run(ctx *cli.Context) error {
	result, err := ctx.App.SweepConversions(time.Now().UTC())

	if result.Converted > 0 {
		fmt.Printf("Converted %d goal(s) to memories.\n", result.Converted)
		ctx.PerformAutomaticBackup()
	}

	if err != nil {
		var serr *lifecycle.SweepError
		if errors.As(err, &serr) {
			fmt.Printf("%d goal(s) could not be converted:\n", len(serr.Failures))
			for _, f := range serr.Failures {
				fmt.Printf("  %s: %v\n", f.GoalID, f.Err)
			}
		}
		return err
	}

	if result.Converted == 0 {
		fmt.Println("Nothing to convert.")
	}
	return nil
}
