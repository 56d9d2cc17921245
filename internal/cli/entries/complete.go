package entries

import (
	"fmt"
	"time"

	"github.com/nholden/lifeweeks/internal/cli"
)

type CompleteCmd struct {
	ID      string `arg:"" help:"ID of the goal to mark completed."`
	Convert bool   `short:"c" help:"Convert the goal to a memory once its date has passed."`
}

func (c *CompleteCmd) Run(ctx *cli.Context) error {
	updated, err := ctx.App.MarkCompleted(c.ID, c.Convert, time.Now().UTC())
	if err != nil {
		return err
	}

	fmt.Printf("✓ Completed goal: %s\n", updated.Title)
	if c.Convert {
		fmt.Println("It will convert to a memory on the next sweep after its date passes.")
	}
	return nil
}
