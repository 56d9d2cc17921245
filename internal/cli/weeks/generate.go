package weeks

import (
	"fmt"
	"time"

	"github.com/nholden/lifeweeks/internal/cli"
	"github.com/nholden/lifeweeks/internal/store"
)

type GenerateCmd struct {
	TemplateID string `arg:"" optional:"" help:"Template to generate instances for; omit to process all templates."`
}

func (c *GenerateCmd) Run(ctx *cli.Context) error {
	now := time.Now().UTC()

	var results []store.GenerateResult
	var err error
	if c.TemplateID != "" {
		var res store.GenerateResult
		res, err = ctx.App.GenerateRecurring(c.TemplateID, now)
		results = append(results, res)
	} else {
		results, err = ctx.App.GenerateAll(now)
	}

	created, skipped := 0, 0
	for _, res := range results {
		created += res.Created
		skipped += res.Skipped
	}

	if err != nil {
		fmt.Printf("Generation stopped after %d instance(s).\n", created)
		return err
	}

	if created == 0 && skipped == 0 {
		fmt.Println("Nothing to generate.")
		return nil
	}
	fmt.Printf("Generated %d goal instance(s)", created)
	if skipped > 0 {
		fmt.Printf(", skipped %d duplicate(s)", skipped)
	}
	fmt.Println(".")

	if created > 0 {
		ctx.PerformAutomaticBackup()
	}
	return nil
}
