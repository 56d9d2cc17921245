package entries

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/nholden/lifeweeks/internal/cli"
	"github.com/nholden/lifeweeks/internal/store"
)

type EntryDeleteCmd struct {
	ID    string `arg:"" help:"ID of the entry to delete."`
	Force bool   `short:"f" help:"Skip the confirmation prompt."`
}

func (c *EntryDeleteCmd) Run(ctx *cli.Context) error {
	entry, err := ctx.App.GetEntry(c.ID)
	if err != nil {
		return err
	}

	if entry.IsTemplate() && !c.Force {
		children := ctx.App.Entries()
		count := 0
		for _, e := range children {
			if e.ParentMemoryID == c.ID {
				count++
			}
		}
		if count > 0 {
			fmt.Printf("⚠️  %q is a recurring template with %d generated goal(s).\n", entry.Title, count)
			fmt.Println("Deleting it removes the generated goals as well.")
			fmt.Print("Continue? [y/N]: ")

			reader := bufio.NewReader(os.Stdin)
			response, err := reader.ReadString('\n')
			if err != nil {
				return err
			}
			response = strings.TrimSpace(strings.ToLower(response))
			if response != "y" && response != "yes" {
				fmt.Println("Delete cancelled.")
				return nil
			}
		}
	}

	if err := ctx.App.DeleteEntry(c.ID); err != nil {
		var cerr *store.CascadeError
		if errors.As(err, &cerr) {
			fmt.Printf("Partial delete: %d generated goal(s) could not be removed.\n", len(cerr.Failures))
			for _, f := range cerr.Failures {
				fmt.Printf("  %s: %v\n", f.ChildID, f.Err)
			}
			fmt.Println("The template was kept; run the delete again to retry.")
		}
		return err
	}

	fmt.Printf("Deleted %s: %s\n", entry.Type, entry.Title)
	ctx.PerformAutomaticBackup()
	return nil
}
