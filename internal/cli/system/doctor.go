package system

import (
	"fmt"
	"time"

	"github.com/nholden/lifeweeks/internal/backup"
	"github.com/nholden/lifeweeks/internal/cli"
	"github.com/nholden/lifeweeks/internal/keyring"
	"github.com/nholden/lifeweeks/internal/notifier"
	"github.com/nholden/lifeweeks/internal/validation"
)

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	hasError := false
	dbReachable := false

	// Check 1: DB reachable
	if err := ctx.Provider.Load(); err != nil {
		fmt.Printf("❌ Database reachable: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		fmt.Printf("✓ Database reachable: OK\n")
		dbReachable = true
	}

	// Check 2: Profile present and valid
	if dbReachable {
		if err := checkProfile(ctx); err != nil {
			fmt.Printf("❌ Profile: FAIL\n")
			fmt.Printf("   Error: %v\n", err)
			hasError = true
		} else {
			fmt.Printf("✓ Profile: OK\n")
		}
	} else {
		fmt.Printf("⊘ Profile: SKIPPED (database not reachable)\n")
	}

	// Check 3: Entry validation
	if dbReachable {
		if err := checkEntries(ctx); err != nil {
			fmt.Printf("❌ Entry validation: FAIL\n")
			fmt.Printf("   %v\n", err)
			hasError = true
		} else {
			fmt.Printf("✓ Entry validation: OK\n")
		}
	} else {
		fmt.Printf("⊘ Entry validation: SKIPPED (database not reachable)\n")
	}

	// Check 4: Backups present (warning only)
	if ctx.UsingSQLite() {
		if err := checkBackupsPresent(ctx); err != nil {
			fmt.Printf("⚠ Backups present: WARNING\n")
			fmt.Printf("   %v\n", err)
		} else {
			fmt.Printf("✓ Backups present: OK\n")
		}
	} else {
		fmt.Printf("⊘ Backups present: SKIPPED (not file-backed storage)\n")
	}

	// Check 5: OS keyring (warning only; needed for postgres credentials)
	if keyring.IsAvailable() {
		fmt.Printf("✓ OS keyring: OK\n")
	} else {
		fmt.Printf("⚠ OS keyring: WARNING\n")
		fmt.Printf("   keyring unavailable; postgres credentials cannot be stored securely\n")
	}

	// Check 6: Notification agent (warning only)
	if _, err := notifier.TrayAppConfigDir(); err != nil {
		fmt.Printf("⚠ Notification agent: WARNING\n")
		fmt.Printf("   %v\n", err)
	} else {
		fmt.Printf("✓ Notification agent config: OK\n")
	}

	// Check 7: Clock sanity
	if err := checkClock(); err != nil {
		fmt.Printf("❌ Clock/timezone: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		fmt.Printf("✓ Clock/timezone: OK\n")
	}

	fmt.Println()
	if hasError {
		return fmt.Errorf("diagnostics found problems")
	}
	fmt.Println("All checks passed.")
	return nil
}

func checkProfile(ctx *cli.Context) error {
	profile, err := ctx.Provider.GetProfile()
	if err != nil {
		return err
	}
	return profile.Validate()
}

func checkEntries(ctx *cli.Context) error {
	profile, err := ctx.Provider.GetProfile()
	if err != nil {
		return err
	}
	entries, err := ctx.Provider.LoadEntries(profile.UserID)
	if err != nil {
		return err
	}
	result := validation.New().CheckEntries(entries)
	if result.HasConflicts() {
		return fmt.Errorf("%s", result.FormatReport())
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	mgr := backup.NewManager(ctx.Provider.GetConfigPath())
	backups, err := mgr.ListBackups()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found; run 'lifeweeks backup create'")
	}
	return nil
}

func checkClock() error {
	now := time.Now()
	if now.Year() < 2020 {
		return fmt.Errorf("system clock reads %s, which looks wrong", now.Format(time.RFC3339))
	}
	return nil
}
