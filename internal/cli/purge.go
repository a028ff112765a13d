package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/runnerr0/tubestats/internal/storage"
)

// Execute implements the go-flags Commander interface for PurgeCommand.
func (c *PurgeCommand) Execute(args []string) error {
	if !c.All {
		return fmt.Errorf("purge requires --all flag for safety")
	}

	e, err := setup(c.globals)
	if err != nil {
		return err
	}

	dbPath, err := e.datasetPath(c.DB)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("%s: %w", dbPath, ErrNoDataset)
	}

	store, db, err := e.openStore(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithStore(e, store, dbPath)
}

// executeWithStore confirms and purges a provided store (for testing).
func (c *PurgeCommand) executeWithStore(e *env, store storage.Store, dbPath string) error {
	if !c.All {
		return fmt.Errorf("purge requires --all flag for safety")
	}

	if !c.Force {
		if err := c.confirm(dbPath); err != nil {
			return err
		}
	}

	if err := store.PurgeAll(context.Background()); err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}
	e.log.Info().Str("path", dbPath).Msg("dataset purged")

	if e.json {
		return writeJSON(map[string]interface{}{
			"purged":   true,
			"database": dbPath,
		})
	}

	fmt.Printf("Purged all data from %s.\n", dbPath)
	return nil
}

func (c *PurgeCommand) confirm(dbPath string) error {
	fmt.Printf("WARNING: This will permanently delete the dataset in %s.\n", dbPath)
	fmt.Println("  - All watch events")
	fmt.Println("  - All subscriptions")
	fmt.Println()
	fmt.Println("This action cannot be undone.")
	fmt.Println()
	fmt.Print(`Type "PURGE" to confirm: `)

	var in io.Reader = os.Stdin
	if c.stdin != nil {
		in = c.stdin
	}
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return fmt.Errorf("aborted: no input received")
	}
	if strings.TrimSpace(scanner.Text()) != "PURGE" {
		return fmt.Errorf("aborted: confirmation text did not match")
	}
	return nil
}
