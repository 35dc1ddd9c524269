package db

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"

	"github.com/banshee-data/blokk/internal/monitoring"
)

// MigrateCommand runs one 'migrate' subcommand against the database at
// dbPath. Prompts are read from in and reports written to out.
type MigrateCommand struct {
	DBPath string
	In     io.Reader
	Out    io.Writer
}

// Run dispatches args[0] to the matching action.
func (c MigrateCommand) Run(args []string) error {
	if len(args) < 1 {
		c.PrintHelp()
		return fmt.Errorf("missing migrate action")
	}
	action := args[0]
	if action == "help" {
		c.PrintHelp()
		return nil
	}

	migrations, err := getMigrationsFS()
	if err != nil {
		return fmt.Errorf("failed to get migrations filesystem: %w", err)
	}

	// migrations manage the schema, so the database is opened bare
	database, err := OpenDB(c.DBPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	switch action {
	case "up":
		return c.up(database, migrations)
	case "down":
		return c.down(database, migrations)
	case "status":
		return c.status(database, migrations)
	case "version", "force", "baseline":
		if len(args) < 2 {
			return fmt.Errorf("usage: blokk migrate %s <version_number>", action)
		}
		v, err := strconv.Atoi(args[1])
		if err != nil || v < 0 {
			return fmt.Errorf("invalid version number: %s", args[1])
		}
		switch action {
		case "version":
			return c.to(database, migrations, uint(v))
		case "force":
			return c.force(database, migrations, v)
		default:
			return c.baseline(database, uint(v))
		}
	default:
		c.PrintHelp()
		return fmt.Errorf("unknown migrate action: %s", action)
	}
}

func (c MigrateCommand) up(database *DB, migrations fs.FS) error {
	monitoring.Logf("Running migrations...")
	if err := database.MigrateUp(migrations); err != nil {
		return err
	}
	version, dirty, _ := database.MigrateVersion(migrations)
	fmt.Fprintf(c.Out, "✓ All migrations applied. Current version: %d (dirty: %v)\n", version, dirty)
	return nil
}

func (c MigrateCommand) down(database *DB, migrations fs.FS) error {
	monitoring.Logf("Rolling back one migration...")
	if err := database.MigrateDown(migrations); err != nil {
		return err
	}
	version, dirty, _ := database.MigrateVersion(migrations)
	fmt.Fprintf(c.Out, "✓ Migration rolled back. Current version: %d (dirty: %v)\n", version, dirty)
	return nil
}

func (c MigrateCommand) status(database *DB, migrations fs.FS) error {
	st, err := database.GetMigrationStatus(migrations)
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}

	fmt.Fprintln(c.Out, "=== Migration Status ===")
	fmt.Fprintf(c.Out, "Current version: %d\n", st.CurrentVersion)
	fmt.Fprintf(c.Out, "Latest available: %d\n", st.LatestVersion)
	fmt.Fprintf(c.Out, "Dirty: %v\n", st.Dirty)
	fmt.Fprintf(c.Out, "Schema migrations table exists: %v\n", st.TableExists)

	switch {
	case st.Dirty:
		fmt.Fprintln(c.Out, "\n⚠️  WARNING: Database is in a dirty state!")
		fmt.Fprintln(c.Out, "A migration failed mid-execution. Inspect the database, then run:")
		fmt.Fprintln(c.Out, "  blokk migrate force <version>")
	case st.Pending() > 0:
		fmt.Fprintf(c.Out, "\n⚠️  Database is %d version(s) behind. Run 'blokk migrate up' to update.\n", st.Pending())
	default:
		fmt.Fprintln(c.Out, "\n✓ Database is up to date!")
	}
	return nil
}

func (c MigrateCommand) to(database *DB, migrations fs.FS, version uint) error {
	monitoring.Logf("Migrating to version %d...", version)
	if err := database.MigrateTo(migrations, version); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "✓ Migrated to version %d\n", version)
	return nil
}

func (c MigrateCommand) force(database *DB, migrations fs.FS, version int) error {
	fmt.Fprintf(c.Out, "⚠️  WARNING: Forcing migration version to %d\n", version)
	fmt.Fprintln(c.Out, "This should only be used to recover from a dirty migration state.")
	fmt.Fprint(c.Out, "Continue? [y/N]: ")

	var response string
	if c.In != nil {
		response, _ = bufio.NewReader(c.In).ReadString('\n')
	}
	if r := strings.TrimSpace(response); r != "y" && r != "Y" {
		fmt.Fprintln(c.Out, "Aborted")
		return nil
	}

	if err := database.MigrateForce(migrations, version); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "✓ Migration version forced to %d\n", version)
	return nil
}

func (c MigrateCommand) baseline(database *DB, version uint) error {
	if err := database.BaselineAtVersion(version); err != nil {
		return fmt.Errorf("baseline failed: %w", err)
	}
	fmt.Fprintf(c.Out, "✓ Database baselined at version %d\n", version)
	return nil
}

// PrintHelp displays the help message for the migrate command.
func (c MigrateCommand) PrintHelp() {
	fmt.Fprint(c.Out, `Database Migration Commands

Usage: blokk migrate <command> [options]

Commands:
  up              Apply all pending migrations
  down            Rollback one migration
  status          Show current migration status and version
  version <N>     Migrate to specific version N
  force <N>       Force migration version to N (recovery only)
  baseline <N>    Set migration version to N without running migrations
  help            Show this help message

Examples:
  blokk migrate up
  blokk migrate status
  blokk migrate version 1
  blokk migrate force 1

Options:
  -db <path>    Path to database file (default: blokk.db)
`)
}
