// Command blokk samples piece sets for a cube, searches each for an exact
// cover and stores or renders the results.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/blokk/internal/version"
)

// Output streams, replaced in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
	stdin  io.Reader = os.Stdin
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, flag.Arg(0), flag.Args()[1:])
	stop()
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run dispatches one command.
func run(ctx context.Context, command string, args []string) error {
	switch command {
	case "partitions":
		return cmdPartitions(ctx, args)
	case "placements":
		return cmdPlacements(args)
	case "samples":
		return cmdSamples(ctx, args)
	case "catalog":
		return cmdCatalog(args)
	case "solve":
		return cmdSolve(ctx, args)
	case "solve-all":
		return cmdSolveAll(ctx, args)
	case "sample":
		return cmdSample(ctx, args)
	case "solve-db":
		return cmdSolveDB(ctx, args)
	case "runs":
		return cmdRuns(ctx, args)
	case "report":
		return cmdReport(ctx, args)
	case "serve":
		return cmdServe(ctx, args, nil)
	case "status":
		return cmdStatus(ctx, args)
	case "migrate":
		return cmdMigrate(args)
	case "version":
		fmt.Fprintln(stdout, version.String())
		return nil
	case "help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func printUsage() {
	fmt.Fprintln(stderr, `blokk - polycube sampling and exact cover search

Usage: blokk <command> [options]

Commands:
  partitions   List the feasible partitions of a target volume
  placements   Count the placements of one piece in a cube
  samples      Print every sample for a target volume
  catalog      Print the piece catalog as JSON
  solve        Search for a cover of the cube by the given pieces
  solve-all    Sample and solve every piece set for a target volume
  sample       Store every sample for a target volume in the database
  solve-db     Solve the stored samples of a run batch by batch
  runs         List stored runs and their progress
  report       Render solved builds and the partition histogram
  serve        Serve runs and a background solve over HTTP
  status       Query or control a running blokk serve
  migrate      Manage database schema migrations
  version      Show blokk version
  help         Show this help message

Common Flags:
  -config <file>       Run config (.json or .toml); flags override it
  -target <n>          Target volume, a perfect cube (default 27)
  -max-volume <n>      Largest piece volume to sample (0 = no cap)
  -catalog <file>      Piece catalog JSON (default: built-in set)
  -db <file>           SQLite database (default blokk.db)
  -workers <n>         Concurrent solver workers (default: number of CPUs)
  -strategy <name>     pruned or exhaustive (default pruned)
  -log-file <file>     Also log to a rotating file

Examples:
  # How many piece sets fill a 2x2x2 cube with pieces of at most 4 voxels?
  blokk partitions -target 8 -max-volume 4 -counts

  # Solve one piece set in a 3x3x3 cube and render it
  blokk solve -ids 5,6,9,12,13,14 -out build

  # Store samples, solve them and render the solutions
  blokk sample -target 27 -max-volume 5 -db runs.db
  blokk solve-db -run <run-id> -db runs.db
  blokk report -run <run-id> -db runs.db -out report`)
}
