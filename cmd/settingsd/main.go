// settingsd - persistent settings store for the Marauder firmware.
//
// settingsd owns the settings document on the device's storage medium,
// records every change in a local history database and, when enabled,
// mirrors changes to MQTT (retained state) and InfluxDB (time series).
//
// Usage:
//
//	settingsd [-config path] [command] [args]
//
// With no command, settingsd runs the daemon loop until interrupted.
// See usage() for the maintenance commands.
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

	"github.com/nerrad567/settingsd/internal/infrastructure/config"
	"github.com/nerrad567/settingsd/internal/infrastructure/logging"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/settingsd.yaml"

// errUsage reports a malformed command line; usage has already been printed.
var errUsage = errors.New("invalid usage")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run parses the command line and dispatches to a command.
// Separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - args: Command line without the program name
//   - stdout: Destination for command output
//   - stderr: Destination for usage text and, for maintenance commands, logs
//
// Returns:
//   - error: nil on success or clean shutdown
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("settingsd", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", getConfigPath(), "path to the YAML configuration file")
	showVersion := flags.Bool("version", false, "print version information and exit")
	flags.Usage = func() { usage(stderr) }

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return errUsage
	}

	if *showVersion {
		fmt.Fprintf(stdout, "settingsd %s (commit %s, built %s)\n", version, commit, date)
		return nil
	}

	name := "run"
	rest := flags.Args()
	if len(rest) > 0 {
		name, rest = rest[0], rest[1:]
	}

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", name)
		usage(stderr)
		return errUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// The daemon logs where the configuration says; maintenance commands
	// keep stdout for their own output.
	var log *logging.Logger
	if name == "run" {
		log = logging.New(cfg.Logging, version)
	} else {
		log = logging.NewWithWriter(cfg.Logging, version, stderr)
	}

	return cmd.run(ctx, &env{
		cfg:    cfg,
		log:    log,
		args:   rest,
		stdout: stdout,
		stderr: stderr,
	})
}

// getConfigPath returns the configuration file path.
// Uses SETTINGSD_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SETTINGSD_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

func usage(w io.Writer) {
	fmt.Fprint(w, `Usage: settingsd [-config path] [command] [args]

Commands:
  run                     run the daemon until interrupted (default)
  list                    list all settings in document order
  get <name>              print the value of a setting
  set [-force] <name> <value>
                          store a new value (rejected outside its range unless -force)
  toggle <name>           negate a bool setting
  history [-name n] [-limit n]
                          show recorded changes, newest first
  print [-json|-pretty]   print all settings, or the stored document
  db status|rollback      show history schema migrations, or roll back the
                          latest (reapplied by the next command that opens settings)

Flags:
  -config path            configuration file (env SETTINGSD_CONFIG)
  -version                print version information
`)
}
