package main

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/nerrad567/settingsd/internal/history"
	"github.com/nerrad567/settingsd/internal/settings"
	"github.com/nerrad567/settingsd/migrations"
)

// command is one settingsd subcommand.
type command struct {
	run func(ctx context.Context, e *env) error
}

var commands = map[string]command{
	"run":     {run: runDaemon},
	"list":    {run: runList},
	"get":     {run: runGet},
	"set":     {run: runSet},
	"toggle":  {run: runToggle},
	"history": {run: runHistory},
	"print":   {run: runPrint},
	"db":      {run: runDB},
}

// newFlagSet returns a FlagSet that reports errors to e.stderr.
func newFlagSet(e *env, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

// parseArgs parses e.args into fs and checks the positional count.
func parseArgs(e *env, fs *flag.FlagSet, positional int) ([]string, error) {
	if err := fs.Parse(e.args); err != nil {
		return nil, errUsage
	}
	if fs.NArg() != positional {
		fmt.Fprintf(e.stderr, "%s: expected %d argument(s), got %d\n", fs.Name(), positional, fs.NArg())
		return nil, errUsage
	}
	return fs.Args(), nil
}

// withStore runs fn against an opened app. Mutating commands pass feeds so
// their changes reach MQTT and InfluxDB like the daemon's.
func withStore(ctx context.Context, e *env, feeds bool, fn func(a *app) error) error {
	a, err := openApp(ctx, e, feeds)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func runList(ctx context.Context, e *env) error {
	if _, err := parseArgs(e, newFlagSet(e, "list"), 0); err != nil {
		return err
	}
	return withStore(ctx, e, false, func(a *app) error {
		descriptors, err := a.store.Descriptors()
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(e.stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "INDEX\tNAME\tTYPE\tVALUE\tRANGE")
		for i, d := range descriptors {
			bounds := "-"
			if d.Range != nil {
				bounds = fmt.Sprintf("%s..%s", d.Range.Min, d.Range.Max)
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i, d.Name, d.Type, d.Value, bounds)
		}
		return tw.Flush()
	})
}

func runGet(ctx context.Context, e *env) error {
	args, err := parseArgs(e, newFlagSet(e, "get"), 1)
	if err != nil {
		return err
	}
	return withStore(ctx, e, false, func(a *app) error {
		v, err := a.store.Value(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(e.stdout, v)
		return nil
	})
}

// runSet parses the value against the setting's declared type and checks
// its range before saving.
func runSet(ctx context.Context, e *env) error {
	fs := newFlagSet(e, "set")
	force := fs.Bool("force", false, "store values outside the setting's range")
	args, err := parseArgs(e, fs, 2)
	if err != nil {
		return err
	}
	name, input := args[0], args[1]

	return withStore(ctx, e, true, func(a *app) error {
		d, err := descriptor(a.store, name)
		if err != nil {
			return err
		}

		v, err := settings.ParseValue(d.Type, input)
		if err != nil {
			return fmt.Errorf("setting %q: %w", name, err)
		}
		if d.Range != nil && !d.Range.Contains(v) && !*force {
			return fmt.Errorf("setting %q: %s outside range %s..%s (use -force)", name, v, d.Range.Min, d.Range.Max)
		}

		if err := a.store.SetValue(name, v); err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "%s = %s\n", name, v)
		return nil
	})
}

func runToggle(ctx context.Context, e *env) error {
	args, err := parseArgs(e, newFlagSet(e, "toggle"), 1)
	if err != nil {
		return err
	}
	return withStore(ctx, e, true, func(a *app) error {
		v, err := a.store.Toggle(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "%s = %t\n", args[0], v)
		return nil
	})
}

func runHistory(ctx context.Context, e *env) error {
	fs := newFlagSet(e, "history")
	name := fs.String("name", "", "only show changes to this setting")
	limit := fs.Int("limit", history.DefaultLimit, "maximum number of entries")
	if _, err := parseArgs(e, fs, 0); err != nil {
		return err
	}

	return withStore(ctx, e, false, func(a *app) error {
		entries, err := a.history.List(ctx, history.Filter{Name: *name, Limit: *limit})
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(e.stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tNAME\tOLD\tNEW\tSOURCE")
		for _, entry := range entries {
			old := "-"
			if entry.Old.IsValid() {
				old = entry.Old.String()
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				entry.CreatedAt.Format("2006-01-02 15:04:05"), entry.Name, old, entry.New, entry.Source)
		}
		return tw.Flush()
	})
}

func runPrint(ctx context.Context, e *env) error {
	fs := newFlagSet(e, "print")
	raw := fs.Bool("json", false, "print the stored document as written")
	pretty := fs.Bool("pretty", false, "print the stored document indented")
	if _, err := parseArgs(e, fs, 0); err != nil {
		return err
	}

	return withStore(ctx, e, false, func(a *app) error {
		switch {
		case *pretty:
			fmt.Fprint(e.stdout, a.store.Pretty())
		case *raw:
			fmt.Fprintln(e.stdout, a.store.Canonical())
		default:
			return a.store.Print(e.stdout)
		}
		return nil
	})
}

// runDB inspects or rolls back the history schema. It opens the database
// directly: opening the store would migrate it first.
func runDB(ctx context.Context, e *env) error {
	args, err := parseArgs(e, newFlagSet(e, "db"), 1)
	if err != nil {
		return err
	}
	action := args[0]
	if action != "status" && action != "rollback" {
		fmt.Fprintf(e.stderr, "db: unknown action %q (want status or rollback)\n", action)
		return errUsage
	}

	db, err := openDatabase(ctx, e.cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // read-mostly maintenance connection

	applied, pending, err := db.MigrationStatus(ctx, migrations.FS)
	if err != nil {
		return fmt.Errorf("reading migration status: %w", err)
	}

	if action == "rollback" {
		if len(applied) == 0 {
			fmt.Fprintln(e.stdout, "no migrations applied")
			return nil
		}
		latest := applied[len(applied)-1].Version
		if err := db.MigrateDown(ctx, migrations.FS); err != nil {
			return fmt.Errorf("rolling back %s: %w", latest, err)
		}
		e.log.Info("migration rolled back", "version", latest)
		fmt.Fprintf(e.stdout, "rolled back %s\n", latest)
		return nil
	}

	tw := tabwriter.NewWriter(e.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED")
	for _, m := range applied {
		fmt.Fprintf(tw, "%s\tapplied\t%s\n", m.Version, m.AppliedAt.Format("2006-01-02 15:04:05"))
	}
	for _, m := range pending {
		fmt.Fprintf(tw, "%s\tpending\t-\n", m.Version)
	}
	return tw.Flush()
}

// descriptor returns the descriptor of the setting named name.
func descriptor(store *settings.Store, name string) (settings.Descriptor, error) {
	descriptors, err := store.Descriptors()
	if err != nil {
		return settings.Descriptor{}, err
	}
	for _, d := range descriptors {
		if d.Name == name {
			return d, nil
		}
	}
	return settings.Descriptor{}, fmt.Errorf("%w: %q", settings.ErrKeyNotFound, name)
}
