package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/packfinderz-payouts/pkg/config"
	"github.com/angelmondragon/packfinderz-payouts/pkg/db"
	"github.com/angelmondragon/packfinderz-payouts/pkg/logger"
	"github.com/angelmondragon/packfinderz-payouts/pkg/migrate"
)

const usage = `usage: migrate <command> [flags]

commands:
  up              apply all pending migrations
  down            roll back the latest migration
  to -version V   migrate up or down to version V
  status          list migrations and whether they are applied
  create -name N  write a new empty migration into -dir
  validate        check the embedded migrations
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cmd := os.Args[1]

	fset := flag.NewFlagSet(cmd, flag.ExitOnError)
	dir := fset.String("dir", migrate.Dir, "migrations directory for create")
	name := fset.String("name", "", "migration name for create")
	version := fset.String("version", "", "target version for to")
	_ = fset.Parse(os.Args[2:])

	switch cmd {
	case "create":
		path, err := migrate.CreateSQLMigration(*dir, *name, time.Now())
		exitOn(err)
		fmt.Println("created", path)
		return
	case "validate":
		exitOn(migrate.Validate(migrate.Source()))
		fmt.Println("migrations ok")
		return
	case "up", "down", "to", "status":
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	exitOn(err)
	if cfg.FeatureFlags.UseSQLite {
		exitOn(fmt.Errorf("migrations target Postgres; sqlite schemas are created from the models"))
	}

	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env, "cmd": cmd})

	dbClient, err := db.New(ctx, cfg.DB, false, logg)
	exitOn(err)
	defer dbClient.Close()

	sqlDB, err := dbClient.SQL()
	exitOn(err)
	runner, err := migrate.NewRunner(sqlDB, migrate.Source(), logg)
	exitOn(err)

	switch cmd {
	case "up":
		err = runner.Up(ctx)
	case "down":
		err = runner.Down(ctx)
	case "to":
		var target int64
		target, err = strconv.ParseInt(*version, 10, 64)
		if err != nil {
			err = fmt.Errorf("-version must be a yyyymmddhhmmss number: %w", err)
			break
		}
		err = runner.To(ctx, target)
	case "status":
		err = printStatus(ctx, runner)
	}
	if err != nil {
		logg.Error(ctx, "migrate failed", err)
		os.Exit(1)
	}
}

func printStatus(ctx context.Context, runner *migrate.Runner) error {
	statuses, err := runner.Status(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tAPPLIED AT\tFILE")
	for _, s := range statuses {
		applied := "pending"
		if s.Applied {
			applied = s.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", s.Version, applied, s.Path)
	}
	return tw.Flush()
}

func exitOn(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "migrate:", err)
	os.Exit(1)
}
