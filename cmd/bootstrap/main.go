// Command bootstrap is the one-shot operational entry point that
// establishes or resets the administration/track/station hierarchy. It
// exits non-zero when any creation step fails so automation can detect an
// incomplete bootstrap; already-committed entities are left in place.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/oscehub/oscehub/internal/bootstrap"
	"github.com/oscehub/oscehub/internal/config"
	"github.com/oscehub/oscehub/internal/logging"
	"github.com/oscehub/oscehub/internal/store"
)

var (
	templatePath string
	trackCount   int
	stationCount int
	doReset      bool
	doWipe       bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "oscehub-bootstrap",
		Short: "Create or reset the administration/track/station hierarchy",
		Long: `oscehub-bootstrap establishes the three-level test-event hierarchy from
either a nested JSON template or a fixed fan-out (N tracks x M stations
per existing administration).

Destructive pre-steps are explicit opt-ins: --reset clears tracks and
stations while keeping administrations; --wipe additionally deletes
administrations and all participant rosters.`,
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Flags().StringVar(&templatePath, "template", "", "path to a JSON hierarchy template")
	rootCmd.Flags().IntVar(&trackCount, "tracks", 0, "fan-out: tracks to create per administration")
	rootCmd.Flags().IntVar(&stationCount, "stations", 0, "fan-out: stations to create per track")
	rootCmd.Flags().BoolVar(&doReset, "reset", false, "delete stations and tracks first (administrations kept)")
	rootCmd.Flags().BoolVar(&doWipe, "wipe", false, "delete the entire hierarchy and all participants first")

	if err := rootCmd.Execute(); err != nil {
		color.Red("bootstrap failed: %v", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	fanOut := trackCount > 0 || stationCount > 0
	if templatePath != "" && fanOut {
		return errors.New("--template and --tracks/--stations are mutually exclusive")
	}
	if templatePath == "" && !fanOut && !doReset && !doWipe {
		return errors.New("nothing to do: pass --template, --tracks/--stations, --reset, or --wipe")
	}

	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	if err := store.EnsureSchema(ctx, pool); err != nil {
		return err
	}

	runner := bootstrap.NewRunner(store.NewPostgresCollections(pool))

	if doWipe {
		color.Yellow("wiping hierarchy and all participant rosters...")
		res, err := runner.Wipe(ctx)
		if err != nil {
			return err
		}
		printResetSummary(res, true)
	} else if doReset {
		color.Yellow("resetting tracks and stations...")
		res, err := runner.Reset(ctx)
		if err != nil {
			return err
		}
		printResetSummary(res, false)
	}

	switch {
	case templatePath != "":
		tmpl, err := bootstrap.LoadTemplate(templatePath)
		if err != nil {
			return err
		}
		res, err := runner.ApplyTemplate(ctx, tmpl)
		printCreateSummary(res)
		if err != nil {
			return err
		}
		color.Green("template bootstrap complete")

	case fanOut:
		res, err := runner.FanOut(ctx, trackCount, stationCount)
		printCreateSummary(res)
		if err != nil {
			return err
		}
		color.Green("fan-out bootstrap complete")
	}

	return nil
}

// printCreateSummary renders the created-entity counts, including partial
// counts when the run aborted midway.
func printCreateSummary(res *bootstrap.Result) {
	if res == nil {
		return
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Entity", "Created"})
	table.Append([]string{"Administrations", strconv.Itoa(res.Administrations)})
	table.Append([]string{"Tracks", strconv.Itoa(res.Tracks)})
	table.Append([]string{"Stations", strconv.Itoa(res.Stations)})
	table.Render()
}

func printResetSummary(res *bootstrap.ResetResult, wiped bool) {
	if res == nil {
		return
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Entity", "Deleted"})
	table.Append([]string{"Stations", strconv.FormatInt(res.Stations, 10)})
	table.Append([]string{"Tracks", strconv.FormatInt(res.Tracks, 10)})
	if wiped {
		table.Append([]string{"Administrations", strconv.FormatInt(res.Administrations, 10)})
		table.Append([]string{"Participants", strconv.FormatInt(res.Participants, 10)})
	}
	table.Render()
}
