// cmd/tools/extract-data/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"facility-ml/internal/common/config"
	"facility-ml/internal/common/logger"
	"facility-ml/internal/dataloader"
)

const conflictLookbackMonths = 12

func main() {
	framesCmd := flag.NewFlagSet("frames", flag.ExitOnError)
	purposesCmd := flag.NewFlagSet("purposes", flag.ExitOnError)

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	var out string
	var days int
	for _, fs := range []*flag.FlagSet{framesCmd, purposesCmd} {
		fs.StringVar(&out, "out", cfg.Data.Dir, "Directory to write CSV files to")
		fs.IntVar(&days, "days", 365, "Days of history to export")
	}

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	var run func(ctx context.Context, l *dataloader.Loader, r dataloader.DateRange, out string) error
	switch os.Args[1] {
	case "frames":
		framesCmd.Parse(os.Args[2:])
		run = extractFrames
	case "purposes":
		purposesCmd.Parse(os.Args[2:])
		run = extractPurposes
	default:
		help()
		return
	}

	if err := cfg.RequirePostgres(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, "stderr")
	defer zapLog.Sync()

	ctx := context.Background()
	loader, err := dataloader.Open(ctx, cfg.Database.Postgres, logger.NewZapAdapter(zapLog))
	if err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer loader.Close()

	r := dataloader.LastDays(time.Now(), days)
	fmt.Printf("Extracting data from %s to %s into %s\n", r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"), out)
	if err := run(ctx, loader, r, out); err != nil {
		fmt.Printf("Error during data extraction: %v\n", err)
		loader.Close()
		os.Exit(1)
	}
	fmt.Println("Data extraction complete.")
}

func extractFrames(ctx context.Context, l *dataloader.Loader, r dataloader.DateRange, out string) error {
	reservations, err := l.LoadReservations(ctx, r)
	if err != nil {
		return err
	}
	if err := save(out, dataloader.ReservationsCSV)(dataloader.ReservationRows(reservations)); err != nil {
		return err
	}

	facilities, err := l.LoadFacilities(ctx)
	if err != nil {
		return err
	}
	if err := save(out, dataloader.FacilitiesCSV)(dataloader.FacilityRows(facilities)); err != nil {
		return err
	}

	users, err := l.LoadActiveUsers(ctx)
	if err != nil {
		return err
	}
	if err := save(out, dataloader.UsersCSV)(dataloader.UserRows(users)); err != nil {
		return err
	}

	conflicts, err := l.LoadHistoricalConflicts(ctx, conflictLookbackMonths)
	if err != nil {
		return err
	}
	return save(out, dataloader.ConflictsCSV)(dataloader.ConflictRows(conflicts))
}

func extractPurposes(ctx context.Context, l *dataloader.Loader, r dataloader.DateRange, out string) error {
	purposes, err := l.LoadPurposeTexts(ctx, r)
	if err != nil {
		return err
	}
	if len(purposes) > 0 {
		if err := save(out, dataloader.PurposesCSV)(dataloader.PurposeRows(purposes)); err != nil {
			return err
		}
		if err := save(out, dataloader.PurposesFullCSV)(dataloader.PurposeFullRows(purposes)); err != nil {
			return err
		}
		counts := make(map[string]int)
		for _, p := range purposes {
			counts[p.Status]++
		}
		for status, n := range counts {
			fmt.Printf("  %-10s %d\n", status, n)
		}
	}

	audit, err := l.LoadAuditEntries(ctx, r)
	if err != nil {
		return err
	}
	if header, rows := dataloader.AuditPurposeRows(audit); len(rows) > 0 {
		if err := save(out, dataloader.AuditPurposesCSV)(header, rows); err != nil {
			return err
		}
	}

	notes, err := l.LoadHistoryNotes(ctx, r)
	if err != nil {
		return err
	}
	if len(notes) > 0 {
		return save(out, dataloader.HistoryNotesCSV)(dataloader.HistoryNoteRows(notes))
	}
	return nil
}

// save returns a writer for one CSV file that also reports the row count.
func save(dir, name string) func(header []string, rows [][]string) error {
	return func(header []string, rows [][]string) error {
		if err := dataloader.WriteCSV(dir, name, header, rows); err != nil {
			return err
		}
		fmt.Printf("  %-45s %d rows\n", name, len(rows))
		return nil
	}
}

func help() {
	fmt.Print(`
Usage: extract-data <command> [flags]

Commands:
  frames    Export reservations, facilities, users and conflicts
  purposes  Export purpose texts from reservations, audit logs and history notes

Flags:
  -out   Output directory (default data.dir)
  -days  Days of history to export (default 365)
`)
}
