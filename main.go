// Package main builds thesis statistics reports for the thesis portal.
// It aggregates registered theses and portal feedback from the database and
// renders them into a fixed-layout PDF report:
//   - overview with KPI cards, student split and rating distribution
//   - program rankings, monthly trend with recent feedback
//   - campus breakdown and summary figures
//
// The report is saved locally and optionally emailed, or served to admins
// through the HTTP API.
//
// Usage: thesisreport [--version] [serve | report [YEAR|all] [START END] [--email]]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// Constants
// ---------------------------------------------------------------------------

const (
	version         = "1.0.0"
	shutdownTimeout = 5 * time.Second
)

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

// reportArgs holds the parsed arguments of the report command.
type reportArgs struct {
	filter ReportFilter
	email  bool
}

// parseReportArgs accepts [YEAR|all] [START END] and an --email flag anywhere.
func parseReportArgs(args []string) (reportArgs, error) {
	var ra reportArgs
	var pos []string
	for _, a := range args {
		if a == "--email" {
			ra.email = true
			continue
		}
		pos = append(pos, a)
	}

	var err error
	switch len(pos) {
	case 0:
		ra.filter, err = parseFilter(yearAll, "", "")
	case 1:
		ra.filter, err = parseFilter(pos[0], "", "")
	case 2:
		ra.filter, err = parseFilter(yearAll, pos[0], pos[1])
	case 3:
		ra.filter, err = parseFilter(pos[0], pos[1], pos[2])
	default:
		err = fmt.Errorf("too many arguments: %v", pos)
	}
	return ra, err
}

func runReport(ctx context.Context, cfg *Config, args []string) error {
	ra, err := parseReportArgs(args)
	if err != nil {
		return err
	}
	opts, err := cfg.reportOptions()
	if err != nil {
		return err
	}

	store, err := openStore(cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	agg := newAggregator(store, newBusinessCalendar(cfg.Calendar), cfg.Report.RecentDays)
	stats, err := agg.Statistics(ctx, ra.filter)
	if err != nil {
		return err
	}
	if cfg.Report.Charts {
		opts.Capturer = newChartRasterizer(stats, opts.Theme)
	}

	report, err := generateReport(ctx, stats, ra.filter, opts)
	if err != nil {
		return err
	}
	result, err := saveReport(cfg.Report.OutputDir, report)
	if err != nil {
		return err
	}
	if ra.email {
		if err := sendReport(cfg, report, ra.filter); err != nil {
			return err
		}
		zap.L().Info("report sent", zap.String("to", cfg.Email.To))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func serve(ctx context.Context, cfg *Config) error {
	store, err := openStore(cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.EnsureAdmin(ctx, cfg.App.AdminEmail, cfg.App.AdminPassword); err != nil {
		return err
	}
	agg := newAggregator(store, newBusinessCalendar(cfg.Calendar), cfg.Report.RecentDays)
	srv, err := newServer(cfg, store, agg)
	if err != nil {
		return err
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Listen() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errc:
		return err
	case <-quit:
	}

	zap.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func run(ctx context.Context, cfg *Config, args []string) error {
	cmd := "report"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}
	switch cmd {
	case "serve":
		return serve(ctx, cfg)
	case "report":
		return runReport(ctx, cfg, args)
	}
	return errors.New("usage: thesisreport [--version] [serve | report [YEAR|all] [START END] [--email]]")
}

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Printf("thesisreport v%s\n", version)
		return
	}

	cfg, err := loadConfig(configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := initLogger(cfg.App.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(context.Background(), cfg, os.Args[1:]); err != nil {
		logger.Error("command failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}
