package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"washpulse/internal/config"
	"washpulse/internal/exporter"
	"washpulse/internal/infrastructure"
	"washpulse/internal/services"
	"washpulse/internal/store"
	"washpulse/pkg/contracts/domain"
)

const dateLayout = "2006-01-02"

func main() {
	// Load .env for local development (ignore errors, production deployments
	// populate the environment directly)
	_ = godotenv.Load()

	fromStr := flag.String("from", "", "start date (YYYY-MM-DD); empty uses the trailing default range")
	toStr := flag.String("to", "", "end date (YYYY-MM-DD); empty uses the newest available date")
	sitesStr := flag.String("sites", "", "comma-separated site IDs; empty exports all sites")
	outDir := flag.String("out", "", "output directory (defaults to the configured exports dir)")
	workbook := flag.Bool("workbook", false, "also write the XLSX workbook with one sheet per aggregate table")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	filter, err := parseFilter(*fromStr, *toStr, *sitesStr)
	if err != nil {
		logger.Error("Invalid flags", "error", err)
		os.Exit(1)
	}

	if *outDir == "" {
		*outDir = cfg.Paths.ExportsDir
	}

	// One trace id ties the connect, load and write log lines together.
	ctx := infrastructure.EnsureTraceID(context.Background())

	st, err := store.Connect(ctx, store.StrategiesFromConfig(cfg), logger, nil)
	if err != nil {
		logger.Error("No data source available", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	loader := store.NewLoader(st, cfg.Store.QueryTimeout, logger, nil)

	// A short-lived cache keeps the snapshot shared between the issue scan
	// and the export assembly without a second warehouse pull.
	snapshots := services.NewSnapshotService(loader, nil,
		config.CacheConfig{Enabled: true, TTL: time.Minute}, "", logger)
	dashboard := services.NewDashboardService(snapshots, logger, nil)

	snap := snapshots.Snapshot(ctx)
	for _, issue := range snap.Issues {
		logger.Warn("Dataset failed to load, export continues without it",
			"dataset", issue.Dataset,
			"message", issue.Message)
	}

	data, err := dashboard.ExportData(ctx, filter)
	if err != nil {
		logger.Error("Failed to assemble export data", "error", err)
		os.Exit(1)
	}

	tables := exporter.BuildTables(data)
	writer := exporter.NewCSVWriter(true)

	empty := 0
	for _, table := range tables {
		path, err := writer.WriteTableFile(*outDir, table)
		if err != nil {
			logger.Error("Failed to write table", "table", table.Key, "error", err)
			os.Exit(1)
		}
		if len(table.Rows) == 0 {
			empty++
		}
		fmt.Printf("  %-24s %7d rows  %s\n", table.Key, len(table.Rows), path)
	}

	if *workbook {
		path := filepath.Join(*outDir, "washpulse_export.xlsx")
		if err := exporter.WriteWorkbookFile(path, exporter.BuildAggregateTables(data)); err != nil {
			logger.Error("Failed to write workbook", "path", path, "error", err)
			os.Exit(1)
		}
		fmt.Printf("  %-24s %15s  %s\n", "workbook", "", path)
	}

	if empty == len(tables) {
		fmt.Println("No records matched the requested range; wrote header-only files.")
	}
	fmt.Printf("Exported %d tables from %s\n", len(tables), snap.Source)
}

// parseFilter converts the CLI flags into a record filter. Empty dates are
// left zero so the service fills in its default trailing range.
func parseFilter(fromStr, toStr, sitesStr string) (domain.RecordFilter, error) {
	var filter domain.RecordFilter

	if fromStr != "" {
		from, err := time.Parse(dateLayout, fromStr)
		if err != nil {
			return domain.RecordFilter{}, fmt.Errorf("invalid -from date %q, expected YYYY-MM-DD", fromStr)
		}
		filter.From = from
	}
	if toStr != "" {
		to, err := time.Parse(dateLayout, toStr)
		if err != nil {
			return domain.RecordFilter{}, fmt.Errorf("invalid -to date %q, expected YYYY-MM-DD", toStr)
		}
		filter.To = to
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return domain.RecordFilter{}, fmt.Errorf("-to %s is before -from %s", toStr, fromStr)
	}

	for _, site := range strings.Split(sitesStr, ",") {
		if site = strings.TrimSpace(site); site != "" {
			filter.SiteIDs = append(filter.SiteIDs, site)
		}
	}
	return filter, nil
}
