// Command pipeline runs the sales analytics batch pipeline: staging,
// warehouse build, analytics tables and optional file export.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/brunobiangulo/salesmart"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (JSON)")
	input := flag.String("input", "", "Transaction file to ingest (CSV or XLSX)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	stage := flag.String("stage", "all", "Stage to run: staging, warehouse, analytics, all")
	exportDir := flag.String("export", "", "Directory for JSON/XLSX exports (skipped when empty)")
	showStatus := flag.Bool("status", false, "Print recent runs and table counts, then exit")
	flag.Parse()

	// Structured JSON logging.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg := salesmart.DefaultConfig()
	if *configPath != "" {
		f, err := os.Open(*configPath)
		if err != nil {
			slog.Error("opening config", "error", err)
			os.Exit(1)
		}
		if err := json.NewDecoder(f).Decode(&cfg); err != nil {
			f.Close()
			slog.Error("parsing config", "error", err)
			os.Exit(1)
		}
		f.Close()
	}

	// Override from environment variables.
	if v := os.Getenv("SALESMART_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("SALESMART_REFERENCE_DATE"); v != "" {
		cfg.ReferenceDate = v
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *input == "" {
		*input = os.Getenv("SALESMART_INPUT")
	}

	p, err := salesmart.New(cfg)
	if err != nil {
		slog.Error("creating pipeline", "error", err)
		os.Exit(1)
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *showStatus {
		status, err := p.Status(ctx)
		if err != nil {
			slog.Error("reading status", "error", err)
			os.Exit(1)
		}
		out, _ := json.MarshalIndent(status, "", "  ")
		fmt.Println(string(out))
		return
	}

	if err := run(ctx, p, *stage, *input); err != nil {
		slog.Error("pipeline failed", "stage", *stage, "error", err)
		os.Exit(1)
	}

	if *exportDir != "" {
		paths, err := p.Export(ctx, *exportDir)
		if err != nil {
			slog.Error("export failed", "error", err)
			os.Exit(1)
		}
		slog.Info("export complete", "files", len(paths), "dir", *exportDir)
	}
}

func run(ctx context.Context, p salesmart.Pipeline, stage, input string) error {
	switch stage {
	case "all":
		if input == "" {
			return fmt.Errorf("missing -input (or SALESMART_INPUT)")
		}
		summary, err := p.Run(ctx, input)
		if err != nil {
			return err
		}
		slog.Info("pipeline complete",
			"input", summary.InputFile,
			"reference_date", summary.ReferenceDate.Format("2006-01-02"),
			"valid_rows", summary.ValidRows,
			"customers", summary.Customers,
			"orders", summary.Orders,
			"insights", len(summary.Insights))
		for _, ins := range summary.Insights {
			slog.Info("insight", "id", ins.InsightID, "priority", ins.PriorityLevel, "title", ins.Title)
		}
		return nil
	case "staging":
		if input == "" {
			return fmt.Errorf("missing -input (or SALESMART_INPUT)")
		}
		_, err := p.RunStaging(ctx, input)
		return err
	case "warehouse":
		_, err := p.RunWarehouse(ctx)
		return err
	case "analytics":
		_, err := p.RunAnalytics(ctx)
		return err
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
}
