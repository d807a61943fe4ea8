//go:build cgo

package salesmart

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

const sampleCSV = `Unnamed: 0,Date,Customer ID,Order ID,Sales
0,2021-01-05,1,10,100
1,2021-01-20,2,12,500
2,2021-02-10,1,11,50
3,2021-06-01,3,13,10
4,not-a-date,4,14,25
5,2021-03-01,,15,75
`

func newTestPipeline(t *testing.T) (Pipeline, string) {
	t.Helper()
	dir := t.TempDir()

	input := filepath.Join(dir, "sales.csv")
	if err := os.WriteFile(input, []byte(sampleCSV), 0o644); err != nil {
		t.Fatalf("writing input: %v", err)
	}

	cfg := DefaultConfig()
	cfg.DBPath = filepath.Join(dir, "pipeline.db")
	cfg.MinCohortSize = 1
	p, err := New(cfg)
	if err != nil {
		t.Fatalf("creating pipeline: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p, input
}

func TestFullRun(t *testing.T) {
	p, input := newTestPipeline(t)
	ctx := context.Background()

	sum, err := p.Run(ctx, input)
	if err != nil {
		t.Fatalf("running pipeline: %v", err)
	}

	if sum.InputFile != "sales.csv" {
		t.Errorf("input file = %s", sum.InputFile)
	}
	if sum.TotalRows != 6 || sum.ValidRows != 4 {
		t.Errorf("row counts = %d/%d, want 6/4", sum.TotalRows, sum.ValidRows)
	}
	if sum.FlagCounts["INVALID_DATE"] != 1 || sum.FlagCounts["MISSING_ID"] != 1 {
		t.Errorf("flag counts wrong: %v", sum.FlagCounts)
	}
	if sum.Customers != 3 || sum.Orders != 4 || sum.Facts != 4 {
		t.Errorf("model sizes = %d/%d/%d, want 3/4/4", sum.Customers, sum.Orders, sum.Facts)
	}

	// No configured reference date: the max observed transaction date
	// anchors every recency computation.
	want := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	if !sum.ReferenceDate.Equal(want) {
		t.Errorf("reference date = %v, want %v", sum.ReferenceDate, want)
	}

	if len(sum.Insights) == 0 {
		t.Fatal("no insights produced")
	}
	if sum.Insights[0].PriorityLevel != 5 {
		t.Errorf("insights not severity-ordered: %+v", sum.Insights[0])
	}
}

func TestRunPersistsAllTables(t *testing.T) {
	p, input := newTestPipeline(t)
	ctx := context.Background()

	if _, err := p.Run(ctx, input); err != nil {
		t.Fatal(err)
	}

	status, err := p.Status(ctx)
	if err != nil {
		t.Fatalf("reading status: %v", err)
	}
	for table, n := range status.TableCounts {
		if n == 0 {
			t.Errorf("table %s is empty after a full run", table)
		}
	}
	if status.TableCounts["fact_sales"] != 4 {
		t.Errorf("fact_sales = %d, want 4", status.TableCounts["fact_sales"])
	}

	if len(status.Runs) != 3 {
		t.Fatalf("expected 3 run records, got %d", len(status.Runs))
	}
	for _, r := range status.Runs {
		if r.Status != "SUCCESS" {
			t.Errorf("run %s status = %s", r.RunID, r.Status)
		}
	}
}

func TestRunDeterministic(t *testing.T) {
	p, input := newTestPipeline(t)
	ctx := context.Background()

	first, err := p.Run(ctx, input)
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.Run(ctx, input)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("re-run diverged:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestExport(t *testing.T) {
	p, input := newTestPipeline(t)
	ctx := context.Background()

	if _, err := p.Run(ctx, input); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	paths, err := p.Export(ctx, dir)
	if err != nil {
		t.Fatalf("exporting: %v", err)
	}
	// Nine JSON tables plus the workbook.
	if len(paths) != 10 {
		t.Fatalf("expected 10 files, got %d: %v", len(paths), paths)
	}
	var workbooks int
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("missing export %s: %v", path, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("empty export %s", path)
		}
		if strings.HasSuffix(path, ".xlsx") {
			workbooks++
		}
	}
	if workbooks != 1 {
		t.Errorf("expected 1 workbook, got %d", workbooks)
	}
}

func TestExportBeforeRun(t *testing.T) {
	p, _ := newTestPipeline(t)
	if _, err := p.Export(context.Background(), t.TempDir()); !errors.Is(err, ErrStageFailed) {
		t.Errorf("err = %v, want ErrStageFailed", err)
	}
}

func TestRunUnsupportedFormat(t *testing.T) {
	p, _ := newTestPipeline(t)
	_, err := p.Run(context.Background(), "sales.parquet")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestRunNoValidTransactions(t *testing.T) {
	p, _ := newTestPipeline(t)
	dir := t.TempDir()

	input := filepath.Join(dir, "bad.csv")
	contents := "Unnamed: 0,Date,Customer ID,Order ID,Sales\n0,not-a-date,1,10,100\n"
	if err := os.WriteFile(input, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := p.Run(context.Background(), input)
	if !errors.Is(err, ErrNoTransactions) {
		t.Errorf("err = %v, want ErrNoTransactions", err)
	}
}

func TestRunWarehouseWithoutStaging(t *testing.T) {
	p, _ := newTestPipeline(t)
	if _, err := p.RunWarehouse(context.Background()); !errors.Is(err, ErrNoTransactions) {
		t.Errorf("err = %v, want ErrNoTransactions", err)
	}
}

func TestStagesComposeLikeFullRun(t *testing.T) {
	p, input := newTestPipeline(t)
	ctx := context.Background()

	res, err := p.RunStaging(ctx, input)
	if err != nil {
		t.Fatalf("staging: %v", err)
	}
	if len(res.Transactions) != 4 {
		t.Fatalf("staged %d transactions, want 4", len(res.Transactions))
	}

	model, err := p.RunWarehouse(ctx)
	if err != nil {
		t.Fatalf("warehouse: %v", err)
	}
	if len(model.Customers) != 3 {
		t.Fatalf("built %d customers, want 3", len(model.Customers))
	}

	a, err := p.RunAnalytics(ctx)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if len(a.Segments) != 3 || len(a.LTV) != 3 {
		t.Errorf("per-customer tables = %d/%d, want 3/3", len(a.Segments), len(a.LTV))
	}
	if len(a.Monthly) != 3 {
		t.Errorf("monthly rows = %d, want 3", len(a.Monthly))
	}
	if len(a.Insights) == 0 {
		t.Error("no insights")
	}
}

func TestRunFailureRecordedInAudit(t *testing.T) {
	p, _ := newTestPipeline(t)
	ctx := context.Background()

	if _, err := p.RunWarehouse(ctx); err == nil {
		t.Fatal("expected failure on empty staging")
	}

	status, err := p.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(status.Runs) != 1 || status.Runs[0].Status != "FAILED" {
		t.Errorf("failure not recorded: %+v", status.Runs)
	}
	if status.Runs[0].Layer != LayerWarehouse {
		t.Errorf("run layer = %s, want %s", status.Runs[0].Layer, LayerWarehouse)
	}
}
