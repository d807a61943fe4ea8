package salesmart

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brunobiangulo/salesmart/campaign"
	"github.com/brunobiangulo/salesmart/export"
	"github.com/brunobiangulo/salesmart/insight"
	"github.com/brunobiangulo/salesmart/ltv"
	"github.com/brunobiangulo/salesmart/metrics"
	"github.com/brunobiangulo/salesmart/retention"
	"github.com/brunobiangulo/salesmart/segment"
	"github.com/brunobiangulo/salesmart/staging"
	"github.com/brunobiangulo/salesmart/store"
	"github.com/brunobiangulo/salesmart/warehouse"
)

// Pipeline layer names used in the run audit trail.
const (
	LayerStaging   = "STAGING"
	LayerWarehouse = "WAREHOUSE"
	LayerBusiness  = "BUSINESS"
)

// Pipeline is the main entry point for the sales analytics pipeline.
type Pipeline interface {
	// Run executes all three layers against one input file:
	// staging, the dimensional warehouse, and the analytics tables.
	Run(ctx context.Context, inputPath string) (*Summary, error)

	// RunStaging ingests and cleans one transaction file, replacing
	// the staging table.
	RunStaging(ctx context.Context, inputPath string) (*staging.Result, error)

	// RunWarehouse rebuilds the dimensional model from the current
	// staging table.
	RunWarehouse(ctx context.Context) (*warehouse.Model, error)

	// RunAnalytics rebuilds every analytics table from the current
	// warehouse tables.
	RunAnalytics(ctx context.Context) (*Analytics, error)

	// Export writes all analytics tables as timestamped JSON files
	// plus one XLSX workbook into dir. Returns the paths written.
	Export(ctx context.Context, dir string) ([]string, error)

	// Status returns recent run records and current table row counts.
	Status(ctx context.Context) (*Status, error)

	// Store returns the underlying store for diagnostic access.
	Store() *store.Store

	// Close cleanly shuts down the pipeline.
	Close() error
}

// Analytics bundles the outputs of the business layer.
type Analytics struct {
	Monthly    []metrics.MonthlyRow
	Seasonal   []metrics.SeasonalRow
	Lifecycle  []metrics.LifecycleRow
	Cohorts    []retention.CohortRow
	Cumulative []retention.CumulativeRow
	LTV        []ltv.Row
	Segments   []segment.Row
	Targets    []campaign.Target
	Insights   []insight.Row
}

// Summary reports the outcome of one full pipeline run.
type Summary struct {
	InputFile     string         `json:"input_file"`
	ReferenceDate time.Time      `json:"reference_date"`
	TotalRows     int            `json:"total_rows"`
	ValidRows     int            `json:"valid_rows"`
	FlagCounts    map[string]int `json:"flag_counts"`
	Customers     int            `json:"customers"`
	Orders        int            `json:"orders"`
	Facts         int            `json:"facts"`
	Insights      []insight.Row  `json:"insights"`
}

// Status reports the pipeline's persisted state.
type Status struct {
	Runs        []store.RunRecord `json:"runs"`
	TableCounts map[string]int    `json:"table_counts"`
}

// pipeline is the concrete implementation of Pipeline.
type pipeline struct {
	cfg   Config
	store *store.Store
}

// New validates the configuration, opens the store, and returns a
// ready pipeline.
func New(cfg Config) (Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s, err := store.New(cfg.resolveDBPath())
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	return &pipeline{cfg: cfg, store: s}, nil
}

func (p *pipeline) Store() *store.Store {
	return p.store
}

func (p *pipeline) Close() error {
	return p.store.Close()
}

// Run executes staging, warehouse and analytics in order. Each layer
// persists before the next starts, so a failure leaves all previously
// completed layers queryable.
func (p *pipeline) Run(ctx context.Context, inputPath string) (*Summary, error) {
	res, err := p.RunStaging(ctx, inputPath)
	if err != nil {
		return nil, err
	}

	model, err := p.RunWarehouse(ctx)
	if err != nil {
		return nil, err
	}

	analytics, err := p.RunAnalytics(ctx)
	if err != nil {
		return nil, err
	}

	return &Summary{
		InputFile:     filepath.Base(inputPath),
		ReferenceDate: model.ReferenceDate,
		TotalRows:     res.TotalRows,
		ValidRows:     len(res.Transactions),
		FlagCounts:    res.FlagCounts,
		Customers:     len(model.Customers),
		Orders:        len(model.Orders),
		Facts:         len(model.Facts),
		Insights:      analytics.Insights,
	}, nil
}

// RunStaging reads, cleans and persists one transaction file.
func (p *pipeline) RunStaging(ctx context.Context, inputPath string) (*staging.Result, error) {
	if !staging.Supported(inputPath) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(inputPath))
	}

	runID := p.startRun(ctx, LayerStaging, "stg_sales_cleaned")

	raws, err := staging.Read(inputPath)
	if err != nil {
		return nil, p.failRun(ctx, runID, LayerStaging, err)
	}

	res := staging.Clean(raws)
	slog.Info("staging cleaned",
		"file", filepath.Base(inputPath),
		"total_rows", res.TotalRows,
		"valid_rows", len(res.Transactions),
		"rejected", res.TotalRows-len(res.Transactions))

	if len(res.Transactions) == 0 {
		return nil, p.failRun(ctx, runID, LayerStaging, fmt.Errorf("%w in %s", ErrNoTransactions, filepath.Base(inputPath)))
	}

	if err := p.store.SaveTransactions(ctx, res.Transactions, filepath.Base(inputPath)); err != nil {
		return nil, p.failRun(ctx, runID, LayerStaging, err)
	}

	p.checkMinRows(ctx, runID, "stg_sales_cleaned", 1, len(res.Transactions))
	p.checkFlagCounts(ctx, runID, &res)
	p.finishRun(ctx, runID, len(res.Transactions))
	return &res, nil
}

// RunWarehouse rebuilds the full dimensional model from staging.
func (p *pipeline) RunWarehouse(ctx context.Context) (*warehouse.Model, error) {
	runID := p.startRun(ctx, LayerWarehouse, "dimensional_model")

	txs, err := p.store.LoadTransactions(ctx)
	if err != nil {
		return nil, p.failRun(ctx, runID, LayerWarehouse, err)
	}
	if len(txs) == 0 {
		return nil, p.failRun(ctx, runID, LayerWarehouse, ErrNoTransactions)
	}

	model, err := warehouse.Build(txs, p.cfg.referenceDate())
	if err != nil {
		return nil, p.failRun(ctx, runID, LayerWarehouse, err)
	}

	if err := p.store.SaveModel(ctx, model); err != nil {
		return nil, p.failRun(ctx, runID, LayerWarehouse, err)
	}

	slog.Info("warehouse built",
		"reference_date", model.ReferenceDate.Format("2006-01-02"),
		"dates", len(model.Dates),
		"customers", len(model.Customers),
		"orders", len(model.Orders),
		"facts", len(model.Facts))

	p.checkValueConservation(ctx, runID, txs, model.Facts)
	p.checkMinRows(ctx, runID, "dim_customer", 1, len(model.Customers))
	p.finishRun(ctx, runID, len(model.Facts))
	return model, nil
}

// RunAnalytics rebuilds every analytics table from the warehouse.
func (p *pipeline) RunAnalytics(ctx context.Context) (*Analytics, error) {
	runID := p.startRun(ctx, LayerBusiness, "analytics_tables")

	customers, err := p.store.LoadCustomers(ctx)
	if err != nil {
		return nil, p.failRun(ctx, runID, LayerBusiness, err)
	}
	orders, err := p.store.LoadOrders(ctx)
	if err != nil {
		return nil, p.failRun(ctx, runID, LayerBusiness, err)
	}
	facts, err := p.store.LoadFacts(ctx)
	if err != nil {
		return nil, p.failRun(ctx, runID, LayerBusiness, err)
	}
	if len(customers) == 0 || len(facts) == 0 {
		return nil, p.failRun(ctx, runID, LayerBusiness, fmt.Errorf("%w: warehouse is empty", ErrStageFailed))
	}

	a := p.buildAnalytics(customers, orders, facts)

	if err := p.saveAnalytics(ctx, a); err != nil {
		return nil, p.failRun(ctx, runID, LayerBusiness, err)
	}

	slog.Info("analytics built",
		"monthly", len(a.Monthly),
		"cohorts", len(a.Cohorts),
		"segments", len(a.Segments),
		"campaign_targets", len(a.Targets),
		"insights", len(a.Insights))

	p.checkMinRows(ctx, runID, "monthly_metrics", 1, len(a.Monthly))
	p.checkMinRows(ctx, runID, "customer_segmentation", len(customers), len(a.Segments))
	p.finishRun(ctx, runID, len(a.Insights))
	return a, nil
}

// buildAnalytics derives every business table from the dimensional
// model. Pure computation; persistence is the caller's concern.
func (p *pipeline) buildAnalytics(customers []warehouse.CustomerRow, orders []warehouse.OrderRow, facts []warehouse.FactRow) *Analytics {
	refDate := p.cfg.referenceDate()
	if refDate.IsZero() {
		for _, c := range customers {
			if c.LastOrderDate.After(refDate) {
				refDate = c.LastOrderDate
			}
		}
	}

	a := &Analytics{
		Monthly:    metrics.BuildMonthly(facts),
		Lifecycle:  metrics.BuildLifecycle(customers, refDate),
		Cohorts:    retention.BuildCohorts(customers, facts),
		Cumulative: retention.BuildCumulative(customers, facts, p.cfg.RetentionWindows, p.cfg.MinCohortSize),
		LTV:        ltv.Build(customers, orders, p.cfg.ChurnWeights),
		Segments:   segment.Build(customers),
		Targets:    campaign.Build(customers, campaign.DefaultRules()),
	}
	a.Seasonal = metrics.BuildSeasonal(a.Monthly)
	a.Insights = insight.Build(insight.Inputs{
		LTV:        a.LTV,
		Segments:   a.Segments,
		Cohorts:    a.Cohorts,
		Cumulative: a.Cumulative,
		Monthly:    a.Monthly,
		Seasonal:   a.Seasonal,
		Targets:    a.Targets,
	})
	return a
}

func (p *pipeline) saveAnalytics(ctx context.Context, a *Analytics) error {
	saves := []struct {
		table string
		fn    func() error
	}{
		{"monthly_metrics", func() error { return p.store.SaveMonthlyMetrics(ctx, a.Monthly) }},
		{"seasonal_trends", func() error { return p.store.SaveSeasonalTrends(ctx, a.Seasonal) }},
		{"customer_lifecycle_snapshot", func() error { return p.store.SaveLifecycleSnapshot(ctx, a.Lifecycle) }},
		{"cohort_analysis", func() error { return p.store.SaveCohorts(ctx, a.Cohorts) }},
		{"cumulative_retention_analysis", func() error { return p.store.SaveCumulativeRetention(ctx, a.Cumulative) }},
		{"customer_ltv_analysis", func() error { return p.store.SaveLTV(ctx, a.LTV) }},
		{"customer_segmentation", func() error { return p.store.SaveSegments(ctx, a.Segments) }},
		{"campaign_targets", func() error { return p.store.SaveCampaignTargets(ctx, a.Targets) }},
		{"business_insights", func() error { return p.store.SaveInsights(ctx, a.Insights) }},
	}
	for _, s := range saves {
		if err := s.fn(); err != nil {
			return fmt.Errorf("saving %s: %w", s.table, err)
		}
	}
	return nil
}

// Export recomputes the analytics from the persisted warehouse and
// writes them to dir. Recomputation is deterministic, so the files
// always agree with the stored tables.
func (p *pipeline) Export(ctx context.Context, dir string) ([]string, error) {
	customers, err := p.store.LoadCustomers(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := p.store.LoadOrders(ctx)
	if err != nil {
		return nil, err
	}
	facts, err := p.store.LoadFacts(ctx)
	if err != nil {
		return nil, err
	}
	if len(customers) == 0 {
		return nil, fmt.Errorf("%w: nothing to export", ErrStageFailed)
	}

	a := p.buildAnalytics(customers, orders, facts)
	tables := export.Tables{
		Monthly:    a.Monthly,
		Cohorts:    a.Cohorts,
		Cumulative: a.Cumulative,
		LTV:        a.LTV,
		Segments:   a.Segments,
		Seasonal:   a.Seasonal,
		Lifecycle:  a.Lifecycle,
		Targets:    a.Targets,
		Insights:   a.Insights,
	}

	now := time.Now()
	paths, err := export.WriteJSON(dir, tables, now)
	if err != nil {
		return nil, err
	}

	workbook := filepath.Join(dir, fmt.Sprintf("sales_analytics_%s.xlsx", now.Format("20060102_150405")))
	if err := export.WriteWorkbook(workbook, tables); err != nil {
		return nil, err
	}
	return append(paths, workbook), nil
}

// Status returns the last run records plus current table counts.
func (p *pipeline) Status(ctx context.Context) (*Status, error) {
	runs, err := p.store.RecentRuns(ctx, 20)
	if err != nil {
		return nil, err
	}
	counts, err := p.store.TableCounts(ctx)
	if err != nil {
		return nil, err
	}
	return &Status{Runs: runs, TableCounts: counts}, nil
}

// --- run audit helpers ---

// startRun opens a pipeline_runs record. Audit failures are logged,
// never fatal: the pipeline's own work takes precedence over its trail.
func (p *pipeline) startRun(ctx context.Context, layer, table string) string {
	runID := fmt.Sprintf("%s_%s_%s", layer, table, uuid.NewString())
	if err := p.store.StartRun(ctx, runID, layer, table, time.Now()); err != nil {
		slog.Warn("recording run start", "run_id", runID, "error", err)
	}
	return runID
}

func (p *pipeline) finishRun(ctx context.Context, runID string, rowCount int) {
	if err := p.store.FinishRun(ctx, runID, "SUCCESS", rowCount, ""); err != nil {
		slog.Warn("recording run success", "run_id", runID, "error", err)
	}
}

// failRun records the failure and wraps the cause with the layer name.
func (p *pipeline) failRun(ctx context.Context, runID, layer string, cause error) error {
	if err := p.store.FinishRun(ctx, runID, "FAILED", 0, cause.Error()); err != nil {
		slog.Warn("recording run failure", "run_id", runID, "error", err)
	}
	return fmt.Errorf("%s layer: %w", strings.ToLower(layer), cause)
}

// --- data quality checks ---

func (p *pipeline) recordCheck(ctx context.Context, runID, table, checkType, name, expected, actual, status string) {
	check := store.QualityCheck{
		CheckID:   fmt.Sprintf("%s_%s", runID, name),
		RunID:     runID,
		TableName: table,
		CheckType: checkType,
		CheckName: name,
		Expected:  expected,
		Actual:    actual,
		Status:    status,
	}
	if err := p.store.RecordQualityCheck(ctx, check); err != nil {
		slog.Warn("recording quality check", "check", name, "error", err)
	}
	if status == "FAILED" {
		slog.Warn("data quality check failed", "table", table, "check", name, "expected", expected, "actual", actual)
	}
}

func (p *pipeline) checkMinRows(ctx context.Context, runID, table string, min, actual int) {
	status := "PASSED"
	if actual < min {
		status = "FAILED"
	}
	p.recordCheck(ctx, runID, table, "ROW_COUNT", "min_rows_check",
		fmt.Sprintf("%d", min), fmt.Sprintf("%d", actual), status)
}

// checkFlagCounts records per-flag rejection counts for the staging run.
func (p *pipeline) checkFlagCounts(ctx context.Context, runID string, res *staging.Result) {
	for _, flag := range []string{
		staging.FlagInvalidDate, staging.FlagMissingID,
		staging.FlagInvalidAmount, staging.FlagNegativeAmount,
	} {
		count := res.FlagCounts[flag]
		status := "PASSED"
		if count > 0 {
			status = "WARNING"
		}
		p.recordCheck(ctx, runID, "stg_sales_cleaned", "COMPLETENESS",
			strings.ToLower(flag)+"_rows", "0", fmt.Sprintf("%d", count), status)
	}
}

// checkValueConservation verifies that no sales amount was lost or
// duplicated between staging and the fact table.
func (p *pipeline) checkValueConservation(ctx context.Context, runID string, txs []staging.Transaction, facts []warehouse.FactRow) {
	var staged, fact float64
	for _, t := range txs {
		staged += t.Amount
	}
	for _, f := range facts {
		fact += f.SalesAmount
	}

	status := "PASSED"
	if diff := staged - fact; diff > 0.01 || diff < -0.01 {
		status = "FAILED"
	}
	p.recordCheck(ctx, runID, "fact_sales", "VALUE_CONSERVATION", "sales_total_match",
		fmt.Sprintf("%.2f", staged), fmt.Sprintf("%.2f", fact), status)
}
