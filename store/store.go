// Package store wraps the SQLite database holding every pipeline table:
// cleaned staging rows, the dimensional warehouse, analytics outputs
// and the run audit trail. Each Save method replaces its table in full
// inside one transaction, so a re-run leaves the table exactly as a
// fresh run would.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/brunobiangulo/salesmart/campaign"
	"github.com/brunobiangulo/salesmart/insight"
	"github.com/brunobiangulo/salesmart/ltv"
	"github.com/brunobiangulo/salesmart/metrics"
	"github.com/brunobiangulo/salesmart/retention"
	"github.com/brunobiangulo/salesmart/segment"
	"github.com/brunobiangulo/salesmart/staging"
	"github.com/brunobiangulo/salesmart/warehouse"
)

const dateLayout = "2006-01-02"

// RunRecord is one row of the pipeline_runs audit trail.
type RunRecord struct {
	RunID        string
	Layer        string
	TableName    string
	Status       string
	StartTime    time.Time
	EndTime      *time.Time
	RowCount     *int
	ErrorMessage string
}

// QualityCheck is one recorded data-quality check result.
type QualityCheck struct {
	CheckID      string
	RunID        string
	TableName    string
	CheckType    string
	CheckName    string
	Expected     string
	Actual       string
	Status       string
	ErrorDetails string
}

// Store wraps the SQLite database for all pipeline persistence.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at the given path and
// initialises the full pipeline schema.
func New(dbPath string) (*Store, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	// Connection pool settings for SQLite.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db}

	// Run pending migrations.
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// --- Staging ---

// SaveTransactions replaces stg_sales_cleaned with the given validated
// transactions, all flagged VALID.
func (s *Store) SaveTransactions(ctx context.Context, txs []staging.Transaction, sourceFile string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM stg_sales_cleaned"); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO stg_sales_cleaned (date_parsed, customer_id, order_id, sales_amount, data_quality_flag, source_file)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, t := range txs {
			if _, err := stmt.ExecContext(ctx,
				t.Date.Format(dateLayout), t.CustomerID, t.OrderID, t.Amount,
				staging.FlagValid, sourceFile); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadTransactions reads back the validated staging rows ordered by
// date, customer and order.
func (s *Store) LoadTransactions(ctx context.Context) ([]staging.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date_parsed, customer_id, order_id, sales_amount
		FROM stg_sales_cleaned
		WHERE data_quality_flag = ?
		ORDER BY date_parsed, customer_id, order_id
	`, staging.FlagValid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []staging.Transaction
	for rows.Next() {
		var t staging.Transaction
		var date string
		if err := rows.Scan(&date, &t.CustomerID, &t.OrderID, &t.Amount); err != nil {
			return nil, err
		}
		if t.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("parsing staged date %q: %w", date, err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// --- Warehouse ---

// SaveModel replaces all four warehouse tables with the given
// dimensional model in a single transaction.
func (s *Store) SaveModel(ctx context.Context, m *warehouse.Model) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		// Facts and orders reference the dimensions, so clear children first.
		for _, table := range []string{"fact_sales", "dim_order", "dim_customer", "dim_date"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return err
			}
		}
		if err := insertDates(ctx, tx, m.Dates); err != nil {
			return err
		}
		if err := insertCustomers(ctx, tx, m.Customers); err != nil {
			return err
		}
		if err := insertOrders(ctx, tx, m.Orders); err != nil {
			return err
		}
		return insertFacts(ctx, tx, m.Facts)
	})
}

func insertDates(ctx context.Context, tx *sql.Tx, dates []warehouse.DateRow) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO dim_date (date_id, full_date, year, quarter, month, month_name,
			month_abbr, week_of_year, day_of_year, day_of_month, day_of_week, day_name,
			day_abbr, is_weekend, is_month_start, is_month_end, is_quarter_start,
			is_quarter_end, is_year_start, is_year_end, date_string, month_year, quarter_year)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, d := range dates {
		if _, err := stmt.ExecContext(ctx,
			d.DateID, d.FullDate.Format(dateLayout), d.Year, d.Quarter, d.Month, d.MonthName,
			d.MonthAbbr, d.WeekOfYear, d.DayOfYear, d.DayOfMonth, d.DayOfWeek, d.DayName,
			d.DayAbbr, d.IsWeekend, d.IsMonthStart, d.IsMonthEnd, d.IsQuarterStart,
			d.IsQuarterEnd, d.IsYearStart, d.IsYearEnd, d.DateString, d.MonthYear, d.QuarterYear); err != nil {
			return err
		}
	}
	return nil
}

func insertCustomers(ctx context.Context, tx *sql.Tx, customers []warehouse.CustomerRow) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO dim_customer (customer_id, first_order_date, last_order_date,
			total_transactions, total_spent, avg_order_value, total_orders,
			first_order_cohort_month, first_order_cohort_quarter, first_order_cohort_year,
			days_since_first_order, days_since_last_order, customer_vintage_group,
			customer_segment, customer_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range customers {
		if _, err := stmt.ExecContext(ctx,
			c.CustomerID, c.FirstOrderDate.Format(dateLayout), c.LastOrderDate.Format(dateLayout),
			c.TotalTransactions, c.TotalSpent, c.AvgOrderValue, c.TotalOrders,
			c.CohortMonth, c.CohortQuarter, c.CohortYear,
			c.DaysSinceFirstOrder, c.DaysSinceLastOrder, c.VintageGroup,
			c.Segment, c.Status); err != nil {
			return err
		}
	}
	return nil
}

func insertOrders(ctx context.Context, tx *sql.Tx, orders []warehouse.OrderRow) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO dim_order (order_id, customer_id, order_date, date_id, order_amount,
			order_year, order_month, order_quarter, order_day_of_week, order_day_name,
			is_weekend_order, customer_order_sequence, is_first_order,
			days_since_customer_first_order, days_since_previous_order, order_amount_quartile)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range orders {
		var prev sql.NullInt64
		if o.DaysSincePreviousOrder != nil {
			prev = sql.NullInt64{Int64: int64(*o.DaysSincePreviousOrder), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			o.OrderID, o.CustomerID, o.OrderDate.Format(dateLayout), o.DateID, o.OrderAmount,
			o.OrderYear, o.OrderMonth, o.OrderQuarter, o.OrderDayOfWeek, o.OrderDayName,
			o.IsWeekendOrder, o.CustomerOrderSequence, o.IsFirstOrder, o.DaysSinceFirstOrder,
			prev, o.AmountQuartile); err != nil {
			return err
		}
	}
	return nil
}

func insertFacts(ctx context.Context, tx *sql.Tx, facts []warehouse.FactRow) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fact_sales (customer_id, order_id, date_id, sales_amount, transaction_count)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range facts {
		if _, err := stmt.ExecContext(ctx,
			f.CustomerID, f.OrderID, f.DateID, f.SalesAmount, f.TransactionCount); err != nil {
			return err
		}
	}
	return nil
}

// LoadCustomers reads dim_customer ordered by customer_id.
func (s *Store) LoadCustomers(ctx context.Context) ([]warehouse.CustomerRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT customer_id, first_order_date, last_order_date, total_transactions,
			total_spent, avg_order_value, total_orders, first_order_cohort_month,
			first_order_cohort_quarter, first_order_cohort_year, days_since_first_order,
			days_since_last_order, customer_vintage_group, customer_segment, customer_status
		FROM dim_customer ORDER BY customer_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []warehouse.CustomerRow
	for rows.Next() {
		var c warehouse.CustomerRow
		var first, last string
		if err := rows.Scan(&c.CustomerID, &first, &last, &c.TotalTransactions,
			&c.TotalSpent, &c.AvgOrderValue, &c.TotalOrders, &c.CohortMonth,
			&c.CohortQuarter, &c.CohortYear, &c.DaysSinceFirstOrder,
			&c.DaysSinceLastOrder, &c.VintageGroup, &c.Segment, &c.Status); err != nil {
			return nil, err
		}
		if c.FirstOrderDate, err = time.Parse(dateLayout, first); err != nil {
			return nil, err
		}
		if c.LastOrderDate, err = time.Parse(dateLayout, last); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// LoadOrders reads dim_order ordered by customer and sequence.
func (s *Store) LoadOrders(ctx context.Context) ([]warehouse.OrderRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT order_id, customer_id, order_date, date_id, order_amount, order_year,
			order_month, order_quarter, order_day_of_week, order_day_name,
			is_weekend_order, customer_order_sequence, is_first_order,
			days_since_customer_first_order, days_since_previous_order, order_amount_quartile
		FROM dim_order ORDER BY customer_id, customer_order_sequence
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []warehouse.OrderRow
	for rows.Next() {
		var o warehouse.OrderRow
		var date string
		var prev sql.NullInt64
		if err := rows.Scan(&o.OrderID, &o.CustomerID, &date, &o.DateID, &o.OrderAmount,
			&o.OrderYear, &o.OrderMonth, &o.OrderQuarter, &o.OrderDayOfWeek, &o.OrderDayName,
			&o.IsWeekendOrder, &o.CustomerOrderSequence, &o.IsFirstOrder, &o.DaysSinceFirstOrder,
			&prev, &o.AmountQuartile); err != nil {
			return nil, err
		}
		if o.OrderDate, err = time.Parse(dateLayout, date); err != nil {
			return nil, err
		}
		if prev.Valid {
			days := int(prev.Int64)
			o.DaysSincePreviousOrder = &days
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// LoadFacts reads fact_sales ordered by its composite key.
func (s *Store) LoadFacts(ctx context.Context) ([]warehouse.FactRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT customer_id, order_id, date_id, sales_amount, transaction_count
		FROM fact_sales ORDER BY customer_id, order_id, date_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facts []warehouse.FactRow
	for rows.Next() {
		var f warehouse.FactRow
		if err := rows.Scan(&f.CustomerID, &f.OrderID, &f.DateID,
			&f.SalesAmount, &f.TransactionCount); err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// --- Analytics outputs ---

// SaveMonthlyMetrics replaces monthly_metrics.
func (s *Store) SaveMonthlyMetrics(ctx context.Context, rows []metrics.MonthlyRow) error {
	return s.replaceAll(ctx, "monthly_metrics", `
		INSERT INTO monthly_metrics (period_month, total_sales, avg_order_value,
			total_transactions, total_orders, unique_customers, purchase_frequency)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, len(rows), func(i int) []any {
		r := rows[i]
		return []any{r.PeriodMonth, r.TotalSales, r.AvgOrderValue,
			r.TotalTransactions, r.TotalOrders, r.UniqueCustomers, r.PurchaseFrequency}
	})
}

// SaveCohorts replaces cohort_analysis.
func (s *Store) SaveCohorts(ctx context.Context, rows []retention.CohortRow) error {
	return s.replaceAll(ctx, "cohort_analysis", `
		INSERT INTO cohort_analysis (cohort_month, activity_month, months_since_acquisition,
			cohort_size, active_customers, retention_rate_percent, total_sales, avg_order_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, len(rows), func(i int) []any {
		r := rows[i]
		return []any{r.CohortMonth, r.ActivityMonth, r.MonthsSinceAcquisition,
			r.CohortSize, r.ActiveCustomers, r.RetentionRatePercent, r.TotalSales, r.AvgOrderValue}
	})
}

// SaveCumulativeRetention replaces cumulative_retention_analysis.
func (s *Store) SaveCumulativeRetention(ctx context.Context, rows []retention.CumulativeRow) error {
	return s.replaceAll(ctx, "cumulative_retention_analysis", `
		INSERT INTO cumulative_retention_analysis (cohort_month, retention_window_months,
			cohort_size, active_customers, cumulative_retention_rate, avg_purchase_frequency,
			total_revenue, avg_customer_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, len(rows), func(i int) []any {
		r := rows[i]
		return []any{r.CohortMonth, r.RetentionWindowMonths, r.CohortSize, r.ActiveCustomers,
			r.CumulativeRetentionRate, r.AvgPurchaseFrequency, r.TotalRevenue, r.AvgCustomerValue}
	})
}

// SaveLTV replaces customer_ltv_analysis.
func (s *Store) SaveLTV(ctx context.Context, rows []ltv.Row) error {
	return s.replaceAll(ctx, "customer_ltv_analysis", `
		INSERT INTO customer_ltv_analysis (customer_id, acquisition_cohort, customer_segment,
			total_orders, total_spent, avg_order_value, days_active,
			predicted_ltv_score, churn_risk_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, len(rows), func(i int) []any {
		r := rows[i]
		return []any{r.CustomerID, r.AcquisitionCohort, r.CustomerSegment,
			r.TotalOrders, r.TotalSpent, r.AvgOrderValue, r.DaysActive,
			r.PredictedLTVScore, r.ChurnRiskScore}
	})
}

// SaveSegments replaces customer_segmentation.
func (s *Store) SaveSegments(ctx context.Context, rows []segment.Row) error {
	return s.replaceAll(ctx, "customer_segmentation", `
		INSERT INTO customer_segmentation (customer_id, recency_score, frequency_score,
			monetary_score, rfm_segment, segment_description, recommended_strategy)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, len(rows), func(i int) []any {
		r := rows[i]
		return []any{r.CustomerID, r.RecencyScore, r.FrequencyScore,
			r.MonetaryScore, r.Segment, r.SegmentDescription, r.RecommendedStrategy}
	})
}

// SaveSeasonalTrends replaces seasonal_trends.
func (s *Store) SaveSeasonalTrends(ctx context.Context, rows []metrics.SeasonalRow) error {
	return s.replaceAll(ctx, "seasonal_trends", `
		INSERT INTO seasonal_trends (period_type, period_value, avg_sales, avg_orders,
			avg_customers, seasonal_index, trend_direction)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, len(rows), func(i int) []any {
		r := rows[i]
		return []any{r.PeriodType, r.PeriodValue, r.AvgSales, r.AvgOrders,
			r.AvgCustomers, r.SeasonalIndex, r.TrendDirection}
	})
}

// SaveLifecycleSnapshot replaces customer_lifecycle_snapshot.
func (s *Store) SaveLifecycleSnapshot(ctx context.Context, rows []metrics.LifecycleRow) error {
	return s.replaceAll(ctx, "customer_lifecycle_snapshot", `
		INSERT INTO customer_lifecycle_snapshot (snapshot_date, lifecycle_stage, customers,
			share_of_base, avg_days_since_last_order)
		VALUES (?, ?, ?, ?, ?)
	`, len(rows), func(i int) []any {
		r := rows[i]
		return []any{r.SnapshotDate.Format(dateLayout), r.LifecycleStage, r.Customers,
			r.ShareOfBase, r.AvgDaysSinceLastOrder}
	})
}

// SaveCampaignTargets replaces campaign_targets.
func (s *Store) SaveCampaignTargets(ctx context.Context, rows []campaign.Target) error {
	return s.replaceAll(ctx, "campaign_targets", `
		INSERT INTO campaign_targets (customer_id, campaign_type, priority_level,
			estimated_value, days_since_last_order, recommended_action)
		VALUES (?, ?, ?, ?, ?, ?)
	`, len(rows), func(i int) []any {
		r := rows[i]
		return []any{r.CustomerID, r.CampaignType, r.PriorityLevel,
			r.EstimatedValue, r.DaysSinceLastOrder, r.RecommendedAction}
	})
}

// SaveInsights replaces business_insights.
func (s *Store) SaveInsights(ctx context.Context, rows []insight.Row) error {
	return s.replaceAll(ctx, "business_insights", `
		INSERT INTO business_insights (insight_id, insight_type, insight_title,
			insight_description, metric_value, recommendation, priority_level)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, len(rows), func(i int) []any {
		r := rows[i]
		return []any{r.InsightID, r.InsightType, r.Title,
			r.Description, r.MetricValue, r.Recommendation, r.PriorityLevel}
	})
}

// LoadInsights reads business_insights ordered by severity.
func (s *Store) LoadInsights(ctx context.Context) ([]insight.Row, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT insight_id, insight_type, insight_title, insight_description,
			metric_value, recommendation, priority_level
		FROM business_insights ORDER BY priority_level DESC, insight_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []insight.Row
	for rows.Next() {
		var r insight.Row
		if err := rows.Scan(&r.InsightID, &r.InsightType, &r.Title, &r.Description,
			&r.MetricValue, &r.Recommendation, &r.PriorityLevel); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// replaceAll clears table and re-inserts n rows produced by args, all
// in one transaction.
func (s *Store) replaceAll(ctx context.Context, table, insertSQL string, n int, args func(i int) []any) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, insertSQL)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i := 0; i < n; i++ {
			if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
				return err
			}
		}
		return nil
	})
}

// --- Run metadata ---

// StartRun records the start of one layer/table build and returns
// nothing beyond the error; the caller owns the run ID.
func (s *Store) StartRun(ctx context.Context, runID, layer, table string, start time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pipeline_runs (run_id, layer, table_name, status, start_time)
		VALUES (?, ?, ?, 'STARTED', ?)
	`, runID, layer, table, start.UTC().Format(time.RFC3339))
	return err
}

// FinishRun records the terminal status of a run. errMsg is stored
// only for failed runs.
func (s *Store) FinishRun(ctx context.Context, runID, status string, rowCount int, errMsg string) error {
	var msg sql.NullString
	if errMsg != "" {
		msg = sql.NullString{String: errMsg, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE pipeline_runs SET status = ?, end_time = ?, row_count = ?, error_message = ?
		WHERE run_id = ?
	`, status, time.Now().UTC().Format(time.RFC3339), rowCount, msg, runID)
	return err
}

// RecentRuns returns the latest n run records, newest first.
func (s *Store) RecentRuns(ctx context.Context, n int) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, layer, table_name, status, start_time, end_time, row_count, error_message
		FROM pipeline_runs ORDER BY start_time DESC LIMIT ?
	`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		var start string
		var end, msg sql.NullString
		var count sql.NullInt64
		if err := rows.Scan(&r.RunID, &r.Layer, &r.TableName, &r.Status,
			&start, &end, &count, &msg); err != nil {
			return nil, err
		}
		if r.StartTime, err = time.Parse(time.RFC3339, start); err != nil {
			return nil, err
		}
		if end.Valid {
			t, err := time.Parse(time.RFC3339, end.String)
			if err != nil {
				return nil, err
			}
			r.EndTime = &t
		}
		if count.Valid {
			c := int(count.Int64)
			r.RowCount = &c
		}
		r.ErrorMessage = msg.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// RecordQualityCheck stores one data-quality check result.
func (s *Store) RecordQualityCheck(ctx context.Context, c QualityCheck) error {
	var details sql.NullString
	if c.ErrorDetails != "" {
		details = sql.NullString{String: c.ErrorDetails, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO data_quality_checks (check_id, run_id, table_name, check_type,
			check_name, expected_value, actual_value, status, error_details)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.CheckID, c.RunID, c.TableName, c.CheckType,
		c.CheckName, c.Expected, c.Actual, c.Status, details)
	return err
}

// QualityChecksForRun returns all checks recorded under a run ID.
func (s *Store) QualityChecksForRun(ctx context.Context, runID string) ([]QualityCheck, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT check_id, run_id, table_name, check_type, check_name,
			expected_value, actual_value, status, error_details
		FROM data_quality_checks WHERE run_id = ? ORDER BY check_id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []QualityCheck
	for rows.Next() {
		var c QualityCheck
		var expected, actual, details sql.NullString
		if err := rows.Scan(&c.CheckID, &c.RunID, &c.TableName, &c.CheckType,
			&c.CheckName, &expected, &actual, &c.Status, &details); err != nil {
			return nil, err
		}
		c.Expected = expected.String
		c.Actual = actual.String
		c.ErrorDetails = details.String
		out = append(out, c)
	}
	return out, rows.Err()
}

// TableCounts returns row counts for the main output tables, used by
// the status command and post-run quality checks.
func (s *Store) TableCounts(ctx context.Context) (map[string]int, error) {
	tables := []string{
		"stg_sales_cleaned", "dim_date", "dim_customer", "dim_order", "fact_sales",
		"monthly_metrics", "cohort_analysis", "cumulative_retention_analysis",
		"customer_ltv_analysis", "customer_segmentation", "seasonal_trends",
		"customer_lifecycle_snapshot", "campaign_targets", "business_insights",
	}
	counts := make(map[string]int, len(tables))
	for _, table := range tables {
		var n int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("counting %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

// --- helpers ---

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
