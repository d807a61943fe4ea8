// Package export writes the analytics outputs to files: one
// timestamped JSON document per table, plus a multi-sheet XLSX
// workbook for spreadsheet consumers.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/brunobiangulo/salesmart/campaign"
	"github.com/brunobiangulo/salesmart/insight"
	"github.com/brunobiangulo/salesmart/ltv"
	"github.com/brunobiangulo/salesmart/metrics"
	"github.com/brunobiangulo/salesmart/retention"
	"github.com/brunobiangulo/salesmart/segment"
)

// Tables bundles every analytics output for export.
type Tables struct {
	Monthly    []metrics.MonthlyRow      `json:"monthly_metrics"`
	Cohorts    []retention.CohortRow     `json:"cohort_analysis"`
	Cumulative []retention.CumulativeRow `json:"cumulative_retention_analysis"`
	LTV        []ltv.Row                 `json:"customer_ltv_analysis"`
	Segments   []segment.Row             `json:"customer_segmentation"`
	Seasonal   []metrics.SeasonalRow     `json:"seasonal_trends"`
	Lifecycle  []metrics.LifecycleRow    `json:"customer_lifecycle_snapshot"`
	Targets    []campaign.Target         `json:"campaign_targets"`
	Insights   []insight.Row             `json:"business_insights"`
}

// TimestampedFilename joins dir, name and the formatted timestamp into
// a stable JSON export path.
func TimestampedFilename(dir, name string, at time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.json", name, at.Format("20060102_150405")))
}

// WriteJSON writes one JSON file per table into dir and returns the
// paths written. All files of one call share the same timestamp.
func WriteJSON(dir string, t Tables, at time.Time) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}

	docs := []struct {
		name string
		data any
	}{
		{"monthly_metrics", t.Monthly},
		{"cohort_analysis", t.Cohorts},
		{"cumulative_retention_analysis", t.Cumulative},
		{"customer_ltv_analysis", t.LTV},
		{"customer_segmentation", t.Segments},
		{"seasonal_trends", t.Seasonal},
		{"customer_lifecycle_snapshot", t.Lifecycle},
		{"campaign_targets", t.Targets},
		{"business_insights", t.Insights},
	}

	paths := make([]string, 0, len(docs))
	for _, doc := range docs {
		path := TimestampedFilename(dir, doc.name, at)
		if err := writeJSONFile(path, doc.data); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeJSONFile(path string, data any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// WriteWorkbook writes all tables into one XLSX workbook, one sheet
// per table with a header row.
func WriteWorkbook(path string, t Tables) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheets := []struct {
		name  string
		write func(f *excelize.File, sheet string) error
	}{
		{"Monthly Metrics", func(f *excelize.File, sheet string) error { return writeMonthly(f, sheet, t.Monthly) }},
		{"Cohorts", func(f *excelize.File, sheet string) error { return writeCohorts(f, sheet, t.Cohorts) }},
		{"Cumulative Retention", func(f *excelize.File, sheet string) error { return writeCumulative(f, sheet, t.Cumulative) }},
		{"Customer LTV", func(f *excelize.File, sheet string) error { return writeLTV(f, sheet, t.LTV) }},
		{"Segmentation", func(f *excelize.File, sheet string) error { return writeSegments(f, sheet, t.Segments) }},
		{"Seasonal Trends", func(f *excelize.File, sheet string) error { return writeSeasonal(f, sheet, t.Seasonal) }},
		{"Lifecycle", func(f *excelize.File, sheet string) error { return writeLifecycle(f, sheet, t.Lifecycle) }},
		{"Campaign Targets", func(f *excelize.File, sheet string) error { return writeTargets(f, sheet, t.Targets) }},
		{"Insights", func(f *excelize.File, sheet string) error { return writeInsights(f, sheet, t.Insights) }},
	}

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.name); err != nil {
				return fmt.Errorf("renaming sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheet.name); err != nil {
				return fmt.Errorf("creating sheet %s: %w", sheet.name, err)
			}
		}
		if err := sheet.write(f, sheet.name); err != nil {
			return fmt.Errorf("writing sheet %s: %w", sheet.name, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

// setRow writes one row of values starting at column A.
func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func writeMonthly(f *excelize.File, sheet string, rows []metrics.MonthlyRow) error {
	header := []any{"Month", "Total Sales", "Avg Order Value", "Transactions", "Orders", "Customers", "Purchase Frequency"}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, r := range rows {
		values := []any{r.PeriodMonth, r.TotalSales, r.AvgOrderValue, r.TotalTransactions, r.TotalOrders, r.UniqueCustomers, r.PurchaseFrequency}
		if err := setRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func writeCohorts(f *excelize.File, sheet string, rows []retention.CohortRow) error {
	header := []any{"Cohort Month", "Activity Month", "Months Since Acquisition", "Cohort Size", "Active Customers", "Retention %", "Total Sales", "Avg Order Value"}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, r := range rows {
		values := []any{r.CohortMonth, r.ActivityMonth, r.MonthsSinceAcquisition, r.CohortSize, r.ActiveCustomers, r.RetentionRatePercent, r.TotalSales, r.AvgOrderValue}
		if err := setRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func writeCumulative(f *excelize.File, sheet string, rows []retention.CumulativeRow) error {
	header := []any{"Cohort Month", "Window (Months)", "Cohort Size", "Active Customers", "Cumulative Retention %", "Avg Purchase Frequency", "Total Revenue", "Avg Customer Value"}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, r := range rows {
		values := []any{r.CohortMonth, r.RetentionWindowMonths, r.CohortSize, r.ActiveCustomers, r.CumulativeRetentionRate, r.AvgPurchaseFrequency, r.TotalRevenue, r.AvgCustomerValue}
		if err := setRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func writeLTV(f *excelize.File, sheet string, rows []ltv.Row) error {
	header := []any{"Customer ID", "Acquisition Cohort", "Segment", "Orders", "Total Spent", "Avg Order Value", "Days Active", "LTV Score", "Churn Risk"}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, r := range rows {
		values := []any{r.CustomerID, r.AcquisitionCohort, r.CustomerSegment, r.TotalOrders, r.TotalSpent, r.AvgOrderValue, r.DaysActive, r.PredictedLTVScore, r.ChurnRiskScore}
		if err := setRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func writeSegments(f *excelize.File, sheet string, rows []segment.Row) error {
	header := []any{"Customer ID", "Recency", "Frequency", "Monetary", "Segment", "Description", "Strategy"}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, r := range rows {
		values := []any{r.CustomerID, r.RecencyScore, r.FrequencyScore, r.MonetaryScore, r.Segment, r.SegmentDescription, r.RecommendedStrategy}
		if err := setRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func writeSeasonal(f *excelize.File, sheet string, rows []metrics.SeasonalRow) error {
	header := []any{"Period Type", "Period", "Avg Sales", "Avg Orders", "Avg Customers", "Seasonal Index", "Trend"}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, r := range rows {
		values := []any{r.PeriodType, r.PeriodValue, r.AvgSales, r.AvgOrders, r.AvgCustomers, r.SeasonalIndex, r.TrendDirection}
		if err := setRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func writeLifecycle(f *excelize.File, sheet string, rows []metrics.LifecycleRow) error {
	header := []any{"Snapshot Date", "Stage", "Customers", "Share of Base", "Avg Days Since Last Order"}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, r := range rows {
		values := []any{r.SnapshotDate.Format("2006-01-02"), r.LifecycleStage, r.Customers, r.ShareOfBase, r.AvgDaysSinceLastOrder}
		if err := setRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func writeTargets(f *excelize.File, sheet string, rows []campaign.Target) error {
	header := []any{"Customer ID", "Campaign Type", "Priority", "Estimated Value", "Days Since Last Order", "Recommended Action"}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, r := range rows {
		values := []any{r.CustomerID, r.CampaignType, r.PriorityLevel, r.EstimatedValue, r.DaysSinceLastOrder, r.RecommendedAction}
		if err := setRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func writeInsights(f *excelize.File, sheet string, rows []insight.Row) error {
	header := []any{"Insight ID", "Type", "Title", "Description", "Metric", "Recommendation", "Priority"}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, r := range rows {
		values := []any{r.InsightID, r.InsightType, r.Title, r.Description, r.MetricValue, r.Recommendation, r.PriorityLevel}
		if err := setRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}
