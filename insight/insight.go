// Package insight scans the aggregate outputs of the analytic engines
// and emits ranked, human-readable findings. Each rule is independent
// and order-insensitive; display order is by severity.
package insight

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/brunobiangulo/salesmart/campaign"
	"github.com/brunobiangulo/salesmart/ltv"
	"github.com/brunobiangulo/salesmart/metrics"
	"github.com/brunobiangulo/salesmart/retention"
	"github.com/brunobiangulo/salesmart/segment"
)

// Row is one business_insights entry, keyed by insight_id.
type Row struct {
	InsightID      string  `json:"insight_id"`
	InsightType    string  `json:"insight_type"`
	Title          string  `json:"insight_title"`
	Description    string  `json:"insight_description"`
	MetricValue    float64 `json:"metric_value"`
	Recommendation string  `json:"recommendation"`
	PriorityLevel  int     `json:"priority_level"` // 1-5, 5 = most severe
}

// Insight types, in fixed precedence order for tie-breaking.
const (
	TypeChurnRisk    = "CHURN_RISK"
	TypeConversion   = "CONVERSION"
	TypeRetention    = "RETENTION"
	TypeCohort       = "COHORT"
	TypeCampaign     = "CAMPAIGN"
	TypeSegmentation = "SEGMENTATION"
	TypeTrend        = "TREND"
	TypeSeasonal     = "SEASONAL"
)

var typePrecedence = map[string]int{
	TypeChurnRisk:    0,
	TypeConversion:   1,
	TypeRetention:    2,
	TypeCohort:       3,
	TypeCampaign:     4,
	TypeSegmentation: 5,
	TypeTrend:        6,
	TypeSeasonal:     7,
}

// Inputs are the read-only aggregate tables the rules inspect.
type Inputs struct {
	LTV        []ltv.Row
	Segments   []segment.Row
	Cohorts    []retention.CohortRow
	Cumulative []retention.CumulativeRow
	Monthly    []metrics.MonthlyRow
	Seasonal   []metrics.SeasonalRow
	Targets    []campaign.Target
}

// Rule inspects one aggregate condition and emits at most one insight.
type Rule func(in Inputs) (Row, bool)

// Rules is the full independent rule set. Order here is irrelevant;
// output ordering is defined by Build.
func Rules() []Rule {
	return []Rule{
		oneTimeBuyerRate,
		bestMonthOneCohort,
		bestCumulativeCohort,
		highValueAtRisk,
		segmentShares,
		topCampaignOpportunity,
		monthOverMonthRevenue,
		seasonalPeak,
	}
}

// Build runs every rule and sorts the result by priority descending,
// ties broken by the fixed insight-type precedence.
func Build(in Inputs) []Row {
	var rows []Row
	for _, rule := range Rules() {
		if row, ok := rule(in); ok {
			rows = append(rows, row)
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].PriorityLevel != rows[j].PriorityLevel {
			return rows[i].PriorityLevel > rows[j].PriorityLevel
		}
		if typePrecedence[rows[i].InsightType] != typePrecedence[rows[j].InsightType] {
			return typePrecedence[rows[i].InsightType] < typePrecedence[rows[j].InsightType]
		}
		return rows[i].InsightID < rows[j].InsightID
	})
	return rows
}

func oneTimeBuyerRate(in Inputs) (Row, bool) {
	if len(in.LTV) == 0 {
		return Row{}, false
	}
	oneTime := 0
	for _, r := range in.LTV {
		if r.TotalOrders == 1 {
			oneTime++
		}
	}
	rate := round2(float64(oneTime) * 100 / float64(len(in.LTV)))
	return Row{
		InsightID:      "CONV_001",
		InsightType:    TypeConversion,
		Title:          "Customer Conversion Rate",
		Description:    fmt.Sprintf("Out of %d customers, %d (%.2f%%) are one-time buyers", len(in.LTV), oneTime, rate),
		MetricValue:    rate,
		Recommendation: "Implement automated email sequences to convert one-time buyers",
		PriorityLevel:  5,
	}, true
}

func bestMonthOneCohort(in Inputs) (Row, bool) {
	best := ""
	bestRate := -1.0
	for _, c := range in.Cohorts {
		if c.MonthsSinceAcquisition != 1 {
			continue
		}
		if c.RetentionRatePercent > bestRate || (c.RetentionRatePercent == bestRate && c.CohortMonth < best) {
			best, bestRate = c.CohortMonth, c.RetentionRatePercent
		}
	}
	if best == "" {
		return Row{}, false
	}
	return Row{
		InsightID:      "COH_001",
		InsightType:    TypeCohort,
		Title:          "Best Performing Cohort",
		Description:    fmt.Sprintf("Cohort %s has the highest month-1 retention at %.1f%%", best, bestRate),
		MetricValue:    bestRate,
		Recommendation: "Analyze and replicate the acquisition strategies used for this cohort",
		PriorityLevel:  4,
	}, true
}

// bestCumulativeCohort ranks cohorts on the longest retention window
// present in the data, so any configured window set works.
func bestCumulativeCohort(in Inputs) (Row, bool) {
	rates := make(map[string]map[int]float64)
	windowSet := make(map[int]struct{})
	for _, c := range in.Cumulative {
		byWindow, ok := rates[c.CohortMonth]
		if !ok {
			byWindow = make(map[int]float64)
			rates[c.CohortMonth] = byWindow
		}
		byWindow[c.RetentionWindowMonths] = c.CumulativeRetentionRate
		windowSet[c.RetentionWindowMonths] = struct{}{}
	}
	if len(windowSet) == 0 {
		return Row{}, false
	}

	windows := make([]int, 0, len(windowSet))
	for w := range windowSet {
		windows = append(windows, w)
	}
	sort.Ints(windows)
	horizon := windows[len(windows)-1]

	best := ""
	bestRate := -1.0
	for cohort, byWindow := range rates {
		rate, ok := byWindow[horizon]
		if !ok {
			continue
		}
		if rate > bestRate || (rate == bestRate && cohort < best) {
			best, bestRate = cohort, rate
		}
	}
	if best == "" {
		return Row{}, false
	}

	parts := make([]string, 0, len(windows))
	for _, w := range windows {
		if rate, ok := rates[best][w]; ok {
			parts = append(parts, fmt.Sprintf("%dm=%.1f%%", w, rate))
		}
	}
	return Row{
		InsightID:      "RET_001",
		InsightType:    TypeRetention,
		Title:          "Best Retention Cohort Performance",
		Description:    fmt.Sprintf("Cohort %s shows strongest retention: %s", best, strings.Join(parts, ", ")),
		MetricValue:    bestRate,
		Recommendation: "Analyze acquisition channels and onboarding for this cohort to replicate success",
		PriorityLevel:  5,
	}, true
}

func highValueAtRisk(in Inputs) (Row, bool) {
	count := 0
	var revenue float64
	for _, r := range in.LTV {
		if r.PredictedLTVScore >= 4 && r.ChurnRiskScore >= 0.5 {
			count++
			revenue += r.TotalSpent
		}
	}
	return Row{
		InsightID:      "RISK_001",
		InsightType:    TypeChurnRisk,
		Title:          "High-Value Customers at Risk",
		Description:    fmt.Sprintf("%d high-LTV customers are at risk, representing $%.2f in potential lost revenue", count, revenue),
		MetricValue:    float64(count),
		Recommendation: "Immediate intervention with personalized offers for high-LTV at-risk customers",
		PriorityLevel:  5,
	}, true
}

// segmentShares reports the share of the strategically critical
// segments. It emits one row covering all three so the rule stays
// single-output like the rest.
func segmentShares(in Inputs) (Row, bool) {
	if len(in.Segments) == 0 {
		return Row{}, false
	}
	critical := map[string]int{"Champions": 0, "At Risk": 0, "Cannot Lose Them": 0}
	for _, s := range in.Segments {
		if _, ok := critical[s.Segment]; ok {
			critical[s.Segment]++
		}
	}
	total := len(in.Segments)
	atRiskShare := round2(float64(critical["At Risk"]+critical["Cannot Lose Them"]) * 100 / float64(total))
	return Row{
		InsightID:      "SEG_001",
		InsightType:    TypeSegmentation,
		Title:          "Key Segment Distribution",
		Description:    fmt.Sprintf("Champions: %d, At Risk: %d, Cannot Lose Them: %d of %d customers (%.1f%% in risk segments)",
			critical["Champions"], critical["At Risk"], critical["Cannot Lose Them"], total, atRiskShare),
		MetricValue:    atRiskShare,
		Recommendation: "Focus retention budget on At Risk and Cannot Lose Them segments",
		PriorityLevel:  3,
	}, true
}

func topCampaignOpportunity(in Inputs) (Row, bool) {
	type agg struct {
		count int
		value float64
	}
	byType := make(map[string]*agg)
	for _, t := range in.Targets {
		if t.PriorityLevel < 4 {
			continue // only the urgent tiers
		}
		a, ok := byType[t.CampaignType]
		if !ok {
			a = &agg{}
			byType[t.CampaignType] = a
		}
		a.count++
		a.value += t.EstimatedValue
	}

	best := ""
	var bestA *agg
	for campaignType, a := range byType {
		if bestA == nil || a.value > bestA.value || (a.value == bestA.value && campaignType < best) {
			best, bestA = campaignType, a
		}
	}
	if bestA == nil {
		return Row{}, false
	}
	return Row{
		InsightID:      "CAMP_001",
		InsightType:    TypeCampaign,
		Title:          "Top Campaign Opportunity",
		Description:    fmt.Sprintf("%d customers ready for %s campaigns, $%.2f potential value", bestA.count, best, bestA.value),
		MetricValue:    float64(bestA.count),
		Recommendation: fmt.Sprintf("Launch %s campaign immediately", best),
		PriorityLevel:  4,
	}, true
}

func monthOverMonthRevenue(in Inputs) (Row, bool) {
	if len(in.Monthly) < 2 {
		return Row{}, false
	}
	last := in.Monthly[len(in.Monthly)-1]
	prev := in.Monthly[len(in.Monthly)-2]
	if prev.TotalSales == 0 {
		return Row{}, false
	}
	delta := round2((last.TotalSales - prev.TotalSales) * 100 / prev.TotalSales)

	direction := "up"
	priority := 2
	recommendation := "Maintain current acquisition and retention programs"
	if delta < 0 {
		direction = "down"
		priority = 4
		recommendation = "Investigate the revenue drop: check campaign pauses, seasonality, and churn spikes"
	}
	return Row{
		InsightID:      "TREND_001",
		InsightType:    TypeTrend,
		Title:          "Month-over-Month Revenue Change",
		Description:    fmt.Sprintf("Revenue in %s is %s %.1f%% vs %s ($%.2f vs $%.2f)",
			last.PeriodMonth, direction, math.Abs(delta), prev.PeriodMonth, last.TotalSales, prev.TotalSales),
		MetricValue:    delta,
		Recommendation: recommendation,
		PriorityLevel:  priority,
	}, true
}

func seasonalPeak(in Inputs) (Row, bool) {
	best := ""
	var bestIndex float64
	var bestTrend string
	for _, s := range in.Seasonal {
		if s.PeriodType != "monthly" {
			continue
		}
		if s.SeasonalIndex > bestIndex || (s.SeasonalIndex == bestIndex && s.PeriodValue < best) {
			best, bestIndex, bestTrend = s.PeriodValue, s.SeasonalIndex, s.TrendDirection
		}
	}
	if best == "" {
		return Row{}, false
	}
	monthName := monthNames[best]
	if monthName == "" {
		monthName = best
	}
	return Row{
		InsightID:      "SEAS_001",
		InsightType:    TypeSeasonal,
		Title:          "Peak Seasonal Performance",
		Description:    fmt.Sprintf("%s is peak month with %.2fx average performance (%s trend)", monthName, bestIndex, bestTrend),
		MetricValue:    bestIndex,
		Recommendation: fmt.Sprintf("Increase marketing spend and inventory for %s", monthName),
		PriorityLevel:  3,
	}, true
}

var monthNames = map[string]string{
	"01": "January", "02": "February", "03": "March", "04": "April",
	"05": "May", "06": "June", "07": "July", "08": "August",
	"09": "September", "10": "October", "11": "November", "12": "December",
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
