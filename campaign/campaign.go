// Package campaign assigns customers to marketing campaign types via
// an explicit rule table. Rules are evaluated independently per type: a
// customer may qualify for several campaigns at once, keyed by
// (customer_id, campaign_type).
package campaign

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/brunobiangulo/salesmart/warehouse"
)

// ErrInvalidRules is returned when the rule table is internally
// inconsistent (overlapping or unordered win-back windows). Detected
// once at startup, fatal.
var ErrInvalidRules = errors.New("campaign: invalid rule table")

// Target is one campaign_targets entry.
type Target struct {
	CustomerID         int64   `json:"customer_id"`
	CampaignType       string  `json:"campaign_type"`
	PriorityLevel      int     `json:"priority_level"`
	EstimatedValue     float64 `json:"estimated_value"`
	DaysSinceLastOrder int     `json:"days_since_last_order"`
	RecommendedAction  string  `json:"recommended_action"`
}

// Rule is one win-back tier: a half-open recency window
// [MinDays, MaxDays) with MaxDays == 0 meaning unbounded. Estimated
// value scales the customer's historical spend by ValueFactor.
type Rule struct {
	Type        string
	MinDays     int
	MaxDays     int
	Priority    int
	ValueFactor float64
	Action      string
}

// Campaign types.
const (
	TypeEarlyEngagement = "Early Engagement"
	TypeReactivation    = "Re-activation"
	TypeWinback         = "Win-back"
	TypeFinalPush       = "Final Push"
	TypeLongTermWinback = "Long-term Win-back"
)

// Early-engagement lifecycle window: single-order customers between 14
// and 90 days after their first purchase.
const (
	earlyMinDays = 14
	earlyMaxDays = 90
)

// DefaultRules is the win-back tier table, escalating with recency.
// Higher priority = more urgent.
func DefaultRules() []Rule {
	return []Rule{
		{TypeReactivation, 90, 180, 2, 0.30, "Offer 15% discount + free shipping"},
		{TypeWinback, 180, 270, 3, 0.25, "Limited-time 20% discount offer"},
		{TypeFinalPush, 270, 365, 4, 0.20, "Win-back campaign with survey"},
		{TypeLongTermWinback, 365, 0, 5, 0.15, "Final 25% discount attempt"},
	}
}

// ValidateRules checks that win-back windows are strictly ordered,
// contiguous in priority, and non-overlapping.
func ValidateRules(rules []Rule) error {
	if len(rules) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidRules)
	}
	for i, r := range rules {
		if r.MaxDays != 0 && r.MaxDays <= r.MinDays {
			return fmt.Errorf("%w: %s window [%d,%d)", ErrInvalidRules, r.Type, r.MinDays, r.MaxDays)
		}
		if r.ValueFactor <= 0 {
			return fmt.Errorf("%w: %s value factor %v", ErrInvalidRules, r.Type, r.ValueFactor)
		}
		if i == 0 {
			continue
		}
		prev := rules[i-1]
		if prev.MaxDays == 0 {
			return fmt.Errorf("%w: unbounded window %s is not last", ErrInvalidRules, prev.Type)
		}
		if r.MinDays < prev.MaxDays {
			return fmt.Errorf("%w: %s overlaps %s", ErrInvalidRules, r.Type, prev.Type)
		}
		if r.Priority <= prev.Priority {
			return fmt.Errorf("%w: priority must escalate with recency", ErrInvalidRules)
		}
	}
	return nil
}

// Build evaluates every rule against every customer. Each rule fires
// independently; estimated value and priority come from the matching
// rule alone, never from a global normalization.
func Build(customers []warehouse.CustomerRow, rules []Rule) []Target {
	var targets []Target
	for _, c := range customers {
		for _, r := range rules {
			if c.DaysSinceLastOrder < r.MinDays {
				continue
			}
			if r.MaxDays != 0 && c.DaysSinceLastOrder >= r.MaxDays {
				continue
			}
			targets = append(targets, Target{
				CustomerID:         c.CustomerID,
				CampaignType:       r.Type,
				PriorityLevel:      r.Priority,
				EstimatedValue:     round2(c.TotalSpent * r.ValueFactor),
				DaysSinceLastOrder: c.DaysSinceLastOrder,
				RecommendedAction:  r.Action,
			})
		}

		if c.TotalOrders == 1 && c.DaysSinceFirstOrder >= earlyMinDays && c.DaysSinceFirstOrder <= earlyMaxDays {
			targets = append(targets, Target{
				CustomerID:         c.CustomerID,
				CampaignType:       TypeEarlyEngagement,
				PriorityLevel:      1,
				EstimatedValue:     round2(c.TotalSpent * 0.40),
				DaysSinceLastOrder: c.DaysSinceLastOrder,
				RecommendedAction:  "Send personalized product recommendations",
			})
		}
	}

	sort.Slice(targets, func(i, j int) bool {
		if targets[i].CustomerID != targets[j].CustomerID {
			return targets[i].CustomerID < targets[j].CustomerID
		}
		return targets[i].CampaignType < targets[j].CampaignType
	})
	return targets
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
