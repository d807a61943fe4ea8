package salesmart

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/brunobiangulo/salesmart/campaign"
	"github.com/brunobiangulo/salesmart/ltv"
)

// Config holds all configuration for the salesmart pipeline.
type Config struct {
	// DBPath is the full path to the SQLite database file.
	// If empty, defaults to ~/.salesmart/<DBName>.db
	DBPath string `json:"db_path"`

	// DBName is the name for the database (used when DBPath is empty).
	// Defaults to "salesmart".
	DBName string `json:"db_name"`

	// StorageDir controls where the database is created when DBPath is
	// not explicitly set. Options: "home" (default) uses ~/.salesmart/,
	// "local" uses the current working directory.
	StorageDir string `json:"storage_dir"`

	// ReferenceDate pins the "today" used for every recency and age
	// computation, formatted 2006-01-02. When empty, the maximum
	// observed transaction date is used, which keeps re-runs on the
	// same input byte-identical.
	ReferenceDate string `json:"reference_date"`

	// ChurnWeights are the component weights of the churn risk score.
	// They must sum to 1.
	ChurnWeights ltv.ChurnWeights `json:"churn_weights"`

	// MinCohortSize is the statistical-significance floor below which a
	// cohort is excluded from cumulative retention output.
	MinCohortSize int `json:"min_cohort_size"`

	// RetentionWindows are the cumulative retention windows in months.
	RetentionWindows []int `json:"retention_windows"`
}

// DefaultConfig returns a Config matching the documented scoring model.
// Database is stored in ~/.salesmart/salesmart.db by default.
func DefaultConfig() Config {
	return Config{
		DBName:           "salesmart",
		StorageDir:       "home",
		ChurnWeights:     ltv.DefaultChurnWeights(),
		MinCohortSize:    10,
		RetentionWindows: []int{3, 12, 18},
	}
}

// Validate checks the threshold tables once at startup. Any
// inconsistency is fatal (ErrInvalidConfig), never silently corrected.
func (c *Config) Validate() error {
	if sum := c.ChurnWeights.Recency + c.ChurnWeights.Frequency + c.ChurnWeights.Value; math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("%w: churn weights sum to %v, want 1", ErrInvalidConfig, sum)
	}
	if c.ChurnWeights.Recency < 0 || c.ChurnWeights.Frequency < 0 || c.ChurnWeights.Value < 0 {
		return fmt.Errorf("%w: negative churn weight", ErrInvalidConfig)
	}
	if c.MinCohortSize < 1 {
		return fmt.Errorf("%w: min cohort size %d", ErrInvalidConfig, c.MinCohortSize)
	}
	if len(c.RetentionWindows) == 0 {
		return fmt.Errorf("%w: no retention windows", ErrInvalidConfig)
	}
	prev := 0
	for _, w := range c.RetentionWindows {
		if w <= prev {
			return fmt.Errorf("%w: retention windows must be strictly increasing", ErrInvalidConfig)
		}
		prev = w
	}
	if c.ReferenceDate != "" {
		if _, err := time.Parse("2006-01-02", c.ReferenceDate); err != nil {
			return fmt.Errorf("%w: reference date %q", ErrInvalidConfig, c.ReferenceDate)
		}
	}
	if err := campaign.ValidateRules(campaign.DefaultRules()); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// referenceDate returns the configured override, or the zero time when
// the pipeline should fall back to the max observed transaction date.
func (c *Config) referenceDate() time.Time {
	if c.ReferenceDate == "" {
		return time.Time{}
	}
	t, _ := time.Parse("2006-01-02", c.ReferenceDate)
	return t
}

// resolveDBPath computes the final database path from config fields.
func (c *Config) resolveDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}

	name := c.DBName
	if name == "" {
		name = "salesmart"
	}

	switch c.StorageDir {
	case "local", "cwd":
		return name + ".db"
	default: // "home" or empty
		home, err := os.UserHomeDir()
		if err != nil {
			return name + ".db" // fallback to cwd
		}
		return filepath.Join(home, ".salesmart", name+".db")
	}
}
