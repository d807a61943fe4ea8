package salesmart

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/brunobiangulo/salesmart/ltv"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"weights do not sum to 1", func(c *Config) {
			c.ChurnWeights = ltv.ChurnWeights{Recency: 0.5, Frequency: 0.5, Value: 0.5}
		}},
		{"negative weight", func(c *Config) {
			c.ChurnWeights = ltv.ChurnWeights{Recency: 1.5, Frequency: -0.5, Value: 0}
		}},
		{"zero cohort floor", func(c *Config) { c.MinCohortSize = 0 }},
		{"no retention windows", func(c *Config) { c.RetentionWindows = nil }},
		{"unordered retention windows", func(c *Config) { c.RetentionWindows = []int{12, 3} }},
		{"duplicate retention windows", func(c *Config) { c.RetentionWindows = []int{3, 3} }},
		{"malformed reference date", func(c *Config) { c.ReferenceDate = "06/01/2021" }},
	}
	for _, c := range cases {
		cfg := DefaultConfig()
		c.mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: err = %v, want ErrInvalidConfig", c.name, err)
		}
	}
}

func TestReferenceDate(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.referenceDate().IsZero() {
		t.Error("unset reference date should be zero")
	}
	cfg.ReferenceDate = "2021-06-01"
	want := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	if !cfg.referenceDate().Equal(want) {
		t.Errorf("referenceDate = %v, want %v", cfg.referenceDate(), want)
	}
}

func TestResolveDBPath(t *testing.T) {
	explicit := Config{DBPath: "/tmp/custom.db"}
	if got := explicit.resolveDBPath(); got != "/tmp/custom.db" {
		t.Errorf("explicit path = %s", got)
	}

	local := Config{DBName: "reports", StorageDir: "local"}
	if got := local.resolveDBPath(); got != "reports.db" {
		t.Errorf("local path = %s", got)
	}

	home := Config{StorageDir: "home"}
	got := home.resolveDBPath()
	if filepath.Base(got) != "salesmart.db" {
		t.Errorf("home path = %s, want .../salesmart.db", got)
	}
}
