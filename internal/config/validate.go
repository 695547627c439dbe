package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks the settings a command needs. Modes: "cli" (local field
// management), "lookup" (anything that calls SoilGrids) and "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "cli":
	case "lookup":
		errs = append(errs, c.validateSoilGrids()...)
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		errs = append(errs, c.validateSoilGrids()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	errs = append(errs, c.validateStore()...)

	if c.Cluster.K < 1 {
		errs = append(errs, "cluster.k must be >= 1")
	}
	if c.Survey.Concurrency < 1 || c.Survey.Concurrency > 32 {
		errs = append(errs, "survey.concurrency must be between 1 and 32")
	}

	w := c.Soil.Weights
	if w.OrganicCarbon < 0 || w.PH < 0 || w.Clay < 0 || w.Sand < 0 {
		errs = append(errs, "soil.weights values must be >= 0")
	}
	if sum := w.OrganicCarbon + w.PH + w.Clay + w.Sand; math.Abs(sum-1) > 0.01 {
		errs = append(errs, fmt.Sprintf("soil.weights should sum to 1, got %.2f", sum))
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateStore() []string {
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return []string{"store.sqlite_path is required for sqlite"}
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return []string{"store.database_url is required for postgres"}
		}
	default:
		return []string{fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver)}
	}
	return nil
}

func (c *Config) validateSoilGrids() []string {
	var errs []string
	if c.SoilGrids.BaseURL == "" {
		errs = append(errs, "soilgrids.base_url is required")
	}
	if c.SoilGrids.Depth == "" {
		errs = append(errs, "soilgrids.depth is required")
	}
	if c.SoilGrids.RatePerSec <= 0 {
		errs = append(errs, "soilgrids.rate_per_sec must be > 0")
	}
	if c.SoilGrids.MaxAttempts < 1 {
		errs = append(errs, "soilgrids.max_attempts must be >= 1")
	}
	return errs
}
