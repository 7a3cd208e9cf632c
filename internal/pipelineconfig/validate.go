package pipelineconfig

import (
	"fmt"

	"github.com/wonny/demandprep/internal/contracts"
)

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Cleaning ===
	if cfg.Cleaning.RemoveInactive && cfg.Cleaning.InactiveCutoffWeeks <= 0 {
		return invalid("cleaning.inactive_cutoff_weeks", "must be > 0 when remove_inactive is set")
	}

	// === Encoding ===
	if len(cfg.Encoding.Features) == 0 {
		return invalid("encoding.features", "at least one feature required")
	}
	seen := map[string]bool{}
	for _, f := range cfg.Encoding.Features {
		if f == "" {
			return invalid("encoding.features", "empty feature name")
		}
		if seen[f] {
			return invalid("encoding.features", fmt.Sprintf("duplicate feature %q", f))
		}
		seen[f] = true
	}

	// === Stock ===
	if cfg.Stock.LagRows < 0 {
		return invalid("stock.lag_rows", "must be >= 0")
	}

	// === History ===
	if cfg.History.LookbackDays <= 0 {
		return invalid("history.lookback_days", "must be > 0")
	}
	if cfg.History.GapThresholdDays < 0 {
		return invalid("history.gap_threshold_days", "must be >= 0")
	}

	// === TimeSeries ===
	if cfg.TimeSeries.Column == "" {
		return invalid("time_series.column", "required")
	}
	if cfg.TimeSeries.Workers <= 0 {
		return invalid("time_series.workers", "must be > 0")
	}
	if err := validateSeriesMode("time_series.historical", cfg.TimeSeries.Historical); err != nil {
		return err
	}
	if err := validateSeriesMode("time_series.prediction", cfg.TimeSeries.Prediction); err != nil {
		return err
	}

	// === Split ===
	if cfg.Split.Target == "" {
		return invalid("split.target", "required")
	}

	return nil
}

func validateSeriesMode(field string, m SeriesMode) error {
	if len(m.Horizons) == 0 {
		return invalid(field+".horizons", "at least one horizon required")
	}
	seen := map[int]bool{}
	for _, h := range m.Horizons {
		if h <= 0 {
			return invalid(field+".horizons", fmt.Sprintf("horizon %d must be > 0", h))
		}
		if seen[h] {
			return invalid(field+".horizons", fmt.Sprintf("duplicate horizon %d", h))
		}
		seen[h] = true
	}
	if m.Fill != FillZero && m.Fill != FillMissing {
		return invalid(field+".fill", "must be zero or missing")
	}
	return nil
}

func invalid(field, msg string) error {
	return &contracts.ValidationError{Field: field, Message: msg}
}
