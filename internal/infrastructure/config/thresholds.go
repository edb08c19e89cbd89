package config

import (
	"github.com/boxstock/backend/internal/domain/inventory"
)

// HealthThresholds maps the section onto the classifier thresholds
func (sh StockHealthConfig) HealthThresholds() inventory.HealthThresholds {
	return inventory.HealthThresholds{
		FastMoverRate:     sh.FastMoverRate,
		FastCoverDays:     sh.FastCoverDays,
		SlowCoverDays:     sh.SlowCoverDays,
		MinThresholdBoxes: sh.MinThresholdBoxes,
		CriticalRatio:     sh.CriticalRatio,
		WarningRatio:      sh.WarningRatio,
		AttentionRatio:    sh.AttentionRatio,
		MinIdleDays:       sh.MinIdleDays,
	}
}

// ReturnUrgency maps the section onto the stagnant-return day cutoffs
func (sh StockHealthConfig) ReturnUrgency() inventory.ReturnUrgencyThresholds {
	return inventory.ReturnUrgencyThresholds{
		CriticalDays: sh.ReturnCriticalDays,
		HighDays:     sh.ReturnHighDays,
		MediumDays:   sh.ReturnMediumDays,
	}
}

// Window parses the default lookback window
func (sh StockHealthConfig) Window() (inventory.LookbackWindow, error) {
	return inventory.ParseLookbackWindow(sh.LookbackWindow)
}
