package inventory

import (
	"math"
	"strings"
	"time"

	"github.com/boxstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Movement classifies a product by sales velocity
type Movement string

const (
	MovementFast Movement = "FAST"
	MovementSlow Movement = "SLOW"
)

// Urgency is the depletion tier of a stock record
type Urgency string

const (
	UrgencyCritical  Urgency = "CRITICAL"
	UrgencyWarning   Urgency = "WARNING"
	UrgencyAttention Urgency = "ATTENTION"
	UrgencyNormal    Urgency = "NORMAL"
)

// Rank orders urgencies from most (0) to least severe
func (u Urgency) Rank() int {
	switch u {
	case UrgencyCritical:
		return 0
	case UrgencyWarning:
		return 1
	case UrgencyAttention:
		return 2
	default:
		return 3
	}
}

// ParseUrgency parses a case-insensitive urgency name
func ParseUrgency(s string) (Urgency, error) {
	u := Urgency(strings.ToUpper(strings.TrimSpace(s)))
	switch u {
	case UrgencyCritical, UrgencyWarning, UrgencyAttention, UrgencyNormal:
		return u, nil
	}
	return "", shared.NewDomainErrorf(shared.CodeInvalidInput, "Unknown urgency %q", s)
}

// LookbackWindow is the span of sales history used for velocity
type LookbackWindow string

const (
	WindowDay   LookbackWindow = "day"
	WindowWeek  LookbackWindow = "week"
	WindowMonth LookbackWindow = "month"
	WindowYear  LookbackWindow = "year"
)

// Days returns the window length in days
func (w LookbackWindow) Days() int {
	switch w {
	case WindowDay:
		return 1
	case WindowWeek:
		return 7
	case WindowYear:
		return 365
	default:
		return 30
	}
}

// ParseLookbackWindow parses a window name; empty means month
func ParseLookbackWindow(s string) (LookbackWindow, error) {
	switch w := LookbackWindow(strings.ToLower(strings.TrimSpace(s))); w {
	case "":
		return WindowMonth, nil
	case WindowDay, WindowWeek, WindowMonth, WindowYear:
		return w, nil
	}
	return "", shared.NewDomainErrorf(shared.CodeInvalidInput, "Unknown lookback window %q", s)
}

// SalesPoint is the boxes sold on one calendar day
type SalesPoint struct {
	Day   time.Time
	Boxes int
}

// SalesHistory is the sales input for one (product, warehouse) pair.
// Points cover the lookback window; LastSaleAt is the latest sale ever
// recorded and TrackedSince is when stock tracking for the pair began.
type SalesHistory struct {
	Window       LookbackWindow
	Points       []SalesPoint
	LastSaleAt   *time.Time
	TrackedSince time.Time
}

// HealthThresholds configures the classifier. The cutoffs are operational
// tuning, not business invariants.
type HealthThresholds struct {
	// FastMoverRate is the boxes/day at or above which a product is FAST
	FastMoverRate float64
	// FastCoverDays and SlowCoverDays are the days of sales kept as safety stock
	FastCoverDays float64
	SlowCoverDays float64
	// MinThresholdBoxes floors the dynamic threshold for products with little or no sales
	MinThresholdBoxes float64
	CriticalRatio     float64
	WarningRatio      float64
	AttentionRatio    float64
	MinIdleDays       int
}

// DefaultHealthThresholds returns the stock thresholds used in production
func DefaultHealthThresholds() HealthThresholds {
	return HealthThresholds{
		FastMoverRate:     1,
		FastCoverDays:     14,
		SlowCoverDays:     7,
		MinThresholdBoxes: 1,
		CriticalRatio:     1,
		WarningRatio:      1.5,
		AttentionRatio:    2,
		MinIdleDays:       21,
	}
}

// Validate checks the thresholds are usable
func (t HealthThresholds) Validate() error {
	switch {
	case t.FastMoverRate <= 0:
		return shared.NewDomainError(shared.CodeInvalidConfiguration, "fast mover rate must be positive")
	case t.FastCoverDays <= 0 || t.SlowCoverDays <= 0:
		return shared.NewDomainError(shared.CodeInvalidConfiguration, "cover days must be positive")
	case t.MinThresholdBoxes < 0:
		return shared.NewDomainError(shared.CodeInvalidConfiguration, "minimum threshold cannot be negative")
	case !(t.CriticalRatio > 0 && t.CriticalRatio <= t.WarningRatio && t.WarningRatio <= t.AttentionRatio):
		return shared.NewDomainError(shared.CodeInvalidConfiguration, "urgency ratios must be positive and ascending")
	case t.MinIdleDays < 1:
		return shared.NewDomainError(shared.CodeInvalidConfiguration, "minimum idle days must be at least 1")
	}
	return nil
}

// HealthAssessment is the classifier's verdict for one stock record
type HealthAssessment struct {
	ProductID        uuid.UUID
	WarehouseID      uuid.UUID
	QuantityBoxes    int
	AvailableBoxes   int
	SalesRate        float64
	Movement         Movement
	DynamicThreshold float64
	Urgency          Urgency
	TurnoverDays     *float64
	DaysIdle         int
	Stagnant         bool
	// ReorderBoxes is how many boxes lift the record out of ATTENTION
	ReorderBoxes int
}

// StockHealthClassifier derives velocity, urgency, turnover and stagnation
// from a stock record and its sales history. It holds no state besides
// configuration and a clock.
type StockHealthClassifier struct {
	thresholds HealthThresholds
	now        func() time.Time
}

// NewStockHealthClassifier creates a classifier; a nil clock means time.Now
func NewStockHealthClassifier(thresholds HealthThresholds, now func() time.Time) *StockHealthClassifier {
	if now == nil {
		now = time.Now
	}
	return &StockHealthClassifier{thresholds: thresholds, now: now}
}

// Thresholds returns the active configuration
func (c *StockHealthClassifier) Thresholds() HealthThresholds {
	return c.thresholds
}

// HistoryRange returns the span a SalesHistory for w has to cover
func (c *StockHealthClassifier) HistoryRange(w LookbackWindow) (from, to time.Time) {
	to = c.now()
	return startOfDay(to).AddDate(0, 0, -(w.Days() - 1)), to
}

// SalesRate is the average boxes sold per day over the history's window.
// Points outside the window are ignored; no history yields 0.
func (c *StockHealthClassifier) SalesRate(h SalesHistory) float64 {
	days := h.Window.Days()
	from := startOfDay(c.now()).AddDate(0, 0, -(days - 1))

	total := 0
	for _, p := range h.Points {
		if p.Day.Before(from) || p.Boxes <= 0 {
			continue
		}
		total += p.Boxes
	}
	if total == 0 {
		return 0
	}
	return float64(total) / float64(days)
}

// ClassifyMovement separates fast from slow movers at a fixed cutover rate
func ClassifyMovement(salesRate, thresholdUnitsPerDay float64) Movement {
	if salesRate >= thresholdUnitsPerDay {
		return MovementFast
	}
	return MovementSlow
}

// DynamicThreshold is the safety stock for a sales rate. Fast movers keep
// more days of cover, so they reach each urgency tier earlier.
func (c *StockHealthClassifier) DynamicThreshold(salesRate float64) float64 {
	cover := c.thresholds.SlowCoverDays
	if ClassifyMovement(salesRate, c.thresholds.FastMoverRate) == MovementFast {
		cover = c.thresholds.FastCoverDays
	}
	return math.Max(c.thresholds.MinThresholdBoxes, salesRate*cover)
}

// UrgencyForThreshold tiers the ratio availableBoxes / dynamicThreshold.
// A non-positive threshold means only an empty record is critical.
func (c *StockHealthClassifier) UrgencyForThreshold(availableBoxes int, dynamicThreshold float64) Urgency {
	if dynamicThreshold <= 0 {
		if availableBoxes <= 0 {
			return UrgencyCritical
		}
		return UrgencyNormal
	}

	ratio := float64(availableBoxes) / dynamicThreshold
	switch {
	case ratio <= c.thresholds.CriticalRatio:
		return UrgencyCritical
	case ratio <= c.thresholds.WarningRatio:
		return UrgencyWarning
	case ratio <= c.thresholds.AttentionRatio:
		return UrgencyAttention
	default:
		return UrgencyNormal
	}
}

// Urgency classifies available stock against the threshold for salesRate
func (c *StockHealthClassifier) Urgency(availableBoxes int, salesRate float64) Urgency {
	return c.UrgencyForThreshold(availableBoxes, c.DynamicThreshold(salesRate))
}

// TurnoverDays estimates days until depletion. Nil when there are no recent
// sales, which itself marks the record as a stagnation candidate.
func TurnoverDays(availableBoxes int, salesRate float64) *float64 {
	if salesRate <= 0 {
		return nil
	}
	days := float64(availableBoxes) / salesRate
	return &days
}

// DaysIdle counts whole days since the last sale, or since tracking began
// when nothing was ever sold.
func (c *StockHealthClassifier) DaysIdle(h SalesHistory) int {
	ref := h.TrackedSince
	if h.LastSaleAt != nil {
		ref = *h.LastSaleAt
	}
	if ref.IsZero() {
		return 0
	}
	idle := c.now().Sub(ref)
	if idle <= 0 {
		return 0
	}
	return int(idle.Hours() / 24)
}

// IsStagnant reports whether nothing was sold for at least minIdleDays
// consecutive days up to now. A minIdleDays below 1 uses the configured value.
func (c *StockHealthClassifier) IsStagnant(h SalesHistory, minIdleDays int) bool {
	if minIdleDays < 1 {
		minIdleDays = c.thresholds.MinIdleDays
	}
	return c.DaysIdle(h) >= minIdleDays
}

// Assess runs every classification for one stock record
func (c *StockHealthClassifier) Assess(record *StockRecord, h SalesHistory) HealthAssessment {
	available := record.AvailableBoxes()
	rate := c.SalesRate(h)
	threshold := c.DynamicThreshold(rate)

	reorder := int(math.Floor(threshold*c.thresholds.AttentionRatio)) + 1 - available
	if reorder < 0 {
		reorder = 0
	}

	return HealthAssessment{
		ProductID:        record.ProductID,
		WarehouseID:      record.WarehouseID,
		QuantityBoxes:    record.QuantityBoxes,
		AvailableBoxes:   available,
		SalesRate:        rate,
		Movement:         ClassifyMovement(rate, c.thresholds.FastMoverRate),
		DynamicThreshold: threshold,
		Urgency:          c.UrgencyForThreshold(available, threshold),
		TurnoverDays:     TurnoverDays(available, rate),
		DaysIdle:         c.DaysIdle(h),
		Stagnant:         c.IsStagnant(h, 0),
		ReorderBoxes:     reorder,
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
