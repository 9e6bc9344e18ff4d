package models

import "time"

// BudgetPeriodType describes the intended cadence of a budget. It is
// descriptive only: the enforced range is always [StartDate, EndDate].
type BudgetPeriodType string

const (
	BudgetPeriodMonthly   BudgetPeriodType = "monthly"
	BudgetPeriodQuarterly BudgetPeriodType = "quarterly"
	BudgetPeriodYearly    BudgetPeriodType = "yearly"
	BudgetPeriodCustom    BudgetPeriodType = "custom"
)

// BudgetStatus represents the lifecycle status of a budget.
// Statuses are user-set; nothing transitions them automatically.
type BudgetStatus string

const (
	BudgetStatusActive    BudgetStatus = "active"
	BudgetStatusPaused    BudgetStatus = "paused"
	BudgetStatusCompleted BudgetStatus = "completed"
	BudgetStatusExpired   BudgetStatus = "expired"
)

// DefaultAlertThreshold is the warning threshold applied when none is given.
const DefaultAlertThreshold = 0.8

// Budget represents a spending cap over a date range within a ledger.
// Spent is a cached aggregate over expense bills and must always be
// re-derivable from the bills table; see services.BudgetAggregator.
type Budget struct {
	Base
	LedgerID       uint             `gorm:"not null;index" json:"ledger_id"`
	CreatedBy      uint             `gorm:"not null" json:"created_by"`
	Name           string           `gorm:"not null" json:"name"`
	Amount         float64          `gorm:"not null" json:"amount"`
	Spent          float64          `gorm:"default:0" json:"spent"`
	Category       string           `json:"category"` // empty = all categories
	PeriodType     BudgetPeriodType `gorm:"not null" json:"period_type"`
	StartDate      time.Time        `gorm:"not null" json:"start_date"`
	EndDate        time.Time        `gorm:"not null" json:"end_date"`
	Status         BudgetStatus     `gorm:"not null;default:active" json:"status"`
	AlertThreshold float64          `gorm:"default:0.8" json:"alert_threshold"`

	// Relationships
	Ledger  Ledger        `gorm:"foreignKey:LedgerID" json:"-"`
	Creator User          `gorm:"foreignKey:CreatedBy" json:"-"`
	Alerts  []BudgetAlert `gorm:"foreignKey:BudgetID;constraint:OnDelete:CASCADE" json:"alerts,omitempty"`
}

// Progress returns the fraction of the cap already spent, capped at 1.0.
func (b *Budget) Progress() float64 {
	if b.Amount <= 0 {
		return 0
	}
	p := b.Spent / b.Amount
	if p > 1.0 {
		return 1.0
	}
	return p
}

// Remaining returns the unspent portion of the cap, floored at 0.
func (b *Budget) Remaining() float64 {
	r := b.Amount - b.Spent
	if r < 0 {
		return 0
	}
	return r
}

// IsExceeded reports whether spending has passed the cap.
func (b *Budget) IsExceeded() bool {
	return b.Spent > b.Amount
}

// IsWarning reports whether progress has reached the alert threshold.
func (b *Budget) IsWarning() bool {
	return b.Progress() >= b.AlertThreshold
}
