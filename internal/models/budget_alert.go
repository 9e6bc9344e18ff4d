package models

import "time"

// AlertType represents the band a budget alert was created for
type AlertType string

const (
	AlertTypeWarning  AlertType = "warning"  // progress >= budget's alert threshold
	AlertTypeCritical AlertType = "critical" // progress >= 0.95
	AlertTypeExceeded AlertType = "exceeded" // progress >= 1.0
)

// BudgetAlert records a threshold crossing for a budget. At most one row
// exists per (budget_id, alert_type, threshold); alerts are never retracted
// when spending drops back below the threshold.
type BudgetAlert struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	BudgetID  uint       `gorm:"not null;uniqueIndex:idx_budget_alert_band" json:"budget_id"`
	AlertType AlertType  `gorm:"not null;uniqueIndex:idx_budget_alert_band" json:"alert_type"`
	Threshold float64    `gorm:"not null;uniqueIndex:idx_budget_alert_band" json:"threshold"`
	Message   string     `json:"message"`
	IsSent    bool       `gorm:"default:false" json:"is_sent"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`

	Budget Budget `gorm:"foreignKey:BudgetID" json:"-"`
}
