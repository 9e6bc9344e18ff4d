package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "splitbook/internal/errors"
	"splitbook/internal/models"
)

// criticalThreshold and exceededThreshold are the canonical thresholds for
// the critical and exceeded bands. The warning band uses the budget's own
// configurable threshold.
const (
	criticalThreshold = 0.95
	exceededThreshold = 1.0
)

// alertService derives threshold-crossing alerts from budget progress.
type alertService struct {
	db *gorm.DB
}

// NewAlertService creates a new AlertServicer.
func NewAlertService(db *gorm.DB) AlertServicer {
	return &alertService{db: db}
}

// Evaluate inspects the budget's progress and creates the alert for the band
// it currently falls in, if one does not exist yet. Bands are mutually
// exclusive per call, but alerts from previously crossed bands are kept:
// progress dropping back below a threshold never deletes an alert.
func (s *alertService) Evaluate(tx *gorm.DB, budget *models.Budget) error {
	progress := budget.Progress()

	switch {
	case progress >= exceededThreshold:
		return s.createIfAbsent(tx, budget, models.AlertTypeExceeded, exceededThreshold)
	case progress >= criticalThreshold:
		return s.createIfAbsent(tx, budget, models.AlertTypeCritical, criticalThreshold)
	case progress >= budget.AlertThreshold:
		return s.createIfAbsent(tx, budget, models.AlertTypeWarning, budget.AlertThreshold)
	}
	return nil
}

// createIfAbsent inserts an alert for the given band unless one already
// exists. The insert relies on the unique index over (budget_id, alert_type,
// threshold) with conflict-ignore semantics, so concurrent evaluations of the
// same budget cannot produce duplicates.
func (s *alertService) createIfAbsent(tx *gorm.DB, budget *models.Budget, alertType models.AlertType, threshold float64) error {
	alert := &models.BudgetAlert{
		BudgetID:  budget.ID,
		AlertType: alertType,
		Threshold: threshold,
		Message:   alertMessage(budget, alertType),
	}

	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "budget_id"}, {Name: "alert_type"}, {Name: "threshold"}},
		DoNothing: true,
	}).Create(alert).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// alertMessage renders the snapshot text stored on the alert at creation
// time. It is never regenerated afterwards.
func alertMessage(budget *models.Budget, alertType models.AlertType) string {
	switch alertType {
	case models.AlertTypeWarning:
		return fmt.Sprintf("Budget '%s' has used %.1f%% of its cap, approaching the alert threshold", budget.Name, budget.Progress()*100)
	case models.AlertTypeCritical:
		return fmt.Sprintf("Budget '%s' has used %.1f%% of its cap and is nearly exhausted", budget.Name, budget.Progress()*100)
	case models.AlertTypeExceeded:
		return fmt.Sprintf("Budget '%s' is over its cap by %.2f", budget.Name, budget.Spent-budget.Amount)
	}
	return ""
}

// GetLedgerAlerts returns the alerts of all budgets in a ledger, newest
// first. With unreadOnly, only alerts not yet marked as sent are returned.
func (s *alertService) GetLedgerAlerts(userID, ledgerID uint, unreadOnly bool) ([]models.BudgetAlert, error) {
	if err := checkLedgerAccess(s.db, userID, ledgerID); err != nil {
		return nil, err
	}

	query := s.db.Model(&models.BudgetAlert{}).
		Joins("JOIN budgets ON budgets.id = budget_alerts.budget_id").
		Where("budgets.ledger_id = ?", ledgerID)

	if unreadOnly {
		query = query.Where("budget_alerts.is_sent = ?", false)
	}

	var alerts []models.BudgetAlert
	if err := query.Order("budget_alerts.created_at DESC").Find(&alerts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return alerts, nil
}

// MarkSent flips the delivery acknowledgement on an alert.
func (s *alertService) MarkSent(alertID uint) error {
	var alert models.BudgetAlert
	if err := s.db.First(&alert, alertID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrAlertNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	now := time.Now()
	err := s.db.Model(&alert).Updates(map[string]interface{}{
		"is_sent": true,
		"sent_at": &now,
	}).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
