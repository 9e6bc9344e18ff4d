package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "splitbook/internal/errors"
	"splitbook/internal/models"
	"splitbook/internal/pagination"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db         *gorm.DB
	aggregator BudgetAggregator
	alerts     AlertServicer
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, aggregator BudgetAggregator, alerts AlertServicer) BudgetServicer {
	return &budgetService{db: db, aggregator: aggregator, alerts: alerts}
}

// CreateBudget creates a budget and seeds its Spent from the bills already in
// the chosen range, so a budget defined over past dates starts out correct.
func (s *budgetService) CreateBudget(
	userID, ledgerID uint,
	name string,
	amount float64,
	category string,
	periodType models.BudgetPeriodType,
	startDate, endDate time.Time,
	alertThreshold *float64,
) (*models.Budget, error) {
	if err := checkLedgerAccess(s.db, userID, ledgerID); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Budget amount must be positive")
	}
	if !startDate.Before(endDate) {
		return nil, apperrors.ErrInvalidDateRange
	}

	threshold := models.DefaultAlertThreshold
	if alertThreshold != nil {
		if *alertThreshold < 0 || *alertThreshold > 1 {
			return nil, apperrors.ErrInvalidThreshold
		}
		threshold = *alertThreshold
	}

	budget := &models.Budget{
		LedgerID:       ledgerID,
		CreatedBy:      userID,
		Name:           name,
		Amount:         amount,
		Category:       category,
		PeriodType:     periodType,
		StartDate:      startDate,
		EndDate:        endDate,
		Status:         models.BudgetStatusActive,
		AlertThreshold: threshold,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(budget).Error; err != nil {
			return err
		}
		return s.aggregator.Recalculate(tx, budget.ID)
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.First(budget, budget.ID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budget, nil
}

// GetLedgerBudgets returns a paginated list of a ledger's budgets with an
// optional status filter.
func (s *budgetService) GetLedgerBudgets(
	userID, ledgerID uint,
	page pagination.PageRequest,
	status *models.BudgetStatus,
) (*pagination.PageResponse[models.Budget], error) {
	if err := checkLedgerAccess(s.db, userID, ledgerID); err != nil {
		return nil, err
	}
	page.Defaults()

	base := s.db.Model(&models.Budget{}).Where("ledger_id = ?", ledgerID)
	if status != nil {
		base = base.Where("status = ?", *status)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Scopes(pagination.Paginate(page)).Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetByID returns a budget if the user has access to its ledger.
func (s *budgetService) GetBudgetByID(userID, budgetID uint) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.First(&budget, budgetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := checkLedgerAccess(s.db, userID, budget.LedgerID); err != nil {
		return nil, err
	}
	return &budget, nil
}

// UpdateBudget updates a budget's fields. Changes to the cap, range,
// category, or threshold re-derive Spent and re-evaluate alerts, keeping the
// cached aggregate consistent with the new scope.
func (s *budgetService) UpdateBudget(userID, budgetID uint, upd BudgetUpdate) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	if upd.Amount != nil && *upd.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Budget amount must be positive")
	}
	if upd.AlertThreshold != nil && (*upd.AlertThreshold < 0 || *upd.AlertThreshold > 1) {
		return nil, apperrors.ErrInvalidThreshold
	}

	startDate := budget.StartDate
	if upd.StartDate != nil {
		startDate = *upd.StartDate
	}
	endDate := budget.EndDate
	if upd.EndDate != nil {
		endDate = *upd.EndDate
	}
	if !startDate.Before(endDate) {
		return nil, apperrors.ErrInvalidDateRange
	}

	updates := make(map[string]interface{})
	if upd.Name != nil {
		updates["name"] = *upd.Name
	}
	if upd.Amount != nil {
		updates["amount"] = *upd.Amount
	}
	if upd.Category != nil {
		updates["category"] = *upd.Category
	}
	if upd.PeriodType != nil {
		updates["period_type"] = *upd.PeriodType
	}
	if upd.StartDate != nil {
		updates["start_date"] = *upd.StartDate
	}
	if upd.EndDate != nil {
		updates["end_date"] = *upd.EndDate
	}
	if upd.Status != nil {
		updates["status"] = *upd.Status
	}
	if upd.AlertThreshold != nil {
		updates["alert_threshold"] = *upd.AlertThreshold
	}

	if len(updates) == 0 {
		return budget, nil
	}

	needsRecalc := upd.Amount != nil || upd.Category != nil ||
		upd.StartDate != nil || upd.EndDate != nil || upd.AlertThreshold != nil

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(budget).Updates(updates).Error; err != nil {
			return err
		}
		if needsRecalc {
			return s.aggregator.Recalculate(tx, budget.ID)
		}
		return nil
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.First(budget, budget.ID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budget, nil
}

// DeleteBudget removes a budget and all of its alerts.
func (s *budgetService) DeleteBudget(userID, budgetID uint) error {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("budget_id = ?", budget.ID).Delete(&models.BudgetAlert{}).Error; err != nil {
			return err
		}
		return tx.Delete(budget).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// RecalculateBudget forces a full recompute of one budget's Spent.
func (s *budgetService) RecalculateBudget(userID, budgetID uint) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.aggregator.Recalculate(tx, budget.ID)
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.First(budget, budget.ID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budget, nil
}

// GetBudgetProgress returns a single-budget progress view including the days
// left until the budget's end date.
func (s *budgetService) GetBudgetProgress(userID, budgetID uint) (*BudgetProgress, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	daysRemaining := int(time.Until(budget.EndDate).Hours() / 24)
	if daysRemaining < 0 {
		daysRemaining = 0
	}

	return &BudgetProgress{
		BudgetID:      budget.ID,
		Name:          budget.Name,
		Amount:        budget.Amount,
		Spent:         budget.Spent,
		Progress:      budget.Progress(),
		Remaining:     budget.Remaining(),
		IsExceeded:    budget.IsExceeded(),
		IsWarning:     budget.IsWarning(),
		DaysRemaining: daysRemaining,
	}, nil
}

// GetBudgetStats rolls up the ledger's active budgets whose range contains
// the current time. Warning and exceeded counts are mutually exclusive here:
// an exceeded budget is not double-counted as a warning.
func (s *budgetService) GetBudgetStats(userID, ledgerID uint) (*BudgetStats, error) {
	if err := checkLedgerAccess(s.db, userID, ledgerID); err != nil {
		return nil, err
	}
	return s.budgetStats(ledgerID)
}

func (s *budgetService) budgetStats(ledgerID uint) (*BudgetStats, error) {
	now := time.Now()

	var totalBudgets int64
	if err := s.db.Model(&models.Budget{}).Where("ledger_id = ?", ledgerID).Count(&totalBudgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var activeBudgets []models.Budget
	err := s.db.Where("ledger_id = ? AND status = ?", ledgerID, models.BudgetStatusActive).
		Where("start_date <= ? AND end_date >= ?", now, now).
		Find(&activeBudgets).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	stats := &BudgetStats{
		TotalBudgets:  totalBudgets,
		ActiveBudgets: int64(len(activeBudgets)),
	}
	for i := range activeBudgets {
		b := &activeBudgets[i]
		stats.TotalAmount += b.Amount
		stats.TotalSpent += b.Spent
		if b.IsExceeded() {
			stats.ExceededCount++
		} else if b.IsWarning() {
			stats.WarningCount++
		}
	}
	stats.TotalRemaining = stats.TotalAmount - stats.TotalSpent
	if stats.TotalRemaining < 0 {
		stats.TotalRemaining = 0
	}
	return stats, nil
}

// GetBudgetSummary buckets the ledger's active budgets by period type and
// bundles unread alerts with the ledger stats.
func (s *budgetService) GetBudgetSummary(userID, ledgerID uint) (*BudgetSummary, error) {
	if err := checkLedgerAccess(s.db, userID, ledgerID); err != nil {
		return nil, err
	}

	var active []models.Budget
	err := s.db.Where("ledger_id = ? AND status = ?", ledgerID, models.BudgetStatusActive).
		Find(&active).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summary := &BudgetSummary{
		MonthlyBudgets: []models.Budget{},
		YearlyBudgets:  []models.Budget{},
		CustomBudgets:  []models.Budget{},
	}
	for _, b := range active {
		switch b.PeriodType {
		case models.BudgetPeriodMonthly:
			summary.MonthlyBudgets = append(summary.MonthlyBudgets, b)
		case models.BudgetPeriodYearly:
			summary.YearlyBudgets = append(summary.YearlyBudgets, b)
		case models.BudgetPeriodCustom:
			summary.CustomBudgets = append(summary.CustomBudgets, b)
		}
	}

	alerts, err := s.alerts.GetLedgerAlerts(userID, ledgerID, true)
	if err != nil {
		return nil, err
	}
	summary.Alerts = alerts

	stats, err := s.budgetStats(ledgerID)
	if err != nil {
		return nil, err
	}
	summary.Stats = *stats

	return summary, nil
}
