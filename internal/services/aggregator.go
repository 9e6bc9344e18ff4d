package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "splitbook/internal/errors"
	"splitbook/internal/logger"
	"splitbook/internal/models"
)

// budgetAggregator keeps Budget.Spent consistent with the bills table.
//
// Spent is only ever written through the two paths here: the incremental
// delta on bill creation and the full recomputation everywhere else. Both
// paths apply the same matching rule (ledger, date window, category filter),
// so a run of incremental applies always lands on the same value a recompute
// would produce.
type budgetAggregator struct {
	alerts AlertServicer
}

// NewBudgetAggregator creates a new BudgetAggregator.
func NewBudgetAggregator(alerts AlertServicer) BudgetAggregator {
	return &budgetAggregator{alerts: alerts}
}

// matchingBudgetScope narrows a budgets query to those covering the given
// bill date and category: the date falls inside [start_date, end_date] and
// the budget is either unscoped or scoped to the bill's category.
func matchingBudgetScope(q *gorm.DB, ledgerID uint, date time.Time, category string) *gorm.DB {
	return q.Where("ledger_id = ?", ledgerID).
		Where("start_date <= ? AND end_date >= ?", date, date).
		Where("(category = '' OR category = ?)", category)
}

// ApplyBill adds a newly created bill's amount to every active budget that
// covers it, then evaluates alerts for each. Income bills are a no-op.
//
// The increment is a single column update at the storage layer, so two
// concurrent bill writes against the same budget cannot lose an update.
func (a *budgetAggregator) ApplyBill(tx *gorm.DB, ledgerID uint, amount float64, billType models.BillType, category string, date time.Time) error {
	if billType != models.BillTypeExpense {
		return nil
	}

	var budgets []models.Budget
	err := matchingBudgetScope(tx.Model(&models.Budget{}), ledgerID, date, category).
		Where("status = ?", models.BudgetStatusActive).
		Find(&budgets).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i := range budgets {
		budget := &budgets[i]
		err := tx.Model(&models.Budget{}).
			Where("id = ?", budget.ID).
			UpdateColumn("spent", gorm.Expr("spent + ?", amount)).Error
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		budget.Spent += amount
		a.evaluateAlerts(tx, budget)
	}
	return nil
}

// Recalculate re-derives a budget's Spent from the bills table and overwrites
// the stored value, then evaluates alerts. A missing budget is a no-op:
// budgets may be deleted concurrently with the bill edits that trigger a
// recompute.
func (a *budgetAggregator) Recalculate(tx *gorm.DB, budgetID uint) error {
	var budget models.Budget
	if err := tx.First(&budget, budgetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	spent, err := a.sumExpenses(tx, &budget)
	if err != nil {
		return err
	}

	err = tx.Model(&models.Budget{}).
		Where("id = ?", budget.ID).
		UpdateColumn("spent", spent).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	budget.Spent = spent
	a.evaluateAlerts(tx, &budget)
	return nil
}

// RecalculateOverlapping recomputes every budget of the ledger that covers
// the given date and category. Used after a bill edit or delete, where the
// old row's contribution is no longer cheaply known as a delta.
func (a *budgetAggregator) RecalculateOverlapping(tx *gorm.DB, ledgerID uint, date time.Time, category string) error {
	var ids []uint
	err := matchingBudgetScope(tx.Model(&models.Budget{}), ledgerID, date, category).
		Pluck("id", &ids).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for _, id := range ids {
		if err := a.Recalculate(tx, id); err != nil {
			return err
		}
	}
	return nil
}

// sumExpenses computes the authoritative spent total for a budget: the sum of
// expense bill amounts in the owning ledger whose date falls inside the
// budget's range, restricted to the budget's category when one is set.
func (a *budgetAggregator) sumExpenses(tx *gorm.DB, budget *models.Budget) (float64, error) {
	query := tx.Model(&models.Bill{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("ledger_id = ? AND type = ?", budget.LedgerID, models.BillTypeExpense).
		Where("date >= ? AND date <= ?", budget.StartDate, budget.EndDate)

	if budget.Category != "" {
		query = query.Where("category = ?", budget.Category)
	}

	var spent float64
	if err := query.Scan(&spent).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return spent, nil
}

// evaluateAlerts runs the alert evaluator for one budget. A failure here is
// logged but does not abort aggregation for sibling budgets or roll back the
// triggering bill mutation: alerts are derivable and the next evaluation at
// the same progress will create them.
func (a *budgetAggregator) evaluateAlerts(tx *gorm.DB, budget *models.Budget) {
	if err := a.alerts.Evaluate(tx, budget); err != nil {
		logger.Get().Errorw("alert evaluation failed",
			"budget_id", budget.ID,
			"ledger_id", budget.LedgerID,
			"error", err.Error(),
		)
	}
}
