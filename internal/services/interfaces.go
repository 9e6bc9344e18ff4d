package services

import (
	"time"

	"gorm.io/gorm"

	"splitbook/internal/models"
	"splitbook/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
}

// LedgerServicer defines the contract for ledger-related business logic.
type LedgerServicer interface {
	CreateLedger(ownerID uint, name, description string) (*models.Ledger, error)
	GetUserLedgers(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Ledger], error)
	GetLedgerByID(userID, ledgerID uint) (*models.Ledger, error)
	AddMember(userID, ledgerID, newMemberID uint, role models.LedgerRole) error
}

// BillFilter holds optional filter parameters for listing bills.
type BillFilter struct {
	FromDate *time.Time
	ToDate   *time.Time
	Type     *models.BillType
	Category *string
}

// BillUpdate holds the fields of a bill that may be changed. Nil fields are
// left untouched.
type BillUpdate struct {
	Amount      *float64
	Type        *models.BillType
	Category    *string
	Description *string
	Date        *time.Time
}

// BillServicer defines the contract for bill-related business logic. Every
// mutation keeps the budgets of the owning ledger in sync through the
// aggregator, inside the same transaction as the bill write.
type BillServicer interface {
	CreateBill(userID, ledgerID uint, amount float64, billType models.BillType, category, description string, date time.Time) (*models.Bill, error)
	GetLedgerBills(userID, ledgerID uint, page pagination.PageRequest, filter BillFilter) (*pagination.PageResponse[models.Bill], error)
	GetBillByID(userID, billID uint) (*models.Bill, error)
	UpdateBill(userID, billID uint, upd BillUpdate) (*models.Bill, error)
	DeleteBill(userID, billID uint) error
}

// BudgetAggregator keeps Budget.Spent equal to the true sum of matching
// expense bills. ApplyBill is the incremental fast path used on bill
// creation; Recalculate is the authoritative full re-derivation used on bill
// edits and deletes and to seed new budgets. The two must agree: after any
// sequence of bill mutations, Spent equals what Recalculate would produce.
type BudgetAggregator interface {
	ApplyBill(tx *gorm.DB, ledgerID uint, amount float64, billType models.BillType, category string, date time.Time) error
	Recalculate(tx *gorm.DB, budgetID uint) error
	RecalculateOverlapping(tx *gorm.DB, ledgerID uint, date time.Time, category string) error
}

// AlertServicer derives threshold-crossing alerts from a budget's progress.
type AlertServicer interface {
	Evaluate(tx *gorm.DB, budget *models.Budget) error
	GetLedgerAlerts(userID, ledgerID uint, unreadOnly bool) ([]models.BudgetAlert, error)
	MarkSent(alertID uint) error
}

// BudgetUpdate holds the fields of a budget that may be changed. Nil fields
// are left untouched.
type BudgetUpdate struct {
	Name           *string
	Amount         *float64
	Category       *string
	PeriodType     *models.BudgetPeriodType
	StartDate      *time.Time
	EndDate        *time.Time
	Status         *models.BudgetStatus
	AlertThreshold *float64
}

// BudgetProgress is a single-budget progress view.
type BudgetProgress struct {
	BudgetID      uint    `json:"budget_id"`
	Name          string  `json:"name"`
	Amount        float64 `json:"amount"`
	Spent         float64 `json:"spent"`
	Progress      float64 `json:"progress"`
	Remaining     float64 `json:"remaining"`
	IsExceeded    bool    `json:"is_exceeded"`
	IsWarning     bool    `json:"is_warning"`
	DaysRemaining int     `json:"days_remaining"`
}

// BudgetStats aggregates the active, in-window budgets of a ledger.
type BudgetStats struct {
	TotalBudgets   int64   `json:"total_budgets"`
	ActiveBudgets  int64   `json:"active_budgets"`
	TotalAmount    float64 `json:"total_amount"`
	TotalSpent     float64 `json:"total_spent"`
	TotalRemaining float64 `json:"total_remaining"`
	ExceededCount  int     `json:"exceeded_count"`
	WarningCount   int     `json:"warning_count"`
}

// BudgetSummary buckets a ledger's active budgets by period type and bundles
// unread alerts and stats.
type BudgetSummary struct {
	MonthlyBudgets []models.Budget      `json:"monthly_budgets"`
	YearlyBudgets  []models.Budget      `json:"yearly_budgets"`
	CustomBudgets  []models.Budget      `json:"custom_budgets"`
	Alerts         []models.BudgetAlert `json:"alerts"`
	Stats          BudgetStats          `json:"stats"`
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(userID, ledgerID uint, name string, amount float64, category string, periodType models.BudgetPeriodType, startDate, endDate time.Time, alertThreshold *float64) (*models.Budget, error)
	GetLedgerBudgets(userID, ledgerID uint, page pagination.PageRequest, status *models.BudgetStatus) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(userID, budgetID uint) (*models.Budget, error)
	UpdateBudget(userID, budgetID uint, upd BudgetUpdate) (*models.Budget, error)
	DeleteBudget(userID, budgetID uint) error
	RecalculateBudget(userID, budgetID uint) (*models.Budget, error)
	GetBudgetProgress(userID, budgetID uint) (*BudgetProgress, error)
	GetBudgetStats(userID, ledgerID uint) (*BudgetStats, error)
	GetBudgetSummary(userID, ledgerID uint) (*BudgetSummary, error)
}
