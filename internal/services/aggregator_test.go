package services

import (
	"testing"
	"time"

	"splitbook/internal/models"
	"splitbook/internal/testutil"

	"gorm.io/gorm"
)

func newTestAggregator(db *gorm.DB) BudgetAggregator {
	return NewBudgetAggregator(NewAlertService(db))
}

func reloadBudget(t *testing.T, db *gorm.DB, id uint) *models.Budget {
	t.Helper()
	var budget models.Budget
	if err := db.First(&budget, id).Error; err != nil {
		t.Fatalf("failed to reload budget %d: %v", id, err)
	}
	return &budget
}

func TestApplyBill(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	ledger := testutil.CreateTestLedger(t, db, user.ID)
	aggregator := newTestAggregator(db)

	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan31 := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)
	jan15 := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	t.Run("increments matching budget", func(t *testing.T) {
		budget := testutil.CreateTestBudget(t, db, ledger.ID, user.ID, 1000, jan1, jan31)

		err := aggregator.ApplyBill(db, ledger.ID, 120.50, models.BillTypeExpense, "dining", jan15)
		testutil.AssertNoError(t, err)

		got := reloadBudget(t, db, budget.ID)
		if got.Spent != 120.50 {
			t.Errorf("expected spent 120.50, got %v", got.Spent)
		}
	})

	t.Run("income bill is a no-op", func(t *testing.T) {
		budget := testutil.CreateTestBudget(t, db, ledger.ID, user.ID, 1000, jan1, jan31)

		err := aggregator.ApplyBill(db, ledger.ID, 500, models.BillTypeIncome, "salary", jan15)
		testutil.AssertNoError(t, err)

		got := reloadBudget(t, db, budget.ID)
		if got.Spent != 0 {
			t.Errorf("expected spent 0 after income bill, got %v", got.Spent)
		}
	})

	t.Run("skips bills outside the date range", func(t *testing.T) {
		budget := testutil.CreateTestBudget(t, db, ledger.ID, user.ID, 1000, jan1, jan31)

		feb1 := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
		err := aggregator.ApplyBill(db, ledger.ID, 100, models.BillTypeExpense, "", feb1)
		testutil.AssertNoError(t, err)

		got := reloadBudget(t, db, budget.ID)
		if got.Spent != 0 {
			t.Errorf("expected spent 0 for out-of-range bill, got %v", got.Spent)
		}
	})

	t.Run("skips inactive budgets", func(t *testing.T) {
		budget := testutil.CreateTestBudget(t, db, ledger.ID, user.ID, 1000, jan1, jan31)
		err := db.Model(budget).UpdateColumn("status", models.BudgetStatusPaused).Error
		testutil.AssertNoError(t, err)

		err = aggregator.ApplyBill(db, ledger.ID, 100, models.BillTypeExpense, "", jan15)
		testutil.AssertNoError(t, err)

		got := reloadBudget(t, db, budget.ID)
		if got.Spent != 0 {
			t.Errorf("expected paused budget untouched, got spent %v", got.Spent)
		}
	})

	t.Run("category-scoped budget only counts its category", func(t *testing.T) {
		budget := testutil.CreateTestBudget(t, db, ledger.ID, user.ID, 100, jan1, jan31)
		err := db.Model(budget).UpdateColumn("category", "dining").Error
		testutil.AssertNoError(t, err)

		err = aggregator.ApplyBill(db, ledger.ID, 60, models.BillTypeExpense, "dining", jan15)
		testutil.AssertNoError(t, err)
		err = aggregator.ApplyBill(db, ledger.ID, 60, models.BillTypeExpense, "transport", jan15)
		testutil.AssertNoError(t, err)

		got := reloadBudget(t, db, budget.ID)
		if got.Spent != 60 {
			t.Errorf("expected spent 60 for category-scoped budget, got %v", got.Spent)
		}
		if got.Progress() != 0.6 {
			t.Errorf("expected progress 0.6, got %v", got.Progress())
		}

		var alertCount int64
		err = db.Model(&models.BudgetAlert{}).Where("budget_id = ?", budget.ID).Count(&alertCount).Error
		testutil.AssertNoError(t, err)
		if alertCount != 0 {
			t.Errorf("expected no alerts at 60%% progress, got %d", alertCount)
		}
	})

	t.Run("unscoped budget counts every category", func(t *testing.T) {
		budget := testutil.CreateTestBudget(t, db, ledger.ID, user.ID, 1000, jan1, jan31)

		err := aggregator.ApplyBill(db, ledger.ID, 60, models.BillTypeExpense, "dining", jan15)
		testutil.AssertNoError(t, err)
		err = aggregator.ApplyBill(db, ledger.ID, 40, models.BillTypeExpense, "transport", jan15)
		testutil.AssertNoError(t, err)

		got := reloadBudget(t, db, budget.ID)
		if got.Spent != 100 {
			t.Errorf("expected spent 100 for unscoped budget, got %v", got.Spent)
		}
	})
}

func TestRecalculate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	ledger := testutil.CreateTestLedger(t, db, user.ID)
	aggregator := newTestAggregator(db)

	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan31 := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)
	jan10 := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	jan20 := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)

	t.Run("re-derives spent from bills", func(t *testing.T) {
		budget := testutil.CreateTestBudget(t, db, ledger.ID, user.ID, 1000, jan1, jan31)
		testutil.CreateTestBill(t, db, ledger.ID, user.ID, 150, jan10)
		testutil.CreateTestBill(t, db, ledger.ID, user.ID, 250, jan20)

		// Poison the cached value to prove it is overwritten, not adjusted.
		err := db.Model(budget).UpdateColumn("spent", 9999).Error
		testutil.AssertNoError(t, err)

		err = aggregator.Recalculate(db, budget.ID)
		testutil.AssertNoError(t, err)

		got := reloadBudget(t, db, budget.ID)
		if got.Spent != 400 {
			t.Errorf("expected spent 400, got %v", got.Spent)
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		budget := testutil.CreateTestBudget(t, db, ledger.ID, user.ID, 1000, jan1, jan31)
		testutil.CreateTestBill(t, db, ledger.ID, user.ID, 300, jan10)

		for i := 0; i < 3; i++ {
			err := aggregator.Recalculate(db, budget.ID)
			testutil.AssertNoError(t, err)
		}

		got := reloadBudget(t, db, budget.ID)
		if got.Spent != 300 {
			t.Errorf("expected spent 300 after repeated recalculation, got %v", got.Spent)
		}
	})

	t.Run("missing budget is a no-op", func(t *testing.T) {
		err := aggregator.Recalculate(db, 999999)
		testutil.AssertNoError(t, err)
	})

	t.Run("recalculates regardless of status", func(t *testing.T) {
		budget := testutil.CreateTestBudget(t, db, ledger.ID, user.ID, 1000, jan1, jan31)
		err := db.Model(budget).UpdateColumn("status", models.BudgetStatusPaused).Error
		testutil.AssertNoError(t, err)
		testutil.CreateTestBill(t, db, ledger.ID, user.ID, 75, jan10)

		err = aggregator.Recalculate(db, budget.ID)
		testutil.AssertNoError(t, err)

		got := reloadBudget(t, db, budget.ID)
		if got.Spent < 75 {
			t.Errorf("expected paused budget recalculated, got spent %v", got.Spent)
		}
	})

	t.Run("excludes income and other ledgers", func(t *testing.T) {
		other := testutil.CreateTestUser(t, db)
		otherLedger := testutil.CreateTestLedger(t, db, other.ID)

		budget := testutil.CreateTestBudget(t, db, otherLedger.ID, other.ID, 1000, jan1, jan31)
		testutil.CreateTestBill(t, db, otherLedger.ID, other.ID, 50, jan10)
		income := testutil.CreateTestBill(t, db, otherLedger.ID, other.ID, 500, jan10)
		err := db.Model(income).UpdateColumn("type", models.BillTypeIncome).Error
		testutil.AssertNoError(t, err)
		testutil.CreateTestBill(t, db, ledger.ID, user.ID, 80, jan10)

		err = aggregator.Recalculate(db, budget.ID)
		testutil.AssertNoError(t, err)

		got := reloadBudget(t, db, budget.ID)
		if got.Spent != 50 {
			t.Errorf("expected spent 50, got %v", got.Spent)
		}
	})
}

func TestRecalculateOverlapping(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	ledger := testutil.CreateTestLedger(t, db, user.ID)
	aggregator := newTestAggregator(db)

	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan31 := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)
	feb1 := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	feb29 := time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC)
	jan15 := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	janBudget := testutil.CreateTestBudget(t, db, ledger.ID, user.ID, 1000, jan1, jan31)
	febBudget := testutil.CreateTestBudget(t, db, ledger.ID, user.ID, 1000, feb1, feb29)

	testutil.CreateTestBill(t, db, ledger.ID, user.ID, 200, jan15)

	// Stale cached values on both budgets.
	testutil.AssertNoError(t, db.Model(janBudget).UpdateColumn("spent", 1).Error)
	testutil.AssertNoError(t, db.Model(febBudget).UpdateColumn("spent", 1).Error)

	err := aggregator.RecalculateOverlapping(db, ledger.ID, jan15, "dining")
	testutil.AssertNoError(t, err)

	if got := reloadBudget(t, db, janBudget.ID); got.Spent != 200 {
		t.Errorf("expected overlapping budget recalculated to 200, got %v", got.Spent)
	}
	// The February budget does not cover the date and keeps its stale value.
	if got := reloadBudget(t, db, febBudget.ID); got.Spent != 1 {
		t.Errorf("expected non-overlapping budget untouched, got %v", got.Spent)
	}
}

// TestIncrementalAndFullPathsAgree applies a run of bills through the
// incremental path, then recomputes from scratch, and checks both land on the
// same value.
func TestIncrementalAndFullPathsAgree(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	ledger := testutil.CreateTestLedger(t, db, user.ID)
	aggregator := newTestAggregator(db)

	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan31 := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)

	budget := testutil.CreateTestBudget(t, db, ledger.ID, user.ID, 5000, jan1, jan31)
	testutil.AssertNoError(t, db.Model(budget).UpdateColumn("category", "dining").Error)

	bills := []struct {
		amount   float64
		billType models.BillType
		category string
		day      int
	}{
		{120, models.BillTypeExpense, "dining", 3},
		{80, models.BillTypeExpense, "transport", 5},
		{45.5, models.BillTypeExpense, "dining", 12},
		{300, models.BillTypeIncome, "dining", 14},
		{59.5, models.BillTypeExpense, "dining", 28},
	}
	for _, b := range bills {
		date := time.Date(2024, 1, b.day, 12, 0, 0, 0, time.UTC)
		bill := &models.Bill{
			LedgerID: ledger.ID,
			OwnerID:  user.ID,
			Amount:   b.amount,
			Type:     b.billType,
			Category: b.category,
			Date:     date,
		}
		testutil.AssertNoError(t, db.Create(bill).Error)
		testutil.AssertNoError(t, aggregator.ApplyBill(db, ledger.ID, b.amount, b.billType, b.category, date))
	}

	incremental := reloadBudget(t, db, budget.ID).Spent
	if incremental != 225 {
		t.Errorf("expected incremental spent 225, got %v", incremental)
	}

	testutil.AssertNoError(t, aggregator.Recalculate(db, budget.ID))

	full := reloadBudget(t, db, budget.ID).Spent
	if full != incremental {
		t.Errorf("incremental path gave %v, full recompute gave %v", incremental, full)
	}
}
