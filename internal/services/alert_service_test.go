package services

import (
	"strings"
	"testing"
	"time"

	"splitbook/internal/models"
	"splitbook/internal/testutil"

	"gorm.io/gorm"
)

func budgetAlerts(t *testing.T, db *gorm.DB, budgetID uint) []models.BudgetAlert {
	t.Helper()
	var alerts []models.BudgetAlert
	if err := db.Where("budget_id = ?", budgetID).Order("threshold ASC").Find(&alerts).Error; err != nil {
		t.Fatalf("failed to load alerts for budget %d: %v", budgetID, err)
	}
	return alerts
}

func TestAlertEvaluate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	ledger := testutil.CreateTestLedger(t, db, user.ID)
	alerts := NewAlertService(db)

	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan31 := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)

	newBudget := func(spent float64) *models.Budget {
		budget := testutil.CreateTestBudget(t, db, ledger.ID, user.ID, 1000, jan1, jan31)
		budget.Spent = spent
		testutil.AssertNoError(t, db.Model(budget).UpdateColumn("spent", spent).Error)
		return budget
	}

	t.Run("below threshold creates nothing", func(t *testing.T) {
		budget := newBudget(500)
		testutil.AssertNoError(t, alerts.Evaluate(db, budget))
		if got := budgetAlerts(t, db, budget.ID); len(got) != 0 {
			t.Errorf("expected no alerts at 50%% progress, got %d", len(got))
		}
	})

	t.Run("warning band", func(t *testing.T) {
		budget := newBudget(850)
		testutil.AssertNoError(t, alerts.Evaluate(db, budget))

		got := budgetAlerts(t, db, budget.ID)
		if len(got) != 1 {
			t.Fatalf("expected exactly one alert, got %d", len(got))
		}
		if got[0].AlertType != models.AlertTypeWarning {
			t.Errorf("expected warning alert, got %s", got[0].AlertType)
		}
		if got[0].Threshold != budget.AlertThreshold {
			t.Errorf("expected threshold %v, got %v", budget.AlertThreshold, got[0].Threshold)
		}
	})

	t.Run("critical band", func(t *testing.T) {
		budget := newBudget(960)
		testutil.AssertNoError(t, alerts.Evaluate(db, budget))

		got := budgetAlerts(t, db, budget.ID)
		if len(got) != 1 {
			t.Fatalf("expected exactly one alert, got %d", len(got))
		}
		if got[0].AlertType != models.AlertTypeCritical {
			t.Errorf("expected critical alert, got %s", got[0].AlertType)
		}
		if got[0].Threshold != 0.95 {
			t.Errorf("expected threshold 0.95, got %v", got[0].Threshold)
		}
	})

	t.Run("exceeded band wins over lower bands", func(t *testing.T) {
		budget := newBudget(1200)
		testutil.AssertNoError(t, alerts.Evaluate(db, budget))

		got := budgetAlerts(t, db, budget.ID)
		if len(got) != 1 {
			t.Fatalf("expected exactly one alert per evaluation, got %d", len(got))
		}
		if got[0].AlertType != models.AlertTypeExceeded {
			t.Errorf("expected exceeded alert, got %s", got[0].AlertType)
		}
	})

	t.Run("repeated evaluation creates no duplicates", func(t *testing.T) {
		budget := newBudget(850)
		for i := 0; i < 10; i++ {
			testutil.AssertNoError(t, alerts.Evaluate(db, budget))
		}
		if got := budgetAlerts(t, db, budget.ID); len(got) != 1 {
			t.Errorf("expected one alert after repeated evaluation, got %d", len(got))
		}
	})

	t.Run("alerts are never retracted", func(t *testing.T) {
		budget := newBudget(850)
		testutil.AssertNoError(t, alerts.Evaluate(db, budget))

		budget.Spent = 960
		testutil.AssertNoError(t, alerts.Evaluate(db, budget))
		budget.Spent = 1200
		testutil.AssertNoError(t, alerts.Evaluate(db, budget))

		// Spending drops back under every threshold; nothing is deleted.
		budget.Spent = 100
		testutil.AssertNoError(t, alerts.Evaluate(db, budget))

		got := budgetAlerts(t, db, budget.ID)
		if len(got) != 3 {
			t.Fatalf("expected three alerts kept, got %d", len(got))
		}
		wantTypes := []models.AlertType{models.AlertTypeWarning, models.AlertTypeCritical, models.AlertTypeExceeded}
		for i, want := range wantTypes {
			if got[i].AlertType != want {
				t.Errorf("alert %d: expected %s, got %s", i, want, got[i].AlertType)
			}
		}
	})

	t.Run("message is a snapshot of progress at creation", func(t *testing.T) {
		budget := newBudget(850)
		testutil.AssertNoError(t, alerts.Evaluate(db, budget))

		got := budgetAlerts(t, db, budget.ID)
		if len(got) != 1 {
			t.Fatalf("expected one alert, got %d", len(got))
		}
		if !strings.Contains(got[0].Message, budget.Name) {
			t.Errorf("expected message to name the budget, got %q", got[0].Message)
		}
		if !strings.Contains(got[0].Message, "85.0%") {
			t.Errorf("expected message to carry the progress snapshot, got %q", got[0].Message)
		}
	})

	t.Run("exceeded message reports the overrun", func(t *testing.T) {
		budget := newBudget(1050)
		testutil.AssertNoError(t, alerts.Evaluate(db, budget))

		got := budgetAlerts(t, db, budget.ID)
		if len(got) != 1 {
			t.Fatalf("expected one alert, got %d", len(got))
		}
		if !strings.Contains(got[0].Message, "50.00") {
			t.Errorf("expected overrun amount in message, got %q", got[0].Message)
		}
	})
}

func TestGetLedgerAlerts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	stranger := testutil.CreateTestUser(t, db)
	ledger := testutil.CreateTestLedger(t, db, user.ID)
	alerts := NewAlertService(db)

	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan31 := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)

	budget := testutil.CreateTestBudget(t, db, ledger.ID, user.ID, 1000, jan1, jan31)
	budget.Spent = 850
	testutil.AssertNoError(t, db.Model(budget).UpdateColumn("spent", 850).Error)
	testutil.AssertNoError(t, alerts.Evaluate(db, budget))
	budget.Spent = 1200
	testutil.AssertNoError(t, alerts.Evaluate(db, budget))

	t.Run("returns all alerts of the ledger", func(t *testing.T) {
		got, err := alerts.GetLedgerAlerts(user.ID, ledger.ID, false)
		testutil.AssertNoError(t, err)
		if len(got) != 2 {
			t.Errorf("expected 2 alerts, got %d", len(got))
		}
	})

	t.Run("unread filter excludes sent alerts", func(t *testing.T) {
		all, err := alerts.GetLedgerAlerts(user.ID, ledger.ID, false)
		testutil.AssertNoError(t, err)
		testutil.AssertNoError(t, alerts.MarkSent(all[0].ID))

		unread, err := alerts.GetLedgerAlerts(user.ID, ledger.ID, true)
		testutil.AssertNoError(t, err)
		if len(unread) != len(all)-1 {
			t.Errorf("expected %d unread alerts, got %d", len(all)-1, len(unread))
		}
	})

	t.Run("denies non-members", func(t *testing.T) {
		_, err := alerts.GetLedgerAlerts(stranger.ID, ledger.ID, false)
		testutil.AssertAppError(t, err, "LEDGER_ACCESS_DENIED")
	})
}

func TestMarkSent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	ledger := testutil.CreateTestLedger(t, db, user.ID)
	alerts := NewAlertService(db)

	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan31 := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)

	budget := testutil.CreateTestBudget(t, db, ledger.ID, user.ID, 1000, jan1, jan31)
	budget.Spent = 1200
	testutil.AssertNoError(t, db.Model(budget).UpdateColumn("spent", 1200).Error)
	testutil.AssertNoError(t, alerts.Evaluate(db, budget))

	created := budgetAlerts(t, db, budget.ID)
	if len(created) != 1 {
		t.Fatalf("expected one alert, got %d", len(created))
	}

	t.Run("marks alert as sent", func(t *testing.T) {
		testutil.AssertNoError(t, alerts.MarkSent(created[0].ID))

		var alert models.BudgetAlert
		testutil.AssertNoError(t, db.First(&alert, created[0].ID).Error)
		if !alert.IsSent {
			t.Error("expected alert marked as sent")
		}
		if alert.SentAt == nil {
			t.Error("expected sent_at to be set")
		}
	})

	t.Run("unknown alert", func(t *testing.T) {
		err := alerts.MarkSent(999999)
		testutil.AssertAppError(t, err, "ALERT_NOT_FOUND")
	})
}
