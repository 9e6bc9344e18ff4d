package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"splitbook/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    fmt.Sprintf("user%d@test.com", nextID()),
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestLedger creates a ledger owned by the user, with the owner
// enrolled as an admin member.
func CreateTestLedger(t *testing.T, db *gorm.DB, ownerID uint) *models.Ledger {
	t.Helper()

	ledger := &models.Ledger{
		Name:    fmt.Sprintf("Test Ledger %d", nextID()),
		OwnerID: ownerID,
	}
	if err := db.Create(ledger).Error; err != nil {
		t.Fatalf("failed to create test ledger: %v", err)
	}

	member := &models.LedgerMember{
		LedgerID: ledger.ID,
		UserID:   ownerID,
		Role:     models.LedgerRoleAdmin,
	}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("failed to enroll ledger owner: %v", err)
	}
	return ledger
}

// CreateTestBill creates an expense bill in the ledger.
func CreateTestBill(t *testing.T, db *gorm.DB, ledgerID, ownerID uint, amount float64, date time.Time) *models.Bill {
	t.Helper()
	return CreateTestBillWithCategory(t, db, ledgerID, ownerID, amount, "", date)
}

// CreateTestBillWithCategory creates an expense bill with the given category.
func CreateTestBillWithCategory(t *testing.T, db *gorm.DB, ledgerID, ownerID uint, amount float64, category string, date time.Time) *models.Bill {
	t.Helper()

	bill := &models.Bill{
		LedgerID: ledgerID,
		OwnerID:  ownerID,
		Amount:   amount,
		Type:     models.BillTypeExpense,
		Category: category,
		Date:     date,
	}
	if err := db.Create(bill).Error; err != nil {
		t.Fatalf("failed to create test bill: %v", err)
	}
	return bill
}

// CreateTestBudget creates an active budget covering the given range.
func CreateTestBudget(t *testing.T, db *gorm.DB, ledgerID, creatorID uint, amount float64, start, end time.Time) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		LedgerID:       ledgerID,
		CreatedBy:      creatorID,
		Name:           fmt.Sprintf("Test Budget %d", nextID()),
		Amount:         amount,
		PeriodType:     models.BudgetPeriodMonthly,
		StartDate:      start,
		EndDate:        end,
		Status:         models.BudgetStatusActive,
		AlertThreshold: models.DefaultAlertThreshold,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}
