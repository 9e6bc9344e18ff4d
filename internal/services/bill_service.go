package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "splitbook/internal/errors"
	"splitbook/internal/models"
	"splitbook/internal/pagination"
)

// billService handles bill-related business logic. Every mutation runs in one
// transaction together with the budget aggregation it triggers: if updating
// the affected budgets fails, the bill write is rolled back too.
type billService struct {
	db         *gorm.DB
	aggregator BudgetAggregator
}

// NewBillService creates a new BillServicer.
func NewBillService(db *gorm.DB, aggregator BudgetAggregator) BillServicer {
	return &billService{db: db, aggregator: aggregator}
}

// CreateBill records a bill and applies it incrementally to the active
// budgets covering it.
func (s *billService) CreateBill(
	userID, ledgerID uint,
	amount float64,
	billType models.BillType,
	category, description string,
	date time.Time,
) (*models.Bill, error) {
	if err := checkLedgerAccess(s.db, userID, ledgerID); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Bill amount must be positive")
	}

	bill := &models.Bill{
		LedgerID:    ledgerID,
		OwnerID:     userID,
		Amount:      amount,
		Type:        billType,
		Category:    category,
		Description: description,
		Date:        date,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(bill).Error; err != nil {
			return err
		}
		return s.aggregator.ApplyBill(tx, ledgerID, amount, billType, category, date)
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return bill, nil
}

// GetLedgerBills returns a paginated list of a ledger's bills with optional
// date, type, and category filters.
func (s *billService) GetLedgerBills(
	userID, ledgerID uint,
	page pagination.PageRequest,
	filter BillFilter,
) (*pagination.PageResponse[models.Bill], error) {
	if err := checkLedgerAccess(s.db, userID, ledgerID); err != nil {
		return nil, err
	}
	page.Defaults()

	base := s.db.Model(&models.Bill{}).Where("ledger_id = ?", ledgerID)
	if filter.FromDate != nil {
		base = base.Where("date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		base = base.Where("date <= ?", *filter.ToDate)
	}
	if filter.Type != nil {
		base = base.Where("type = ?", *filter.Type)
	}
	if filter.Category != nil {
		base = base.Where("category = ?", *filter.Category)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var bills []models.Bill
	if err := base.Order("date DESC").Scopes(pagination.Paginate(page)).Find(&bills).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(bills, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBillByID returns a bill if the user has access to its ledger.
func (s *billService) GetBillByID(userID, billID uint) (*models.Bill, error) {
	var bill models.Bill
	if err := s.db.First(&bill, billID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBillNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := checkLedgerAccess(s.db, userID, bill.LedgerID); err != nil {
		return nil, err
	}
	return &bill, nil
}

// UpdateBill changes a bill and recomputes every budget the old or the new
// row could have contributed to. The old contribution is no longer cheaply
// known as a delta, so this always goes through the full recompute path.
func (s *billService) UpdateBill(userID, billID uint, upd BillUpdate) (*models.Bill, error) {
	bill, err := s.GetBillByID(userID, billID)
	if err != nil {
		return nil, err
	}
	if upd.Amount != nil && *upd.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Bill amount must be positive")
	}

	oldDate := bill.Date
	oldCategory := bill.Category

	updates := make(map[string]interface{})
	if upd.Amount != nil {
		updates["amount"] = *upd.Amount
	}
	if upd.Type != nil {
		updates["type"] = *upd.Type
	}
	if upd.Category != nil {
		updates["category"] = *upd.Category
	}
	if upd.Description != nil {
		updates["description"] = *upd.Description
	}
	if upd.Date != nil {
		updates["date"] = *upd.Date
	}

	if len(updates) == 0 {
		return bill, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(bill).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.First(bill, bill.ID).Error; err != nil {
			return err
		}
		// Budgets overlapping the old (date, category) and the new one may
		// both be affected.
		if err := s.aggregator.RecalculateOverlapping(tx, bill.LedgerID, oldDate, oldCategory); err != nil {
			return err
		}
		if !bill.Date.Equal(oldDate) || bill.Category != oldCategory {
			return s.aggregator.RecalculateOverlapping(tx, bill.LedgerID, bill.Date, bill.Category)
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

	return bill, nil
}

// DeleteBill removes a bill and recomputes the budgets that covered it.
func (s *billService) DeleteBill(userID, billID uint) error {
	bill, err := s.GetBillByID(userID, billID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(bill).Error; err != nil {
			return err
		}
		return s.aggregator.RecalculateOverlapping(tx, bill.LedgerID, bill.Date, bill.Category)
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
