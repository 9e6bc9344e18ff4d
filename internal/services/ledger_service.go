package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "splitbook/internal/errors"
	"splitbook/internal/models"
	"splitbook/internal/pagination"
)

// ledgerService handles ledger and membership business logic.
type ledgerService struct {
	db *gorm.DB
}

// NewLedgerService creates a new LedgerServicer.
func NewLedgerService(db *gorm.DB) LedgerServicer {
	return &ledgerService{db: db}
}

// checkLedgerAccess verifies that the user is a member of the ledger.
// Shared by the bill and budget services so every ledger-scoped operation
// goes through the same membership check.
func checkLedgerAccess(db *gorm.DB, userID, ledgerID uint) error {
	var count int64
	err := db.Model(&models.LedgerMember{}).
		Where("ledger_id = ? AND user_id = ?", ledgerID, userID).
		Count(&count).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrLedgerAccessDenied
	}
	return nil
}

// CreateLedger creates a ledger and enrolls the creator as its admin.
func (s *ledgerService) CreateLedger(ownerID uint, name, description string) (*models.Ledger, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "ledger name is required")
	}

	ledger := &models.Ledger{
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ledger).Error; err != nil {
			return err
		}
		member := &models.LedgerMember{
			LedgerID: ledger.ID,
			UserID:   ownerID,
			Role:     models.LedgerRoleAdmin,
		}
		return tx.Create(member).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return ledger, nil
}

// GetUserLedgers returns a paginated list of ledgers the user belongs to.
func (s *ledgerService) GetUserLedgers(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Ledger], error) {
	page.Defaults()

	base := s.db.Model(&models.Ledger{}).
		Joins("JOIN ledger_members ON ledger_members.ledger_id = ledgers.id").
		Where("ledger_members.user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var ledgers []models.Ledger
	if err := base.Scopes(pagination.Paginate(page)).Find(&ledgers).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(ledgers, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetLedgerByID returns a ledger with its members if the user has access.
func (s *ledgerService) GetLedgerByID(userID, ledgerID uint) (*models.Ledger, error) {
	if err := checkLedgerAccess(s.db, userID, ledgerID); err != nil {
		return nil, err
	}

	var ledger models.Ledger
	if err := s.db.Preload("Members").First(&ledger, ledgerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLedgerNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &ledger, nil
}

// AddMember enrolls another user into a ledger. Only admins may add members.
func (s *ledgerService) AddMember(userID, ledgerID, newMemberID uint, role models.LedgerRole) error {
	var membership models.LedgerMember
	err := s.db.Where("ledger_id = ? AND user_id = ?", ledgerID, userID).First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrLedgerAccessDenied
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if membership.Role != models.LedgerRoleAdmin {
		return apperrors.ErrForbidden
	}

	var count int64
	s.db.Model(&models.LedgerMember{}).
		Where("ledger_id = ? AND user_id = ?", ledgerID, newMemberID).
		Count(&count)
	if count > 0 {
		return apperrors.ErrDuplicateMember
	}

	member := &models.LedgerMember{
		LedgerID: ledgerID,
		UserID:   newMemberID,
		Role:     role,
	}
	if err := s.db.Create(member).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
