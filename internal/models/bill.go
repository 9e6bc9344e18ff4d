package models

import "time"

// BillType represents the direction of a bill
type BillType string

const (
	BillTypeExpense BillType = "expense"
	BillTypeIncome  BillType = "income"
)

// Bill represents a single income or expense record in a ledger
type Bill struct {
	Base
	LedgerID    uint      `gorm:"not null;index" json:"ledger_id"`
	OwnerID     uint      `gorm:"not null" json:"owner_id"`
	Amount      float64   `gorm:"not null" json:"amount"`
	Type        BillType  `gorm:"not null;default:expense" json:"type"`
	Category    string    `gorm:"index" json:"category"`
	Description string    `json:"description"`
	Date        time.Time `gorm:"not null;index" json:"date"`

	// Relationships
	Owner  User   `gorm:"foreignKey:OwnerID" json:"-"`
	Ledger Ledger `gorm:"foreignKey:LedgerID" json:"-"`
}
