package models

// LedgerRole represents a member's role within a ledger
type LedgerRole string

const (
	LedgerRoleAdmin  LedgerRole = "admin"
	LedgerRoleMember LedgerRole = "member"
)

// Ledger represents a shared account book containing bills and budgets
type Ledger struct {
	Base
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	OwnerID     uint   `gorm:"not null" json:"owner_id"`

	// Relationships
	Owner   User           `gorm:"foreignKey:OwnerID" json:"-"`
	Members []LedgerMember `gorm:"foreignKey:LedgerID" json:"members,omitempty"`
	Bills   []Bill         `gorm:"foreignKey:LedgerID" json:"bills,omitempty"`
	Budgets []Budget       `gorm:"foreignKey:LedgerID" json:"budgets,omitempty"`
}

// LedgerMember links a user to a ledger with a role.
type LedgerMember struct {
	Base
	LedgerID uint       `gorm:"not null;uniqueIndex:idx_ledger_user" json:"ledger_id"`
	UserID   uint       `gorm:"not null;uniqueIndex:idx_ledger_user" json:"user_id"`
	Role     LedgerRole `gorm:"not null;default:member" json:"role"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
