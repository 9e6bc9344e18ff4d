package models

// User represents a registered user
type User struct {
	Base
	Email     string `gorm:"uniqueIndex;not null" json:"email"`
	Password  string `gorm:"not null" json:"-"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsActive  bool   `gorm:"default:true" json:"is_active"`

	// Relationships
	Bills   []Bill   `gorm:"foreignKey:OwnerID" json:"bills,omitempty"`
	Budgets []Budget `gorm:"foreignKey:CreatedBy" json:"budgets,omitempty"`
}
