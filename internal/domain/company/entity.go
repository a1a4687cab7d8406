package company

import "time"

// Company is the tenant that owns schedule configuration, slots and
// subscriptions. The engine only verifies existence; tenant lifecycle is
// managed elsewhere.
type Company struct {
	ID        int64     `gorm:"column:id;primaryKey" json:"id"`
	Name      string    `gorm:"column:name" json:"name"`
	City      string    `gorm:"column:city" json:"city"`
	Address   string    `gorm:"column:address" json:"address"`
	IsActive  bool      `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Company) TableName() string { return "companies" }
