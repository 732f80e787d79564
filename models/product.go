package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is the inventory unit. Stock mutations must go through
// services.InventoryLedger so the quantity never drops below zero.
type Product struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	Code              *string         `gorm:"type:varchar(100);uniqueIndex" json:"code"`
	Name              string          `gorm:"type:varchar(255);not null" json:"name"`
	Description       string          `gorm:"type:text" json:"description"`
	Price             decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Quantity          int             `gorm:"not null;default:0" json:"quantity"`
	IdealCount        int             `gorm:"not null;default:0" json:"ideal_count"`
	UnitOfMeasurement string          `gorm:"type:varchar(50)" json:"unit_of_measurement"`
	Remarks           *string         `gorm:"type:text" json:"remarks"`
	CategoryID        uint            `gorm:"not null;index" json:"category_id"`
	Category          Category        `gorm:"foreignKey:CategoryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"category"`
	Photo             string          `gorm:"type:varchar(255)" json:"photo"`
	CreatedAt         time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"not null" json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}
