package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderDetail is one product line of an order. TotalPrice is captured
// as unit price × quantity at add time and is never resynced to a later
// product price change. Voiding an order soft-deletes its lines so the
// sale history stays queryable.
type OrderDetail struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	OrderID    uint            `gorm:"not null;index" json:"order_id"`
	Order      Order           `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	ProductID  uint            `gorm:"not null;index" json:"product_id"`
	Product    Product         `gorm:"foreignKey:ProductID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"product"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_price"`
	CreatedAt  time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"not null" json:"updated_at"`
	DeletedAt  gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}
