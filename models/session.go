package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	SessionOpen   = "open"
	SessionClosed = "close"
)

// Session is a cashier shift. Shop orders attach to the open session;
// e-commerce orders carry a NULL session_id.
type Session struct {
	ID                uint             `gorm:"primaryKey" json:"id"`
	CashierID         uint             `gorm:"not null;index" json:"cashier_id"`
	Cashier           User             `gorm:"foreignKey:CashierID" json:"cashier"`
	StartTime         time.Time        `gorm:"not null" json:"start_time"`
	EndTime           *time.Time       `json:"end_time,omitempty"`
	InitialCash       decimal.Decimal  `gorm:"type:decimal(10,2);not null;default:0.00" json:"initial_cash"`
	ClosingCashManual *decimal.Decimal `gorm:"type:decimal(10,2)" json:"closing_cash_manual,omitempty"`
	ClosingCashAuto   *decimal.Decimal `gorm:"type:decimal(10,2)" json:"closing_cash_auto,omitempty"`
	Status            string           `gorm:"type:varchar(20);not null;default:'open'" json:"status"`
	Notes             *string          `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt         time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time        `gorm:"not null" json:"updated_at"`
}
