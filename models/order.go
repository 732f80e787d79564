package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order status set. The mixed casing is the wire format the clients
// already speak, so it is kept as-is.
const (
	StatusUnpaid          = "unpaid"
	StatusPendingApproval = "pending_approval"
	StatusPaid            = "paid"
	StatusForPickup       = "For Pickup"
	StatusFinished        = "Finished"
	StatusNotPickedUp     = "Not Picked Up"
	StatusVoid            = "void"
	StatusReviewed        = "Reviewed"
)

// Order covers both shop (POS, session attached) and e-commerce
// (session_id NULL) orders. TotalPrice must always equal the sum of its
// live OrderDetails' TotalPrice.
type Order struct {
	ID                uint             `gorm:"primaryKey" json:"id"`
	CustomerID        *uint            `gorm:"index" json:"customer_id,omitempty"`
	Customer          *User            `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	SessionID         *uint            `gorm:"index" json:"session_id,omitempty"`
	Session           *Session         `gorm:"foreignKey:SessionID" json:"session,omitempty"`
	OrderDate         time.Time        `gorm:"not null" json:"order_date"`
	Status            string           `gorm:"type:varchar(30);not null;default:'unpaid'" json:"status"`
	TotalPrice        decimal.Decimal  `gorm:"type:decimal(10,2);not null;default:0.00" json:"total_price"`
	Tendered          *decimal.Decimal `gorm:"type:decimal(10,2)" json:"tendered,omitempty"`
	Change            *decimal.Decimal `gorm:"type:decimal(10,2)" json:"change,omitempty"`
	GcashReceiptPhoto string           `gorm:"type:varchar(255)" json:"gcash_receipt_photo,omitempty"`
	Feedback          *string          `gorm:"type:text" json:"feedback,omitempty"`
	FeedbackPhoto     string           `gorm:"type:varchar(255)" json:"feedback_photo,omitempty"`
	Rating            *int             `json:"rating,omitempty"`
	CreatedAt         time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time        `gorm:"not null" json:"updated_at"`
	OrderDetails      []OrderDetail    `gorm:"foreignKey:OrderID" json:"order_details"`
}
