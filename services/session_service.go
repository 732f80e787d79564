package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mindoroparts/pos-app/models"
)

// SessionService manages cashier shifts. A session brackets every POS
// order rung during it, and closing reconciles the drawer count against
// what the orders say should be there.
type SessionService struct {
	DB     *gorm.DB
	Orders *OrderService
}

func NewSessionService(db *gorm.DB, orders *OrderService) *SessionService {
	return &SessionService{DB: db, Orders: orders}
}

// StartSession opens a shift for a cashier and creates its first empty
// order so the till has a cart the moment the drawer opens.
func (s *SessionService) StartSession(cashierID uint, initialCash decimal.Decimal, notes *string) (*models.Session, error) {
	if initialCash.IsNegative() {
		return nil, validationf("initial cash cannot be negative")
	}

	var cashier models.User
	if err := s.DB.First(&cashier, cashierID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("cashier %d not found", cashierID)
		}
		return nil, transactionErr(err)
	}

	var open int64
	if err := s.DB.Model(&models.Session{}).
		Where("cashier_id = ? AND status = ?", cashierID, models.SessionOpen).
		Count(&open).Error; err != nil {
		return nil, transactionErr(err)
	}
	if open > 0 {
		return nil, validationf("cashier %d already has an open session", cashierID)
	}

	session := models.Session{
		CashierID:   cashierID,
		StartTime:   time.Now(),
		InitialCash: initialCash,
		Status:      models.SessionOpen,
		Notes:       notes,
	}
	if err := s.DB.Create(&session).Error; err != nil {
		return nil, transactionErr(err)
	}

	if _, err := s.Orders.CreateOrder(&session.ID); err != nil {
		return nil, err
	}
	return &session, nil
}

// FetchSessions lists all sessions, newest first, with the cashier
// preloaded for the register history screen.
func (s *SessionService) FetchSessions() ([]models.Session, error) {
	var sessions []models.Session
	err := s.DB.Preload("Cashier").
		Order("start_time DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, transactionErr(err)
	}
	return sessions, nil
}

// SessionDetail is one session with its full order history expanded
// down to the product on each line.
type SessionDetail struct {
	Session models.Session  `json:"session"`
	Orders  []models.Order  `json:"orders"`
	Total   decimal.Decimal `json:"total_paid"`
}

// FetchSessionDetail loads a session plus every order in it with lines,
// products and customers attached, and the sum of its paid orders.
func (s *SessionService) FetchSessionDetail(sessionID uint) (*SessionDetail, error) {
	var session models.Session
	if err := s.DB.Preload("Cashier").First(&session, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("session %d not found", sessionID)
		}
		return nil, transactionErr(err)
	}

	var orders []models.Order
	err := s.DB.
		Preload("OrderDetails").
		Preload("OrderDetails.Product").
		Preload("Customer").
		Where("session_id = ?", sessionID).
		Order("order_date ASC").
		Find(&orders).Error
	if err != nil {
		return nil, transactionErr(err)
	}

	total := decimal.Zero
	for _, order := range orders {
		if order.Status == models.StatusPaid {
			total = total.Add(order.TotalPrice)
		}
	}

	return &SessionDetail{Session: session, Orders: orders, Total: total}, nil
}

// CloseSession ends a shift. The cashier's counted drawer is stored
// next to the expected figure (initial cash plus all paid order totals)
// so discrepancies are visible, never silently reconciled.
func (s *SessionService) CloseSession(sessionID uint, closingCashManual decimal.Decimal) (*models.Session, error) {
	var session models.Session
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&session, sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundf("session %d not found", sessionID)
			}
			return transactionErr(err)
		}
		if session.Status == models.SessionClosed {
			return validationf("session %d is already closed", sessionID)
		}

		var orders []models.Order
		if err := tx.Select("total_price").
			Where("session_id = ? AND status = ?", sessionID, models.StatusPaid).
			Find(&orders).Error; err != nil {
			return transactionErr(err)
		}

		auto := session.InitialCash
		for _, order := range orders {
			auto = auto.Add(order.TotalPrice)
		}

		now := time.Now()
		session.EndTime = &now
		session.Status = models.SessionClosed
		session.ClosingCashManual = &closingCashManual
		session.ClosingCashAuto = &auto
		if err := tx.Save(&session).Error; err != nil {
			return transactionErr(err)
		}
		return nil
	})
	if err != nil {
		var se *Error
		if errors.As(err, &se) {
			return nil, se
		}
		return nil, transactionErr(err)
	}
	return &session, nil
}
