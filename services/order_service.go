package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mindoroparts/pos-app/models"
	"github.com/mindoroparts/pos-app/utils"
)

// Notifier is the fire-and-forget SMS collaborator. Implementations
// must never return; delivery failures are logged on their side and
// never surface to the order operation that triggered them.
type Notifier interface {
	Notify(phoneNumber, message string)
}

// OrderService is the order/inventory transaction engine. Every
// operation runs inside one scoped transaction: it either fully commits
// or fully rolls back, and every stock mutation goes through the
// InventoryLedger.
type OrderService struct {
	DB       *gorm.DB
	Ledger   *InventoryLedger
	Notifier Notifier
}

func NewOrderService(db *gorm.DB, notifier Notifier) *OrderService {
	return &OrderService{DB: db, Ledger: &InventoryLedger{}, Notifier: notifier}
}

// inTx wraps gorm's transaction helper so every exit path, including
// panics, releases or rolls back the transaction, and so untyped
// storage errors reach callers as a generic transaction failure.
func (s *OrderService) inTx(fn func(tx *gorm.DB) error) error {
	err := s.DB.Transaction(fn)
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return transactionErr(err)
}

// CreateOrder opens a cart for a shift. If the most recent order in the
// same context is still unpaid with a zero total it is reused instead
// of stacking up empty orders (idempotent-cart pattern).
func (s *OrderService) CreateOrder(sessionID *uint) (*models.Order, error) {
	var order models.Order
	err := s.inTx(func(tx *gorm.DB) error {
		q := tx.Order("created_at DESC, id DESC")
		if sessionID != nil {
			q = q.Where("session_id = ?", *sessionID)
		}

		var latest models.Order
		err := q.First(&latest).Error
		if err == nil && latest.Status == models.StatusUnpaid && latest.TotalPrice.IsZero() {
			latest.SessionID = sessionID
			latest.OrderDate = time.Now()
			if err := tx.Save(&latest).Error; err != nil {
				return transactionErr(err)
			}
			order = latest
			return nil
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return transactionErr(err)
		}

		order = models.Order{
			SessionID:  sessionID,
			OrderDate:  time.Now(),
			Status:     models.StatusUnpaid,
			TotalPrice: decimal.Zero,
		}
		if err := tx.Create(&order).Error; err != nil {
			return transactionErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Checkout places an e-commerce order: availability is pre-checked for
// all lines, then the order, its details and the per-line decrements
// are committed as one unit. A failure at any step leaves no orphan
// order and no partial stock change.
func (s *OrderService) Checkout(customerID uint, receiptRef string, lines []LineRequest) (*models.Order, error) {
	if len(lines) == 0 {
		return nil, validationf("checkout requires at least one line")
	}

	var order models.Order
	err := s.inTx(func(tx *gorm.DB) error {
		ok, err := s.Ledger.CheckAvailability(tx, lines)
		if err != nil {
			return err
		}
		if !ok {
			return &Error{Kind: KindInsufficientStock, Message: "insufficient stock for one or more products"}
		}

		order = models.Order{
			CustomerID:        &customerID,
			OrderDate:         time.Now(),
			Status:            models.StatusPendingApproval,
			GcashReceiptPhoto: receiptRef,
			TotalPrice:        decimal.Zero,
		}
		if err := tx.Create(&order).Error; err != nil {
			return transactionErr(err)
		}

		details := make([]models.OrderDetail, 0, len(lines))
		total := decimal.Zero
		for _, line := range lines {
			var product models.Product
			if err := tx.First(&product, line.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return notFoundf("product %d not found", line.ProductID)
				}
				return transactionErr(err)
			}

			lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
			details = append(details, models.OrderDetail{
				OrderID:    order.ID,
				ProductID:  line.ProductID,
				Quantity:   line.Quantity,
				TotalPrice: lineTotal,
			})
			total = total.Add(lineTotal)

			if _, err := s.Ledger.Decrement(tx, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}

		if err := tx.Create(&details).Error; err != nil {
			return transactionErr(err)
		}

		order.TotalPrice = total
		order.OrderDetails = details
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Update("total_price", total).Error; err != nil {
			return transactionErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// AddOrUpdateLine adds qty of a product to an order's cart, merging
// into an existing line for the same product. Stock is deducted by the
// delta only and the order total is recomputed from its live lines.
func (s *OrderService) AddOrUpdateLine(orderID, productID uint, qty int) (*models.OrderDetail, error) {
	if qty <= 0 {
		return nil, validationf("quantity must be positive, got %d", qty)
	}

	var detail models.OrderDetail
	err := s.inTx(func(tx *gorm.DB) error {
		if err := orderMustExist(tx, orderID); err != nil {
			return err
		}

		var product models.Product
		if err := tx.First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundf("product %d not found", productID)
			}
			return transactionErr(err)
		}

		if _, err := s.Ledger.Decrement(tx, productID, qty); err != nil {
			return err
		}

		err := tx.Where("order_id = ? AND product_id = ?", orderID, productID).First(&detail).Error
		switch {
		case err == nil:
			detail.Quantity += qty
			detail.TotalPrice = product.Price.Mul(decimal.NewFromInt(int64(detail.Quantity))).Round(2)
			if err := tx.Save(&detail).Error; err != nil {
				return transactionErr(err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			detail = models.OrderDetail{
				OrderID:    orderID,
				ProductID:  productID,
				Quantity:   qty,
				TotalPrice: product.Price.Mul(decimal.NewFromInt(int64(qty))).Round(2),
			}
			if err := tx.Create(&detail).Error; err != nil {
				return transactionErr(err)
			}
		default:
			return transactionErr(err)
		}

		return s.recomputeOrderTotal(tx, orderID)
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// UpdateLineQuantity sets a line to newQty, applying only the delta to
// stock. The line total is scaled proportionally (old_total / old_qty *
// new_qty) so the unit price captured at add time is preserved even if
// the product price changed since.
func (s *OrderService) UpdateLineQuantity(orderDetailID uint, newQty int) (*models.OrderDetail, error) {
	if newQty <= 0 {
		return nil, validationf("quantity must be positive, got %d", newQty)
	}

	var detail models.OrderDetail
	err := s.inTx(func(tx *gorm.DB) error {
		if err := tx.First(&detail, orderDetailID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundf("order detail %d not found", orderDetailID)
			}
			return transactionErr(err)
		}

		delta := newQty - detail.Quantity
		if delta > 0 {
			if _, err := s.Ledger.Decrement(tx, detail.ProductID, delta); err != nil {
				return err
			}
		} else if delta < 0 {
			if _, err := s.Ledger.Increment(tx, detail.ProductID, -delta); err != nil {
				return err
			}
		}

		oldQty := decimal.NewFromInt(int64(detail.Quantity))
		detail.TotalPrice = detail.TotalPrice.
			Div(oldQty).
			Mul(decimal.NewFromInt(int64(newQty))).
			Round(2)
		detail.Quantity = newQty
		if err := tx.Save(&detail).Error; err != nil {
			return transactionErr(err)
		}

		return s.recomputeOrderTotal(tx, detail.OrderID)
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// RemoveLine deletes one line, restoring its quantity to stock. When
// the last line goes, the order goes with it: an emptied cart reverts
// to "no order".
func (s *OrderService) RemoveLine(orderDetailID uint) (orderDeleted bool, err error) {
	err = s.inTx(func(tx *gorm.DB) error {
		var detail models.OrderDetail
		if err := tx.First(&detail, orderDetailID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundf("order detail %d not found", orderDetailID)
			}
			return transactionErr(err)
		}

		if _, err := s.Ledger.Increment(tx, detail.ProductID, detail.Quantity); err != nil {
			if !IsKind(err, KindNotFound) {
				return err
			}
		}

		if err := tx.Unscoped().Delete(&detail).Error; err != nil {
			return transactionErr(err)
		}

		var remaining int64
		if err := tx.Model(&models.OrderDetail{}).
			Where("order_id = ?", detail.OrderID).
			Count(&remaining).Error; err != nil {
			return transactionErr(err)
		}

		if remaining == 0 {
			if err := tx.Delete(&models.Order{}, detail.OrderID).Error; err != nil {
				return transactionErr(err)
			}
			orderDeleted = true
			return nil
		}
		return s.recomputeOrderTotal(tx, detail.OrderID)
	})
	return orderDeleted, err
}

// ClearAllLines empties a cart, restoring stock for every line. The
// order row is kept so the shift can keep ringing on it.
func (s *OrderService) ClearAllLines(orderID uint) error {
	return s.inTx(func(tx *gorm.DB) error {
		var details []models.OrderDetail
		if err := tx.Where("order_id = ?", orderID).Find(&details).Error; err != nil {
			return transactionErr(err)
		}
		if len(details) == 0 {
			return notFoundf("no order details found for order %d", orderID)
		}

		for _, detail := range details {
			if _, err := s.Ledger.Increment(tx, detail.ProductID, detail.Quantity); err != nil {
				if !IsKind(err, KindNotFound) {
					return err
				}
			}
			if err := tx.Unscoped().Delete(&detail).Error; err != nil {
				return transactionErr(err)
			}
		}

		if err := tx.Model(&models.Order{}).Where("id = ?", orderID).
			Update("total_price", decimal.Zero).Error; err != nil {
			return transactionErr(err)
		}
		return nil
	})
}

// DeleteOrder removes an order and its lines entirely, putting every
// unit back to stock first. Unlike void, nothing is kept.
func (s *OrderService) DeleteOrder(orderID uint) error {
	return s.inTx(func(tx *gorm.DB) error {
		if err := orderMustExist(tx, orderID); err != nil {
			return err
		}

		var details []models.OrderDetail
		if err := tx.Where("order_id = ?", orderID).Find(&details).Error; err != nil {
			return transactionErr(err)
		}

		for _, detail := range details {
			if _, err := s.Ledger.Increment(tx, detail.ProductID, detail.Quantity); err != nil {
				if !IsKind(err, KindNotFound) {
					return err
				}
			}
		}

		if err := tx.Unscoped().Where("order_id = ?", orderID).
			Delete(&models.OrderDetail{}).Error; err != nil {
			return transactionErr(err)
		}
		if err := tx.Delete(&models.Order{}, orderID).Error; err != nil {
			return transactionErr(err)
		}
		return nil
	})
}

// FinalizeOrder captures payment: change = max(0, tendered - total),
// status becomes paid. A walk-in customer id can be attached at the
// till.
func (s *OrderService) FinalizeOrder(orderID uint, tendered decimal.Decimal, customerID *uint) (decimal.Decimal, error) {
	var change decimal.Decimal
	err := s.inTx(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundf("order %d not found", orderID)
			}
			return transactionErr(err)
		}

		change = tendered.Sub(order.TotalPrice)
		if change.IsNegative() {
			change = decimal.Zero
		}

		updates := map[string]interface{}{
			"status":   models.StatusPaid,
			"tendered": tendered,
			"change":   change,
		}
		if customerID != nil {
			updates["customer_id"] = *customerID
		}
		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return transactionErr(err)
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return change, nil
}

// VoidOrder cancels an order, reversing its stock impact without losing
// history: status void, lines soft-deleted, quantities restored — all
// or nothing. Terminal orders whose stock was already restored cannot
// be voided again, which keeps every decrement paired with exactly one
// compensating increment.
func (s *OrderService) VoidOrder(orderID uint) error {
	return s.inTx(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundf("order %d not found", orderID)
			}
			return transactionErr(err)
		}
		if order.Status == models.StatusVoid || order.Status == models.StatusNotPickedUp {
			return validationf("order %d is already %s", orderID, order.Status)
		}

		if err := tx.Model(&order).Update("status", models.StatusVoid).Error; err != nil {
			return transactionErr(err)
		}
		if err := tx.Where("order_id = ?", orderID).
			Delete(&models.OrderDetail{}).Error; err != nil {
			return transactionErr(err)
		}
		return s.Ledger.RestoreForOrder(tx, orderID)
	})
}

// RecordFeedback stores the customer's review and moves the order to
// Reviewed. The photo is only overwritten when one is provided.
func (s *OrderService) RecordFeedback(orderID uint, feedback string, rating int, photoRef string) error {
	if rating < 1 || rating > 5 {
		return validationf("rating must be between 1 and 5, got %d", rating)
	}
	return s.inTx(func(tx *gorm.DB) error {
		if err := orderMustExist(tx, orderID); err != nil {
			return err
		}
		updates := map[string]interface{}{
			"feedback": feedback,
			"rating":   rating,
			"status":   models.StatusReviewed,
		}
		if photoRef != "" {
			updates["feedback_photo"] = photoRef
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", orderID).
			Updates(updates).Error; err != nil {
			return transactionErr(err)
		}
		return nil
	})
}

// MarkForPickup flags an approved e-commerce order as ready and texts
// the customer. The SMS is outside the transaction and best-effort.
func (s *OrderService) MarkForPickup(orderID uint) error {
	err := s.inTx(func(tx *gorm.DB) error {
		return s.updateStatus(tx, orderID, models.StatusForPickup)
	})
	if err != nil {
		return err
	}
	s.notifyCustomer(orderID, "Your order is now ready for pickup. Thank you for choosing MAP.")
	return nil
}

// MarkFinished closes out a picked-up order and texts the customer.
func (s *OrderService) MarkFinished(orderID uint) error {
	err := s.inTx(func(tx *gorm.DB) error {
		return s.updateStatus(tx, orderID, models.StatusFinished)
	})
	if err != nil {
		return err
	}
	s.notifyCustomer(orderID, "Your order is now finished. Thank you for choosing MAP.")
	return nil
}

// SweepStaleForPickup moves For Pickup orders older than thresholdDays
// to Not Picked Up, restoring their stock. Each order gets its own
// transaction so one bad order does not abort the rest.
func (s *OrderService) SweepStaleForPickup(thresholdDays int) (int, error) {
	cutoff := time.Now().AddDate(0, 0, -thresholdDays)

	var stale []models.Order
	if err := s.DB.
		Where("status = ? AND order_date <= ?", models.StatusForPickup, cutoff).
		Find(&stale).Error; err != nil {
		return 0, transactionErr(err)
	}

	swept := 0
	for _, order := range stale {
		orderID := order.ID
		err := s.inTx(func(tx *gorm.DB) error {
			if err := s.Ledger.RestoreForOrder(tx, orderID); err != nil {
				return err
			}
			return s.updateStatus(tx, orderID, models.StatusNotPickedUp)
		})
		if err != nil {
			utils.ErrorLogger.Printf("pickup sweep: order %d skipped: %v", orderID, err)
			continue
		}
		swept++
		s.notifyCustomer(orderID, fmt.Sprintf("Your order #%d was not picked up within %d days and has been cancelled.", orderID, thresholdDays))
	}
	return swept, nil
}

func (s *OrderService) updateStatus(tx *gorm.DB, orderID uint, status string) error {
	res := tx.Model(&models.Order{}).Where("id = ?", orderID).Update("status", status)
	if res.Error != nil {
		return transactionErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return notFoundf("order %d not found", orderID)
	}
	return nil
}

// recomputeOrderTotal persists the order total as the sum of its live
// lines. Summing in Go keeps the arithmetic in decimals end to end.
func (s *OrderService) recomputeOrderTotal(tx *gorm.DB, orderID uint) error {
	var details []models.OrderDetail
	if err := tx.Select("total_price").Where("order_id = ?", orderID).
		Find(&details).Error; err != nil {
		return transactionErr(err)
	}

	total := decimal.Zero
	for _, d := range details {
		total = total.Add(d.TotalPrice)
	}

	if err := tx.Model(&models.Order{}).Where("id = ?", orderID).
		Update("total_price", total).Error; err != nil {
		return transactionErr(err)
	}
	return nil
}

// notifyCustomer looks up the order's customer phone and fires the SMS.
// Missing customers or numbers are logged, never reported upward.
func (s *OrderService) notifyCustomer(orderID uint, message string) {
	if s.Notifier == nil {
		return
	}

	var phone string
	err := s.DB.Model(&models.Order{}).
		Select("users.phone_number").
		Joins("JOIN users ON users.id = orders.customer_id").
		Where("orders.id = ?", orderID).
		Scan(&phone).Error
	if err != nil || phone == "" {
		utils.InfoLogger.Printf("no phone number for order %d, skipping SMS", orderID)
		return
	}
	s.Notifier.Notify(phone, message)
}

func orderMustExist(tx *gorm.DB, orderID uint) error {
	var count int64
	if err := tx.Model(&models.Order{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
		return transactionErr(err)
	}
	if count == 0 {
		return notFoundf("order %d not found", orderID)
	}
	return nil
}
