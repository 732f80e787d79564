package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mindoroparts/pos-app/models"
)

// InventoryLedger owns every stock mutation. All contention on product
// quantities funnels through here; the decrement is a single
// conditional UPDATE whose row count is authoritative, so the quantity
// can never be driven below zero even by concurrent callers.
type InventoryLedger struct{}

// LineRequest is one (product, quantity) pair of a cart or checkout.
type LineRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,gt=0"`
}

// CheckAvailability is a pure read: false if any referenced product is
// missing or short. It performs no writes; the later decrement still
// re-validates inside the transaction.
func (il *InventoryLedger) CheckAvailability(db *gorm.DB, lines []LineRequest) (bool, error) {
	for _, line := range lines {
		var product models.Product
		if err := db.Select("id", "quantity").First(&product, line.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil
			}
			return false, transactionErr(err)
		}
		if product.Quantity < line.Quantity {
			return false, nil
		}
	}
	return true, nil
}

// Decrement subtracts qty from the product's stock inside the caller's
// transaction. The WHERE quantity >= ? guard is the recheck required to
// keep the non-negativity invariant under concurrency; a zero row count
// is then resolved to NotFound or InsufficientStock.
func (il *InventoryLedger) Decrement(tx *gorm.DB, productID uint, qty int) (int, error) {
	if qty <= 0 {
		return 0, validationf("quantity to deduct must be positive, got %d", qty)
	}

	res := tx.Model(&models.Product{}).
		Where("id = ? AND quantity >= ?", productID, qty).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return 0, transactionErr(res.Error)
	}

	if res.RowsAffected == 0 {
		var product models.Product
		if err := tx.Select("id", "quantity").First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, notFoundf("product %d not found", productID)
			}
			return 0, transactionErr(err)
		}
		return 0, insufficientStock(productID, qty, product.Quantity)
	}

	var product models.Product
	if err := tx.Select("id", "quantity").First(&product, productID).Error; err != nil {
		return 0, transactionErr(err)
	}
	return product.Quantity, nil
}

// Increment adds qty back to stock (compensation for voids, deletes and
// downward line updates). Soft-deleted products are included: a product
// retired from the catalog still gets its units back when a historical
// order referencing it is reversed.
func (il *InventoryLedger) Increment(tx *gorm.DB, productID uint, qty int) (int, error) {
	if qty <= 0 {
		return 0, validationf("quantity to restore must be positive, got %d", qty)
	}

	res := tx.Unscoped().Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", qty))
	if res.Error != nil {
		return 0, transactionErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, notFoundf("product %d not found", productID)
	}

	var product models.Product
	if err := tx.Unscoped().Select("id", "quantity").First(&product, productID).Error; err != nil {
		return 0, transactionErr(err)
	}
	return product.Quantity, nil
}

// SetQuantity is the admin override for manual stock counts.
func (il *InventoryLedger) SetQuantity(tx *gorm.DB, productID uint, qty int) error {
	if qty < 0 {
		return validationf("stock count cannot be negative, got %d", qty)
	}
	res := tx.Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("quantity", qty)
	if res.Error != nil {
		return transactionErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return notFoundf("product %d not found", productID)
	}
	return nil
}

// AddQuantity applies a signed manual adjustment (restock deliveries,
// shrinkage corrections).
func (il *InventoryLedger) AddQuantity(tx *gorm.DB, productID uint, delta int) (int, error) {
	switch {
	case delta > 0:
		return il.Increment(tx, productID, delta)
	case delta < 0:
		return il.Decrement(tx, productID, -delta)
	default:
		return 0, validationf("quantity adjustment cannot be zero")
	}
}

// RestoreForOrder puts back every unit an order took, grouped per
// product. Soft-deleted lines are included so a void (which soft-deletes
// the lines first) still restores them; products that no longer exist
// are skipped.
func (il *InventoryLedger) RestoreForOrder(tx *gorm.DB, orderID uint) error {
	var grouped []struct {
		ProductID     uint
		TotalQuantity int
	}
	err := tx.Unscoped().Model(&models.OrderDetail{}).
		Select("product_id, SUM(quantity) as total_quantity").
		Where("order_id = ?", orderID).
		Group("product_id").
		Scan(&grouped).Error
	if err != nil {
		return transactionErr(err)
	}

	for _, g := range grouped {
		if _, err := il.Increment(tx, g.ProductID, g.TotalQuantity); err != nil {
			if IsKind(err, KindNotFound) {
				continue
			}
			return err
		}
	}
	return nil
}
