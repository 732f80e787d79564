package services

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/mindoroparts/pos-app/models"
	"github.com/mindoroparts/pos-app/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	os.Exit(m.Run())
}

// recordingNotifier captures SMS sends for assertions.
type recordingNotifier struct {
	numbers  []string
	messages []string
}

func (rn *recordingNotifier) Notify(phoneNumber, message string) {
	rn.numbers = append(rn.numbers, phoneNumber)
	rn.messages = append(rn.messages, message)
}

func newTestOrderService(t *testing.T) (*OrderService, *gorm.DB, *recordingNotifier) {
	db := setupLedgerDB(t)
	rn := &recordingNotifier{}
	return NewOrderService(db, rn), db, rn
}

func seedCustomer(t *testing.T, db *gorm.DB) models.User {
	customer := models.User{
		FirstName:   "Maria",
		LastName:    "Santos",
		Email:       "maria@example.com",
		Password:    "hashed",
		Role:        models.RoleCustomer,
		PhoneNumber: "09171234567",
	}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return customer
}

func productQty(t *testing.T, db *gorm.DB, id uint) int {
	var product models.Product
	if err := db.Unscoped().First(&product, id).Error; err != nil {
		t.Fatalf("fetch product %d: %v", id, err)
	}
	return product.Quantity
}

func TestCreateOrderReusesEmptyCart(t *testing.T) {
	svc, db, _ := newTestOrderService(t)

	cashier := seedCustomer(t, db)
	session := models.Session{CashierID: cashier.ID, StartTime: time.Now(), InitialCash: decimal.NewFromInt(1000), Status: models.SessionOpen}
	assert.NoError(t, db.Create(&session).Error)

	first, err := svc.CreateOrder(&session.ID)
	assert.NoError(t, err)

	second, err := svc.CreateOrder(&session.ID)
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	db.Model(&models.Order{}).Where("session_id = ?", session.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCreateOrderSkipsNonEmptyCart(t *testing.T) {
	svc, db, _ := newTestOrderService(t)
	product := seedProduct(t, db, "Oil Filter", "100.00", 10)

	first, err := svc.CreateOrder(nil)
	assert.NoError(t, err)

	_, err = svc.AddOrUpdateLine(first.ID, product.ID, 1)
	assert.NoError(t, err)

	second, err := svc.CreateOrder(nil)
	assert.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCartLifecycle(t *testing.T) {
	svc, db, _ := newTestOrderService(t)
	product := seedProduct(t, db, "Oil Filter", "100.00", 10)

	order, err := svc.CreateOrder(nil)
	assert.NoError(t, err)

	// Add 4 units: stock 10 -> 6, line total 400.
	detail, err := svc.AddOrUpdateLine(order.ID, product.ID, 4)
	assert.NoError(t, err)
	assert.Equal(t, 4, detail.Quantity)
	assert.True(t, detail.TotalPrice.Equal(decimal.NewFromInt(400)), "line total %s", detail.TotalPrice)
	assert.Equal(t, 6, productQty(t, db, product.ID))

	var fresh models.Order
	assert.NoError(t, db.First(&fresh, order.ID).Error)
	assert.True(t, fresh.TotalPrice.Equal(decimal.NewFromInt(400)), "order total %s", fresh.TotalPrice)

	// Lower to 2 units: stock 6 -> 8, totals scale proportionally.
	detail2, err := svc.UpdateLineQuantity(detail.ID, 2)
	assert.NoError(t, err)
	assert.Equal(t, 2, detail2.Quantity)
	assert.True(t, detail2.TotalPrice.Equal(decimal.NewFromInt(200)), "line total %s", detail2.TotalPrice)
	assert.Equal(t, 8, productQty(t, db, product.ID))

	assert.NoError(t, db.First(&fresh, order.ID).Error)
	assert.True(t, fresh.TotalPrice.Equal(decimal.NewFromInt(200)))

	// Remove the last line: stock back to 10, order gone.
	orderDeleted, err := svc.RemoveLine(detail.ID)
	assert.NoError(t, err)
	assert.True(t, orderDeleted)
	assert.Equal(t, 10, productQty(t, db, product.ID))

	err = db.First(&fresh, order.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAddLineMergesSameProduct(t *testing.T) {
	svc, db, _ := newTestOrderService(t)
	product := seedProduct(t, db, "Brake Pad", "250.00", 10)

	order, err := svc.CreateOrder(nil)
	assert.NoError(t, err)

	_, err = svc.AddOrUpdateLine(order.ID, product.ID, 2)
	assert.NoError(t, err)
	detail, err := svc.AddOrUpdateLine(order.ID, product.ID, 3)
	assert.NoError(t, err)

	assert.Equal(t, 5, detail.Quantity)
	assert.True(t, detail.TotalPrice.Equal(decimal.NewFromInt(1250)))
	assert.Equal(t, 5, productQty(t, db, product.ID))

	var count int64
	db.Model(&models.OrderDetail{}).Where("order_id = ?", order.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestUpdateLineQuantityKeepsCapturedUnitPrice(t *testing.T) {
	svc, db, _ := newTestOrderService(t)
	product := seedProduct(t, db, "Spark Plug", "80.00", 20)

	order, err := svc.CreateOrder(nil)
	assert.NoError(t, err)
	detail, err := svc.AddOrUpdateLine(order.ID, product.ID, 2)
	assert.NoError(t, err)

	// Price changes after the line was added.
	assert.NoError(t, db.Model(&models.Product{}).Where("id = ?", product.ID).
		Update("price", decimal.NewFromInt(999)).Error)

	updated, err := svc.UpdateLineQuantity(detail.ID, 4)
	assert.NoError(t, err)
	// 160 / 2 * 4 = 320, still at the captured 80 unit price.
	assert.True(t, updated.TotalPrice.Equal(decimal.NewFromInt(320)), "line total %s", updated.TotalPrice)
}

func TestUpdateLineQuantityRejectsNonPositive(t *testing.T) {
	svc, db, _ := newTestOrderService(t)
	product := seedProduct(t, db, "Fan Belt", "150.00", 5)

	order, err := svc.CreateOrder(nil)
	assert.NoError(t, err)
	detail, err := svc.AddOrUpdateLine(order.ID, product.ID, 1)
	assert.NoError(t, err)

	_, err = svc.UpdateLineQuantity(detail.ID, 0)
	assert.True(t, IsKind(err, KindValidation))
	_, err = svc.UpdateLineQuantity(detail.ID, -3)
	assert.True(t, IsKind(err, KindValidation))
}

func TestCheckoutComputesTotalsServerSide(t *testing.T) {
	svc, db, _ := newTestOrderService(t)
	customer := seedCustomer(t, db)
	p1 := seedProduct(t, db, "Oil Filter", "100.00", 10)
	p2 := seedProduct(t, db, "Brake Pad", "250.00", 4)

	order, err := svc.Checkout(customer.ID, "receipt.jpg", []LineRequest{
		{ProductID: p1.ID, Quantity: 3},
		{ProductID: p2.ID, Quantity: 2},
	})
	assert.NoError(t, err)
	assert.Equal(t, models.StatusPendingApproval, order.Status)
	assert.True(t, order.TotalPrice.Equal(decimal.NewFromInt(800)), "order total %s", order.TotalPrice)
	assert.Equal(t, 7, productQty(t, db, p1.ID))
	assert.Equal(t, 2, productQty(t, db, p2.ID))
	assert.Len(t, order.OrderDetails, 2)
}

func TestCheckoutIsAtomic(t *testing.T) {
	svc, db, _ := newTestOrderService(t)
	customer := seedCustomer(t, db)
	short := seedProduct(t, db, "Clutch Disc", "900.00", 1)
	plenty := seedProduct(t, db, "Air Filter", "90.00", 5)

	_, err := svc.Checkout(customer.ID, "", []LineRequest{
		{ProductID: plenty.ID, Quantity: 1},
		{ProductID: short.ID, Quantity: 2},
	})
	assert.True(t, IsKind(err, KindInsufficientStock))

	// Nothing committed: both stocks intact, no order rows.
	assert.Equal(t, 1, productQty(t, db, short.ID))
	assert.Equal(t, 5, productQty(t, db, plenty.ID))

	var orders int64
	db.Model(&models.Order{}).Count(&orders)
	assert.Equal(t, int64(0), orders)
}

func TestCheckoutRequiresLines(t *testing.T) {
	svc, db, _ := newTestOrderService(t)
	customer := seedCustomer(t, db)

	_, err := svc.Checkout(customer.ID, "", nil)
	assert.True(t, IsKind(err, KindValidation))
	_ = db
}

func TestLastUnitGoesToOneBuyer(t *testing.T) {
	svc, db, _ := newTestOrderService(t)
	customer := seedCustomer(t, db)
	product := seedProduct(t, db, "Radiator Cap", "60.00", 1)

	_, err := svc.Checkout(customer.ID, "", []LineRequest{{ProductID: product.ID, Quantity: 1}})
	assert.NoError(t, err)

	_, err = svc.Checkout(customer.ID, "", []LineRequest{{ProductID: product.ID, Quantity: 1}})
	assert.Error(t, err)
	assert.True(t, IsKind(err, KindInsufficientStock))
	assert.Equal(t, 0, productQty(t, db, product.ID))
}

func TestFinalizeOrderComputesChange(t *testing.T) {
	svc, db, _ := newTestOrderService(t)
	product := seedProduct(t, db, "Wiper Blade", "120.00", 10)

	order, err := svc.CreateOrder(nil)
	assert.NoError(t, err)
	_, err = svc.AddOrUpdateLine(order.ID, product.ID, 2)
	assert.NoError(t, err)

	change, err := svc.FinalizeOrder(order.ID, decimal.NewFromInt(300), nil)
	assert.NoError(t, err)
	assert.True(t, change.Equal(decimal.NewFromInt(60)), "change %s", change)

	var fresh models.Order
	assert.NoError(t, db.First(&fresh, order.ID).Error)
	assert.Equal(t, models.StatusPaid, fresh.Status)
	assert.True(t, fresh.Tendered.Equal(decimal.NewFromInt(300)))
}

func TestFinalizeOrderShortTenderedClampsChange(t *testing.T) {
	svc, db, _ := newTestOrderService(t)
	product := seedProduct(t, db, "Wiper Blade", "120.00", 10)

	order, err := svc.CreateOrder(nil)
	assert.NoError(t, err)
	_, err = svc.AddOrUpdateLine(order.ID, product.ID, 2)
	assert.NoError(t, err)

	change, err := svc.FinalizeOrder(order.ID, decimal.NewFromInt(200), nil)
	assert.NoError(t, err)
	assert.True(t, change.Equal(decimal.Zero))
	_ = db
}

func TestVoidOrderRestoresStockOnce(t *testing.T) {
	svc, db, _ := newTestOrderService(t)
	customer := seedCustomer(t, db)
	product := seedProduct(t, db, "Oil Filter", "100.00", 10)

	order, err := svc.Checkout(customer.ID, "", []LineRequest{{ProductID: product.ID, Quantity: 4}})
	assert.NoError(t, err)
	assert.Equal(t, 6, productQty(t, db, product.ID))

	assert.NoError(t, svc.VoidOrder(order.ID))
	assert.Equal(t, 10, productQty(t, db, product.ID))

	var fresh models.Order
	assert.NoError(t, db.First(&fresh, order.ID).Error)
	assert.Equal(t, models.StatusVoid, fresh.Status)

	// Lines are soft-deleted, kept for history.
	var live, all int64
	db.Model(&models.OrderDetail{}).Where("order_id = ?", order.ID).Count(&live)
	db.Unscoped().Model(&models.OrderDetail{}).Where("order_id = ?", order.ID).Count(&all)
	assert.Equal(t, int64(0), live)
	assert.Equal(t, int64(1), all)

	// Voiding again must not restore twice.
	err = svc.VoidOrder(order.ID)
	assert.True(t, IsKind(err, KindValidation))
	assert.Equal(t, 10, productQty(t, db, product.ID))
}

func TestDeleteOrderRestoresStock(t *testing.T) {
	svc, db, _ := newTestOrderService(t)
	customer := seedCustomer(t, db)
	product := seedProduct(t, db, "Brake Pad", "250.00", 8)

	order, err := svc.Checkout(customer.ID, "", []LineRequest{{ProductID: product.ID, Quantity: 3}})
	assert.NoError(t, err)
	assert.Equal(t, 5, productQty(t, db, product.ID))

	assert.NoError(t, svc.DeleteOrder(order.ID))
	assert.Equal(t, 8, productQty(t, db, product.ID))

	var orders, details int64
	db.Model(&models.Order{}).Count(&orders)
	db.Unscoped().Model(&models.OrderDetail{}).Count(&details)
	assert.Equal(t, int64(0), orders)
	assert.Equal(t, int64(0), details)
}

func TestClearAllLinesKeepsOrder(t *testing.T) {
	svc, db, _ := newTestOrderService(t)
	p1 := seedProduct(t, db, "Oil Filter", "100.00", 10)
	p2 := seedProduct(t, db, "Air Filter", "90.00", 10)

	order, err := svc.CreateOrder(nil)
	assert.NoError(t, err)
	_, err = svc.AddOrUpdateLine(order.ID, p1.ID, 2)
	assert.NoError(t, err)
	_, err = svc.AddOrUpdateLine(order.ID, p2.ID, 3)
	assert.NoError(t, err)

	assert.NoError(t, svc.ClearAllLines(order.ID))
	assert.Equal(t, 10, productQty(t, db, p1.ID))
	assert.Equal(t, 10, productQty(t, db, p2.ID))

	var fresh models.Order
	assert.NoError(t, db.First(&fresh, order.ID).Error)
	assert.True(t, fresh.TotalPrice.Equal(decimal.Zero))
}

func TestRecordFeedback(t *testing.T) {
	svc, db, _ := newTestOrderService(t)
	customer := seedCustomer(t, db)
	product := seedProduct(t, db, "Fan Belt", "150.00", 5)

	order, err := svc.Checkout(customer.ID, "", []LineRequest{{ProductID: product.ID, Quantity: 1}})
	assert.NoError(t, err)

	assert.NoError(t, svc.RecordFeedback(order.ID, "Great service", 5, ""))

	var fresh models.Order
	assert.NoError(t, db.First(&fresh, order.ID).Error)
	assert.Equal(t, models.StatusReviewed, fresh.Status)
	assert.Equal(t, "Great service", *fresh.Feedback)
	assert.Equal(t, 5, *fresh.Rating)
	assert.Empty(t, fresh.FeedbackPhoto)

	err = svc.RecordFeedback(order.ID, "bad rating", 6, "")
	assert.True(t, IsKind(err, KindValidation))
}

func TestMarkForPickupNotifiesCustomer(t *testing.T) {
	svc, db, rn := newTestOrderService(t)
	customer := seedCustomer(t, db)
	product := seedProduct(t, db, "Oil Filter", "100.00", 5)

	order, err := svc.Checkout(customer.ID, "", []LineRequest{{ProductID: product.ID, Quantity: 1}})
	assert.NoError(t, err)

	assert.NoError(t, svc.MarkForPickup(order.ID))

	var fresh models.Order
	assert.NoError(t, db.First(&fresh, order.ID).Error)
	assert.Equal(t, models.StatusForPickup, fresh.Status)
	assert.Equal(t, []string{"09171234567"}, rn.numbers)
}

func TestSweepStaleForPickup(t *testing.T) {
	svc, db, rn := newTestOrderService(t)
	customer := seedCustomer(t, db)
	product := seedProduct(t, db, "Brake Pad", "250.00", 10)

	stale, err := svc.Checkout(customer.ID, "", []LineRequest{{ProductID: product.ID, Quantity: 2}})
	assert.NoError(t, err)
	recent, err := svc.Checkout(customer.ID, "", []LineRequest{{ProductID: product.ID, Quantity: 1}})
	assert.NoError(t, err)
	assert.Equal(t, 7, productQty(t, db, product.ID))

	assert.NoError(t, svc.MarkForPickup(stale.ID))
	assert.NoError(t, svc.MarkForPickup(recent.ID))
	rn.numbers = nil

	// Backdate one order past the hold window.
	assert.NoError(t, db.Model(&models.Order{}).Where("id = ?", stale.ID).
		Update("order_date", time.Now().AddDate(0, 0, -6)).Error)

	swept, err := svc.SweepStaleForPickup(5)
	assert.NoError(t, err)
	assert.Equal(t, 1, swept)

	var freshStale, freshRecent models.Order
	assert.NoError(t, db.First(&freshStale, stale.ID).Error)
	assert.NoError(t, db.First(&freshRecent, recent.ID).Error)
	assert.Equal(t, models.StatusNotPickedUp, freshStale.Status)
	assert.Equal(t, models.StatusForPickup, freshRecent.Status)

	// Only the stale order's units came back.
	assert.Equal(t, 9, productQty(t, db, product.ID))
	assert.Len(t, rn.numbers, 1)
}

func TestOperationsOnMissingOrder(t *testing.T) {
	svc, _, _ := newTestOrderService(t)

	assert.True(t, IsKind(svc.VoidOrder(404), KindNotFound))
	assert.True(t, IsKind(svc.DeleteOrder(404), KindNotFound))
	assert.True(t, IsKind(svc.MarkForPickup(404), KindNotFound))
	assert.True(t, IsKind(svc.RecordFeedback(404, "x", 3, ""), KindNotFound))
	_, err := svc.FinalizeOrder(404, decimal.NewFromInt(10), nil)
	assert.True(t, IsKind(err, KindNotFound))
}
