package Controllers_test

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/mindoroparts/pos-app/controllers"
	"github.com/mindoroparts/pos-app/models"
	"github.com/mindoroparts/pos-app/services"
)

type silentNotifier struct{}

func (silentNotifier) Notify(string, string) {}

func setupPOSRouter(db *gorm.DB, cashierID uint) *gin.Engine {
	orderSvc := services.NewOrderService(db, silentNotifier{})
	sessionSvc := services.NewSessionService(db, orderSvc)
	posCtrl := controllers.NewPOSController(db, orderSvc, sessionSvc)

	r := gin.Default()
	pos := r.Group("/pos", asUser(cashierID, models.RoleCashier))
	pos.POST("/sessions", posCtrl.StartSession)
	pos.GET("/sessions/:session_id", posCtrl.GetSessionDetail)
	pos.POST("/sessions/:session_id/close", posCtrl.CloseSession)
	pos.POST("/orders", posCtrl.NewOrder)
	pos.GET("/orders/:order_id", posCtrl.GetOrderDetails)
	pos.POST("/orders/:order_id/lines", posCtrl.AddLine)
	pos.PATCH("/order-details/:detail_id", posCtrl.UpdateLine)
	pos.DELETE("/order-details/:detail_id", posCtrl.RemoveLine)
	pos.POST("/orders/:order_id/finalize", posCtrl.FinalizeOrder)
	pos.POST("/orders/:order_id/void", posCtrl.VoidOrder)
	return r
}

func seedPOS(t *testing.T, db *gorm.DB) (models.User, models.Product) {
	cashier := models.User{
		FirstName: "Jun",
		LastName:  "Reyes",
		Email:     "jun@example.com",
		Password:  "hashed",
		Role:      models.RoleCashier,
	}
	assert.NoError(t, db.Create(&cashier).Error)

	category := models.Category{Name: "Filters"}
	assert.NoError(t, db.Create(&category).Error)
	product := models.Product{
		Name:       "Oil Filter",
		Price:      decimal.NewFromInt(100),
		Quantity:   10,
		IdealCount: 5,
		CategoryID: category.ID,
	}
	assert.NoError(t, db.Create(&product).Error)
	return cashier, product
}

// Full till flow: open shift, ring a sale, pay, close shift.
func TestPOSShiftFlow(t *testing.T) {
	db := setupTestDB(t)
	cashier, product := seedPOS(t, db)
	r := setupPOSRouter(db, cashier.ID)

	// Open the shift with a 1000 float.
	w := doJSON(t, r, "POST", "/pos/sessions", map[string]interface{}{"initial_cash": "1000"})
	assert.Equal(t, http.StatusCreated, w.Code)
	session := decodeBody(t, w)["data"].(map[string]interface{})
	sessionID := int(session["id"].(float64))

	// The shift opens with its cart ready.
	var order models.Order
	assert.NoError(t, db.Where("session_id = ?", sessionID).First(&order).Error)

	// Ring 3 units.
	w = doJSON(t, r, "POST", "/pos/orders/"+itoa(order.ID)+"/lines", map[string]interface{}{
		"product_id": product.ID,
		"quantity":   3,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var fresh models.Product
	assert.NoError(t, db.First(&fresh, product.ID).Error)
	assert.Equal(t, 7, fresh.Quantity)

	// Capture payment with 500 tendered against a 300 total.
	w = doJSON(t, r, "POST", "/pos/orders/"+itoa(order.ID)+"/finalize", map[string]interface{}{
		"tendered": "500",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	payData := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "200", payData["change"])

	// Close the shift; expected drawer is 1000 + 300.
	w = doJSON(t, r, "POST", "/pos/sessions/"+itoa(uint(sessionID))+"/close", map[string]interface{}{
		"closing_cash": "1300",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	closed := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, models.SessionClosed, closed["status"])
	assert.Equal(t, "1300", closed["closing_cash_auto"])
}

func TestAddLineInsufficientStockReturns400(t *testing.T) {
	db := setupTestDB(t)
	cashier, product := seedPOS(t, db)
	r := setupPOSRouter(db, cashier.ID)

	w := doJSON(t, r, "POST", "/pos/orders", map[string]interface{}{})
	assert.Equal(t, http.StatusCreated, w.Code)
	order := decodeBody(t, w)["data"].(map[string]interface{})
	orderID := uint(order["id"].(float64))

	w = doJSON(t, r, "POST", "/pos/orders/"+itoa(orderID)+"/lines", map[string]interface{}{
		"product_id": product.ID,
		"quantity":   99,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var fresh models.Product
	assert.NoError(t, db.First(&fresh, product.ID).Error)
	assert.Equal(t, 10, fresh.Quantity)
}

func TestVoidOrderEndpoint(t *testing.T) {
	db := setupTestDB(t)
	cashier, product := seedPOS(t, db)
	r := setupPOSRouter(db, cashier.ID)

	w := doJSON(t, r, "POST", "/pos/orders", map[string]interface{}{})
	assert.Equal(t, http.StatusCreated, w.Code)
	order := decodeBody(t, w)["data"].(map[string]interface{})
	orderID := uint(order["id"].(float64))

	w = doJSON(t, r, "POST", "/pos/orders/"+itoa(orderID)+"/lines", map[string]interface{}{
		"product_id": product.ID,
		"quantity":   2,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, "POST", "/pos/orders/"+itoa(orderID)+"/void", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var fresh models.Product
	assert.NoError(t, db.First(&fresh, product.ID).Error)
	assert.Equal(t, 10, fresh.Quantity)

	// Voiding twice is a client error.
	w = doJSON(t, r, "POST", "/pos/orders/"+itoa(orderID)+"/void", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderEndpointsMissingOrder(t *testing.T) {
	db := setupTestDB(t)
	cashier, _ := seedPOS(t, db)
	r := setupPOSRouter(db, cashier.ID)

	w := doJSON(t, r, "GET", "/pos/orders/404", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, "POST", "/pos/orders/404/void", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func itoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
