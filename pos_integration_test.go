package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mindoroparts/pos-app/models"
	"github.com/mindoroparts/pos-app/router"
	"github.com/mindoroparts/pos-app/utils"

	"github.com/shopspring/decimal"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// TestEndToEndShiftFlow walks the whole counter flow through the real
// router and auth stack:
// 1. Cashier logs in -> token
// 2. Opens a shift
// 3. Rings 2 units onto the shift's cart
// 4. Captures payment and checks the change
// 5. Closes the shift and checks the expected drawer
func TestEndToEndShiftFlow(t *testing.T) {
	db := setupIntegrationDB(t)
	r := router.SetupRouter(db)

	token := loginAs(t, r, "cashier@example.com", "cashierpass")

	// Open the shift.
	w := authedJSON(t, r, token, "POST", "/pos/sessions", map[string]interface{}{
		"initial_cash": "1000",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	session := dataOf(t, w)
	sessionID := int(session["id"].(float64))

	var order models.Order
	assert.NoError(t, db.Where("session_id = ?", sessionID).First(&order).Error)

	// Ring 2 units at 150 each.
	w = authedJSON(t, r, token, "POST", fmt.Sprintf("/pos/orders/%d/lines", order.ID), map[string]interface{}{
		"product_id": 1,
		"quantity":   2,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// Pay 500 against the 300 total.
	w = authedJSON(t, r, token, "POST", fmt.Sprintf("/pos/orders/%d/finalize", order.ID), map[string]interface{}{
		"tendered": "500",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "200", dataOf(t, w)["change"])

	// Close the shift.
	w = authedJSON(t, r, token, "POST", fmt.Sprintf("/pos/sessions/%d/close", sessionID), map[string]interface{}{
		"closing_cash": "1300",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1300", dataOf(t, w)["closing_cash_auto"])
}

// TestEndToEndOnlineOrderFlow walks the storefront flow:
// 1. Customer registers and logs in
// 2. Checks out two lines
// 3. Admin approves the order for pickup, then finishes it
// 4. Customer leaves feedback-visible state transitions hold throughout
func TestEndToEndOnlineOrderFlow(t *testing.T) {
	db := setupIntegrationDB(t)
	r := router.SetupRouter(db)

	// Register a fresh customer through the public endpoint.
	w := plainJSON(t, r, "POST", "/register", map[string]interface{}{
		"first_name":   "Maria",
		"last_name":    "Santos",
		"email":        "maria@example.com",
		"password":     "customerpass",
		"phone_number": "09171234567",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	customerToken := loginAs(t, r, "maria@example.com", "customerpass")
	adminToken := loginAs(t, r, "admin@example.com", "adminpass")

	// Customer checks out product 1 (qty 2) and product 2 (qty 1).
	w = authedJSON(t, r, customerToken, "POST", "/shop/checkout", map[string]interface{}{
		"lines": []map[string]interface{}{
			{"product_id": 1, "quantity": 2},
			{"product_id": 2, "quantity": 1},
		},
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	orderData := dataOf(t, w)
	orderID := int(orderData["id"].(float64))
	assert.Equal(t, models.StatusPendingApproval, orderData["status"])
	// 2 x 150 + 1 x 80 = 380, computed from catalog prices.
	assert.Equal(t, "380", orderData["total_price"])

	// Stock moved for both products.
	var p1, p2 models.Product
	assert.NoError(t, db.First(&p1, 1).Error)
	assert.NoError(t, db.First(&p2, 2).Error)
	assert.Equal(t, 8, p1.Quantity)
	assert.Equal(t, 4, p2.Quantity)

	// A customer token cannot reach staff endpoints.
	w = authedJSON(t, r, customerToken, "POST", fmt.Sprintf("/pos/online-orders/%d/approve", orderID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Admin approves and finishes.
	w = authedJSON(t, r, adminToken, "POST", fmt.Sprintf("/pos/online-orders/%d/approve", orderID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = authedJSON(t, r, adminToken, "POST", fmt.Sprintf("/pos/online-orders/%d/finish", orderID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var finished models.Order
	assert.NoError(t, db.First(&finished, orderID).Error)
	assert.Equal(t, models.StatusFinished, finished.Status)
}

func setupIntegrationDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.Session{},
		&models.Order{},
		&models.OrderDetail{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	seedUser := func(email, password, role string) {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			t.Fatalf("hash password: %v", err)
		}
		user := models.User{
			FirstName: "Seed",
			LastName:  role,
			Email:     email,
			Password:  string(hashed),
			Role:      role,
		}
		if err := db.Create(&user).Error; err != nil {
			t.Fatalf("seed %s: %v", role, err)
		}
	}
	seedUser("admin@example.com", "adminpass", models.RoleAdmin)
	seedUser("cashier@example.com", "cashierpass", models.RoleCashier)

	category := models.Category{Name: "Filters"}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	products := []models.Product{
		{Name: "Fuel Filter", Price: decimal.NewFromInt(150), Quantity: 10, IdealCount: 5, CategoryID: category.ID},
		{Name: "Spark Plug", Price: decimal.NewFromInt(80), Quantity: 5, IdealCount: 5, CategoryID: category.ID},
	}
	if err := db.Create(&products).Error; err != nil {
		t.Fatalf("seed products: %v", err)
	}
	return db
}

func loginAs(t *testing.T, r *gin.Engine, email, password string) string {
	w := plainJSON(t, r, "POST", "/login", map[string]interface{}{
		"email":    email,
		"password": password,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	token, ok := dataOf(t, w)["token"].(string)
	assert.True(t, ok)
	assert.NotEmpty(t, token)
	return token
}

func plainJSON(t *testing.T, r *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	return request(t, r, "", method, path, payload)
}

func authedJSON(t *testing.T, r *gin.Engine, token, method, path string, payload interface{}) *httptest.ResponseRecorder {
	return request(t, r, token, method, path, payload)
}

func request(t *testing.T, r *gin.Engine, token, method, path string, payload interface{}) *httptest.ResponseRecorder {
	body := bytes.NewBuffer(nil)
	if payload != nil {
		raw, err := json.Marshal(payload)
		assert.NoError(t, err)
		body = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequest(method, path, body)
	assert.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func dataOf(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].(map[string]interface{})
	assert.True(t, ok, "response has no data object: %s", w.Body.String())
	return data
}
