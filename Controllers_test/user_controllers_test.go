package Controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mindoroparts/pos-app/controllers"
	"github.com/mindoroparts/pos-app/models"
	"github.com/mindoroparts/pos-app/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func setupTestDB(t *testing.T) *gorm.DB {
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
	return db
}

// asUser fakes an authenticated request so controllers can be tested
// without issuing real tokens.
func asUser(userID uint, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role", role)
		c.Next()
	}
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		assert.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, body)
	assert.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRegisterAndLogin(t *testing.T) {
	db := setupTestDB(t)
	userCtrl := controllers.NewUserController(db)

	r := gin.Default()
	r.POST("/register", userCtrl.Register)
	r.POST("/login", userCtrl.Login)

	w := doJSON(t, r, "POST", "/register", map[string]interface{}{
		"first_name":   "Maria",
		"last_name":    "Santos",
		"email":        "maria@example.com",
		"password":     "supersecret",
		"phone_number": "09171234567",
		"city":         "Calapan",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var user models.User
	assert.NoError(t, db.Where("email = ?", "maria@example.com").First(&user).Error)
	assert.Equal(t, models.RoleCustomer, user.Role)
	assert.NotEqual(t, "supersecret", user.Password)

	w = doJSON(t, r, "POST", "/login", map[string]interface{}{
		"email":    "maria@example.com",
		"password": "supersecret",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody(t, w)
	data := resp["data"].(map[string]interface{})
	assert.NotEmpty(t, data["token"])
	assert.Equal(t, "customer", data["user_role"])
}

func TestLoginWrongPassword(t *testing.T) {
	db := setupTestDB(t)
	userCtrl := controllers.NewUserController(db)

	hashed, _ := bcrypt.GenerateFromPassword([]byte("rightpassword"), bcrypt.DefaultCost)
	db.Create(&models.User{
		FirstName: "Jun",
		LastName:  "Reyes",
		Email:     "jun@example.com",
		Password:  string(hashed),
		Role:      models.RoleCashier,
	})

	r := gin.Default()
	r.POST("/login", userCtrl.Login)

	w := doJSON(t, r, "POST", "/login", map[string]interface{}{
		"email":    "jun@example.com",
		"password": "wrongpassword",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	userCtrl := controllers.NewUserController(db)

	r := gin.Default()
	r.POST("/register", userCtrl.Register)

	payload := map[string]interface{}{
		"first_name": "Maria",
		"last_name":  "Santos",
		"email":      "maria@example.com",
		"password":   "supersecret",
	}
	w := doJSON(t, r, "POST", "/register", payload)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, "POST", "/register", payload)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetProfile(t *testing.T) {
	db := setupTestDB(t)
	userCtrl := controllers.NewUserController(db)

	user := models.User{
		FirstName: "Ana",
		LastName:  "Cruz",
		Email:     "ana@example.com",
		Password:  "hashed",
		Role:      models.RoleCustomer,
	}
	db.Create(&user)

	r := gin.Default()
	r.GET("/profile", asUser(user.ID, user.Role), userCtrl.GetProfile)

	w := doJSON(t, r, "GET", "/profile", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody(t, w)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "ana@example.com", data["email"])
	// Password hash must never serialize.
	_, exposed := data["password"]
	assert.False(t, exposed)
}
