package controllers

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mindoroparts/pos-app/models"
	"github.com/mindoroparts/pos-app/utils"
)

const userUploadDir = "public/uploads/user_images"

type UserController struct {
	DB *gorm.DB
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{DB: db}
}

type registerRequest struct {
	FirstName   string `json:"first_name" binding:"required"`
	LastName    string `json:"last_name" binding:"required"`
	MiddleName  string `json:"middle_name"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	PhoneNumber string `json:"phone_number"`
	City        string `json:"city"`
	Province    string `json:"province"`
	Address     string `json:"address"`
}

func (uc *UserController) createUser(c *gin.Context, role string) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	user := models.User{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		MiddleName:  req.MiddleName,
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Password:    string(hashed),
		Role:        role,
		PhoneNumber: req.PhoneNumber,
		City:        req.City,
		Province:    req.Province,
		Address:     req.Address,
	}

	if err := uc.DB.Create(&user).Error; err != nil {
		utils.RespondError(c, http.StatusConflict, errors.New("email is already registered"))
		return
	}

	utils.InfoLogger.Printf("New user registered: %s (role=%s)", user.Email, user.Role)

	utils.RespondJSON(c, http.StatusCreated, "User registered", gin.H{
		"user_id": user.ID,
	})
}

// Register signs up a customer from the storefront.
func (uc *UserController) Register(c *gin.Context) {
	uc.createUser(c, models.RoleCustomer)
}

// RegisterStaff creates a cashier or admin account. Admin only.
func (uc *UserController) RegisterStaff(c *gin.Context) {
	role := c.Query("role")
	if role != models.RoleCashier && role != models.RoleAdmin {
		utils.RespondError(c, http.StatusBadRequest, errors.New("role must be Cashier or Admin"))
		return
	}
	uc.createUser(c, role)
}

// Login checks credentials and returns a JWT.
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var user models.User
	if err := uc.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(input.Email))).
		First(&user).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Role)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token":     token,
		"user_id":   user.ID,
		"user_role": strings.ToLower(user.Role),
	})
}

// Logout revokes the presented token.
func (uc *UserController) Logout(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("no token provided"))
		return
	}

	utils.BlacklistToken(tokenString)
	utils.RespondJSON(c, http.StatusOK, "Logged out", nil)
}

// GetProfile returns the authenticated user's account.
func (uc *UserController) GetProfile(c *gin.Context) {
	userID := c.GetUint("user_id")

	var user models.User
	if err := uc.DB.First(&user, userID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Profile retrieved", user)
}

// UpdateProfile edits the authenticated user's own account. Accepts
// multipart so the avatar can ride along.
func (uc *UserController) UpdateProfile(c *gin.Context) {
	userID := c.GetUint("user_id")

	var user models.User
	if err := uc.DB.First(&user, userID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	c.Request.ParseMultipartForm(10 << 20)

	if v := c.PostForm("first_name"); v != "" {
		user.FirstName = v
	}
	if v := c.PostForm("last_name"); v != "" {
		user.LastName = v
	}
	if v := c.PostForm("middle_name"); v != "" {
		user.MiddleName = v
	}
	if v := c.PostForm("phone_number"); v != "" {
		user.PhoneNumber = v
	}
	if v := c.PostForm("city"); v != "" {
		user.City = v
	}
	if v := c.PostForm("province"); v != "" {
		user.Province = v
	}
	if v := c.PostForm("address"); v != "" {
		user.Address = v
	}
	if v := c.PostForm("password"); v != "" {
		if len(v) < 8 {
			utils.RespondError(c, http.StatusBadRequest, errors.New("password must be at least 8 characters"))
			return
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(v), bcrypt.DefaultCost)
		if err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		user.Password = string(hashed)
	}
	if file, err := c.FormFile("user_image"); err == nil {
		if err := os.MkdirAll(userUploadDir, 0755); err != nil {
			utils.RespondError(c, http.StatusInternalServerError, errors.New("error creating upload directory"))
			return
		}
		image, err := utils.SaveUpload(c, file, userUploadDir)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		user.UserImage = image
	}

	if err := uc.DB.Save(&user).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Profile updated", user)
}

// GetCustomers lists customer accounts for the till's customer lookup.
func (uc *UserController) GetCustomers(c *gin.Context) {
	q := uc.DB.Where("role = ?", models.RoleCustomer).Order("last_name ASC")
	if term := strings.TrimSpace(c.Query("term")); term != "" {
		like := "%" + term + "%"
		q = q.Where("first_name LIKE ? OR last_name LIKE ? OR email LIKE ?", like, like, like)
	}

	var customers []models.User
	if err := q.Find(&customers).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "List of customers", customers)
}

// GetAllUsers lists every account. Admin only, enforced by the route.
func (uc *UserController) GetAllUsers(c *gin.Context) {
	var users []models.User
	if err := uc.DB.Find(&users).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All users", users)
}
