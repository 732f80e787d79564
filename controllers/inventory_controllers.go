package controllers

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mindoroparts/pos-app/models"
	"github.com/mindoroparts/pos-app/services"
	"github.com/mindoroparts/pos-app/utils"
)

const productUploadDir = "public/uploads/product_images"

type InventoryController struct {
	DB     *gorm.DB
	Ledger *services.InventoryLedger
}

func NewInventoryController(db *gorm.DB) *InventoryController {
	return &InventoryController{DB: db, Ledger: &services.InventoryLedger{}}
}

// upsertCategory finds a category by name or creates it. Matching is
// case-insensitive on the trimmed name.
func (ic *InventoryController) upsertCategory(tx *gorm.DB, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("category name is required")
	}

	var category models.Category
	err := tx.Where("LOWER(name) = LOWER(?)", name).First(&category).Error
	if err == nil {
		return &category, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	category = models.Category{Name: name}
	if err := tx.Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// CreateProduct registers a product from a multipart form. The category
// is referenced by name and created on the fly when unknown.
func (ic *InventoryController) CreateProduct(c *gin.Context) {
	c.Request.ParseMultipartForm(10 << 20)

	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("product name is required"))
		return
	}

	price, err := decimal.NewFromString(c.PostForm("price"))
	if err != nil || price.IsNegative() {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid price"))
		return
	}

	quantity, err := strconv.Atoi(c.PostForm("quantity"))
	if err != nil || quantity < 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid quantity"))
		return
	}

	idealCount, err := strconv.Atoi(c.PostForm("ideal_count"))
	if err != nil || idealCount < 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid ideal_count"))
		return
	}

	photo := ""
	if file, err := c.FormFile("photo"); err == nil {
		if err := os.MkdirAll(productUploadDir, 0755); err != nil {
			utils.RespondError(c, http.StatusInternalServerError, errors.New("error creating upload directory"))
			return
		}
		photo, err = utils.SaveUpload(c, file, productUploadDir)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
	}

	var product models.Product
	err = ic.DB.Transaction(func(tx *gorm.DB) error {
		category, err := ic.upsertCategory(tx, c.PostForm("category"))
		if err != nil {
			return err
		}

		product = models.Product{
			Name:              name,
			Description:       c.PostForm("description"),
			Price:             price,
			Quantity:          quantity,
			IdealCount:        idealCount,
			UnitOfMeasurement: c.PostForm("unit_of_measurement"),
			CategoryID:        category.ID,
			Photo:             photo,
		}
		if code := strings.TrimSpace(c.PostForm("code")); code != "" {
			product.Code = &code
		}
		if remarks := strings.TrimSpace(c.PostForm("remarks")); remarks != "" {
			product.Remarks = &remarks
		}
		return tx.Create(&product).Error
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Product created", product)
}

// UpdateProduct edits the catalog fields of a product. Stock changes go
// through AdjustQuantity instead so they stay auditable.
func (ic *InventoryController) UpdateProduct(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("product_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid product id"))
		return
	}

	c.Request.ParseMultipartForm(10 << 20)

	var product models.Product
	if err := ic.DB.First(&product, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("product not found"))
		return
	}

	if name := strings.TrimSpace(c.PostForm("name")); name != "" {
		product.Name = name
	}
	if desc := c.PostForm("description"); desc != "" {
		product.Description = desc
	}
	if priceStr := c.PostForm("price"); priceStr != "" {
		price, err := decimal.NewFromString(priceStr)
		if err != nil || price.IsNegative() {
			utils.RespondError(c, http.StatusBadRequest, errors.New("invalid price"))
			return
		}
		product.Price = price
	}
	if idealStr := c.PostForm("ideal_count"); idealStr != "" {
		ideal, err := strconv.Atoi(idealStr)
		if err != nil || ideal < 0 {
			utils.RespondError(c, http.StatusBadRequest, errors.New("invalid ideal_count"))
			return
		}
		product.IdealCount = ideal
	}
	if unit := c.PostForm("unit_of_measurement"); unit != "" {
		product.UnitOfMeasurement = unit
	}
	if code := strings.TrimSpace(c.PostForm("code")); code != "" {
		product.Code = &code
	}
	if remarks := strings.TrimSpace(c.PostForm("remarks")); remarks != "" {
		product.Remarks = &remarks
	}
	if file, err := c.FormFile("photo"); err == nil {
		if err := os.MkdirAll(productUploadDir, 0755); err != nil {
			utils.RespondError(c, http.StatusInternalServerError, errors.New("error creating upload directory"))
			return
		}
		photo, err := utils.SaveUpload(c, file, productUploadDir)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		product.Photo = photo
	}

	err = ic.DB.Transaction(func(tx *gorm.DB) error {
		if categoryName := strings.TrimSpace(c.PostForm("category")); categoryName != "" {
			category, err := ic.upsertCategory(tx, categoryName)
			if err != nil {
				return err
			}
			product.CategoryID = category.ID
		}
		return tx.Save(&product).Error
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Product updated", product)
}

// GetProducts lists the active catalog, category preloaded.
func (ic *InventoryController) GetProducts(c *gin.Context) {
	var products []models.Product
	if err := ic.DB.Preload("Category").Order("name ASC").Find(&products).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of products", products)
}

// GetProductsGrouped returns the catalog grouped by category for the
// storefront browse page.
func (ic *InventoryController) GetProductsGrouped(c *gin.Context) {
	var categories []models.Category
	if err := ic.DB.Order("name ASC").Find(&categories).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	type group struct {
		Category models.Category  `json:"category"`
		Products []models.Product `json:"products"`
	}

	groups := make([]group, 0, len(categories))
	for _, category := range categories {
		var products []models.Product
		if err := ic.DB.Where("category_id = ?", category.ID).
			Order("name ASC").Find(&products).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		groups = append(groups, group{Category: category, Products: products})
	}

	utils.RespondJSON(c, http.StatusOK, "Products grouped by category", groups)
}

// GetPOSProducts lists only sellable products, meaning stock above
// zero. The till never shows what it cannot ring.
func (ic *InventoryController) GetPOSProducts(c *gin.Context) {
	var products []models.Product
	if err := ic.DB.Preload("Category").
		Where("quantity > 0").
		Order("name ASC").
		Find(&products).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Sellable products", products)
}

// GetLowStock lists products whose stock fell below their ideal count.
func (ic *InventoryController) GetLowStock(c *gin.Context) {
	var products []models.Product
	if err := ic.DB.Preload("Category").
		Where("quantity < ideal_count").
		Order("quantity ASC").
		Find(&products).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Low stock products", products)
}

// Autocomplete matches product names for the POS search box.
func (ic *InventoryController) Autocomplete(c *gin.Context) {
	term := strings.TrimSpace(c.Query("term"))
	if term == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("query parameter 'term' is required"))
		return
	}

	var products []models.Product
	if err := ic.DB.Select("id", "name", "code", "price", "quantity").
		Where("name LIKE ?", "%"+term+"%").
		Order("name ASC").
		Limit(10).
		Find(&products).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Matching products", products)
}

// AdjustQuantity applies a signed delta to a product's stock (restock
// deliveries, shrinkage corrections).
func (ic *InventoryController) AdjustQuantity(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("product_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid product id"))
		return
	}

	var req struct {
		Delta int `json:"delta" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var newQty int
	err = ic.DB.Transaction(func(tx *gorm.DB) error {
		q, err := ic.Ledger.AddQuantity(tx, uint(id), req.Delta)
		if err != nil {
			return err
		}
		newQty = q
		return nil
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Quantity adjusted", gin.H{
		"product_id": id,
		"quantity":   newQty,
	})
}

// SetQuantity overrides a product's stock with a counted figure.
func (ic *InventoryController) SetQuantity(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("product_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid product id"))
		return
	}

	var req struct {
		Quantity *int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	err = ic.DB.Transaction(func(tx *gorm.DB) error {
		return ic.Ledger.SetQuantity(tx, uint(id), *req.Quantity)
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Quantity set", gin.H{
		"product_id": id,
		"quantity":   *req.Quantity,
	})
}

// ArchiveProducts soft-deletes a batch of products. Archived products
// vanish from listings but historical orders keep pointing at them.
func (ic *InventoryController) ArchiveProducts(c *gin.Context) {
	var req struct {
		ProductIDs []uint `json:"product_ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	res := ic.DB.Delete(&models.Product{}, req.ProductIDs)
	if res.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, res.Error)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Products archived", gin.H{
		"archived": res.RowsAffected,
	})
}

// RestoreProducts brings archived products back into the catalog.
func (ic *InventoryController) RestoreProducts(c *gin.Context) {
	var req struct {
		ProductIDs []uint `json:"product_ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	res := ic.DB.Unscoped().Model(&models.Product{}).
		Where("id IN ?", req.ProductIDs).
		Update("deleted_at", nil)
	if res.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, res.Error)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Products restored", gin.H{
		"restored": res.RowsAffected,
	})
}

// GetArchivedProducts lists soft-deleted products for the restore page.
func (ic *InventoryController) GetArchivedProducts(c *gin.Context) {
	var products []models.Product
	if err := ic.DB.Unscoped().Preload("Category").
		Where("deleted_at IS NOT NULL").
		Order("name ASC").
		Find(&products).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Archived products", products)
}

// GetCategories lists all categories.
func (ic *InventoryController) GetCategories(c *gin.Context) {
	var categories []models.Category
	if err := ic.DB.Order("name ASC").Find(&categories).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of categories", categories)
}

// CreateCategory upserts a category by name.
func (ic *InventoryController) CreateCategory(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var category *models.Category
	err := ic.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		category, err = ic.upsertCategory(tx, req.Name)
		return err
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Category saved", category)
}
