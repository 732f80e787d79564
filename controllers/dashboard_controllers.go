package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mindoroparts/pos-app/models"
	"github.com/mindoroparts/pos-app/utils"
)

type DashboardController struct {
	DB *gorm.DB
}

func NewDashboardController(db *gorm.DB) *DashboardController {
	return &DashboardController{DB: db}
}

// GetStats returns the headline figures for the admin dashboard.
func (dc *DashboardController) GetStats(c *gin.Context) {
	today := time.Now().Format("2006-01-02")

	var stats struct {
		TotalOrders  int64   `json:"total_orders"`
		TodayOrders  int64   `json:"today_orders"`
		OnlineOrders int64   `json:"online_orders"`
		ShopOrders   int64   `json:"shop_orders"`
		TotalRevenue float64 `json:"total_revenue"`
		TodayRevenue float64 `json:"today_revenue"`
		OrderStats   struct {
			Unpaid          int64 `json:"unpaid"`
			PendingApproval int64 `json:"pending_approval"`
			Paid            int64 `json:"paid"`
			ForPickup       int64 `json:"for_pickup"`
			Finished        int64 `json:"finished"`
			NotPickedUp     int64 `json:"not_picked_up"`
			Void            int64 `json:"void"`
		} `json:"order_stats"`
		CustomerCount   int64   `json:"customer_count"`
		NewCustomers    int64   `json:"new_customers_this_month"`
		AvgDailyRevenue float64 `json:"avg_daily_revenue"`
		LowStockCount   int64   `json:"low_stock_count"`
	}

	dc.DB.Model(&models.Order{}).Count(&stats.TotalOrders)
	dc.DB.Model(&models.Order{}).Where("DATE(order_date) = ?", today).Count(&stats.TodayOrders)
	dc.DB.Model(&models.Order{}).Where("session_id IS NULL").Count(&stats.OnlineOrders)
	dc.DB.Model(&models.Order{}).Where("session_id IS NOT NULL").Count(&stats.ShopOrders)

	dc.DB.Model(&models.Order{}).Where("status = ?", models.StatusUnpaid).Count(&stats.OrderStats.Unpaid)
	dc.DB.Model(&models.Order{}).Where("status = ?", models.StatusPendingApproval).Count(&stats.OrderStats.PendingApproval)
	dc.DB.Model(&models.Order{}).Where("status = ?", models.StatusPaid).Count(&stats.OrderStats.Paid)
	dc.DB.Model(&models.Order{}).Where("status = ?", models.StatusForPickup).Count(&stats.OrderStats.ForPickup)
	dc.DB.Model(&models.Order{}).Where("status = ?", models.StatusFinished).Count(&stats.OrderStats.Finished)
	dc.DB.Model(&models.Order{}).Where("status = ?", models.StatusNotPickedUp).Count(&stats.OrderStats.NotPickedUp)
	dc.DB.Model(&models.Order{}).Where("status = ?", models.StatusVoid).Count(&stats.OrderStats.Void)

	revenueStatuses := []string{models.StatusPaid, models.StatusForPickup, models.StatusFinished, models.StatusReviewed}
	dc.DB.Model(&models.Order{}).Where("status IN ?", revenueStatuses).
		Select("COALESCE(SUM(total_price), 0)").Row().Scan(&stats.TotalRevenue)
	dc.DB.Model(&models.Order{}).
		Where("status IN ? AND DATE(order_date) = ?", revenueStatuses, today).
		Select("COALESCE(SUM(total_price), 0)").Row().Scan(&stats.TodayRevenue)

	monthStart := time.Date(time.Now().Year(), time.Now().Month(), 1, 0, 0, 0, 0, time.Local)
	dc.DB.Model(&models.User{}).Where("role = ?", models.RoleCustomer).Count(&stats.CustomerCount)
	dc.DB.Model(&models.User{}).
		Where("role = ? AND created_at >= ?", models.RoleCustomer, monthStart).
		Count(&stats.NewCustomers)

	var monthRevenue float64
	dc.DB.Model(&models.Order{}).
		Where("status IN ? AND order_date >= ?", revenueStatuses, time.Now().AddDate(0, 0, -30)).
		Select("COALESCE(SUM(total_price), 0)").Row().Scan(&monthRevenue)
	stats.AvgDailyRevenue = monthRevenue / 30

	dc.DB.Model(&models.Product{}).Where("quantity < ideal_count").Count(&stats.LowStockCount)

	utils.RespondJSON(c, http.StatusOK, "Dashboard stats", stats)
}

// GetBestSellers ranks products by units sold and by revenue.
func (dc *DashboardController) GetBestSellers(c *gin.Context) {
	type ranked struct {
		ProductID uint    `json:"product_id"`
		Name      string  `json:"name"`
		UnitsSold int64   `json:"units_sold"`
		Revenue   float64 `json:"revenue"`
	}

	var byUnits []ranked
	err := dc.DB.Model(&models.OrderDetail{}).
		Select("order_details.product_id, products.name, SUM(order_details.quantity) AS units_sold, SUM(order_details.total_price) AS revenue").
		Joins("JOIN products ON products.id = order_details.product_id").
		Joins("JOIN orders ON orders.id = order_details.order_id").
		Where("orders.status NOT IN ?", []string{models.StatusVoid, models.StatusUnpaid, models.StatusNotPickedUp}).
		Group("order_details.product_id, products.name").
		Order("units_sold DESC").
		Limit(10).
		Scan(&byUnits).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var byRevenue []ranked
	err = dc.DB.Model(&models.OrderDetail{}).
		Select("order_details.product_id, products.name, SUM(order_details.quantity) AS units_sold, SUM(order_details.total_price) AS revenue").
		Joins("JOIN products ON products.id = order_details.product_id").
		Joins("JOIN orders ON orders.id = order_details.order_id").
		Where("orders.status NOT IN ?", []string{models.StatusVoid, models.StatusUnpaid, models.StatusNotPickedUp}).
		Group("order_details.product_id, products.name").
		Order("revenue DESC").
		Limit(10).
		Scan(&byRevenue).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Best sellers", gin.H{
		"by_units":   byUnits,
		"by_revenue": byRevenue,
	})
}

// GetMonthlySales returns revenue per month for the current year.
func (dc *DashboardController) GetMonthlySales(c *gin.Context) {
	year := time.Now().Format("2006")
	if y := c.Query("year"); y != "" {
		year = y
	}

	type monthly struct {
		Month   string  `json:"month"`
		Orders  int64   `json:"orders"`
		Revenue float64 `json:"revenue"`
	}

	var rows []monthly
	err := dc.DB.Model(&models.Order{}).
		Select("DATE_FORMAT(order_date, '%Y-%m') AS month, COUNT(*) AS orders, COALESCE(SUM(total_price), 0) AS revenue").
		Where("status IN ?", []string{models.StatusPaid, models.StatusForPickup, models.StatusFinished, models.StatusReviewed}).
		Where("YEAR(order_date) = ?", year).
		Group("month").
		Order("month ASC").
		Scan(&rows).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Monthly sales", rows)
}

// GetDailySales returns revenue per day over the last 30 days.
func (dc *DashboardController) GetDailySales(c *gin.Context) {
	since := time.Now().AddDate(0, 0, -30)

	type daily struct {
		Day     string  `json:"day"`
		Orders  int64   `json:"orders"`
		Revenue float64 `json:"revenue"`
	}

	var rows []daily
	err := dc.DB.Model(&models.Order{}).
		Select("DATE(order_date) AS day, COUNT(*) AS orders, COALESCE(SUM(total_price), 0) AS revenue").
		Where("status IN ?", []string{models.StatusPaid, models.StatusForPickup, models.StatusFinished, models.StatusReviewed}).
		Where("order_date >= ?", since).
		Group("day").
		Order("day ASC").
		Scan(&rows).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Daily sales", rows)
}

// GetRecentlySold lists the latest sold lines for the admin feed.
func (dc *DashboardController) GetRecentlySold(c *gin.Context) {
	type recent struct {
		OrderID   uint      `json:"order_id"`
		ProductID uint      `json:"product_id"`
		Name      string    `json:"name"`
		Quantity  int       `json:"quantity"`
		SoldAt    time.Time `json:"sold_at"`
	}

	var rows []recent
	err := dc.DB.Model(&models.OrderDetail{}).
		Select("order_details.order_id, order_details.product_id, products.name, order_details.quantity, orders.order_date AS sold_at").
		Joins("JOIN products ON products.id = order_details.product_id").
		Joins("JOIN orders ON orders.id = order_details.order_id").
		Where("orders.status IN ?", []string{models.StatusPaid, models.StatusForPickup, models.StatusFinished, models.StatusReviewed}).
		Order("orders.order_date DESC").
		Limit(20).
		Scan(&rows).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Recently sold", rows)
}

// GetCustomersByCity counts registered customers per city.
func (dc *DashboardController) GetCustomersByCity(c *gin.Context) {
	type cityCount struct {
		City  string `json:"city"`
		Count int64  `json:"count"`
	}

	var rows []cityCount
	err := dc.DB.Model(&models.User{}).
		Select("city, COUNT(*) AS count").
		Where("role = ? AND city <> ''", models.RoleCustomer).
		Group("city").
		Order("count DESC").
		Scan(&rows).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Customers by city", rows)
}

// GetTopByCategory ranks sales per category.
func (dc *DashboardController) GetTopByCategory(c *gin.Context) {
	type categoryRank struct {
		CategoryID uint    `json:"category_id"`
		Category   string  `json:"category"`
		UnitsSold  int64   `json:"units_sold"`
		Revenue    float64 `json:"revenue"`
	}

	var rows []categoryRank
	err := dc.DB.Model(&models.OrderDetail{}).
		Select("categories.id AS category_id, categories.name AS category, SUM(order_details.quantity) AS units_sold, SUM(order_details.total_price) AS revenue").
		Joins("JOIN products ON products.id = order_details.product_id").
		Joins("JOIN categories ON categories.id = products.category_id").
		Joins("JOIN orders ON orders.id = order_details.order_id").
		Where("orders.status NOT IN ?", []string{models.StatusVoid, models.StatusUnpaid, models.StatusNotPickedUp}).
		Group("categories.id, categories.name").
		Order("revenue DESC").
		Scan(&rows).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Sales by category", rows)
}
