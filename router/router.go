package router

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mindoroparts/pos-app/controllers"
	"github.com/mindoroparts/pos-app/middlewares"
	"github.com/mindoroparts/pos-app/notifier"
	"github.com/mindoroparts/pos-app/services"
)

func SetupRouter(db *gorm.DB) *gin.Engine {
	r := gin.Default()

	workDir, _ := os.Getwd()
	uploadsPath := filepath.Join(workDir, "public", "uploads")
	r.Static("/uploads", uploadsPath)

	// Only image files are reachable under /uploads.
	r.Use(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/uploads/") {
			lower := strings.ToLower(c.Request.URL.Path)
			if !strings.HasSuffix(lower, ".jpg") &&
				!strings.HasSuffix(lower, ".jpeg") &&
				!strings.HasSuffix(lower, ".png") &&
				!strings.HasSuffix(lower, ".webp") {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
		}
		c.Next()
	})

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	orderSvc := services.NewOrderService(db, notifier.NewSMSNotifier())
	sessionSvc := services.NewSessionService(db, orderSvc)

	userCtrl := controllers.NewUserController(db)
	inventoryCtrl := controllers.NewInventoryController(db)
	posCtrl := controllers.NewPOSController(db, orderSvc, sessionSvc)
	ecommerceCtrl := controllers.NewEcommerceController(db, orderSvc)
	dashboardCtrl := controllers.NewDashboardController(db)
	reportsCtrl := controllers.NewReportsController(db)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	// Storefront browsing needs no account.
	r.GET("/categories", inventoryCtrl.GetCategories)
	r.GET("/products", inventoryCtrl.GetProducts)
	r.GET("/products/grouped", inventoryCtrl.GetProductsGrouped)
	r.GET("/feedback", ecommerceCtrl.GetFeedback)

	// ----------------------------------------------------------------
	//                      CUSTOMER ROUTES
	// ----------------------------------------------------------------
	shop := r.Group("/shop")
	shop.Use(middlewares.AuthMiddleware())
	{
		shop.POST("/checkout", ecommerceCtrl.Checkout)
		shop.POST("/receipts", ecommerceCtrl.UploadGcashReceipt)
		shop.GET("/orders", ecommerceCtrl.GetMyOrders)
		shop.POST("/orders/:order_id/feedback", ecommerceCtrl.SubmitFeedback)
		shop.GET("/profile", userCtrl.GetProfile)
		shop.PATCH("/profile", userCtrl.UpdateProfile)
		shop.POST("/logout", userCtrl.Logout)
	}

	// ----------------------------------------------------------------
	//                      STAFF ROUTES
	// ----------------------------------------------------------------
	staff := r.Group("/pos")
	staff.Use(middlewares.AuthMiddleware())
	staff.Use(middlewares.RequireRoles("Admin", "Cashier"))
	{
		staff.POST("/sessions", posCtrl.StartSession)
		staff.GET("/sessions", posCtrl.GetSessions)
		staff.GET("/sessions/:session_id", posCtrl.GetSessionDetail)
		staff.POST("/sessions/:session_id/close", posCtrl.CloseSession)

		staff.POST("/orders", posCtrl.NewOrder)
		staff.GET("/orders/:order_id", posCtrl.GetOrderDetails)
		staff.POST("/orders/:order_id/lines", posCtrl.AddLine)
		staff.PATCH("/order-details/:detail_id", posCtrl.UpdateLine)
		staff.DELETE("/order-details/:detail_id", posCtrl.RemoveLine)
		staff.DELETE("/orders/:order_id/lines", posCtrl.ClearLines)
		staff.POST("/orders/:order_id/finalize", posCtrl.FinalizeOrder)
		staff.POST("/orders/:order_id/void", posCtrl.VoidOrder)
		staff.DELETE("/orders/:order_id", posCtrl.DeleteOrder)

		staff.GET("/products", inventoryCtrl.GetPOSProducts)
		staff.GET("/products/autocomplete", inventoryCtrl.Autocomplete)
		staff.GET("/customers", userCtrl.GetCustomers)

		staff.GET("/online-orders", ecommerceCtrl.GetOnlineOrders)
		staff.POST("/online-orders/:order_id/approve", ecommerceCtrl.ApproveOrder)
		staff.POST("/online-orders/:order_id/finish", ecommerceCtrl.FinishOrder)

		staff.POST("/logout", userCtrl.Logout)
	}

	// ----------------------------------------------------------------
	//                      ADMIN ROUTES
	// ----------------------------------------------------------------
	admin := r.Group("/admin")
	admin.Use(middlewares.AuthMiddleware())
	admin.Use(middlewares.RequireRoles("Admin"))
	{
		admin.GET("/profile", userCtrl.GetProfile)
		admin.GET("/users", userCtrl.GetAllUsers)
		admin.POST("/users", userCtrl.RegisterStaff)

		admin.POST("/products", inventoryCtrl.CreateProduct)
		admin.PATCH("/products/:product_id", inventoryCtrl.UpdateProduct)
		admin.GET("/products/low-stock", inventoryCtrl.GetLowStock)
		admin.GET("/products/archived", inventoryCtrl.GetArchivedProducts)
		admin.POST("/products/archive", inventoryCtrl.ArchiveProducts)
		admin.POST("/products/restore", inventoryCtrl.RestoreProducts)
		admin.POST("/products/:product_id/adjust", inventoryCtrl.AdjustQuantity)
		admin.PUT("/products/:product_id/quantity", inventoryCtrl.SetQuantity)
		admin.POST("/categories", inventoryCtrl.CreateCategory)

		admin.GET("/dashboard/stats", dashboardCtrl.GetStats)
		admin.GET("/dashboard/best-sellers", dashboardCtrl.GetBestSellers)
		admin.GET("/dashboard/monthly-sales", dashboardCtrl.GetMonthlySales)
		admin.GET("/dashboard/daily-sales", dashboardCtrl.GetDailySales)
		admin.GET("/dashboard/recently-sold", dashboardCtrl.GetRecentlySold)
		admin.GET("/dashboard/customers-by-city", dashboardCtrl.GetCustomersByCity)
		admin.GET("/dashboard/top-by-category", dashboardCtrl.GetTopByCategory)

		admin.GET("/reports/inventory/xlsx", reportsCtrl.InventoryReportXLSX)
		admin.GET("/reports/inventory/pdf", reportsCtrl.InventoryReportPDF)
		admin.GET("/reports/sales/xlsx", reportsCtrl.SalesReportXLSX)
		admin.GET("/reports/sales/pdf", reportsCtrl.SalesReportPDF)

		admin.POST("/orders/sweep", ecommerceCtrl.SweepNotPickedUp)
	}

	return r
}
