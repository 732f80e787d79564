package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/mindoroparts/pos-app/config"
	"github.com/mindoroparts/pos-app/jobs"
	"github.com/mindoroparts/pos-app/middlewares"
	"github.com/mindoroparts/pos-app/models"
	"github.com/mindoroparts/pos-app/notifier"
	"github.com/mindoroparts/pos-app/router"
	"github.com/mindoroparts/pos-app/services"
	"github.com/mindoroparts/pos-app/utils"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading: %v", err)
	}
	utils.InitLogger()
}

func main() {
	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	utils.InitDB(db)

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)

	utils.StartBlacklistCleanup()

	orderSvc := services.NewOrderService(db, notifier.NewSMSNotifier())
	scheduler := jobs.Start(orderSvc)
	defer scheduler.Stop()

	rateLimiter := middlewares.NewRateLimiter(50, 1)

	r := router.SetupRouter(db)
	r.Use(rateLimiter.RateLimit())
	r.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	utils.InfoLogger.Printf("Listening on port %s", port)
	if err := r.Run(":" + port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.Session{},
		&models.Order{},
		&models.OrderDetail{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
}
