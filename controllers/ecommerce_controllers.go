package controllers

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mindoroparts/pos-app/models"
	"github.com/mindoroparts/pos-app/services"
	"github.com/mindoroparts/pos-app/utils"
)

const (
	receiptUploadDir  = "public/uploads/gcash_receipts"
	feedbackUploadDir = "public/uploads/feedback_photos"
)

// PickupHoldDays returns how long a For Pickup order is held before the
// sweep cancels it.
func PickupHoldDays() int {
	if v := os.Getenv("PICKUP_HOLD_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			return days
		}
	}
	return 5
}

// EcommerceController serves the online storefront: checkout, order
// tracking, pickup flow and feedback.
type EcommerceController struct {
	DB     *gorm.DB
	Orders *services.OrderService
}

func NewEcommerceController(db *gorm.DB, orders *services.OrderService) *EcommerceController {
	return &EcommerceController{DB: db, Orders: orders}
}

// Checkout places an online order for the authenticated customer. The
// GCash receipt reference comes from a prior upload call.
func (ec *EcommerceController) Checkout(c *gin.Context) {
	var req struct {
		Lines        []services.LineRequest `json:"lines" binding:"required,min=1,dive"`
		ReceiptPhoto string                 `json:"receipt_photo"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	customerID := c.GetUint("user_id")
	order, err := ec.Orders.Checkout(customerID, req.ReceiptPhoto, req.Lines)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order placed", order)
}

// UploadGcashReceipt stores the payment proof image and returns its
// reference for the checkout call.
func (ec *EcommerceController) UploadGcashReceipt(c *gin.Context) {
	file, err := c.FormFile("receipt")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("receipt file is required"))
		return
	}

	if err := os.MkdirAll(receiptUploadDir, 0755); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, errors.New("error creating upload directory"))
		return
	}

	path, err := utils.SaveUpload(c, file, receiptUploadDir)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Receipt uploaded", gin.H{"receipt_photo": path})
}

// orderWithDeadline decorates an order with the pickup deadline shown
// to staff and customers.
type orderWithDeadline struct {
	models.Order
	ValidUntil time.Time `json:"valid_until"`
}

func withDeadlines(orders []models.Order) []orderWithDeadline {
	hold := PickupHoldDays()
	out := make([]orderWithDeadline, 0, len(orders))
	for _, order := range orders {
		out = append(out, orderWithDeadline{
			Order:      order,
			ValidUntil: order.OrderDate.AddDate(0, 0, hold),
		})
	}
	return out
}

// GetOnlineOrders lists e-commerce orders for staff, optionally
// filtered by status.
func (ec *EcommerceController) GetOnlineOrders(c *gin.Context) {
	q := ec.DB.
		Preload("OrderDetails").
		Preload("OrderDetails.Product").
		Preload("Customer").
		Where("session_id IS NULL").
		Order("order_date DESC")

	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Online orders", withDeadlines(orders))
}

// GetMyOrders lists the authenticated customer's own orders.
func (ec *EcommerceController) GetMyOrders(c *gin.Context) {
	customerID := c.GetUint("user_id")

	var orders []models.Order
	err := ec.DB.
		Preload("OrderDetails").
		Preload("OrderDetails.Product").
		Where("customer_id = ?", customerID).
		Order("order_date DESC").
		Find(&orders).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Your orders", withDeadlines(orders))
}

// ApproveOrder moves a pending online order to For Pickup and texts the
// customer.
func (ec *EcommerceController) ApproveOrder(c *gin.Context) {
	orderID, err := uintParam(c, "order_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := ec.Orders.MarkForPickup(orderID); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order marked for pickup", gin.H{"order_id": orderID})
}

// FinishOrder closes out a picked-up order.
func (ec *EcommerceController) FinishOrder(c *gin.Context) {
	orderID, err := uintParam(c, "order_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := ec.Orders.MarkFinished(orderID); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order finished", gin.H{"order_id": orderID})
}

// SubmitFeedback records a review for a finished order. Accepts
// multipart so a photo can ride along; the photo is optional.
func (ec *EcommerceController) SubmitFeedback(c *gin.Context) {
	orderID, err := uintParam(c, "order_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	c.Request.ParseMultipartForm(10 << 20)

	feedback := c.PostForm("feedback")
	if feedback == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("feedback text is required"))
		return
	}

	rating, err := strconv.Atoi(c.PostForm("rating"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid rating"))
		return
	}

	photo := ""
	if file, err := c.FormFile("photo"); err == nil {
		if err := os.MkdirAll(feedbackUploadDir, 0755); err != nil {
			utils.RespondError(c, http.StatusInternalServerError, errors.New("error creating upload directory"))
			return
		}
		photo, err = utils.SaveUpload(c, file, feedbackUploadDir)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
	}

	if err := ec.Orders.RecordFeedback(orderID, feedback, rating, photo); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Feedback recorded", gin.H{"order_id": orderID})
}

// GetFeedback lists reviewed orders for the storefront testimonial
// page.
func (ec *EcommerceController) GetFeedback(c *gin.Context) {
	var orders []models.Order
	err := ec.DB.
		Preload("Customer").
		Where("status = ?", models.StatusReviewed).
		Order("updated_at DESC").
		Find(&orders).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Customer feedback", orders)
}

// SweepNotPickedUp runs the stale pickup sweep on demand. The cron job
// calls the same service method on schedule.
func (ec *EcommerceController) SweepNotPickedUp(c *gin.Context) {
	swept, err := ec.Orders.SweepStaleForPickup(PickupHoldDays())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Sweep completed", gin.H{"swept": swept})
}
