package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mindoroparts/pos-app/models"
	"github.com/mindoroparts/pos-app/services"
	"github.com/mindoroparts/pos-app/utils"
)

// POSController serves the shop counter: cashier sessions, the live
// cart and payment capture.
type POSController struct {
	DB       *gorm.DB
	Orders   *services.OrderService
	Sessions *services.SessionService
}

func NewPOSController(db *gorm.DB, orders *services.OrderService, sessions *services.SessionService) *POSController {
	return &POSController{DB: db, Orders: orders, Sessions: sessions}
}

func uintParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, errors.New("invalid " + name)
	}
	return uint(id), nil
}

// StartSession opens the cashier's shift.
func (pc *POSController) StartSession(c *gin.Context) {
	var req struct {
		InitialCash decimal.Decimal `json:"initial_cash" binding:"required"`
		Notes       *string         `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	cashierID := c.GetUint("user_id")
	session, err := pc.Sessions.StartSession(cashierID, req.InitialCash, req.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Session started", session)
}

// GetSessions lists the register history.
func (pc *POSController) GetSessions(c *gin.Context) {
	sessions, err := pc.Sessions.FetchSessions()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of sessions", sessions)
}

// GetSessionDetail returns one session expanded down to every line.
func (pc *POSController) GetSessionDetail(c *gin.Context) {
	sessionID, err := uintParam(c, "session_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	detail, err := pc.Sessions.FetchSessionDetail(sessionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session detail", detail)
}

// CloseSession ends a shift with the counted drawer amount.
func (pc *POSController) CloseSession(c *gin.Context) {
	sessionID, err := uintParam(c, "session_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		ClosingCash decimal.Decimal `json:"closing_cash" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	session, err := pc.Sessions.CloseSession(sessionID, req.ClosingCash)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session closed", session)
}

// NewOrder opens (or reuses) the cart for a session.
func (pc *POSController) NewOrder(c *gin.Context) {
	var req struct {
		SessionID *uint `json:"session_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := pc.Orders.CreateOrder(req.SessionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order ready", order)
}

// AddLine rings a product onto the order.
func (pc *POSController) AddLine(c *gin.Context) {
	orderID, err := uintParam(c, "order_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req services.LineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	detail, err := pc.Orders.AddOrUpdateLine(orderID, req.ProductID, req.Quantity)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Line added", detail)
}

// UpdateLine sets a line to an absolute quantity.
func (pc *POSController) UpdateLine(c *gin.Context) {
	detailID, err := uintParam(c, "detail_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Quantity int `json:"quantity" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	detail, err := pc.Orders.UpdateLineQuantity(detailID, req.Quantity)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Line updated", detail)
}

// RemoveLine takes a line off the order, deleting the order when it was
// the last one.
func (pc *POSController) RemoveLine(c *gin.Context) {
	detailID, err := uintParam(c, "detail_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	orderDeleted, err := pc.Orders.RemoveLine(detailID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Line removed", gin.H{
		"order_deleted": orderDeleted,
	})
}

// ClearLines empties the cart but keeps the order open.
func (pc *POSController) ClearLines(c *gin.Context) {
	orderID, err := uintParam(c, "order_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := pc.Orders.ClearAllLines(orderID); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order cleared", gin.H{"order_id": orderID})
}

// GetOrderDetails returns the order with lines and products expanded.
func (pc *POSController) GetOrderDetails(c *gin.Context) {
	orderID, err := uintParam(c, "order_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var order models.Order
	err = pc.DB.
		Preload("OrderDetails").
		Preload("OrderDetails.Product").
		Preload("Customer").
		First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, http.StatusNotFound, errors.New("order not found"))
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// FinalizeOrder captures payment and computes the change due.
func (pc *POSController) FinalizeOrder(c *gin.Context) {
	orderID, err := uintParam(c, "order_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Tendered   decimal.Decimal `json:"tendered" binding:"required"`
		CustomerID *uint           `json:"customer_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	change, err := pc.Orders.FinalizeOrder(orderID, req.Tendered, req.CustomerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment captured", gin.H{
		"order_id": orderID,
		"change":   change,
	})
}

// VoidOrder cancels an order and restores its stock.
func (pc *POSController) VoidOrder(c *gin.Context) {
	orderID, err := uintParam(c, "order_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := pc.Orders.VoidOrder(orderID); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order voided", gin.H{"order_id": orderID})
}

// DeleteOrder removes an order entirely, restoring its stock first.
func (pc *POSController) DeleteOrder(c *gin.Context) {
	orderID, err := uintParam(c, "order_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := pc.Orders.DeleteOrder(orderID); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order deleted", gin.H{"order_id": orderID})
}
