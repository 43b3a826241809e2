package paymentControllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/DemonsTA4/shopping-mall/common"
	"github.com/DemonsTA4/shopping-mall/middleware"
	"github.com/DemonsTA4/shopping-mall/models"
)

type InitiatePaymentRequest struct {
	Method string `json:"method" binding:"required"`
}

// InitiatePayment validates ownership and that the order is still awaiting
// payment, then returns an opaque payment URL. It never changes the order
// status; that is driven by the gateway callback, which lives outside this
// service.
func InitiatePayment(db *gorm.DB, orderID uint, userID, method string) (string, string, error) {
	var order models.Order
	if err := db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", common.E(common.ErrNotFound, "order %d does not exist", orderID)
		}
		return "", "", err
	}
	if order.UserID != userID {
		return "", "", common.E(common.ErrForbidden, "access denied")
	}
	if order.Status != models.OrderStatusPendingPayment {
		return "", "", common.E(common.ErrOrderStatus, "order %s is %s, payment can no longer be initiated", order.OrderNo, order.Status)
	}

	payURL := fmt.Sprintf("https://pay.example.com/qr?orderNo=%s&method=%s", order.OrderNo, method)
	return payURL, order.OrderNo, nil
}

// GetPaymentStatus maps the order's internal status onto the coarse
// paid/pending/failed/unknown vocabulary the storefront polls for.
func GetPaymentStatus(db *gorm.DB, orderID uint) (string, error) {
	var order models.Order
	if err := db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", common.E(common.ErrNotFound, "order %d does not exist", orderID)
		}
		return "", err
	}
	return order.Status.PaymentStatus(), nil
}

// -------- Handlers --------

// POST /orders/:id/pay
func InitiatePaymentHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.CurrentUserID(c)
		if !ok {
			common.RespondError(c, common.ErrUnauthorized)
			return
		}
		orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			common.RespondError(c, common.E(common.ErrValidation, "invalid order id"))
			return
		}
		var req InitiatePaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			common.RespondError(c, common.E(common.ErrValidation, "%v", err))
			return
		}

		payURL, orderNo, err := InitiatePayment(db, uint(orderID), userID, req.Method)
		if err != nil {
			common.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"pay_url": payURL, "order_no": orderNo})
	}
}

// GET /payments/status/:orderId
func PaymentStatusHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := strconv.ParseUint(c.Param("orderId"), 10, 64)
		if err != nil {
			common.RespondError(c, common.E(common.ErrValidation, "invalid order id"))
			return
		}
		status, err := GetPaymentStatus(db, uint(orderID))
		if err != nil {
			common.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": status})
	}
}
