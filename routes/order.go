package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	orderControllers "github.com/DemonsTA4/shopping-mall/controllers/order"
	paymentControllers "github.com/DemonsTA4/shopping-mall/controllers/payment"
	"github.com/DemonsTA4/shopping-mall/middleware"
)

// SetupOrderRoutes registers the buyer-facing order and payment endpoints.
func SetupOrderRoutes(r *gin.Engine, db *gorm.DB) {
	orders := r.Group("/orders")
	orders.Use(middleware.ValidateToken)
	{
		orders.POST("", orderControllers.CreateOrderHandler(db))
		orders.GET("", orderControllers.ListUserOrdersHandler(db))
		orders.GET("/:orderNo", orderControllers.GetOrderHandler(db))
		orders.POST("/:id/cancel", orderControllers.CancelOrderHandler(db))
		orders.POST("/:id/pay", paymentControllers.InitiatePaymentHandler(db))
	}

	payments := r.Group("/payments")
	payments.Use(middleware.ValidateToken)
	{
		payments.GET("/status/:orderId", paymentControllers.PaymentStatusHandler(db))
	}
}
