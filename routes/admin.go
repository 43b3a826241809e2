package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	categoryControllers "github.com/DemonsTA4/shopping-mall/controllers/category"
	orderControllers "github.com/DemonsTA4/shopping-mall/controllers/order"
	productControllers "github.com/DemonsTA4/shopping-mall/controllers/product"
	"github.com/DemonsTA4/shopping-mall/middleware"
)

// SetupAdminRoutes registers the "/admin/*" endpoints. Requires the API key;
// admin operations skip per-order ownership checks.
func SetupAdminRoutes(r *gin.Engine, db *gorm.DB) {
	admin := r.Group("/admin")
	admin.Use(middleware.ValidateAPIKey)
	{
		// ──────────────── Products ────────────────
		admin.POST("/products", productControllers.CreateProductHandler(db))
		admin.PUT("/products/:id", productControllers.UpdateProductHandler(db))
		admin.PUT("/products/:id/stock", productControllers.AdjustStockHandler(db))
		admin.DELETE("/products/:id", productControllers.DeleteProductHandler(db))

		// ──────────────── Categories ────────────────
		admin.POST("/categories", categoryControllers.CreateCategoryHandler(db))
		admin.PUT("/categories/:id", categoryControllers.UpdateCategoryHandler(db))
		admin.DELETE("/categories/:id", categoryControllers.DeleteCategoryHandler(db))

		// ──────────────── Orders ────────────────
		admin.GET("/orders", orderControllers.ListAllOrdersHandler(db))
		admin.PUT("/orders/:id/status", orderControllers.UpdateOrderStatusHandler(db))
		admin.GET("/orders/export", orderControllers.ExportOrdersToExcel(db))
		admin.GET("/orders/ws", orderControllers.OrderWebSocketHandler)
	}
}
