package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	addressControllers "github.com/DemonsTA4/shopping-mall/controllers/address"
	cartControllers "github.com/DemonsTA4/shopping-mall/controllers/cart"
	userControllers "github.com/DemonsTA4/shopping-mall/controllers/user"
	"github.com/DemonsTA4/shopping-mall/middleware"
)

// SetupUserRoutes registers all "/user/*" endpoints. Requires JWT middleware.
func SetupUserRoutes(r *gin.Engine, db *gorm.DB) {
	userGroup := r.Group("/user")
	userGroup.Use(middleware.ValidateToken)
	{
		// ──────────────── User Profile ────────────────
		userGroup.GET("/", userControllers.GetUserHandler(db))
		userGroup.PUT("/", userControllers.UpdateUserHandler(db))

		// ──────────────── Shopping Cart ────────────────
		cartGroup := userGroup.Group("/cart")
		{
			cartGroup.GET("/", cartControllers.GetCartHandler(db))
			cartGroup.GET("/count", cartControllers.CartCountHandler(db))
			cartGroup.POST("/", cartControllers.AddToCartHandler(db))
			cartGroup.PUT("/items/:id", cartControllers.UpdateQuantityHandler(db))
			cartGroup.PUT("/items/:id/selected", cartControllers.SetSelectedHandler(db))
			cartGroup.PUT("/selected", cartControllers.SetAllSelectedHandler(db))
			cartGroup.DELETE("/items/:id", cartControllers.RemoveItemHandler(db))
			cartGroup.DELETE("/", cartControllers.ClearCartHandler(db))
		}

		// ──────────────── Address Book ────────────────
		addressGroup := userGroup.Group("/addresses")
		{
			addressGroup.GET("/", addressControllers.ListAddressesHandler(db))
			addressGroup.POST("/", addressControllers.CreateAddressHandler(db))
			addressGroup.PUT("/:id", addressControllers.UpdateAddressHandler(db))
			addressGroup.DELETE("/:id", addressControllers.DeleteAddressHandler(db))
		}
	}
}
