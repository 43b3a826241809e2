package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	categoryControllers "github.com/DemonsTA4/shopping-mall/controllers/category"
	productControllers "github.com/DemonsTA4/shopping-mall/controllers/product"
	userControllers "github.com/DemonsTA4/shopping-mall/controllers/user"
)

// SetupAuthRoutes registers the public endpoints: account creation, login,
// and the browsable catalog.
func SetupAuthRoutes(r *gin.Engine, db *gorm.DB) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", userControllers.RegisterHandler(db))
		auth.POST("/login", userControllers.LoginHandler(db))
	}

	r.GET("/products", productControllers.GetProductsHandler(db))
	r.GET("/products/:id", productControllers.GetProductByIDHandler(db))
	r.GET("/categories", categoryControllers.GetCategoriesHandler(db))
}
