package productControllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/DemonsTA4/shopping-mall/cache"
	"github.com/DemonsTA4/shopping-mall/common"
	"github.com/DemonsTA4/shopping-mall/models"
)

type ProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	ImageURL    string          `json:"image_url"`
	Stock       int             `json:"stock"`
	CategoryID  uint            `json:"category_id"`
}

type AdjustStockRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// GET /products — paged public listing, served from the redis cache when a
// fresh entry exists for the same query.
func GetProductsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
		if page < 1 {
			page = 1
		}
		if size < 1 || size > 100 {
			size = 20
		}
		keyword := c.Query("keyword")
		categoryID := c.Query("category_id")

		cacheKey := fmt.Sprintf("p%d:s%d:k%s:c%s", page, size, keyword, categoryID)
		if payload, ok := cache.GetProductList(c.Request.Context(), cacheKey); ok {
			c.Data(http.StatusOK, "application/json", []byte(payload))
			return
		}

		q := db.Model(&models.Product{})
		if keyword != "" {
			q = q.Where("name LIKE ?", "%"+keyword+"%")
		}
		if categoryID != "" {
			q = q.Where("category_id = ?", categoryID)
		}

		var total int64
		if err := q.Count(&total).Error; err != nil {
			common.RespondError(c, err)
			return
		}
		var products []models.Product
		if err := q.Order("created_at DESC").Offset((page - 1) * size).Limit(size).
			Find(&products).Error; err != nil {
			common.RespondError(c, err)
			return
		}

		body := gin.H{"items": products, "total": total, "page": page, "size": size}
		if payload, err := json.Marshal(body); err == nil {
			cache.SetProductList(c.Request.Context(), cacheKey, string(payload))
		}
		c.JSON(http.StatusOK, body)
	}
}

// GET /products/:id
func GetProductByIDHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var product models.Product
		if err := db.First(&product, "id = ?", c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				common.RespondError(c, common.E(common.ErrNotFound, "product %s does not exist", c.Param("id")))
				return
			}
			common.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

// POST /admin/products
func CreateProductHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			common.RespondError(c, common.E(common.ErrValidation, "%v", err))
			return
		}
		if req.Price.IsNegative() {
			common.RespondError(c, common.E(common.ErrValidation, "price must not be negative"))
			return
		}
		if req.Stock < 0 {
			common.RespondError(c, common.E(common.ErrValidation, "stock must not be negative"))
			return
		}

		product := models.Product{
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			ImageURL:    req.ImageURL,
			Stock:       req.Stock,
			CategoryID:  req.CategoryID,
		}
		if err := db.Create(&product).Error; err != nil {
			common.RespondError(c, err)
			return
		}
		cache.InvalidateProducts(c.Request.Context())
		c.JSON(http.StatusOK, product)
	}
}

// PUT /admin/products/:id
func UpdateProductHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var product models.Product
		if err := db.First(&product, "id = ?", c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				common.RespondError(c, common.E(common.ErrNotFound, "product %s does not exist", c.Param("id")))
				return
			}
			common.RespondError(c, err)
			return
		}

		var req ProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			common.RespondError(c, common.E(common.ErrValidation, "%v", err))
			return
		}
		if req.Price.IsNegative() {
			common.RespondError(c, common.E(common.ErrValidation, "price must not be negative"))
			return
		}

		product.Name = req.Name
		product.Description = req.Description
		product.Price = req.Price
		product.ImageURL = req.ImageURL
		product.CategoryID = req.CategoryID
		if err := db.Save(&product).Error; err != nil {
			common.RespondError(c, err)
			return
		}
		cache.InvalidateProducts(c.Request.Context())
		c.JSON(http.StatusOK, product)
	}
}

// PUT /admin/products/:id/stock — relative adjustment, guarded so stock can
// never go negative.
func AdjustStockHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AdjustStockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			common.RespondError(c, common.E(common.ErrValidation, "%v", err))
			return
		}

		res := db.Model(&models.Product{}).
			Where("id = ? AND stock + ? >= 0", c.Param("id"), req.Delta).
			Update("stock", gorm.Expr("stock + ?", req.Delta))
		if res.Error != nil {
			common.RespondError(c, res.Error)
			return
		}
		if res.RowsAffected == 0 {
			common.RespondError(c, common.E(common.ErrInsufficientStock,
				"product %s: adjustment by %d would drive stock negative, or product does not exist", c.Param("id"), req.Delta))
			return
		}
		cache.InvalidateProducts(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"message": "stock updated"})
	}
}

// DELETE /admin/products/:id — soft delete; historical order items keep
// their snapshots regardless.
func DeleteProductHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := db.Delete(&models.Product{}, "id = ?", c.Param("id"))
		if res.Error != nil {
			common.RespondError(c, res.Error)
			return
		}
		if res.RowsAffected == 0 {
			common.RespondError(c, common.E(common.ErrNotFound, "product %s does not exist", c.Param("id")))
			return
		}
		cache.InvalidateProducts(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
	}
}
