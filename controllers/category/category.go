package categoryControllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/DemonsTA4/shopping-mall/common"
	"github.com/DemonsTA4/shopping-mall/models"
)

type CategoryRequest struct {
	Name      string `json:"name" binding:"required"`
	SortOrder int    `json:"sort_order"`
}

// GET /categories
func GetCategoriesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var categories []models.Category
		if err := db.Order("sort_order ASC, name ASC").Find(&categories).Error; err != nil {
			common.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}

// POST /admin/categories
func CreateCategoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			common.RespondError(c, common.E(common.ErrValidation, "%v", err))
			return
		}
		category := models.Category{Name: req.Name, SortOrder: req.SortOrder}
		if err := db.Create(&category).Error; err != nil {
			common.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, category)
	}
}

// PUT /admin/categories/:id
func UpdateCategoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var category models.Category
		if err := db.First(&category, "id = ?", c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				common.RespondError(c, common.E(common.ErrNotFound, "category %s does not exist", c.Param("id")))
				return
			}
			common.RespondError(c, err)
			return
		}
		var req CategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			common.RespondError(c, common.E(common.ErrValidation, "%v", err))
			return
		}
		category.Name = req.Name
		category.SortOrder = req.SortOrder
		if err := db.Save(&category).Error; err != nil {
			common.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, category)
	}
}

// DELETE /admin/categories/:id
func DeleteCategoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := db.Delete(&models.Category{}, "id = ?", c.Param("id"))
		if res.Error != nil {
			common.RespondError(c, res.Error)
			return
		}
		if res.RowsAffected == 0 {
			common.RespondError(c, common.E(common.ErrNotFound, "category %s does not exist", c.Param("id")))
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "category deleted"})
	}
}
