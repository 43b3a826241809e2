package cartControllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/DemonsTA4/shopping-mall/common"
	"github.com/DemonsTA4/shopping-mall/middleware"
	"github.com/DemonsTA4/shopping-mall/models"
)

type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type SetSelectedRequest struct {
	Selected *bool `json:"selected" binding:"required"`
}

// CartItemView joins the cart row with live product data for display.
type CartItemView struct {
	ID           uint            `json:"id"`
	ProductID    uint            `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image"`
	ProductPrice decimal.Decimal `json:"product_price"`
	ProductStock int             `json:"product_stock"`
	Quantity     int             `json:"quantity"`
	Selected     bool            `json:"selected"`
}

// -------- Core Logic --------

func getOrCreateCart(tx *gorm.DB, userID string) (*models.Cart, error) {
	var cart models.Cart
	err := tx.Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = models.Cart{UserID: userID}
		err = tx.Create(&cart).Error
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// findOwnedItem loads a cart item and verifies it belongs to the caller's
// cart. A foreign item is reported as not found, never as someone else's.
func findOwnedItem(tx *gorm.DB, userID string, itemID uint) (*models.CartItem, error) {
	cart, err := getOrCreateCart(tx, userID)
	if err != nil {
		return nil, err
	}
	var item models.CartItem
	err = tx.Where("id = ? AND cart_id = ?", itemID, cart.ID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.E(common.ErrNotFound, "cart item %d does not exist", itemID)
		}
		return nil, err
	}
	return &item, nil
}

// AddToCart puts quantity units of a product into the user's cart, merging
// into the existing row if the product is already there.
func AddToCart(db *gorm.DB, userID string, productID uint, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, common.E(common.ErrValidation, "quantity must be positive")
	}

	var result models.CartItem
	err := db.Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, "id = ?", productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.E(common.ErrNotFound, "product %d does not exist", productID)
			}
			return err
		}

		cart, err := getOrCreateCart(tx, userID)
		if err != nil {
			return err
		}

		var item models.CartItem
		err = tx.Where("cart_id = ? AND product_id = ?", cart.ID, productID).First(&item).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if product.Stock < quantity {
				return common.E(common.ErrInsufficientStock,
					"product %q: requested %d, available %d", product.Name, quantity, product.Stock)
			}
			item = models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: quantity, Selected: true}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			newQuantity := item.Quantity + quantity
			if product.Stock < newQuantity {
				return common.E(common.ErrInsufficientStock,
					"product %q: requested %d, available %d", product.Name, newQuantity, product.Stock)
			}
			item.Quantity = newQuantity
			item.Selected = true
			if err := tx.Save(&item).Error; err != nil {
				return err
			}
		}
		result = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateQuantity sets a cart item's quantity. A quantity of zero or less
// removes the item; that is the documented behaviour, not an error.
func UpdateQuantity(db *gorm.DB, userID string, itemID uint, quantity int) (*models.CartItem, bool, error) {
	var (
		result  models.CartItem
		removed bool
	)
	err := db.Transaction(func(tx *gorm.DB) error {
		item, err := findOwnedItem(tx, userID, itemID)
		if err != nil {
			return err
		}

		if quantity <= 0 {
			removed = true
			return tx.Delete(item).Error
		}

		var product models.Product
		if err := tx.First(&product, "id = ?", item.ProductID).Error; err != nil {
			return err
		}
		if product.Stock < quantity {
			return common.E(common.ErrInsufficientStock,
				"product %q: requested %d, available %d", product.Name, quantity, product.Stock)
		}

		item.Quantity = quantity
		if err := tx.Save(item).Error; err != nil {
			return err
		}
		result = *item
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if removed {
		return nil, true, nil
	}
	return &result, false, nil
}

// SetSelected toggles a single item's checkout selection.
func SetSelected(db *gorm.DB, userID string, itemID uint, selected bool) (*models.CartItem, error) {
	var result models.CartItem
	err := db.Transaction(func(tx *gorm.DB) error {
		item, err := findOwnedItem(tx, userID, itemID)
		if err != nil {
			return err
		}
		item.Selected = selected
		if err := tx.Model(item).Update("selected", selected).Error; err != nil {
			return err
		}
		result = *item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// SetAllSelected applies the selection flag to every item in one transaction.
func SetAllSelected(db *gorm.DB, userID string, selected bool) error {
	return db.Transaction(func(tx *gorm.DB) error {
		cart, err := getOrCreateCart(tx, userID)
		if err != nil {
			return err
		}
		return tx.Model(&models.CartItem{}).
			Where("cart_id = ?", cart.ID).
			Update("selected", selected).Error
	})
}

// RemoveItem deletes a cart item after the ownership check.
func RemoveItem(db *gorm.DB, userID string, itemID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		item, err := findOwnedItem(tx, userID, itemID)
		if err != nil {
			return err
		}
		return tx.Delete(item).Error
	})
}

// ClearCart empties the user's cart in one transaction. The cart row itself
// survives; carts are only ever emptied, never deleted.
func ClearCart(db *gorm.DB, userID string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		cart, err := getOrCreateCart(tx, userID)
		if err != nil {
			return err
		}
		return tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error
	})
}

// ListItems returns the cart contents joined with live product data.
func ListItems(db *gorm.DB, userID string) ([]CartItemView, error) {
	var cart models.Cart
	err := db.Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []CartItemView{}, nil
	}
	if err != nil {
		return nil, err
	}

	var items []models.CartItem
	if err := db.Preload("Product").Where("cart_id = ?", cart.ID).
		Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}

	views := make([]CartItemView, 0, len(items))
	for _, item := range items {
		views = append(views, CartItemView{
			ID:           item.ID,
			ProductID:    item.ProductID,
			ProductName:  item.Product.Name,
			ProductImage: item.Product.ImageURL,
			ProductPrice: item.Product.Price,
			ProductStock: item.Product.Stock,
			Quantity:     item.Quantity,
			Selected:     item.Selected,
		})
	}
	return views, nil
}

// CountItems returns the number of distinct items in the user's cart.
func CountItems(db *gorm.DB, userID string) (int64, error) {
	var cart models.Cart
	err := db.Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var count int64
	err = db.Model(&models.CartItem{}).Where("cart_id = ?", cart.ID).Count(&count).Error
	return count, err
}

// -------- Handlers --------

func requireUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		common.RespondError(c, common.ErrUnauthorized)
		return "", false
	}
	return userID, true
}

func itemIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		common.RespondError(c, common.E(common.ErrValidation, "invalid cart item id"))
		return 0, false
	}
	return uint(id), true
}

// GET /user/cart
func GetCartHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		items, err := ListItems(db, userID)
		if err != nil {
			common.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// GET /user/cart/count
func CartCountHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		count, err := CountItems(db, userID)
		if err != nil {
			common.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": count})
	}
}

// POST /user/cart
func AddToCartHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		var req AddToCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			common.RespondError(c, common.E(common.ErrValidation, "%v", err))
			return
		}
		item, err := AddToCart(db, userID, req.ProductID, req.Quantity)
		if err != nil {
			common.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

// PUT /user/cart/items/:id
func UpdateQuantityHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		itemID, ok := itemIDParam(c)
		if !ok {
			return
		}
		var req UpdateQuantityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			common.RespondError(c, common.E(common.ErrValidation, "%v", err))
			return
		}
		item, removed, err := UpdateQuantity(db, userID, itemID, req.Quantity)
		if err != nil {
			common.RespondError(c, err)
			return
		}
		if removed {
			c.JSON(http.StatusOK, gin.H{"removed": true})
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

// PUT /user/cart/items/:id/selected
func SetSelectedHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		itemID, ok := itemIDParam(c)
		if !ok {
			return
		}
		var req SetSelectedRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			common.RespondError(c, common.E(common.ErrValidation, "%v", err))
			return
		}
		item, err := SetSelected(db, userID, itemID, *req.Selected)
		if err != nil {
			common.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

// PUT /user/cart/selected
func SetAllSelectedHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		var req SetSelectedRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			common.RespondError(c, common.E(common.ErrValidation, "%v", err))
			return
		}
		if err := SetAllSelected(db, userID, *req.Selected); err != nil {
			common.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "cart updated"})
	}
}

// DELETE /user/cart/items/:id
func RemoveItemHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		itemID, ok := itemIDParam(c)
		if !ok {
			return
		}
		if err := RemoveItem(db, userID, itemID); err != nil {
			common.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "cart item deleted"})
	}
}

// DELETE /user/cart
func ClearCartHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		if err := ClearCart(db, userID); err != nil {
			common.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
	}
}
