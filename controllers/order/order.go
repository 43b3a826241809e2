package orderControllers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/DemonsTA4/shopping-mall/cache"
	"github.com/DemonsTA4/shopping-mall/common"
	"github.com/DemonsTA4/shopping-mall/middleware"
	"github.com/DemonsTA4/shopping-mall/models"
)

// -------- Request Structs --------

type OrderItemRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
	Specs     string `json:"specs"`
}

type CreateOrderRequest struct {
	Items              []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	AddressID          *uint              `json:"address_id"`
	ShippingAddress    string             `json:"shipping_address"`
	ReceiverName       string             `json:"receiver_name"`
	ReceiverPhone      string             `json:"receiver_phone"`
	ReceiverProvince   string             `json:"receiver_province"`
	ReceiverCity       string             `json:"receiver_city"`
	ReceiverDistrict   string             `json:"receiver_district"`
	ReceiverPostalCode string             `json:"receiver_postal_code"`
	Note               string             `json:"note"`
	PaymentMethod      int                `json:"payment_method"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// -------- Pricing --------

var (
	freeShippingThreshold = decimal.NewFromInt(99)
	flatFreight           = decimal.RequireFromString("10.00")
)

func calculateFreight(total decimal.Decimal) decimal.Decimal {
	if total.GreaterThanOrEqual(freeShippingThreshold) {
		return decimal.Zero
	}
	return flatFreight
}

// generateOrderNo builds the human-facing order number: timestamp down to
// milliseconds plus a 6-char random suffix.
func generateOrderNo() string {
	now := time.Now()
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return now.Format("20060102150405") + fmt.Sprintf("%03d", now.Nanosecond()/1e6) + suffix
}

// -------- Core Logic --------

// CreateOrder converts an item list plus shipping info into a persisted
// order. Stock reservation, price snapshotting and order creation commit as
// one transaction: either the whole order exists with its stock decrements,
// or nothing does.
func CreateOrder(db *gorm.DB, userID string, req CreateOrderRequest) (*models.Order, error) {
	var buyer models.User
	if err := db.First(&buyer, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.E(common.ErrNotFound, "user %s does not exist", userID)
		}
		return nil, err
	}

	if len(req.Items) == 0 {
		return nil, common.E(common.ErrValidation, "order items must not be empty")
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, common.E(common.ErrValidation, "quantity for product %d must be positive", item.ProductID)
		}
	}

	if req.AddressID != nil {
		var addr models.Address
		err := db.Where("id = ? AND user_id = ?", *req.AddressID, userID).First(&addr).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, common.E(common.ErrNotFound, "address %d does not exist", *req.AddressID)
			}
			return nil, err
		}
		req.ReceiverName = addr.ReceiverName
		req.ReceiverPhone = addr.ReceiverPhone
		req.ReceiverProvince = addr.Province
		req.ReceiverCity = addr.City
		req.ReceiverDistrict = addr.District
		req.ReceiverPostalCode = addr.PostalCode
		req.ShippingAddress = addr.DetailAddress
	}
	if strings.TrimSpace(req.ShippingAddress) == "" {
		return nil, common.E(common.ErrValidation, "shipping address must not be blank")
	}

	var order models.Order
	err := db.Transaction(func(tx *gorm.DB) error {
		total := decimal.Zero
		var orderItems []models.OrderItem

		for _, item := range req.Items {
			var product models.Product
			if err := tx.First(&product, "id = ?", item.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return common.E(common.ErrNotFound, "product %d does not exist", item.ProductID)
				}
				return err
			}

			// Guarded decrement: the WHERE clause re-checks stock so two
			// concurrent checkouts can never both succeed past availability.
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", product.ID, item.Quantity).
				Update("stock", gorm.Expr("stock - ?", item.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return common.E(common.ErrInsufficientStock,
					"product %q: requested %d, available %d", product.Name, item.Quantity, product.Stock)
			}

			unitPrice := product.Price
			orderItems = append(orderItems, models.OrderItem{
				ProductID:    product.ID,
				ProductName:  product.Name,
				ProductImage: product.ImageURL,
				ProductSpecs: item.Specs,
				UnitPrice:    unitPrice,
				Quantity:     item.Quantity,
				Subtotal:     unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
			})
			total = total.Add(orderItems[len(orderItems)-1].Subtotal)
		}

		freight := calculateFreight(total)
		order = models.Order{
			OrderNo:            generateOrderNo(),
			UserID:             buyer.ID,
			Items:              orderItems,
			TotalAmount:        total,
			FreightAmount:      freight,
			PayAmount:          total.Add(freight),
			Status:             models.OrderStatusPendingPayment,
			PayType:            req.PaymentMethod,
			ReceiverName:       req.ReceiverName,
			ReceiverPhone:      req.ReceiverPhone,
			ReceiverProvince:   req.ReceiverProvince,
			ReceiverCity:       req.ReceiverCity,
			ReceiverDistrict:   req.ReceiverDistrict,
			ReceiverAddress:    req.ShippingAddress,
			ReceiverPostalCode: req.ReceiverPostalCode,
			Note:               req.Note,
		}
		return tx.Create(&order).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CancelOrder reverses the order's stock reservation and flips it to
// cancelled, atomically. Only the buyer may cancel, and only from
// pending_payment or awaiting_shipment.
func CancelOrder(db *gorm.DB, orderID uint, userID string) (*models.Order, error) {
	var order models.Order
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.E(common.ErrNotFound, "order %d does not exist", orderID)
			}
			return err
		}
		if order.UserID != userID {
			return common.E(common.ErrForbidden, "access denied")
		}
		if order.Status != models.OrderStatusPendingPayment && order.Status != models.OrderStatusAwaitingShipment {
			return common.E(common.ErrOrderStatus, "order %s is %s and cannot be cancelled", order.OrderNo, order.Status)
		}

		// Compensating action for the reservation made at creation time.
		for _, item := range order.Items {
			res := tx.Model(&models.Product{}).Unscoped().
				Where("id = ?", item.ProductID).
				Update("stock", gorm.Expr("stock + ?", item.Quantity))
			if res.Error != nil {
				return res.Error
			}
		}

		order.Status = models.OrderStatusCancelled
		return tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Update("status", models.OrderStatusCancelled).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderStatus applies an administrative status transition. Transitions
// are validated against the state machine; entering a state sets its
// timestamp exactly once.
func UpdateOrderStatus(db *gorm.DB, orderID uint, target models.OrderStatus) (*models.Order, error) {
	var order models.Order
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.E(common.ErrNotFound, "order %d does not exist", orderID)
			}
			return err
		}
		if order.Status.IsTerminal() {
			return common.E(common.ErrOrderStatus, "order %s is %s (terminal)", order.OrderNo, order.Status)
		}
		if !order.Status.CanTransition(target) {
			return common.E(common.ErrOrderStatus, "cannot move order %s from %s to %s", order.OrderNo, order.Status, target)
		}

		now := time.Now()
		updates := map[string]interface{}{"status": target}
		if target.IsPaid() && !order.Status.IsPaid() && order.PayTime == nil {
			order.PayTime = &now
			updates["pay_time"] = &now
		}
		if target == models.OrderStatusShipped && order.DeliveryTime == nil {
			order.DeliveryTime = &now
			updates["delivery_time"] = &now
		}
		if target == models.OrderStatusCompleted && order.ReceiveTime == nil {
			order.ReceiveTime = &now
			updates["receive_time"] = &now
		}
		order.Status = target
		return tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByNo fetches an order by its order number, enforcing ownership.
func GetOrderByNo(db *gorm.DB, orderNo, userID string) (*models.Order, error) {
	var order models.Order
	if err := db.Preload("Items").First(&order, "order_no = ?", orderNo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.E(common.ErrNotFound, "order %s does not exist", orderNo)
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, common.E(common.ErrForbidden, "access denied")
	}
	return &order, nil
}

// ListOrders returns a page of orders, newest first. userID == "" lists all
// orders (admin); a non-nil status narrows the page.
func ListOrders(db *gorm.DB, userID string, status *models.OrderStatus, page, size int) ([]models.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 10
	}

	q := db.Model(&models.Order{})
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if status != nil {
		q = q.Where("status = ?", *status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := q.Preload("Items").
		Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&orders).Error
	return orders, total, err
}

// clearPurchasedCartItems drops the ordered products from the buyer's cart.
// Best effort only: the order is already committed, a failure here must not
// undo it.
func clearPurchasedCartItems(db *gorm.DB, userID string, items []models.OrderItem) {
	var cart models.Cart
	if err := db.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return
	}
	productIDs := make([]uint, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}
	if err := db.Where("cart_id = ? AND product_id IN ?", cart.ID, productIDs).
		Delete(&models.CartItem{}).Error; err != nil {
		log.Printf("failed to clear purchased cart items for user %s: %v", userID, err)
	}
}

// parseStatusFilter accepts either a status word or the storefront's legacy
// numeric code. "" and "0" mean no filter.
func parseStatusFilter(raw string) (*models.OrderStatus, error) {
	if raw == "" || raw == "0" {
		return nil, nil
	}
	if code, err := strconv.Atoi(raw); err == nil {
		status, ok := models.OrderStatusFromCode(code)
		if !ok {
			return nil, common.E(common.ErrValidation, "unknown status code %d", code)
		}
		return &status, nil
	}
	status, err := models.ParseOrderStatus(raw)
	if err != nil {
		return nil, common.E(common.ErrValidation, "%v", err)
	}
	return &status, nil
}

// -------- Handlers --------

// POST /orders
func CreateOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.CurrentUserID(c)
		if !ok {
			common.RespondError(c, common.ErrUnauthorized)
			return
		}
		var req CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			common.RespondError(c, common.E(common.ErrValidation, "%v", err))
			return
		}

		order, err := CreateOrder(db, userID, req)
		if err != nil {
			common.RespondError(c, err)
			return
		}

		// Follow-ups outside the transaction: none of these may fail the order.
		clearPurchasedCartItems(db, userID, order.Items)
		broadcastNewOrder(*order)
		cache.InvalidateProducts(c.Request.Context())

		c.JSON(http.StatusOK, order)
	}
}

// GET /orders
func ListUserOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.CurrentUserID(c)
		if !ok {
			common.RespondError(c, common.ErrUnauthorized)
			return
		}
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
		status, err := parseStatusFilter(c.Query("status"))
		if err != nil {
			common.RespondError(c, err)
			return
		}

		orders, total, err := ListOrders(db, userID, status, page, size)
		if err != nil {
			common.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": orders, "total": total, "page": page, "size": size})
	}
}

// GET /orders/:orderNo
func GetOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.CurrentUserID(c)
		if !ok {
			common.RespondError(c, common.ErrUnauthorized)
			return
		}
		order, err := GetOrderByNo(db, c.Param("orderNo"), userID)
		if err != nil {
			common.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// POST /orders/:id/cancel
func CancelOrderHandler(db *gorm.DB) gin.HandlerFunc {
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

		order, err := CancelOrder(db, uint(orderID), userID)
		if err != nil {
			common.RespondError(c, err)
			return
		}
		cache.InvalidateProducts(c.Request.Context())
		c.JSON(http.StatusOK, order)
	}
}

// GET /admin/orders
func ListAllOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
		status, err := parseStatusFilter(c.Query("status"))
		if err != nil {
			common.RespondError(c, err)
			return
		}

		orders, total, err := ListOrders(db, "", status, page, size)
		if err != nil {
			common.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": orders, "total": total, "page": page, "size": size})
	}
}

// PUT /admin/orders/:id/status
func UpdateOrderStatusHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			common.RespondError(c, common.E(common.ErrValidation, "invalid order id"))
			return
		}
		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			common.RespondError(c, common.E(common.ErrValidation, "%v", err))
			return
		}
		target, err := models.ParseOrderStatus(req.Status)
		if err != nil {
			common.RespondError(c, common.E(common.ErrValidation, "%v", err))
			return
		}

		order, err := UpdateOrderStatus(db, uint(orderID), target)
		if err != nil {
			common.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
