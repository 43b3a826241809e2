package orderControllers

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/DemonsTA4/shopping-mall/common"
	"github.com/DemonsTA4/shopping-mall/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Category{}, &models.Product{}, &models.Address{},
		&models.Cart{}, &models.CartItem{}, &models.Order{}, &models.OrderItem{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, id string) *models.User {
	t.Helper()
	user := models.User{ID: id, Username: "user-" + id, Email: id + "@example.com", Password: "x"}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price string, stock int) *models.Product {
	t.Helper()
	product := models.Product{Name: name, Price: decimal.RequireFromString(price), Stock: stock}
	require.NoError(t, db.Create(&product).Error)
	return &product
}

func productStock(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var product models.Product
	require.NoError(t, db.Unscoped().First(&product, id).Error)
	return product.Stock
}

func basicRequest(items ...OrderItemRequest) CreateOrderRequest {
	return CreateOrderRequest{
		Items:           items,
		ShippingAddress: "1 Main St",
		ReceiverName:    "Alex",
		ReceiverPhone:   "555-0100",
	}
}

func TestCreateOrderReservesStockAndSnapshotsPrice(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")
	product := seedProduct(t, db, "Mug", "10.00", 5)

	order, err := CreateOrder(db, "u1", basicRequest(OrderItemRequest{ProductID: product.ID, Quantity: 5}))
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPendingPayment, order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("50.00")), "total = %s", order.TotalAmount)
	assert.True(t, order.FreightAmount.Equal(decimal.RequireFromString("10.00")), "freight = %s", order.FreightAmount)
	assert.True(t, order.PayAmount.Equal(decimal.RequireFromString("60.00")), "pay = %s", order.PayAmount)
	assert.Equal(t, 0, productStock(t, db, product.ID))

	require.Len(t, order.Items, 1)
	item := order.Items[0]
	assert.Equal(t, "Mug", item.ProductName)
	assert.Equal(t, 5, item.Quantity)
	assert.True(t, item.UnitPrice.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, item.Subtotal.Equal(decimal.RequireFromString("50.00")))

	// Later catalog edits must not leak into the committed order.
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", product.ID).
		Update("price", decimal.RequireFromString("99.99")).Error)
	reloaded, err := GetOrderByNo(db, order.OrderNo, "u1")
	require.NoError(t, err)
	assert.True(t, reloaded.Items[0].UnitPrice.Equal(decimal.RequireFromString("10.00")))
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")
	product := seedProduct(t, db, "Mug", "10.00", 5)

	_, err := CreateOrder(db, "u1", basicRequest(OrderItemRequest{ProductID: product.ID, Quantity: 6}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInsufficientStock))

	assert.Equal(t, 5, productStock(t, db, product.ID))
	var count int64
	require.NoError(t, db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateOrderExactStockBoundary(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")
	product := seedProduct(t, db, "Mug", "10.00", 3)

	_, err := CreateOrder(db, "u1", basicRequest(OrderItemRequest{ProductID: product.ID, Quantity: 3}))
	require.NoError(t, err)
	assert.Equal(t, 0, productStock(t, db, product.ID))

	// Nothing left for the next buyer.
	_, err = CreateOrder(db, "u1", basicRequest(OrderItemRequest{ProductID: product.ID, Quantity: 1}))
	assert.True(t, errors.Is(err, common.ErrInsufficientStock))
}

func TestCreateOrderFreeShippingOverThreshold(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")
	product := seedProduct(t, db, "Lamp", "50.00", 10)

	order, err := CreateOrder(db, "u1", basicRequest(OrderItemRequest{ProductID: product.ID, Quantity: 2}))
	require.NoError(t, err)
	assert.True(t, order.FreightAmount.IsZero(), "freight = %s", order.FreightAmount)
	assert.True(t, order.PayAmount.Equal(decimal.RequireFromString("100.00")))
}

func TestCreateOrderMultiItemRollback(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")
	first := seedProduct(t, db, "Mug", "10.00", 5)
	second := seedProduct(t, db, "Lamp", "50.00", 1)

	_, err := CreateOrder(db, "u1", basicRequest(
		OrderItemRequest{ProductID: first.ID, Quantity: 2},
		OrderItemRequest{ProductID: second.ID, Quantity: 2},
	))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInsufficientStock))

	// The first item's decrement must roll back with the failed order.
	assert.Equal(t, 5, productStock(t, db, first.ID))
	assert.Equal(t, 1, productStock(t, db, second.ID))
}

func TestCreateOrderValidation(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")
	product := seedProduct(t, db, "Mug", "10.00", 5)

	_, err := CreateOrder(db, "u1", basicRequest())
	assert.True(t, errors.Is(err, common.ErrValidation), "empty items: %v", err)

	req := basicRequest(OrderItemRequest{ProductID: product.ID, Quantity: 1})
	req.ShippingAddress = "   "
	_, err = CreateOrder(db, "u1", req)
	assert.True(t, errors.Is(err, common.ErrValidation), "blank address: %v", err)

	_, err = CreateOrder(db, "u1", basicRequest(OrderItemRequest{ProductID: 9999, Quantity: 1}))
	assert.True(t, errors.Is(err, common.ErrNotFound), "unknown product: %v", err)

	_, err = CreateOrder(db, "ghost", basicRequest(OrderItemRequest{ProductID: product.ID, Quantity: 1}))
	assert.True(t, errors.Is(err, common.ErrNotFound), "unknown user: %v", err)

	assert.Equal(t, 5, productStock(t, db, product.ID))
}

func TestCreateOrderFromAddressBook(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")
	seedUser(t, db, "u2")
	product := seedProduct(t, db, "Mug", "10.00", 5)

	addr := models.Address{
		UserID: "u1", ReceiverName: "Alex", ReceiverPhone: "555-0100",
		Province: "Ontario", City: "Toronto", District: "Downtown",
		DetailAddress: "1 Main St", PostalCode: "M5V",
	}
	require.NoError(t, db.Create(&addr).Error)

	req := CreateOrderRequest{
		Items:     []OrderItemRequest{{ProductID: product.ID, Quantity: 1}},
		AddressID: &addr.ID,
	}
	order, err := CreateOrder(db, "u1", req)
	require.NoError(t, err)
	assert.Equal(t, "Alex", order.ReceiverName)
	assert.Equal(t, "Toronto", order.ReceiverCity)
	assert.Equal(t, "1 Main St", order.ReceiverAddress)

	// Someone else's address is invisible.
	_, err = CreateOrder(db, "u2", req)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestCancelOrderRestoresStock(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")
	product := seedProduct(t, db, "Mug", "10.00", 5)

	order, err := CreateOrder(db, "u1", basicRequest(OrderItemRequest{ProductID: product.ID, Quantity: 5}))
	require.NoError(t, err)
	require.Equal(t, 0, productStock(t, db, product.ID))

	cancelled, err := CancelOrder(db, order.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, 5, productStock(t, db, product.ID))
}

func TestCancelOrderTwice(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")
	product := seedProduct(t, db, "Mug", "10.00", 5)

	order, err := CreateOrder(db, "u1", basicRequest(OrderItemRequest{ProductID: product.ID, Quantity: 2}))
	require.NoError(t, err)
	_, err = CancelOrder(db, order.ID, "u1")
	require.NoError(t, err)

	_, err = CancelOrder(db, order.ID, "u1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrOrderStatus))
	// Stock restored once, not twice.
	assert.Equal(t, 5, productStock(t, db, product.ID))
}

func TestCancelOrderWrongUser(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")
	seedUser(t, db, "u2")
	product := seedProduct(t, db, "Mug", "10.00", 5)

	order, err := CreateOrder(db, "u1", basicRequest(OrderItemRequest{ProductID: product.ID, Quantity: 1}))
	require.NoError(t, err)

	_, err = CancelOrder(db, order.ID, "u2")
	assert.True(t, errors.Is(err, common.ErrForbidden))
	assert.Equal(t, 4, productStock(t, db, product.ID))
}

func TestCancelOrderAfterShipping(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")
	product := seedProduct(t, db, "Mug", "10.00", 5)

	order, err := CreateOrder(db, "u1", basicRequest(OrderItemRequest{ProductID: product.ID, Quantity: 1}))
	require.NoError(t, err)
	_, err = UpdateOrderStatus(db, order.ID, models.OrderStatusAwaitingShipment)
	require.NoError(t, err)
	_, err = UpdateOrderStatus(db, order.ID, models.OrderStatusShipped)
	require.NoError(t, err)

	_, err = CancelOrder(db, order.ID, "u1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrOrderStatus))
	assert.Equal(t, 4, productStock(t, db, product.ID))
}

func TestCancelOrderRestoresSoftDeletedProduct(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")
	product := seedProduct(t, db, "Mug", "10.00", 5)

	order, err := CreateOrder(db, "u1", basicRequest(OrderItemRequest{ProductID: product.ID, Quantity: 2}))
	require.NoError(t, err)
	require.NoError(t, db.Delete(&models.Product{}, product.ID).Error)

	_, err = CancelOrder(db, order.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 5, productStock(t, db, product.ID))
}

func TestUpdateOrderStatusTimestamps(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")
	product := seedProduct(t, db, "Mug", "10.00", 5)

	order, err := CreateOrder(db, "u1", basicRequest(OrderItemRequest{ProductID: product.ID, Quantity: 1}))
	require.NoError(t, err)
	require.Nil(t, order.PayTime)

	paid, err := UpdateOrderStatus(db, order.ID, models.OrderStatusAwaitingShipment)
	require.NoError(t, err)
	require.NotNil(t, paid.PayTime)
	payTime := *paid.PayTime

	shipped, err := UpdateOrderStatus(db, order.ID, models.OrderStatusShipped)
	require.NoError(t, err)
	require.NotNil(t, shipped.DeliveryTime)
	assert.True(t, shipped.PayTime.Equal(payTime), "pay time must be set once")

	_, err = UpdateOrderStatus(db, order.ID, models.OrderStatusDelivered)
	require.NoError(t, err)
	done, err := UpdateOrderStatus(db, order.ID, models.OrderStatusCompleted)
	require.NoError(t, err)
	require.NotNil(t, done.ReceiveTime)
	assert.True(t, done.PayTime.Equal(payTime))
}

func TestUpdateOrderStatusRejectsIllegalTransitions(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")
	product := seedProduct(t, db, "Mug", "10.00", 5)

	order, err := CreateOrder(db, "u1", basicRequest(OrderItemRequest{ProductID: product.ID, Quantity: 1}))
	require.NoError(t, err)

	// Cannot skip the payment stage.
	_, err = UpdateOrderStatus(db, order.ID, models.OrderStatusShipped)
	assert.True(t, errors.Is(err, common.ErrOrderStatus))

	// Terminal states are frozen.
	_, err = CancelOrder(db, order.ID, "u1")
	require.NoError(t, err)
	_, err = UpdateOrderStatus(db, order.ID, models.OrderStatusPendingPayment)
	assert.True(t, errors.Is(err, common.ErrOrderStatus))

	_, err = UpdateOrderStatus(db, 9999, models.OrderStatusShipped)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestGetOrderByNoOwnership(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")
	seedUser(t, db, "u2")
	product := seedProduct(t, db, "Mug", "10.00", 5)

	order, err := CreateOrder(db, "u1", basicRequest(OrderItemRequest{ProductID: product.ID, Quantity: 1}))
	require.NoError(t, err)

	got, err := GetOrderByNo(db, order.OrderNo, "u1")
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
	assert.Len(t, got.Items, 1)

	_, err = GetOrderByNo(db, order.OrderNo, "u2")
	assert.True(t, errors.Is(err, common.ErrForbidden))

	_, err = GetOrderByNo(db, "nope", "u1")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestListOrdersFilterAndPaging(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")
	seedUser(t, db, "u2")
	product := seedProduct(t, db, "Mug", "10.00", 100)

	var cancelTarget uint
	for i := 0; i < 3; i++ {
		order, err := CreateOrder(db, "u1", basicRequest(OrderItemRequest{ProductID: product.ID, Quantity: 1}))
		require.NoError(t, err)
		cancelTarget = order.ID
	}
	_, err := CreateOrder(db, "u2", basicRequest(OrderItemRequest{ProductID: product.ID, Quantity: 1}))
	require.NoError(t, err)
	_, err = CancelOrder(db, cancelTarget, "u1")
	require.NoError(t, err)

	orders, total, err := ListOrders(db, "u1", nil, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, orders, 3)

	cancelled := models.OrderStatusCancelled
	orders, total, err = ListOrders(db, "u1", &cancelled, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, orders, 1)
	assert.Equal(t, cancelTarget, orders[0].ID)

	// userID == "" is the admin view over everyone's orders.
	_, total, err = ListOrders(db, "", nil, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)

	orders, _, err = ListOrders(db, "u1", nil, 2, 2)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestClearPurchasedCartItems(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1")
	bought := seedProduct(t, db, "Mug", "10.00", 5)
	kept := seedProduct(t, db, "Lamp", "50.00", 5)

	cart := models.Cart{UserID: "u1"}
	require.NoError(t, db.Create(&cart).Error)
	require.NoError(t, db.Create(&models.CartItem{CartID: cart.ID, ProductID: bought.ID, Quantity: 2, Selected: true}).Error)
	require.NoError(t, db.Create(&models.CartItem{CartID: cart.ID, ProductID: kept.ID, Quantity: 1, Selected: true}).Error)

	clearPurchasedCartItems(db, "u1", []models.OrderItem{{ProductID: bought.ID, Quantity: 2}})

	var remaining []models.CartItem
	require.NoError(t, db.Where("cart_id = ?", cart.ID).Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, kept.ID, remaining[0].ProductID)
}

func TestParseStatusFilter(t *testing.T) {
	status, err := parseStatusFilter("")
	require.NoError(t, err)
	assert.Nil(t, status)

	status, err = parseStatusFilter("0")
	require.NoError(t, err)
	assert.Nil(t, status)

	status, err = parseStatusFilter("3")
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, models.OrderStatusShipped, *status)

	status, err = parseStatusFilter("shipped")
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, models.OrderStatusShipped, *status)

	_, err = parseStatusFilter("9")
	assert.True(t, errors.Is(err, common.ErrValidation))

	_, err = parseStatusFilter("bogus")
	assert.True(t, errors.Is(err, common.ErrValidation))
}

func TestGenerateOrderNo(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		no := generateOrderNo()
		assert.Len(t, no, 23) // 14 timestamp + 3 millis + 6 suffix
		assert.False(t, seen[no], "duplicate order no %s", no)
		seen[no] = true
	}
}

func TestCalculateFreight(t *testing.T) {
	assert.True(t, calculateFreight(decimal.RequireFromString("98.99")).Equal(flatFreight))
	assert.True(t, calculateFreight(decimal.NewFromInt(99)).IsZero())
	assert.True(t, calculateFreight(decimal.NewFromInt(250)).IsZero())
}
