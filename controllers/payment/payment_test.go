package paymentControllers

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
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Order{}, &models.OrderItem{}))
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, userID string, status models.OrderStatus) *models.Order {
	t.Helper()
	user := models.User{ID: userID, Username: "user-" + userID, Email: userID + "@example.com", Password: "x"}
	require.NoError(t, db.FirstOrCreate(&user, models.User{ID: userID}).Error)
	order := models.Order{
		OrderNo:         fmt.Sprintf("ORD-%s-%s", userID, status),
		UserID:          userID,
		TotalAmount:     decimal.RequireFromString("50.00"),
		FreightAmount:   decimal.RequireFromString("10.00"),
		PayAmount:       decimal.RequireFromString("60.00"),
		Status:          status,
		ReceiverAddress: "1 Main St",
	}
	require.NoError(t, db.Create(&order).Error)
	return &order
}

func TestInitiatePayment(t *testing.T) {
	db := newTestDB(t)
	order := seedOrder(t, db, "u1", models.OrderStatusPendingPayment)

	payURL, orderNo, err := InitiatePayment(db, order.ID, "u1", "wechat")
	require.NoError(t, err)
	assert.Equal(t, order.OrderNo, orderNo)
	assert.Contains(t, payURL, order.OrderNo)
	assert.Contains(t, payURL, "method=wechat")

	// Initiating payment must not touch the order itself.
	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.Equal(t, models.OrderStatusPendingPayment, reloaded.Status)
	assert.Nil(t, reloaded.PayTime)
}

func TestInitiatePaymentGuards(t *testing.T) {
	db := newTestDB(t)
	pending := seedOrder(t, db, "u1", models.OrderStatusPendingPayment)
	cancelled := seedOrder(t, db, "u1", models.OrderStatusCancelled)
	shipped := seedOrder(t, db, "u1", models.OrderStatusShipped)

	_, _, err := InitiatePayment(db, cancelled.ID, "u1", "wechat")
	assert.True(t, errors.Is(err, common.ErrOrderStatus))

	_, _, err = InitiatePayment(db, shipped.ID, "u1", "wechat")
	assert.True(t, errors.Is(err, common.ErrOrderStatus))

	_, _, err = InitiatePayment(db, pending.ID, "u2", "wechat")
	assert.True(t, errors.Is(err, common.ErrForbidden))

	_, _, err = InitiatePayment(db, 9999, "u1", "wechat")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestGetPaymentStatus(t *testing.T) {
	db := newTestDB(t)
	tests := []struct {
		status models.OrderStatus
		want   string
	}{
		{models.OrderStatusPendingPayment, "pending"},
		{models.OrderStatusAwaitingShipment, "paid"},
		{models.OrderStatusCompleted, "paid"},
		{models.OrderStatusCancelled, "failed"},
		{models.OrderStatusFailed, "failed"},
		{models.OrderStatusRefundPending, "unknown"},
	}
	for i, tt := range tests {
		order := seedOrder(t, db, fmt.Sprintf("u%d", i), tt.status)
		got, err := GetPaymentStatus(db, order.ID)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "status %s", tt.status)
	}

	_, err := GetPaymentStatus(db, 9999)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}
