package service

import (
	"context"
	"testing"
	"time"

	"laxmi-billing/internal/apperror"
	"laxmi-billing/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedCatalog(t *testing.T, db *gorm.DB) (models.Retailer, models.Product, models.Product) {
	t.Helper()
	r := models.Retailer{Name: "Ganesh Motors", Address1: "MG Road"}
	require.NoError(t, db.Create(&r).Error)
	oil := models.Product{Code: "SRV-20W40", Name: "Servo 20W40", Price: dec("450"), Weight: dec("1"), Scheme: dec("20"), Stock: 10}
	grease := models.Product{Code: "GRS-1", Name: "Grease", Price: dec("120.50"), Weight: dec("0.5"), Stock: 3}
	require.NoError(t, db.Create(&oil).Error)
	require.NoError(t, db.Create(&grease).Error)
	return r, oil, grease
}

func stockOf(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var p models.Product
	require.NoError(t, db.First(&p, id).Error)
	return p.Stock
}

func TestCreateOrderSnapshotsAndTotals(t *testing.T) {
	db := newTestDB(t)
	r, oil, grease := seedCatalog(t, db)
	svc := NewOrderService(db)
	svc.now = func() time.Time { return time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC) }

	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		RetailerID: r.ID,
		Items: []OrderLineInput{
			{ProductID: oil.ID, Quantity: 4},
			{ProductID: grease.ID, Quantity: 2},
		},
	}, adminActor)
	require.NoError(t, err)

	assert.Equal(t, "ORD-20240305-00001", order.OrderNo)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, "Ganesh Motors", order.RetailerName)
	require.Len(t, order.Items, 2)
	assert.True(t, order.Items[0].NetPrice.Equal(dec("430")))
	assert.True(t, order.TotalSale.Equal(dec("1961")), "total=%s", order.TotalSale)
	assert.True(t, order.TotalLitres.Equal(dec("5")), "litres=%s", order.TotalLitres)
	assert.Equal(t, 6, stockOf(t, db, oil.ID))
	assert.Equal(t, 1, stockOf(t, db, grease.ID))

	second, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		RetailerID: r.ID, Items: []OrderLineInput{{ProductID: oil.ID, Quantity: 1}},
	}, adminActor)
	require.NoError(t, err)
	assert.Equal(t, "ORD-20240305-00002", second.OrderNo)
}

func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	db := newTestDB(t)
	r, oil, grease := seedCatalog(t, db)
	svc := NewOrderService(db)

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		RetailerID: r.ID,
		Items: []OrderLineInput{
			{ProductID: oil.ID, Quantity: 1},
			{ProductID: grease.ID, Quantity: 2},
			{ProductID: grease.ID, Quantity: 2},
		},
	}, adminActor)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Equal(t, 10, stockOf(t, db, oil.ID))
	assert.Equal(t, 3, stockOf(t, db, grease.ID))

	var n int64
	db.Model(&models.Order{}).Count(&n)
	assert.Zero(t, n)
}

func TestCreateOrderUnknownRetailer(t *testing.T) {
	db := newTestDB(t)
	_, oil, _ := seedCatalog(t, db)
	_, err := NewOrderService(db).CreateOrder(context.Background(), CreateOrderInput{
		RetailerID: 404, Items: []OrderLineInput{{ProductID: oil.ID, Quantity: 1}},
	}, adminActor)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestOrderStatusLifecycle(t *testing.T) {
	db := newTestDB(t)
	r, oil, _ := seedCatalog(t, db)
	svc := NewOrderService(db)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		RetailerID: r.ID, Items: []OrderLineInput{{ProductID: oil.ID, Quantity: 3}},
	}, adminActor)
	require.NoError(t, err)

	_, err = svc.UpdateOrderStatus(ctx, order.ID, models.OrderDelivered)
	assert.True(t, apperror.Is(err, apperror.KindValidation), "pending cannot jump to delivered")

	got, err := svc.UpdateOrderStatus(ctx, order.ID, models.OrderConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.OrderConfirmed, got.Status)

	got, err = svc.UpdateOrderStatus(ctx, order.ID, models.OrderCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, got.Status)
	assert.Equal(t, 10, stockOf(t, db, oil.ID), "cancel restores stock")

	_, err = svc.UpdateOrderStatus(ctx, order.ID, models.OrderConfirmed)
	assert.True(t, apperror.Is(err, apperror.KindValidation), "cancelled is terminal")
}

func TestDSRSeesOnlyOwnOrders(t *testing.T) {
	db := newTestDB(t)
	r, oil, _ := seedCatalog(t, db)
	svc := NewOrderService(db)
	ctx := context.Background()
	ravi := ActorFromUser(createUser(t, db, "ravi", models.RoleDSR))

	mine, err := svc.CreateOrder(ctx, CreateOrderInput{RetailerID: r.ID, Items: []OrderLineInput{{ProductID: oil.ID, Quantity: 1}}}, ravi)
	require.NoError(t, err)
	other, err := svc.CreateOrder(ctx, CreateOrderInput{RetailerID: r.ID, Items: []OrderLineInput{{ProductID: oil.ID, Quantity: 1}}}, adminActor)
	require.NoError(t, err)

	orders, total, err := svc.ListOrders(ctx, OrderFilter{}, ravi)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, mine.ID, orders[0].ID)

	_, err = svc.GetOrder(ctx, other.ID, ravi)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
}

func TestOrderNumberContinuesAfterHighest(t *testing.T) {
	db := newTestDB(t)
	r, oil, _ := seedCatalog(t, db)
	svc := NewOrderService(db)
	svc.now = func() time.Time { return time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC) }

	require.NoError(t, db.Create(&models.Order{
		OrderNo: "ORD-20240305-00007", RetailerID: r.ID, Status: models.OrderPending,
		TotalLitres: dec("0"), TotalSale: dec("0"),
	}).Error)

	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		RetailerID: r.ID, Items: []OrderLineInput{{ProductID: oil.ID, Quantity: 1}},
	}, adminActor)
	require.NoError(t, err)
	assert.Equal(t, "ORD-20240305-00008", order.OrderNo)
}

func TestOrderNumberCollisionIsTransient(t *testing.T) {
	db := newTestDB(t)
	r, oil, _ := seedCatalog(t, db)
	svc := NewOrderService(db)

	// every order insert loses the race for its number
	attempts := 0
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:order_no_taken", func(tx *gorm.DB) {
		if _, ok := tx.Statement.Dest.(*models.Order); ok {
			attempts++
			tx.AddError(gorm.ErrDuplicatedKey)
		}
	}))

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		RetailerID: r.ID, Items: []OrderLineInput{{ProductID: oil.ID, Quantity: 2}},
	}, adminActor)
	assert.True(t, apperror.Is(err, apperror.KindTransient), "got %v", err)
	assert.Equal(t, orderNoAttempts, attempts)
	assert.Equal(t, 10, stockOf(t, db, oil.ID), "stock is restored by the rollback")

	var n int64
	require.NoError(t, db.Model(&models.Order{}).Count(&n).Error)
	assert.Zero(t, n)
}
