package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewOrderItem(t *testing.T) {
	p := Product{ID: 7, Code: "SRV20", Name: "Servo 20W40", Price: d("450"), Weight: d("1.5"), Scheme: d("25")}
	it := NewOrderItem(p, 4)

	assert.Equal(t, uint(7), it.ProductID)
	assert.Equal(t, "SRV20", it.ProductCode)
	assert.True(t, it.NetPrice.Equal(d("425")))
	assert.True(t, it.TotalLitres.Equal(d("6")))
	assert.True(t, it.TotalSale.Equal(d("1700")))
}

func TestOrderStatusTransitions(t *testing.T) {
	assert.True(t, OrderPending.CanTransition(OrderConfirmed))
	assert.True(t, OrderPending.CanTransition(OrderCancelled))
	assert.True(t, OrderConfirmed.CanTransition(OrderDelivered))
	assert.False(t, OrderDelivered.CanTransition(OrderCancelled))
	assert.False(t, OrderCancelled.CanTransition(OrderPending))
	assert.False(t, OrderPending.CanTransition(OrderDelivered))
}
