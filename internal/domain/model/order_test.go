package model_test

import (
	"testing"

	"app/internal/domain/model"

	"github.com/stretchr/testify/assert"
)

func TestParseOrderStatus(t *testing.T) {
	for _, s := range []string{"Pending", "Paid", "Shipped", "Delivered"} {
		st, ok := model.ParseOrderStatus(s)
		assert.True(t, ok, s)
		assert.Equal(t, model.OrderStatus(s), st)
	}

	for _, s := range []string{"", "Bogus", "pending", "PENDING", "Canceled"} {
		_, ok := model.ParseOrderStatus(s)
		assert.False(t, ok, s)
	}
}

func TestCanTransition_ForwardOnly(t *testing.T) {
	//前進はOK
	assert.True(t, model.CanTransition(model.OrderStatusPending, model.OrderStatusPaid))
	assert.True(t, model.CanTransition(model.OrderStatusPending, model.OrderStatusShipped))
	assert.True(t, model.CanTransition(model.OrderStatusPaid, model.OrderStatusShipped))
	assert.True(t, model.CanTransition(model.OrderStatusShipped, model.OrderStatusDelivered))

	//後退はNG
	assert.False(t, model.CanTransition(model.OrderStatusPaid, model.OrderStatusPending))
	assert.False(t, model.CanTransition(model.OrderStatusShipped, model.OrderStatusPaid))

	//Deliveredは終端
	assert.False(t, model.CanTransition(model.OrderStatusDelivered, model.OrderStatusPending))
	assert.False(t, model.CanTransition(model.OrderStatusDelivered, model.OrderStatusPaid))
	assert.False(t, model.CanTransition(model.OrderStatusDelivered, model.OrderStatusShipped))

	//同じ値への遷移は遷移ではない
	assert.False(t, model.CanTransition(model.OrderStatusPending, model.OrderStatusPending))
}
