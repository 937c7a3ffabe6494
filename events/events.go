// Package events publishes order lifecycle events to Kafka and to admins
// watching the live order feed.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/shopspring/decimal"
)

type Type string

const (
	OrderCreated       Type = "order.created"
	OrderStatusChanged Type = "order.status_changed"
	OrderDeleted       Type = "order.deleted"
)

type OrderEvent struct {
	Type        Type               `json:"type"`
	OrderID     uint               `json:"orderId"`
	UserID      uint               `json:"userId"`
	Status      models.OrderStatus `json:"status"`
	TotalAmount decimal.Decimal    `json:"totalAmount"`
	OccurredAt  time.Time          `json:"occurredAt"`
}

func NewOrderEvent(t Type, o *models.Order) OrderEvent {
	return OrderEvent{
		Type:        t,
		OrderID:     o.ID,
		UserID:      o.UserID,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		OccurredAt:  time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, e OrderEvent) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, OrderEvent) error { return nil }

// Multi delivers every event to each publisher, even when an earlier one fails.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e OrderEvent) error {
	var errList []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}
