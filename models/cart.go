package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"uniqueIndex;not null" json:"userId"` // one cart per user
	Items       []CartItem      `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"totalAmount"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// CartItem references the product; catalog data is joined on read, never copied.
// UnitPrice and Subtotal are the prices captured when the line was added.
type CartItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	CartID    uint            `gorm:"uniqueIndex:idx_cart_product;not null" json:"-"`
	ProductID uint            `gorm:"uniqueIndex:idx_cart_product;not null" json:"productId"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unitPrice"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	AddedAt   time.Time       `json:"addedAt"`
}

// CapturedTotal sums the captured contribution of every line.
func (c Cart) CapturedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal)
	}
	return total
}
