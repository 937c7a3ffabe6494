package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// Money goes over the wire as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

type Product struct {
	ID          uint                `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string              `gorm:"not null" json:"name"`
	Description string              `json:"description"`
	Price       decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"price"`
	Discount    decimal.NullDecimal `gorm:"type:decimal(5,2)" json:"discount"` // percentage, 0-100
	Category    Category            `gorm:"type:varchar(32);index;not null" json:"category"`
	Rating      *int                `json:"rating"`
	Image       string              `json:"image"`
	Stock       int                 `json:"stock"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt      `gorm:"index" json:"-"`
}

// DiscountedPrice is the unit price after the product's percentage discount,
// rounded to cents.
func (p Product) DiscountedPrice() decimal.Decimal {
	if !p.Discount.Valid || p.Discount.Decimal.IsZero() {
		return p.Price.Round(2)
	}
	factor := hundred.Sub(p.Discount.Decimal).Div(hundred)
	return p.Price.Mul(factor).Round(2)
}

var hundred = decimal.NewFromInt(100)
