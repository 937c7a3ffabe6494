package cart

import (
	"context"
	"errors"
	"time"

	"github.com/junaidrashid-git/storefront-api/errs"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductReader is the slice of the catalog the cart needs.
type ProductReader interface {
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
}

// PricingPolicy decides how line prices are captured and released.
type PricingPolicy struct {
	// StrictPricing rejects a client price that differs from the catalog's
	// current discounted price.
	StrictPricing bool
	// RemoveAtCurrentPrice releases a removed line at the product's current
	// discounted price instead of the price captured when it was added.
	RemoveAtCurrentPrice bool
}

type Service struct {
	db      *gorm.DB
	catalog ProductReader
	policy  PricingPolicy
	log     zerolog.Logger
}

func NewService(db *gorm.DB, catalog ProductReader, policy PricingPolicy, log zerolog.Logger) *Service {
	return &Service{
		db:      db,
		catalog: catalog,
		policy:  policy,
		log:     log.With().Str("component", "cart").Logger(),
	}
}

// AddItem adds quantity units of a product at unitPrice, creating the cart on
// first use. A repeated product increments its existing line.
//
// The cart row is locked and the line and total are changed with in-database
// increments inside one transaction, so concurrent adds for the same user
// cannot lose updates.
func (s *Service) AddItem(ctx context.Context, userID, productID uint, quantity int, unitPrice decimal.Decimal) (*models.Cart, error) {
	if quantity < 1 {
		return nil, errs.Validation("quantity must be at least 1")
	}
	if unitPrice.IsNegative() {
		return nil, errs.Validation("discountedPrice cannot be negative")
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	unitPrice = unitPrice.Round(2)
	if s.policy.StrictPricing && !unitPrice.Equal(product.DiscountedPrice()) {
		s.log.Warn().
			Uint("user_id", userID).
			Uint("product_id", productID).
			Str("supplied", unitPrice.String()).
			Str("current", product.DiscountedPrice().String()).
			Msg("rejected cart price mismatch")
		return nil, errs.Validation("discountedPrice does not match the current product price")
	}

	contribution := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	now := time.Now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := lockCart(tx, userID, true)
		if err != nil {
			return err
		}

		item := models.CartItem{
			CartID:    cart.ID,
			ProductID: productID,
			Quantity:  quantity,
			UnitPrice: unitPrice,
			Subtotal:  contribution,
			AddedAt:   now,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity":   gorm.Expr("cart_items.quantity + excluded.quantity"),
				"subtotal":   gorm.Expr("cart_items.subtotal + excluded.subtotal"),
				"unit_price": gorm.Expr("excluded.unit_price"),
				"added_at":   gorm.Expr("excluded.added_at"),
			}),
		}).Create(&item).Error; err != nil {
			return errs.Internal("failed to add item to cart", err)
		}

		return adjustTotal(tx, cart.ID, contribution, now)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, userID)
}

// RemoveItem drops the product's line from the user's cart. When that leaves
// the cart empty the cart itself is deleted and emptied is true.
func (s *Service) RemoveItem(ctx context.Context, userID, productID uint) (cart *models.Cart, emptied bool, err error) {
	now := time.Now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := lockCart(tx, userID, false)
		if err != nil {
			return err
		}

		var item models.CartItem
		if err := tx.Where("cart_id = ? AND product_id = ?", c.ID, productID).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NotFound("item not found in cart")
			}
			return errs.Internal("failed to fetch cart item", err)
		}

		release, err := s.releasedAmount(tx, item)
		if err != nil {
			return err
		}

		if err := tx.Delete(&item).Error; err != nil {
			return errs.Internal("failed to remove cart item", err)
		}

		var remaining int64
		if err := tx.Model(&models.CartItem{}).Where("cart_id = ?", c.ID).Count(&remaining).Error; err != nil {
			return errs.Internal("failed to count cart items", err)
		}
		if remaining == 0 {
			if err := tx.Delete(c).Error; err != nil {
				return errs.Internal("failed to delete empty cart", err)
			}
			emptied = true
			return nil
		}

		return adjustTotal(tx, c.ID, release.Neg(), now)
	})
	if err != nil {
		return nil, false, err
	}
	if emptied {
		s.log.Debug().Uint("user_id", userID).Msg("cart emptied and deleted")
		return nil, true, nil
	}

	cart, err = s.Get(ctx, userID)
	return cart, false, err
}

// Clear deletes the user's cart. Clearing a missing cart is not an error.
func (s *Service) Clear(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return DeleteCart(tx, userID)
	})
}

// Get returns the cart with every line joined to current catalog data.
func (s *Service) Get(ctx context.Context, userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("cart_items.id") }).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("cart not found")
		}
		return nil, errs.Internal("failed to fetch cart", err)
	}
	return &cart, nil
}

// DeleteCart removes the user's cart and its lines using tx. The order flow
// calls it to clear a cart in the same transaction that writes the order.
func DeleteCart(tx *gorm.DB, userID uint) error {
	sub := tx.Model(&models.Cart{}).Select("id").Where("user_id = ?", userID)
	if err := tx.Where("cart_id IN (?)", sub).Delete(&models.CartItem{}).Error; err != nil {
		return errs.Internal("failed to clear cart items", err)
	}
	if err := tx.Where("user_id = ?", userID).Delete(&models.Cart{}).Error; err != nil {
		return errs.Internal("failed to clear cart", err)
	}
	return nil
}

func (s *Service) releasedAmount(tx *gorm.DB, item models.CartItem) (decimal.Decimal, error) {
	if !s.policy.RemoveAtCurrentPrice {
		return item.Subtotal, nil
	}

	var p models.Product
	if err := tx.First(&p, item.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// product is gone; the captured amount is all we have
			return item.Subtotal, nil
		}
		return decimal.Zero, errs.Internal("failed to load product", err)
	}
	return p.DiscountedPrice().Mul(decimal.NewFromInt(int64(item.Quantity))), nil
}

// lockCart loads the user's cart FOR UPDATE, inserting an empty one first when
// create is set.
func lockCart(tx *gorm.DB, userID uint, create bool) (*models.Cart, error) {
	if create {
		fresh := models.Cart{UserID: userID, TotalAmount: decimal.Zero}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).Create(&fresh).Error; err != nil {
			return nil, errs.Internal("failed to create cart", err)
		}
	}

	var cart models.Cart
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("cart not found")
		}
		return nil, errs.Internal("failed to fetch cart", err)
	}
	return &cart, nil
}

func adjustTotal(tx *gorm.DB, cartID uint, delta decimal.Decimal, now time.Time) error {
	err := tx.Model(&models.Cart{}).Where("id = ?", cartID).Updates(map[string]interface{}{
		"total_amount": gorm.Expr("total_amount + ?", delta),
		"updated_at":   now,
	}).Error
	if err != nil {
		return errs.Internal("failed to update cart total", err)
	}
	return nil
}
