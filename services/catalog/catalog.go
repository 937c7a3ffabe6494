package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/junaidrashid-git/storefront-api/errs"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Store is the catalog of products. Prices are read from here by the cart and
// order flows at the time of use.
type Store struct {
	db    *gorm.DB
	cache ProductCache
	log   zerolog.Logger
}

// NewStore builds the catalog. cache may be nil.
func NewStore(db *gorm.DB, cache ProductCache, log zerolog.Logger) *Store {
	return &Store{db: db, cache: cache, log: log.With().Str("component", "catalog").Logger()}
}

// ProductInput carries the writable product fields. Nil means "leave unchanged" on update.
type ProductInput struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Discount    *decimal.Decimal `json:"discount"`
	Category    *string          `json:"category"`
	Rating      *int             `json:"rating"`
	Image       *string          `json:"image"`
	Stock       *int             `json:"stock"`
}

func (s *Store) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	if s.cache != nil {
		p, err := s.cache.Get(ctx, id)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.log.Warn().Err(err).Uint("product_id", id).Msg("product cache get failed")
		}
	}

	var p models.Product
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("product not found")
		}
		return nil, errs.Internal("failed to load product", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, &p); err != nil {
			s.log.Warn().Err(err).Uint("product_id", id).Msg("product cache set failed")
		}
	}
	return &p, nil
}

// List returns products, optionally restricted to one category.
func (s *Store) List(ctx context.Context, category string) ([]models.Product, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{})
	if category != "" {
		c, ok := models.ParseCategory(category)
		if !ok {
			return nil, errs.Validation("unknown category")
		}
		query = query.Where("category = ?", c)
	}

	products := []models.Product{}
	if err := query.Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, errs.Internal("failed to fetch products", err)
	}
	return products, nil
}

func (s *Store) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	if in.Name == nil || *in.Name == "" || in.Price == nil || in.Category == nil {
		return nil, errs.Validation("name, price and category are required")
	}

	p := models.Product{}
	if err := apply(&p, in); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, errs.Internal("failed to create product", err)
	}
	return &p, nil
}

func (s *Store) Update(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	var p models.Product
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("product not found")
		}
		return nil, errs.Internal("failed to load product", err)
	}

	if err := apply(&p, in); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(&p).Error; err != nil {
		return nil, errs.Internal("failed to update product", err)
	}

	s.invalidate(ctx, id)
	return &p, nil
}

func (s *Store) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return errs.Internal("failed to delete product", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("product not found")
	}

	s.invalidate(ctx, id)
	return nil
}

func (s *Store) invalidate(ctx context.Context, id uint) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, id); err != nil {
		s.log.Warn().Err(err).Uint("product_id", id).Msg("product cache invalidate failed")
	}
}

func apply(p *models.Product, in ProductInput) error {
	if in.Name != nil {
		if *in.Name == "" {
			return errs.Validation("name cannot be empty")
		}
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		if !in.Price.IsPositive() {
			return errs.Validation("price must be greater than 0")
		}
		p.Price = in.Price.Round(2)
	}
	if in.Discount != nil {
		if in.Discount.IsNegative() || in.Discount.GreaterThan(decimal.NewFromInt(100)) {
			return errs.Validation("discount must be between 0 and 100")
		}
		p.Discount = decimal.NewNullDecimal(*in.Discount)
	}
	if in.Category != nil {
		c, ok := models.ParseCategory(*in.Category)
		if !ok {
			return errs.Validation(fmt.Sprintf("unknown category %q", *in.Category))
		}
		p.Category = c
	}
	if in.Rating != nil {
		if *in.Rating < 1 || *in.Rating > 5 {
			return errs.Validation("rating must be between 1 and 5")
		}
		p.Rating = in.Rating
	}
	if in.Image != nil {
		p.Image = *in.Image
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return errs.Validation("stock cannot be negative")
		}
		p.Stock = *in.Stock
	}
	return nil
}
