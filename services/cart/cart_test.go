package cart

import (
	"context"
	"sync"
	"testing"

	"github.com/junaidrashid-git/storefront-api/errs"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/services/catalog"
	"github.com/junaidrashid-git/storefront-api/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type CartServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	svc     *Service
	user    models.User
	lamp    models.Product // 10.00, no discount
	speaker models.Product // 80.00, 25% off
}

func TestCartServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CartServiceTestSuite))
}

func (s *CartServiceTestSuite) SetupTest() {
	s.db = testutil.NewDB(s.T())
	store := catalog.NewStore(s.db, nil, zerolog.Nop())
	s.svc = NewService(s.db, store, PricingPolicy{StrictPricing: true}, zerolog.Nop())
	s.user = testutil.SeedUser(s.T(), s.db, "ada@example.com", models.RoleUser)
	s.lamp = testutil.SeedProduct(s.T(), s.db, "Lamp", "10.00", "")
	s.speaker = testutil.SeedProduct(s.T(), s.db, "Speaker", "80.00", "25")
}

func (s *CartServiceTestSuite) price(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func (s *CartServiceTestSuite) TestAddItem_CreatesCart() {
	cart, err := s.svc.AddItem(context.Background(), s.user.ID, s.lamp.ID, 2, s.price("10"))
	s.Require().NoError(err)

	s.Equal(s.user.ID, cart.UserID)
	s.Require().Len(cart.Items, 1)
	s.Equal(2, cart.Items[0].Quantity)
	s.True(s.price("20").Equal(cart.TotalAmount), "total %s", cart.TotalAmount)
	s.Require().NotNil(cart.Items[0].Product)
	s.Equal("Lamp", cart.Items[0].Product.Name)
}

func (s *CartServiceTestSuite) TestAddItem_SameProductIncrementsLine() {
	ctx := context.Background()
	_, err := s.svc.AddItem(ctx, s.user.ID, s.lamp.ID, 2, s.price("10"))
	s.Require().NoError(err)

	cart, err := s.svc.AddItem(ctx, s.user.ID, s.lamp.ID, 3, s.price("10"))
	s.Require().NoError(err)

	s.Require().Len(cart.Items, 1)
	s.Equal(5, cart.Items[0].Quantity)
	s.True(s.price("50").Equal(cart.TotalAmount), "total %s", cart.TotalAmount)
	s.True(cart.CapturedTotal().Equal(cart.TotalAmount))
}

func (s *CartServiceTestSuite) TestAddItem_TotalMatchesLines() {
	ctx := context.Background()
	_, err := s.svc.AddItem(ctx, s.user.ID, s.lamp.ID, 1, s.price("10"))
	s.Require().NoError(err)
	cart, err := s.svc.AddItem(ctx, s.user.ID, s.speaker.ID, 2, s.price("60"))
	s.Require().NoError(err)

	s.Len(cart.Items, 2)
	s.True(s.price("130").Equal(cart.TotalAmount), "total %s", cart.TotalAmount)
	s.True(cart.CapturedTotal().Equal(cart.TotalAmount))
}

func (s *CartServiceTestSuite) TestAddItem_StrictPricingRejectsTamperedPrice() {
	_, err := s.svc.AddItem(context.Background(), s.user.ID, s.speaker.ID, 1, s.price("1"))
	s.True(errs.Is(err, errs.KindValidation), "got %v", err)

	_, err = s.svc.Get(context.Background(), s.user.ID)
	s.True(errs.Is(err, errs.KindNotFound), "no cart should have been created")
}

func (s *CartServiceTestSuite) TestAddItem_LenientPricingKeepsClientPrice() {
	svc := NewService(s.db, catalog.NewStore(s.db, nil, zerolog.Nop()), PricingPolicy{}, zerolog.Nop())

	cart, err := svc.AddItem(context.Background(), s.user.ID, s.speaker.ID, 1, s.price("55.5"))
	s.Require().NoError(err)
	s.True(s.price("55.5").Equal(cart.TotalAmount))
}

func (s *CartServiceTestSuite) TestAddItem_Validation() {
	ctx := context.Background()

	_, err := s.svc.AddItem(ctx, s.user.ID, s.lamp.ID, 0, s.price("10"))
	s.True(errs.Is(err, errs.KindValidation))

	_, err = s.svc.AddItem(ctx, s.user.ID, s.lamp.ID, 1, s.price("-1"))
	s.True(errs.Is(err, errs.KindValidation))

	_, err = s.svc.AddItem(ctx, s.user.ID, 9999, 1, s.price("10"))
	s.True(errs.Is(err, errs.KindNotFound))
}

func (s *CartServiceTestSuite) TestAddItem_ConcurrentAddsAreNotLost() {
	ctx := context.Background()
	const workers = 8

	var wg sync.WaitGroup
	errCh := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.svc.AddItem(ctx, s.user.ID, s.lamp.ID, 1, s.price("10"))
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		s.Require().NoError(err)
	}

	cart, err := s.svc.Get(ctx, s.user.ID)
	s.Require().NoError(err)
	s.Require().Len(cart.Items, 1)
	s.Equal(workers, cart.Items[0].Quantity)
	s.True(s.price("80").Equal(cart.TotalAmount), "total %s", cart.TotalAmount)
}

func (s *CartServiceTestSuite) TestRemoveItem_KeepsRestOfCart() {
	ctx := context.Background()
	_, err := s.svc.AddItem(ctx, s.user.ID, s.lamp.ID, 2, s.price("10"))
	s.Require().NoError(err)
	_, err = s.svc.AddItem(ctx, s.user.ID, s.speaker.ID, 1, s.price("60"))
	s.Require().NoError(err)

	cart, emptied, err := s.svc.RemoveItem(ctx, s.user.ID, s.lamp.ID)
	s.Require().NoError(err)
	s.False(emptied)
	s.Require().Len(cart.Items, 1)
	s.Equal(s.speaker.ID, cart.Items[0].ProductID)
	s.True(s.price("60").Equal(cart.TotalAmount), "total %s", cart.TotalAmount)
}

func (s *CartServiceTestSuite) TestRemoveItem_LastItemDeletesCart() {
	ctx := context.Background()
	_, err := s.svc.AddItem(ctx, s.user.ID, s.lamp.ID, 1, s.price("10"))
	s.Require().NoError(err)

	cart, emptied, err := s.svc.RemoveItem(ctx, s.user.ID, s.lamp.ID)
	s.Require().NoError(err)
	s.True(emptied)
	s.Nil(cart)

	_, err = s.svc.Get(ctx, s.user.ID)
	s.True(errs.Is(err, errs.KindNotFound))

	var count int64
	s.Require().NoError(s.db.Model(&models.CartItem{}).Count(&count).Error)
	s.Zero(count)
}

func (s *CartServiceTestSuite) TestRemoveItem_UsesCapturedPriceAfterRepricing() {
	ctx := context.Background()
	_, err := s.svc.AddItem(ctx, s.user.ID, s.lamp.ID, 1, s.price("10"))
	s.Require().NoError(err)
	_, err = s.svc.AddItem(ctx, s.user.ID, s.speaker.ID, 1, s.price("60"))
	s.Require().NoError(err)

	s.Require().NoError(s.db.Model(&models.Product{}).Where("id = ?", s.lamp.ID).
		Update("price", s.price("99")).Error)

	cart, _, err := s.svc.RemoveItem(ctx, s.user.ID, s.lamp.ID)
	s.Require().NoError(err)
	s.True(s.price("60").Equal(cart.TotalAmount), "total %s", cart.TotalAmount)
}

func (s *CartServiceTestSuite) TestRemoveItem_CurrentPricePolicy() {
	ctx := context.Background()
	svc := NewService(s.db, catalog.NewStore(s.db, nil, zerolog.Nop()),
		PricingPolicy{StrictPricing: true, RemoveAtCurrentPrice: true}, zerolog.Nop())

	_, err := svc.AddItem(ctx, s.user.ID, s.lamp.ID, 2, s.price("10"))
	s.Require().NoError(err)
	_, err = svc.AddItem(ctx, s.user.ID, s.speaker.ID, 1, s.price("60"))
	s.Require().NoError(err)

	s.Require().NoError(s.db.Model(&models.Product{}).Where("id = ?", s.lamp.ID).
		Update("price", s.price("12")).Error)

	cart, _, err := svc.RemoveItem(ctx, s.user.ID, s.lamp.ID)
	s.Require().NoError(err)
	// 80 captured, 24 released at the new price
	s.True(s.price("56").Equal(cart.TotalAmount), "total %s", cart.TotalAmount)
}

func (s *CartServiceTestSuite) TestRemoveItem_NotFound() {
	ctx := context.Background()

	_, _, err := s.svc.RemoveItem(ctx, s.user.ID, s.lamp.ID)
	s.True(errs.Is(err, errs.KindNotFound), "missing cart")

	_, err = s.svc.AddItem(ctx, s.user.ID, s.lamp.ID, 1, s.price("10"))
	s.Require().NoError(err)

	_, _, err = s.svc.RemoveItem(ctx, s.user.ID, s.speaker.ID)
	s.True(errs.Is(err, errs.KindNotFound), "missing line")
}

func (s *CartServiceTestSuite) TestClear() {
	ctx := context.Background()
	_, err := s.svc.AddItem(ctx, s.user.ID, s.lamp.ID, 1, s.price("10"))
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Clear(ctx, s.user.ID))
	_, err = s.svc.Get(ctx, s.user.ID)
	s.True(errs.Is(err, errs.KindNotFound))

	// clearing again is a no-op
	s.NoError(s.svc.Clear(ctx, s.user.ID))
}
