package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/junaidrashid-git/storefront-api/errs"
	"github.com/junaidrashid-git/storefront-api/events"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/notification"
	"github.com/junaidrashid-git/storefront-api/services/cart"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NotificationError is returned by Create when the order was committed but the
// customer could not be notified. Order holds the persisted order.
type NotificationError struct {
	Order *models.Order
	Err   error
}

func (e *NotificationError) Error() string {
	return "order created but customer notification failed: " + e.Err.Error()
}

func (e *NotificationError) Unwrap() error { return e.Err }

type Options struct {
	// ClearCartOnOrder deletes the buyer's cart in the order transaction.
	ClearCartOnOrder bool
	// EmptyOrdersAsNotFound makes ListForUser fail with NotFound instead of
	// returning an empty list.
	EmptyOrdersAsNotFound bool
	// NotifyTimeout bounds the whole notification step, retries included.
	NotifyTimeout time.Duration
}

type Service struct {
	db        *gorm.DB
	notifier  notification.Gateway
	publisher events.Publisher
	opts      Options
	log       zerolog.Logger
}

func NewService(db *gorm.DB, notifier notification.Gateway, publisher events.Publisher, opts Options, log zerolog.Logger) *Service {
	if notifier == nil {
		notifier = notification.NewLogGateway(log)
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = 15 * time.Second
	}
	return &Service{
		db:        db,
		notifier:  notifier,
		publisher: publisher,
		opts:      opts,
		log:       log.With().Str("component", "order").Logger(),
	}
}

type LineInput struct {
	ProductID uint `json:"product"`
	Quantity  int  `json:"quantity"`
}

// CreateInput is the checkout request. Status is accepted for compatibility
// and ignored; new orders always start Pending.
type CreateInput struct {
	Products      []LineInput      `json:"products"`
	TotalAmount   *decimal.Decimal `json:"totalAmount"`
	PaymentMethod string           `json:"paymentMethod"`
	Address       string           `json:"address"`
	PhoneNumber   string           `json:"phoneNumber"`
	Status        string           `json:"status,omitempty"`
}

func (in CreateInput) validate() (models.PaymentMethod, error) {
	if strings.TrimSpace(in.PhoneNumber) == "" {
		return "", errs.Validation("phoneNumber is required")
	}
	if strings.TrimSpace(in.Address) == "" {
		return "", errs.Validation("address is required")
	}
	if in.PaymentMethod == "" {
		return "", errs.Validation("paymentMethod is required")
	}
	pm, ok := models.ParsePaymentMethod(in.PaymentMethod)
	if !ok {
		return "", errs.Validation(fmt.Sprintf("unknown paymentMethod %q", in.PaymentMethod))
	}
	if in.TotalAmount == nil || !in.TotalAmount.IsPositive() {
		return "", errs.Validation("totalAmount must be greater than 0")
	}
	if len(in.Products) == 0 {
		return "", errs.Validation("products cannot be empty")
	}
	for _, line := range in.Products {
		if line.ProductID == 0 {
			return "", errs.Validation("every product line needs a product id")
		}
		if line.Quantity < 1 {
			return "", errs.Validation("quantity must be at least 1")
		}
	}
	return pm, nil
}

// Create persists a Pending order and then notifies the customer.
//
// Persistence and notification fail independently: a failure after commit
// comes back as *NotificationError carrying the stored order.
func (s *Service) Create(ctx context.Context, userID uint, in CreateInput) (*models.Order, error) {
	pm, err := in.validate()
	if err != nil {
		return nil, err
	}

	order := models.Order{
		UserID:        userID,
		TotalAmount:   in.TotalAmount.Round(2),
		Status:        models.OrderStatusPending,
		PaymentMethod: pm,
		Address:       strings.TrimSpace(in.Address),
		PhoneNumber:   strings.TrimSpace(in.PhoneNumber),
	}
	for _, line := range in.Products {
		order.Products = append(order.Products, models.OrderItem{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureProductsExist(tx, in.Products); err != nil {
			return err
		}
		if err := tx.Create(&order).Error; err != nil {
			return errs.Internal("failed to create order", err)
		}
		if s.opts.ClearCartOnOrder {
			return cart.DeleteCart(tx, userID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Uint("order_id", order.ID).Uint("user_id", userID).Str("total", order.TotalAmount.String()).Msg("order created")
	s.publish(ctx, events.OrderCreated, &order)

	notifyErr := s.notify(ctx, &order)

	created, err := s.load(ctx, order.ID)
	if err != nil {
		// the order exists; fall back to what we wrote
		s.log.Error().Err(err).Uint("order_id", order.ID).Msg("failed to reload created order")
		created = &order
	}

	if notifyErr != nil {
		return created, &NotificationError{Order: created, Err: notifyErr}
	}
	return created, nil
}

func (s *Service) notify(ctx context.Context, o *models.Order) error {
	// the order is committed; a client hanging up must not cancel the message
	ctx = context.WithoutCancel(ctx)
	sendCtx, cancel := context.WithTimeout(ctx, s.opts.NotifyTimeout)
	defer cancel()

	status := models.NotificationSent
	err := s.notifier.Send(sendCtx, o.PhoneNumber, notification.FormatOrderMessage(o))
	switch {
	case errors.Is(err, notification.ErrSkipped):
		status, err = models.NotificationSkipped, nil
	case err != nil:
		status = models.NotificationFailed
		s.log.Error().Err(err).Uint("order_id", o.ID).Msg("customer notification failed")
	}

	o.NotificationStatus = status
	if uerr := s.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", o.ID).
		Update("notification_status", status).Error; uerr != nil {
		s.log.Warn().Err(uerr).Uint("order_id", o.ID).Msg("failed to record notification status")
	}
	return err
}

// UpdateStatus sets any status on an existing order. Transitions are not constrained.
func (s *Service) UpdateStatus(ctx context.Context, id uint, status string) (*models.Order, error) {
	st, ok := models.ParseOrderStatus(status)
	if !ok {
		return nil, errs.Validation(fmt.Sprintf("unknown status %q", status))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&o, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NotFound("order not found")
			}
			return errs.Internal("failed to fetch order", err)
		}
		if err := tx.Model(&o).Update("status", st).Error; err != nil {
			return errs.Internal("failed to update order status", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	o, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.OrderStatusChanged, o)
	return o, nil
}

// Delete removes the order and its lines for good.
func (s *Service) Delete(ctx context.Context, id uint) error {
	var deleted models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&deleted, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NotFound("order not found")
			}
			return errs.Internal("failed to fetch order", err)
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return errs.Internal("failed to delete order items", err)
		}
		if err := tx.Delete(&deleted).Error; err != nil {
			return errs.Internal("failed to delete order", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, events.OrderDeleted, &deleted)
	return nil
}

// List returns every order, newest first, with the buyer's name and email.
func (s *Service) List(ctx context.Context) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.withDetails(s.db.WithContext(ctx)).
		Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name", "email") }).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, errs.Internal("failed to fetch orders", err)
	}
	return orders, nil
}

func (s *Service) ListForUser(ctx context.Context, userID uint) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.withDetails(s.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, errs.Internal("failed to fetch orders", err)
	}
	if len(orders) == 0 && s.opts.EmptyOrdersAsNotFound {
		return nil, errs.NotFound("no orders found")
	}
	return orders, nil
}

// Get returns one order. Only admins may read orders placed by someone else.
func (s *Service) Get(ctx context.Context, id, userID uint, role models.Role) (*models.Order, error) {
	o, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && o.UserID != userID {
		return nil, errs.Forbidden("order belongs to another user")
	}
	return o, nil
}

func (s *Service) load(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := s.withDetails(s.db.WithContext(ctx)).First(&o, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("order not found")
		}
		return nil, errs.Internal("failed to fetch order", err)
	}
	return &o, nil
}

func (s *Service) withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id") }).
		Preload("Products.Product")
}

func (s *Service) publish(ctx context.Context, t events.Type, o *models.Order) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.publisher.Publish(ctx, events.NewOrderEvent(t, o)); err != nil {
		s.log.Warn().Err(err).Str("event", string(t)).Uint("order_id", o.ID).Msg("failed to publish order event")
	}
}

func ensureProductsExist(tx *gorm.DB, lines []LineInput) error {
	ids := make([]uint, 0, len(lines))
	seen := make(map[uint]struct{}, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}

	var found int64
	if err := tx.Model(&models.Product{}).Where("id IN ?", ids).Count(&found).Error; err != nil {
		return errs.Internal("failed to check products", err)
	}
	if int(found) != len(ids) {
		return errs.NotFound("product not found")
	}
	return nil
}
