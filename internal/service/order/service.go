// Package order builds immutable order snapshots from client line items and manages the
// order status lifecycle.
package order

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/access"
	"storefront/internal/domain"
	"storefront/internal/events"
	orderrepo "storefront/internal/repository/order"
	"storefront/internal/service/resolver"
)

const (
	deliveryLead   = 3 * 24 * time.Hour
	deliveryJitter = 3 * 24 * time.Hour
	notifyTimeout  = 5 * time.Second
)

// ItemInput is a client line item. ProductID takes precedence over ID.
type ItemInput struct {
	ProductID string
	ID        string
	Name      string
	Image     string
	Price     decimal.NullDecimal
	Quantity  int
	Options   map[string]string
}

type CreateInput struct {
	Items           []ItemInput
	ShippingAddress string
	PaymentMethod   string
	Tax             decimal.Decimal
	Shipping        decimal.Decimal
	// Total defaults to subtotal + tax + shipping when not set.
	Total decimal.NullDecimal
}

type StatusInput struct {
	Status                string
	TrackingNumber        *string
	EstimatedDeliveryDate *time.Time
}

type cartClearer interface {
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

type userLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type confirmer interface {
	SendConfirmation(ctx context.Context, to string, o *domain.Order) error
}

type Service struct {
	orders    orderrepo.Repository
	carts     cartClearer
	resolver  *resolver.Resolver
	publisher events.Publisher
	mailer    confirmer
	users     userLookup
	logger    *zap.Logger
	now       func() time.Time
	jitter    func() time.Duration
}

type Option func(*Service)

// WithPublisher emits order events after creation and status changes.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithMailer sends a confirmation to the owner's email after creation.
func WithMailer(m confirmer, users userLookup) Option {
	return func(s *Service) {
		s.mailer = m
		s.users = users
	}
}

// WithClock replaces the time source and delivery-date jitter.
func WithClock(now func() time.Time, jitter func() time.Duration) Option {
	return func(s *Service) {
		s.now = now
		s.jitter = jitter
	}
}

func New(orders orderrepo.Repository, carts cartClearer, products resolver.Source, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		orders:    orders,
		carts:     carts,
		resolver:  resolver.Lenient(products),
		publisher: events.Noop{},
		logger:    logger.Named("order_service"),
		now:       time.Now,
		jitter:    func() time.Duration { return time.Duration(rand.Int63n(int64(deliveryJitter))) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create freezes the client items into an order, then clears the owner's cart.
// Unresolvable products become placeholder lines rather than failing the order.
func (s *Service) Create(ctx context.Context, p access.Principal, in CreateInput) (*domain.Order, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	items := make([]domain.OrderLineItem, 0, len(in.Items))
	subtotal := decimal.Zero
	for _, it := range in.Items {
		line, err := s.snapshot(ctx, it)
		if err != nil {
			return nil, domain.StoreError(err, "Failed to create order")
		}
		items = append(items, line)
		subtotal = subtotal.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	total := subtotal.Add(in.Tax).Add(in.Shipping)
	if in.Total.Valid {
		total = in.Total.Decimal
	}

	created, err := s.orders.Create(ctx, domain.Order{
		UserID:          p.UserID,
		Items:           items,
		ShippingAddress: strings.TrimSpace(in.ShippingAddress),
		PaymentMethod:   strings.TrimSpace(in.PaymentMethod),
		Subtotal:        subtotal,
		Tax:             in.Tax,
		Shipping:        in.Shipping,
		Total:           total,
		Status:          domain.OrderStatusPending,
	})
	if err != nil {
		return nil, domain.StoreError(err, "Failed to create order")
	}

	if _, err := s.carts.DeleteByUser(ctx, p.UserID); err != nil {
		s.logger.Warn("order created but cart not cleared",
			zap.String("order_id", created.ID),
			zap.String("user_id", p.UserID),
			zap.Error(err),
		)
	}

	s.publish(ctx, events.OrderCreated, created)
	s.confirm(ctx, created)
	return created, nil
}

func validateCreate(in CreateInput) error {
	if len(in.Items) == 0 {
		return domain.InvalidArgument("Order must have at least one item")
	}
	if strings.TrimSpace(in.ShippingAddress) == "" {
		return domain.InvalidArgument("Shipping address is required")
	}
	if strings.TrimSpace(in.PaymentMethod) == "" {
		return domain.InvalidArgument("Payment method is required")
	}
	for _, it := range in.Items {
		if it.Quantity < 1 {
			return domain.InvalidArgument("Item quantity must be at least 1")
		}
	}
	if in.Tax.IsNegative() || in.Shipping.IsNegative() || (in.Total.Valid && in.Total.Decimal.IsNegative()) {
		return domain.InvalidArgument("Order amounts must not be negative")
	}
	return nil
}

// snapshot prices a line in whole cents so stored lines always sum to the subtotal.
func (s *Service) snapshot(ctx context.Context, it ItemInput) (domain.OrderLineItem, error) {
	ref := strings.TrimSpace(it.ProductID)
	if ref == "" {
		ref = strings.TrimSpace(it.ID)
	}
	product, err := s.resolver.Resolve(ctx, resolver.Reference{ID: ref, Name: it.Name, Image: it.Image, Price: it.Price})
	if err != nil {
		return domain.OrderLineItem{}, err
	}

	price := decimal.Zero
	switch {
	case product.Price.Valid:
		price = product.Price.Decimal
	case it.Price.Valid && !it.Price.Decimal.IsNegative():
		price = it.Price.Decimal
	}
	price = price.Round(2)
	image := product.PrimaryImage()
	if image == "" {
		image = domain.PlaceholderImage
	}
	return domain.OrderLineItem{
		ProductID: product.ReferenceID(),
		Name:      product.Name,
		Image:     image,
		Price:     price,
		Quantity:  it.Quantity,
		Options:   it.Options,
	}, nil
}

// ListMine returns the principal's orders, newest first.
func (s *Service) ListMine(ctx context.Context, p access.Principal) ([]domain.Order, error) {
	orders, err := s.orders.ListByUser(ctx, p.UserID)
	if err != nil {
		return nil, domain.StoreError(err, "Failed to load orders")
	}
	for i := range orders {
		if orders[i].Status == "" {
			orders[i].Status = domain.OrderStatusPending
		}
	}
	return orders, nil
}

// Get returns one order owned by the principal. A missing delivery estimate is filled
// in for the response only.
func (s *Service) Get(ctx context.Context, p access.Principal, id string) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, domain.StoreError(err, "Order not found")
	}
	if err := access.RequireOwner(p, o.UserID); err != nil {
		return nil, err
	}
	if o.Status == "" {
		o.Status = domain.OrderStatusPending
	}
	if o.EstimatedDeliveryDate == nil {
		eta := s.now().Add(deliveryLead + s.jitter())
		o.EstimatedDeliveryDate = &eta
	}
	return o, nil
}

// ListAll returns every order with its owner. Admin only.
func (s *Service) ListAll(ctx context.Context, p access.Principal) ([]domain.Order, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, domain.StoreError(err, "Failed to load orders")
	}
	return orders, nil
}

// UpdateStatus moves an order along its lifecycle. Admin only.
func (s *Service) UpdateStatus(ctx context.Context, p access.Principal, id string, in StatusInput) (*domain.Order, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	next := domain.OrderStatus(strings.ToLower(strings.TrimSpace(in.Status)))
	if next == "" {
		return nil, domain.InvalidArgument("Status is required")
	}
	if !next.IsValid() {
		return nil, domain.InvalidArgument(fmt.Sprintf("Invalid order status: %s", in.Status))
	}

	current, err := s.orders.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, domain.StoreError(err, "Order not found")
	}
	if !current.Status.CanTransitionTo(next) {
		from := current.Status
		if from == "" {
			from = domain.OrderStatusPending
		}
		return nil, domain.InvalidArgument(fmt.Sprintf("Cannot change order status from %s to %s", from, next))
	}

	upd := orderrepo.StatusUpdate{Status: next, EstimatedDeliveryDate: in.EstimatedDeliveryDate}
	if in.TrackingNumber != nil {
		tn := strings.TrimSpace(*in.TrackingNumber)
		upd.TrackingNumber = &tn
	}
	updated, err := s.orders.UpdateStatus(ctx, current.ID, upd)
	if err != nil {
		return nil, domain.StoreError(err, "Failed to update order status")
	}

	s.logger.Info("order status updated",
		zap.String("order_id", updated.ID),
		zap.String("from", string(current.Status)),
		zap.String("to", string(updated.Status)),
	)
	s.publish(ctx, events.OrderStatusChanged, updated)
	return updated, nil
}

func (s *Service) publish(ctx context.Context, kind string, o *domain.Order) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := s.publisher.Publish(ctx, events.NewOrderEvent(kind, o, s.now())); err != nil {
		s.logger.Warn("publish order event failed", zap.String("event", kind), zap.String("order_id", o.ID), zap.Error(err))
	}
}

func (s *Service) confirm(ctx context.Context, o *domain.Order) {
	if s.mailer == nil || s.users == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	u, err := s.users.GetByID(ctx, o.UserID)
	if err != nil {
		s.logger.Warn("load order owner for confirmation", zap.String("order_id", o.ID), zap.Error(err))
		return
	}
	if err := s.mailer.SendConfirmation(ctx, u.Email, o); err != nil {
		s.logger.Warn("send order confirmation failed", zap.String("order_id", o.ID), zap.Error(err))
	}
}
