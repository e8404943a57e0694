package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/echoshop/internal/events"
	"github.com/Skotchmaster/echoshop/internal/models"
	"github.com/Skotchmaster/echoshop/internal/pricing"
	"github.com/Skotchmaster/echoshop/internal/repo"
	"github.com/Skotchmaster/echoshop/internal/transport"
	"github.com/Skotchmaster/echoshop/pkg/logging"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID  uuid.UUID
	IsAdmin bool
}

type OrderService struct {
	Repo           *repo.GormRepo
	Rules          pricing.Rules
	PaymentMethods []transport.PaymentMethod
	Events         events.Publisher
	Now            func() time.Time
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *OrderService) methodEnabled(m transport.PaymentMethod) bool {
	if !m.Known() {
		return false
	}
	for _, e := range s.PaymentMethods {
		if e == m {
			return true
		}
	}
	return false
}

// CreateOrder freezes the submitted cart into an order. Stock is checked but
// not decremented.
func (s *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, req transport.CreateOrderRequest) (*models.Order, error) {
	if len(req.OrderItems) == 0 {
		return nil, fail(ErrValidation, "No order items")
	}
	if !req.ShippingAddress.Complete() {
		return nil, fail(ErrValidation, "Shipping address is incomplete")
	}
	if !s.methodEnabled(req.PaymentMethod) {
		return nil, fail(ErrValidation, "Payment method %q is not available", string(req.PaymentMethod))
	}

	ids := make([]uuid.UUID, 0, len(req.OrderItems))
	for _, it := range req.OrderItems {
		ids = append(ids, it.Product)
	}
	products, err := s.Repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load order products: %w", err)
	}

	seen := make(map[uuid.UUID]bool, len(req.OrderItems))
	items := make([]models.OrderItem, 0, len(req.OrderItems))
	for _, it := range req.OrderItems {
		p, ok := products[it.Product]
		switch {
		case !ok:
			return nil, fail(ErrValidation, "Product not found: %s", it.Product)
		case seen[it.Product]:
			return nil, fail(ErrValidation, "Duplicate order item %s", p.Name)
		case it.Qty < 1:
			return nil, fail(ErrValidation, "Invalid quantity for %s", p.Name)
		case it.Qty > p.CountInStock:
			return nil, fail(ErrValidation, "Not enough stock for %s", p.Name)
		case !it.Price.Equal(p.Price):
			return nil, fail(ErrValidation, "Price changed for %s", p.Name)
		}
		seen[it.Product] = true
		name := it.Name
		if name == "" {
			name = p.Name
		}
		image := it.Image
		if image == "" {
			image = p.Image
		}
		items = append(items, models.OrderItem{
			ProductID: it.Product,
			Name:      name,
			Image:     image,
			Price:     p.Price,
			Qty:       it.Qty,
		})
	}

	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, pricing.Line{Price: it.Price, Qty: it.Qty})
	}
	if want := s.Rules.Compute(lines); !want.Equal(req.Totals) {
		logging.FromContext(ctx).Warn("order_totals_mismatch",
			"submitted_total", req.TotalPrice.String(), "expected_total", want.TotalPrice.String())
		return nil, fail(ErrValidation, "Order totals do not match the cart")
	}

	order := &models.Order{
		UserID:          userID,
		OrderItems:      items,
		ShippingAddress: req.ShippingAddress.Trimmed(),
		PaymentMethod:   string(req.PaymentMethod),
		ItemsPrice:      req.ItemsPrice,
		ShippingPrice:   req.ShippingPrice,
		TaxPrice:        req.TaxPrice,
		TotalPrice:      req.TotalPrice,
	}
	if err := s.Repo.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.publish(ctx, "order_created", order)
	return order, nil
}

// GetOrder hides orders of other users behind ErrNotFound.
func (s *OrderService) GetOrder(ctx context.Context, who Principal, id uuid.UUID) (*models.Order, error) {
	o, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(ErrNotFound, "Order not found")
		}
		return nil, err
	}
	if o.UserID != who.UserID && !who.IsAdmin {
		return nil, fail(ErrNotFound, "Order not found")
	}
	return o, nil
}

func (s *OrderService) MyOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return s.Repo.ListOrdersByUser(ctx, userID)
}

func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.Repo.ListOrders(ctx)
}

func (s *OrderService) PayOrder(ctx context.Context, who Principal, id uuid.UUID, result transport.PaymentResult) (*models.Order, error) {
	if _, err := s.GetOrder(ctx, who, id); err != nil {
		return nil, err
	}
	o, err := s.Repo.MarkPaid(ctx, id, result, s.now())
	switch {
	case errors.Is(err, repo.ErrAlreadyPaid):
		return nil, fail(ErrValidation, "Order already paid")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fail(ErrNotFound, "Order not found")
	case err != nil:
		return nil, fmt.Errorf("mark paid: %w", err)
	}
	s.publish(ctx, "order_paid", o)
	return o, nil
}

func (s *OrderService) DeliverOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	o, err := s.Repo.MarkDelivered(ctx, id, s.now())
	switch {
	case errors.Is(err, repo.ErrAlreadyDelivered):
		return nil, fail(ErrValidation, "Order already delivered")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fail(ErrNotFound, "Order not found")
	case err != nil:
		return nil, fmt.Errorf("mark delivered: %w", err)
	}
	s.publish(ctx, "order_delivered", o)
	return o, nil
}

func (s *OrderService) publish(ctx context.Context, typ string, o *models.Order) {
	events.Publish(ctx, s.Events, logging.FromContext(ctx), events.TopicOrders, o.ID.String(), map[string]any{
		"type":       typ,
		"orderID":    o.ID,
		"userID":     o.UserID,
		"totalPrice": o.TotalPrice,
	})
}
