package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/echoshop/internal/pricing"
	"github.com/Skotchmaster/echoshop/internal/repo"
	"github.com/Skotchmaster/echoshop/internal/transport"
)

// CartStore is implemented by repo.GormRepo and repo.RedisCartRepo.
type CartStore interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*transport.Cart, error)
	PutCart(ctx context.Context, userID uuid.UUID, cart transport.Cart) error
	DeleteCart(ctx context.Context, userID uuid.UUID) error
}

type CartService struct {
	Store CartStore
	Rules pricing.Rules
}

func emptyCart() *transport.Cart {
	return &transport.Cart{CartItems: []transport.CartItem{}, Totals: pricing.Zero()}
}

// GetCart returns an empty cart when nothing is mirrored yet.
func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*transport.Cart, error) {
	c, err := s.Store.GetCart(ctx, userID)
	if errors.Is(err, repo.ErrCartNotFound) {
		return emptyCart(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return c, nil
}

// PutCart replaces the mirror. Totals are recomputed here, never trusted.
func (s *CartService) PutCart(ctx context.Context, userID uuid.UUID, in transport.Cart) (*transport.Cart, error) {
	seen := make(map[uuid.UUID]bool, len(in.CartItems))
	items := make([]transport.CartItem, 0, len(in.CartItems))
	for _, it := range in.CartItems {
		if it.Product == uuid.Nil {
			return nil, fail(ErrValidation, "Cart item without product")
		}
		if it.Qty < 1 {
			return nil, fail(ErrValidation, "Invalid quantity for %s", it.Name)
		}
		if it.Price.IsNegative() {
			return nil, fail(ErrValidation, "Invalid price for %s", it.Name)
		}
		if seen[it.Product] {
			return nil, fail(ErrValidation, "Duplicate cart item %s", it.Name)
		}
		seen[it.Product] = true
		items = append(items, it)
	}
	if in.PaymentMethod != "" && !in.PaymentMethod.Known() {
		return nil, fail(ErrValidation, "Unknown payment method %q", string(in.PaymentMethod))
	}

	out := transport.Cart{
		CartItems:       items,
		ShippingAddress: in.ShippingAddress.Trimmed(),
		PaymentMethod:   in.PaymentMethod,
		Totals:          s.Rules.Compute(transport.Lines(items)),
	}
	if err := s.Store.PutCart(ctx, userID, out); err != nil {
		return nil, fmt.Errorf("put cart: %w", err)
	}
	return &out, nil
}

func (s *CartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	if err := s.Store.DeleteCart(ctx, userID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
