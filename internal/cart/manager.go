// Package cart is the client-side cart. The client owns it until checkout;
// the server mirror is optional.
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/echoshop/internal/appstate"
	"github.com/Skotchmaster/echoshop/internal/models"
	"github.com/Skotchmaster/echoshop/internal/pricing"
	"github.com/Skotchmaster/echoshop/internal/transport"
	"github.com/Skotchmaster/echoshop/internal/util"
)

var ErrOutOfStock = errors.New("product is out of stock")

type Store interface {
	Load(key string, v any) (bool, error)
	Save(key string, v any) error
}

// Mirror receives the cart of a signed-in user. *client.Client implements it.
type Mirror interface {
	PutCart(ctx context.Context, cart transport.Cart) (*transport.Cart, error)
}

type Manager struct {
	store Store
	rules pricing.Rules
	cart  transport.Cart
}

func empty() transport.Cart {
	return transport.Cart{CartItems: []transport.CartItem{}, Totals: pricing.Zero()}
}

// Load rehydrates the cart saved in store. A missing entry gives an empty
// cart. Totals are recomputed rather than trusted.
func Load(store Store, rules pricing.Rules) (*Manager, error) {
	m := &Manager{store: store, rules: rules, cart: empty()}

	var saved transport.Cart
	ok, err := store.Load(appstate.KeyCart, &saved)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if ok {
		if saved.CartItems == nil {
			saved.CartItems = []transport.CartItem{}
		}
		saved.Totals = rules.Compute(transport.Lines(saved.CartItems))
		m.cart = saved
	}
	return m, nil
}

// Cart returns a copy of the current cart.
func (m *Manager) Cart() transport.Cart {
	c := m.cart
	c.CartItems = append([]transport.CartItem{}, m.cart.CartItems...)
	return c
}

func (m *Manager) Empty() bool { return len(m.cart.CartItems) == 0 }

// Count is the number of units in the cart.
func (m *Manager) Count() int {
	n := 0
	for _, it := range m.cart.CartItems {
		n += it.Qty
	}
	return n
}

func (m *Manager) Totals() pricing.Totals { return m.cart.Totals }

// commit recomputes the totals of next and persists it. The in-memory cart
// only changes when the save succeeds.
func (m *Manager) commit(next transport.Cart) error {
	next.Totals = m.rules.Compute(transport.Lines(next.CartItems))
	if err := m.store.Save(appstate.KeyCart, next); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	m.cart = next
	return nil
}

// AddItem sets the quantity of p in the cart to qty, clamped to
// [1, countInStock]. A product already in the cart has its quantity replaced.
func (m *Manager) AddItem(p models.Product, qty int) error {
	if p.CountInStock < 1 {
		return ErrOutOfStock
	}
	item := transport.CartItem{
		Product:      p.ID,
		Name:         p.Name,
		Image:        p.Image,
		Category:     p.Category,
		Price:        p.Price,
		CountInStock: p.CountInStock,
		Qty:          util.Clamp(qty, 1, p.CountInStock),
	}

	next := m.Cart()
	for i := range next.CartItems {
		if next.CartItems[i].Product == p.ID {
			next.CartItems[i] = item
			return m.commit(next)
		}
	}
	next.CartItems = append(next.CartItems, item)
	return m.commit(next)
}

func (m *Manager) RemoveItem(productID uuid.UUID) error {
	next := m.Cart()
	kept := next.CartItems[:0]
	for _, it := range next.CartItems {
		if it.Product != productID {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(m.cart.CartItems) {
		return nil
	}
	next.CartItems = kept
	return m.commit(next)
}

func (m *Manager) SetShippingAddress(addr transport.ShippingAddress) error {
	next := m.Cart()
	next.ShippingAddress = addr
	return m.commit(next)
}

func (m *Manager) SetPaymentMethod(method transport.PaymentMethod) error {
	next := m.Cart()
	next.PaymentMethod = method
	return m.commit(next)
}

// Clear empties the items and zeroes the totals. The address and payment
// method stay for the next checkout.
func (m *Manager) Clear() error {
	next := empty()
	next.ShippingAddress = m.cart.ShippingAddress
	next.PaymentMethod = m.cart.PaymentMethod
	return m.commit(next)
}

// Sync pushes the cart to the server mirror once. The local cart is not
// changed by the reply.
func (m *Manager) Sync(ctx context.Context, mirror Mirror) error {
	if mirror == nil {
		return nil
	}
	if _, err := mirror.PutCart(ctx, m.Cart()); err != nil {
		return fmt.Errorf("sync cart: %w", err)
	}
	return nil
}
