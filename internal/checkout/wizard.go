// Package checkout drives order placement: Shipping, Payment, Review, then
// Placed once the server accepts the order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"

	"github.com/Skotchmaster/echoshop/internal/appstate"
	"github.com/Skotchmaster/echoshop/internal/cart"
	"github.com/Skotchmaster/echoshop/internal/models"
	"github.com/Skotchmaster/echoshop/internal/transport"
)

type Step int

const (
	StepShipping Step = iota
	StepPayment
	StepReview
	StepPlaced
)

func (s Step) String() string {
	switch s {
	case StepShipping:
		return "shipping"
	case StepPayment:
		return "payment"
	case StepReview:
		return "review"
	case StepPlaced:
		return "placed"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

var (
	ErrValidation        = errors.New("validation")
	ErrInvalidTransition = errors.New("invalid checkout transition")
	ErrSubmitInFlight    = errors.New("order submission already in progress")
	ErrLoginRequired     = appstate.ErrLoginRequired
)

// RedirectError tells the caller where to send the user instead of the
// checkout. Return is where to come back to afterwards.
type RedirectError struct {
	To     string
	Return string
}

func (e *RedirectError) Error() string {
	return "redirect to " + e.Location()
}

func (e *RedirectError) Location() string {
	if e.Return == "" {
		return e.To
	}
	return e.To + "?redirect=" + url.QueryEscape(e.Return)
}

const (
	PathLogin    = "/login"
	PathCart     = "/cart"
	PathCheckout = "/checkout"
)

// Session reports whether someone is signed in. *appstate.State implements it.
type Session interface {
	LoggedIn() bool
}

// OrderPlacer creates orders. *client.Client implements it.
type OrderPlacer interface {
	CreateOrder(ctx context.Context, req transport.CreateOrderRequest) (*models.Order, error)
}

type Wizard struct {
	cart    *cart.Manager
	orders  OrderPlacer
	methods []transport.PaymentMethod

	step     Step
	address  transport.ShippingAddress
	placed   *models.Order
	inFlight atomic.Bool
}

// Begin enters the checkout. Signed-out users go to the login page first and
// come back here; an empty cart sends the user back to the cart. methods are
// the payment methods that may be picked, PayPal when empty.
func Begin(session Session, c *cart.Manager, orders OrderPlacer, methods []transport.PaymentMethod) (*Wizard, error) {
	if session == nil || !session.LoggedIn() {
		return nil, &RedirectError{To: PathLogin, Return: PathCheckout}
	}
	if c.Empty() {
		return nil, &RedirectError{To: PathCart}
	}
	if len(methods) == 0 {
		methods = []transport.PaymentMethod{transport.PayPal}
	}
	return &Wizard{
		cart:    c,
		orders:  orders,
		methods: methods,
		step:    StepShipping,
		address: c.Cart().ShippingAddress,
	}, nil
}

func (w *Wizard) Step() Step { return w.step }

// Address is the shipping address shown on the first step.
func (w *Wizard) Address() transport.ShippingAddress { return w.address }

func (w *Wizard) Methods() []transport.PaymentMethod {
	return append([]transport.PaymentMethod(nil), w.methods...)
}

// Order is the placed order, nil before StepPlaced.
func (w *Wizard) Order() *models.Order { return w.placed }

func (w *Wizard) expect(s Step) error {
	if w.step != s {
		return fmt.Errorf("%w: at %s, want %s", ErrInvalidTransition, w.step, s)
	}
	return nil
}

func (w *Wizard) SubmitShipping(addr transport.ShippingAddress) error {
	if err := w.expect(StepShipping); err != nil {
		return err
	}
	addr = addr.Trimmed()
	if !addr.Complete() {
		return fmt.Errorf("%w: address, city, postal code and country are required", ErrValidation)
	}
	if err := w.cart.SetShippingAddress(addr); err != nil {
		return err
	}
	w.address = addr
	w.step = StepPayment
	return nil
}

func (w *Wizard) methodEnabled(m transport.PaymentMethod) bool {
	if !m.Known() {
		return false
	}
	for _, e := range w.methods {
		if e == m {
			return true
		}
	}
	return false
}

func (w *Wizard) SubmitPayment(method transport.PaymentMethod) error {
	if err := w.expect(StepPayment); err != nil {
		return err
	}
	if !w.methodEnabled(method) {
		return fmt.Errorf("%w: payment method %q is not available", ErrValidation, method)
	}
	if err := w.cart.SetPaymentMethod(method); err != nil {
		return err
	}
	w.step = StepReview
	return nil
}

// Back moves one step backwards. There is nothing before Shipping and no way
// back from Placed.
func (w *Wizard) Back() error {
	switch w.step {
	case StepPayment, StepReview:
		w.step--
		return nil
	}
	return fmt.Errorf("%w: cannot go back from %s", ErrInvalidTransition, w.step)
}

// Summary is what the review step shows: the cart exactly as it will be
// submitted.
func (w *Wizard) Summary() transport.Cart { return w.cart.Cart() }

// PlaceOrder submits the cart. On failure the wizard stays on Review and the
// cart is untouched; the error carries the server's message.
func (w *Wizard) PlaceOrder(ctx context.Context) (*models.Order, error) {
	if !w.inFlight.CompareAndSwap(false, true) {
		return nil, ErrSubmitInFlight
	}
	defer w.inFlight.Store(false)

	if err := w.expect(StepReview); err != nil {
		return nil, err
	}

	req := transport.OrderRequestFromCart(w.cart.Cart())
	order, err := w.orders.CreateOrder(ctx, req)
	if err != nil {
		return nil, err
	}

	w.placed = order
	w.step = StepPlaced
	if err := w.cart.Clear(); err != nil {
		return order, fmt.Errorf("order placed, clearing cart: %w", err)
	}
	return order, nil
}

// OrderPath is where to send the user after placing the order.
func (w *Wizard) OrderPath() string {
	if w.placed == nil {
		return ""
	}
	return "/orders/" + w.placed.ID.String()
}
