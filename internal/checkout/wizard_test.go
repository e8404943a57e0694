package checkout_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/echoshop/internal/appstate"
	"github.com/Skotchmaster/echoshop/internal/cart"
	"github.com/Skotchmaster/echoshop/internal/checkout"
	"github.com/Skotchmaster/echoshop/internal/client"
	"github.com/Skotchmaster/echoshop/internal/models"
	"github.com/Skotchmaster/echoshop/internal/pricing"
	"github.com/Skotchmaster/echoshop/internal/testserver"
	"github.com/Skotchmaster/echoshop/internal/transport"
)

type session bool

func (s session) LoggedIn() bool { return bool(s) }

var addr = transport.ShippingAddress{Address: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US"}

func product(price string, stock int) models.Product {
	return models.Product{ID: uuid.New(), Name: "Thing", Price: decimal.RequireFromString(price), CountInStock: stock}
}

func filledCart(t *testing.T) *cart.Manager {
	t.Helper()
	m, err := cart.Load(appstate.NewMemoryStore(), pricing.DefaultRules())
	require.NoError(t, err)
	require.NoError(t, m.AddItem(product("20", 5), 2))
	return m
}

type fakePlacer struct {
	calls   int
	got     transport.CreateOrderRequest
	err     error
	release chan struct{}
	started chan struct{}
}

func (f *fakePlacer) CreateOrder(ctx context.Context, req transport.CreateOrderRequest) (*models.Order, error) {
	f.calls++
	f.got = req
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return &models.Order{ID: uuid.New(), TotalPrice: req.TotalPrice}, nil
}

func toReview(t *testing.T, w *checkout.Wizard) {
	t.Helper()
	require.NoError(t, w.SubmitShipping(addr))
	require.NoError(t, w.SubmitPayment(transport.PayPal))
	require.Equal(t, checkout.StepReview, w.Step())
}

func TestBegin_Guards(t *testing.T) {
	_, err := checkout.Begin(session(false), filledCart(t), &fakePlacer{}, nil)
	var re *checkout.RedirectError
	require.True(t, errors.As(err, &re))
	require.Equal(t, "/login", re.To)
	require.Equal(t, "/checkout", re.Return)
	require.Equal(t, "/login?redirect=%2Fcheckout", re.Location())

	empty, err := cart.Load(appstate.NewMemoryStore(), pricing.DefaultRules())
	require.NoError(t, err)
	_, err = checkout.Begin(session(true), empty, &fakePlacer{}, nil)
	require.True(t, errors.As(err, &re))
	require.Equal(t, "/cart", re.Location())
}

func TestBegin_PrefillsAddress(t *testing.T) {
	c := filledCart(t)
	require.NoError(t, c.SetShippingAddress(addr))

	w, err := checkout.Begin(session(true), c, &fakePlacer{}, nil)
	require.NoError(t, err)
	require.Equal(t, checkout.StepShipping, w.Step())
	require.Equal(t, addr, w.Address())
	require.Equal(t, []transport.PaymentMethod{transport.PayPal}, w.Methods())
}

func TestWizard_Transitions(t *testing.T) {
	c := filledCart(t)
	w, err := checkout.Begin(session(true), c, &fakePlacer{}, nil)
	require.NoError(t, err)

	require.ErrorIs(t, w.Back(), checkout.ErrInvalidTransition)
	require.ErrorIs(t, w.SubmitPayment(transport.PayPal), checkout.ErrInvalidTransition)
	_, err = w.PlaceOrder(context.Background())
	require.ErrorIs(t, err, checkout.ErrInvalidTransition)

	blank := addr
	blank.City = "   "
	require.ErrorIs(t, w.SubmitShipping(blank), checkout.ErrValidation)
	require.Equal(t, checkout.StepShipping, w.Step())

	padded := addr
	padded.Address = "  1 Main St  "
	require.NoError(t, w.SubmitShipping(padded))
	require.Equal(t, checkout.StepPayment, w.Step())
	require.Equal(t, addr, c.Cart().ShippingAddress)

	require.ErrorIs(t, w.SubmitPayment(transport.Stripe), checkout.ErrValidation)
	require.ErrorIs(t, w.SubmitPayment("Bitcoin"), checkout.ErrValidation)
	require.NoError(t, w.SubmitPayment(transport.PayPal))
	require.Equal(t, checkout.StepReview, w.Step())
	require.Equal(t, transport.PayPal, c.Cart().PaymentMethod)

	require.NoError(t, w.Back())
	require.Equal(t, checkout.StepPayment, w.Step())
	require.NoError(t, w.Back())
	require.Equal(t, checkout.StepShipping, w.Step())
}

func TestPlaceOrder_Success(t *testing.T) {
	c := filledCart(t)
	placer := &fakePlacer{}
	w, err := checkout.Begin(session(true), c, placer, nil)
	require.NoError(t, err)
	toReview(t, w)

	order, err := w.PlaceOrder(context.Background())
	require.NoError(t, err)
	require.Equal(t, checkout.StepPlaced, w.Step())
	require.Equal(t, "/orders/"+order.ID.String(), w.OrderPath())

	require.Len(t, placer.got.OrderItems, 1)
	require.Equal(t, 2, placer.got.OrderItems[0].Qty)
	require.True(t, placer.got.TotalPrice.Equal(decimal.NewFromInt(56)))
	require.Equal(t, addr, placer.got.ShippingAddress)

	require.True(t, c.Empty())
	require.Equal(t, addr, c.Cart().ShippingAddress)
	require.ErrorIs(t, w.Back(), checkout.ErrInvalidTransition)
	_, err = w.PlaceOrder(context.Background())
	require.ErrorIs(t, err, checkout.ErrInvalidTransition)
}

func TestPlaceOrder_FailureKeepsReview(t *testing.T) {
	c := filledCart(t)
	placer := &fakePlacer{err: &client.APIError{Status: http.StatusBadRequest, Message: "Not enough stock for Thing"}}
	w, err := checkout.Begin(session(true), c, placer, nil)
	require.NoError(t, err)
	toReview(t, w)

	_, err = w.PlaceOrder(context.Background())
	require.Equal(t, "Not enough stock for Thing", client.Message(err))
	require.Equal(t, checkout.StepReview, w.Step())
	require.Equal(t, 2, c.Count())
	require.Nil(t, w.Order())
}

func TestPlaceOrder_RejectsDoubleSubmit(t *testing.T) {
	c := filledCart(t)
	placer := &fakePlacer{release: make(chan struct{}), started: make(chan struct{})}
	w, err := checkout.Begin(session(true), c, placer, nil)
	require.NoError(t, err)
	toReview(t, w)

	done := make(chan error, 1)
	go func() {
		_, err := w.PlaceOrder(context.Background())
		done <- err
	}()

	select {
	case <-placer.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first submission never reached the server")
	}
	_, err = w.PlaceOrder(context.Background())
	require.ErrorIs(t, err, checkout.ErrSubmitInFlight)

	close(placer.release)
	require.NoError(t, <-done)
	require.Equal(t, 1, placer.calls)
	require.Equal(t, checkout.StepPlaced, w.Step())
}

func TestCheckout_AgainstServer(t *testing.T) {
	env := testserver.New(t)
	ctx := context.Background()
	u, token := env.User(t, "buyer@example.com", false)
	p := env.Product(t, "Shirt", "20.00", 5)

	store := appstate.NewMemoryStore()
	st, err := appstate.Open(store)
	require.NoError(t, err)
	api := client.New(env.Server.URL, 5*time.Second)

	// signed out: redirected to login with a way back
	c, err := cart.Load(store, pricing.DefaultRules())
	require.NoError(t, err)
	got, err := api.Product(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, c.AddItem(*got, 2))

	_, err = checkout.Begin(st, c, api, nil)
	var re *checkout.RedirectError
	require.True(t, errors.As(err, &re))

	require.NoError(t, st.SetAuth(transport.AuthUser{ID: u.ID, Name: u.Name, Email: u.Email, Token: token}))
	api.SetToken(st.Token())

	w, err := checkout.Begin(st, c, api, nil)
	require.NoError(t, err)
	toReview(t, w)

	order, err := w.PlaceOrder(ctx)
	require.NoError(t, err)
	require.Equal(t, "40", order.ItemsPrice.String())
	require.Equal(t, "10", order.ShippingPrice.String())
	require.Equal(t, "6", order.TaxPrice.String())
	require.Equal(t, "56", order.TotalPrice.String())
	require.False(t, order.IsPaid)
	require.False(t, order.IsDelivered)
	require.True(t, c.Empty())

	// the cleared cart survives a reload
	again, err := cart.Load(store, pricing.DefaultRules())
	require.NoError(t, err)
	require.True(t, again.Empty())

	fetched, err := api.Order(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, fetched.OrderItems, 1)
	require.Equal(t, []string{"order_created"}, env.Events.Types("order_events"))
}
