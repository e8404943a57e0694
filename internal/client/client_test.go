package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/echoshop/internal/client"
	"github.com/Skotchmaster/echoshop/internal/pricing"
	"github.com/Skotchmaster/echoshop/internal/testserver"
	"github.com/Skotchmaster/echoshop/internal/transport"
)

func newClient(t *testing.T) (*testserver.Env, *client.Client) {
	t.Helper()
	env := testserver.New(t)
	return env, client.New(env.Server.URL, 5*time.Second)
}

func TestCache_Invalidate(t *testing.T) {
	c := client.NewCache()
	c.Put("/a", []byte("a"), client.TagProduct)
	c.Put("/b", []byte("b"), client.Tag(client.TagProduct, "1"))
	c.Put("/c", []byte("c"), client.TagOrder)
	c.Put("/untagged", []byte("x"))

	require.Equal(t, 3, c.Len())
	require.Equal(t, 1, c.Invalidate(client.Tag(client.TagProduct, "1")))

	_, ok := c.Get("/b")
	require.False(t, ok)
	body, ok := c.Get("/a")
	require.True(t, ok)
	require.Equal(t, "a", string(body))

	require.Equal(t, 2, c.Invalidate(client.TagProduct, client.TagOrder))
	require.Equal(t, 0, c.Len())
}

func TestAPIError_MessageAndFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/products/top":
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte(`{"message":"short and stout"}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`<html>bad gateway</html>`))
		}
	}))
	defer srv.Close()
	c := client.New(srv.URL, time.Second)

	_, err := c.TopProducts(context.Background())
	var ae *client.APIError
	require.True(t, errors.As(err, &ae))
	require.Equal(t, http.StatusTeapot, ae.Status)
	require.Equal(t, "short and stout", client.Message(err))

	_, err = c.Products(context.Background(), client.ProductQuery{})
	require.Equal(t, client.FallbackMessage, client.Message(err))
	require.Equal(t, http.StatusBadGateway, client.StatusOf(err))
}

func TestAPIError_NoServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := client.New(url, time.Second).TopProducts(context.Background())
	require.Error(t, err)
	require.Equal(t, client.FallbackMessage, client.Message(err))
	require.Equal(t, 0, client.StatusOf(err))
}

func TestClient_CachesUntilInvalidated(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()
	c := client.New(srv.URL, time.Second)

	for i := 0; i < 3; i++ {
		_, err := c.TopProducts(context.Background())
		require.NoError(t, err)
	}
	require.EqualValues(t, 1, hits.Load())

	c.Cache().Invalidate(client.TagProduct)
	_, err := c.TopProducts(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, hits.Load())

	c.SetToken("other-session")
	_, err = c.TopProducts(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 3, hits.Load())
}

func TestClient_ProductFilters(t *testing.T) {
	env, c := newClient(t)
	env.Product(t, "Cable", "9.50", 3)
	env.Product(t, "Phone", "499.99", 3)
	env.Product(t, "Laptop", "900", 3)

	page, err := c.Products(context.Background(), client.ProductQuery{
		Category: "Electronics",
		MinPrice: decimal.NewNullDecimal(decimal.NewFromInt(10)),
		MaxPrice: decimal.NewNullDecimal(decimal.NewFromInt(1000)),
		Sort:     "highest",
		All:      true,
	})
	require.NoError(t, err)
	require.Len(t, page.Products, 2)
	assert.Equal(t, "Laptop", page.Products[0].Name)
	assert.Equal(t, "Phone", page.Products[1].Name)

	_, err = c.Products(context.Background(), client.ProductQuery{Category: "Toys"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, client.StatusOf(err))
	assert.Equal(t, `Unknown category "Toys"`, client.Message(err))
}

func TestClient_AuthFlow(t *testing.T) {
	_, c := newClient(t)
	ctx := context.Background()

	au, err := c.Register(ctx, transport.RegisterRequest{Name: "Ann", Email: "ann@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.Equal(t, au.Token, c.Token())

	_, err = c.Register(ctx, transport.RegisterRequest{Name: "Ann", Email: "ann@example.com", Password: "secret1"})
	require.Equal(t, "User already exists", client.Message(err))

	p, err := c.UpdateProfile(ctx, transport.ProfileRequest{Name: "Ann B"})
	require.NoError(t, err)
	require.Equal(t, "Ann B", p.Name)

	profile, err := c.Profile(ctx)
	require.NoError(t, err)
	require.Equal(t, "Ann B", profile.Name)

	require.NoError(t, c.Logout(ctx))
	require.Empty(t, c.Token())

	_, err = c.Profile(ctx)
	require.Equal(t, http.StatusUnauthorized, client.StatusOf(err))

	_, err = c.Login(ctx, "ann@example.com", "wrong")
	require.Equal(t, "Invalid email or password", client.Message(err))

	_, err = c.Login(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, c.Token())
}

func TestClient_ReviewInvalidatesProduct(t *testing.T) {
	env, c := newClient(t)
	ctx := context.Background()
	_, token := env.User(t, "r@example.com", false)
	c.SetToken(token)
	p := env.Product(t, "Phone", "10.00", 4)

	before, err := c.Product(ctx, p.ID)
	require.NoError(t, err)
	require.Zero(t, before.NumReviews)

	require.NoError(t, c.CreateReview(ctx, p.ID, transport.ReviewRequest{Rating: 5, Comment: "great"}))

	after, err := c.Product(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 1, after.NumReviews)
	require.InDelta(t, 5.0, after.Rating, 0.001)

	err = c.CreateReview(ctx, p.ID, transport.ReviewRequest{Rating: 1, Comment: "changed my mind"})
	require.Equal(t, "Product already reviewed", client.Message(err))
}

func TestClient_AdminProductsAndUsers(t *testing.T) {
	env, c := newClient(t)
	ctx := context.Background()
	u, _ := env.User(t, "u@example.com", false)
	_, admin := env.User(t, "a@example.com", true)
	c.SetToken(admin)

	page, err := c.Products(ctx, client.ProductQuery{All: true})
	require.NoError(t, err)
	require.Empty(t, page.Products)

	sample, err := c.CreateProduct(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, "Sample name", sample.Name)

	page, err = c.Products(ctx, client.ProductQuery{All: true})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)

	updated, err := c.UpdateProduct(ctx, sample.ID, transport.ProductRequest{
		Name: "Lamp", Price: decimal.RequireFromString("19.99"), Image: "/images/lamp.jpg",
		Brand: "Glow", Category: "Home & Garden", CountInStock: 7, Description: "bright",
	})
	require.NoError(t, err)
	require.Equal(t, "Lamp", updated.Name)

	got, err := c.Product(ctx, sample.ID)
	require.NoError(t, err)
	require.Equal(t, "Home & Garden", got.Category)

	require.NoError(t, c.DeleteProduct(ctx, sample.ID))
	_, err = c.Product(ctx, sample.ID)
	require.Equal(t, http.StatusNotFound, client.StatusOf(err))

	users, err := c.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	_, err = c.UpdateUser(ctx, u.ID, transport.AdminUserRequest{Name: "Renamed", Email: u.Email})
	require.NoError(t, err)
	require.NoError(t, c.DeleteUser(ctx, u.ID))

	users, err = c.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func TestClient_OrdersCartUploadConfig(t *testing.T) {
	env, c := newClient(t)
	ctx := context.Background()
	_, token := env.User(t, "o@example.com", false)
	_, admin := env.User(t, "a@example.com", true)
	c.SetToken(token)
	p := env.Product(t, "Phone", "20.00", 5)

	cart := transport.Cart{
		CartItems:       []transport.CartItem{{Product: p.ID, Name: p.Name, Image: p.Image, Price: p.Price, CountInStock: 5, Qty: 2}},
		ShippingAddress: transport.ShippingAddress{Address: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US"},
		PaymentMethod:   transport.PayPal,
	}
	mirrored, err := c.PutCart(ctx, cart)
	require.NoError(t, err)
	require.Equal(t, "56", mirrored.TotalPrice.String())

	fetched, err := c.Cart(ctx)
	require.NoError(t, err)
	require.Len(t, fetched.CartItems, 1)
	require.NoError(t, c.ClearCart(ctx))

	cart.Totals = pricing.DefaultRules().Compute(transport.Lines(cart.CartItems))
	o, err := c.CreateOrder(ctx, transport.OrderRequestFromCart(cart))
	require.NoError(t, err)

	mine, err := c.MyOrders(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	paid, err := c.PayOrder(ctx, o.ID, transport.PaymentResult{ID: "PAY-9", Status: "COMPLETED"})
	require.NoError(t, err)
	require.True(t, paid.IsPaid)

	again, err := c.Order(ctx, o.ID)
	require.NoError(t, err)
	require.True(t, again.IsPaid)

	_, err = c.DeliverOrder(ctx, o.ID)
	require.Equal(t, http.StatusForbidden, client.StatusOf(err))

	image, err := c.UploadImage(ctx, "avatar.jpg", strings.NewReader("jpeg bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(image, "/uploads/"))

	id, err := c.PayPalClientID(ctx)
	require.NoError(t, err)
	require.Equal(t, "test-client", id)

	c.SetToken(admin)
	all, err := c.Orders(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	delivered, err := c.DeliverOrder(ctx, o.ID)
	require.NoError(t, err)
	require.True(t, delivered.IsDelivered)
}
