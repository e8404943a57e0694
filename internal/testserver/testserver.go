// Package testserver runs the full API on in-memory sqlite for tests.
package testserver

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/echoshop/internal/events"
	"github.com/Skotchmaster/echoshop/internal/httpserver"
	"github.com/Skotchmaster/echoshop/internal/models"
	"github.com/Skotchmaster/echoshop/internal/pricing"
	"github.com/Skotchmaster/echoshop/internal/repo"
	"github.com/Skotchmaster/echoshop/internal/service"
	"github.com/Skotchmaster/echoshop/internal/testdb"
	"github.com/Skotchmaster/echoshop/internal/transport"
	"github.com/Skotchmaster/echoshop/pkg/hash"
	"github.com/Skotchmaster/echoshop/pkg/logging"
	middleware "github.com/Skotchmaster/echoshop/pkg/middleware/auth"
	"github.com/Skotchmaster/echoshop/pkg/tokens"
)

const Secret = "test-jwt-secret"

type Env struct {
	Echo      *echo.Echo
	Server    *httptest.Server
	Repo      *repo.GormRepo
	Events    *events.Recorder
	Tokens    *tokens.Issuer
	UploadDir string
}

// New starts the API. The server is closed when the test ends.
func New(t *testing.T) *Env {
	t.Helper()
	hash.Cost = bcrypt.MinCost

	r := testdb.NewRepo(t)
	rec := &events.Recorder{}
	issuer := &tokens.Issuer{Secret: []byte(Secret), TTL: time.Hour}
	uploadDir := t.TempDir()
	rules := pricing.DefaultRules()

	e := httpserver.New(logging.NewTo(io.Discard, "error"), httpserver.Options{}, &httpserver.Deps{
		Products: &httpserver.ProductHTTP{Svc: &service.ProductService{Repo: r, Events: rec}},
		Users: &httpserver.UserHTTP{
			Svc:    &service.UserService{Repo: r, Tokens: issuer, Events: rec},
			Tokens: issuer,
		},
		Orders: &httpserver.OrderHTTP{Svc: &service.OrderService{
			Repo:           r,
			Rules:          rules,
			PaymentMethods: []transport.PaymentMethod{transport.PayPal, transport.Stripe},
			Events:         rec,
		}},
		Carts:     &httpserver.CartHTTP{Svc: &service.CartService{Store: r, Rules: rules}},
		Uploads:   &httpserver.UploadHTTP{Svc: &service.UploadService{Dir: uploadDir, MaxBytes: 1 << 20, PublicPrefix: "/uploads"}},
		Config:    &httpserver.ConfigHTTP{PayPalClientID: "test-client"},
		Auth:      middleware.NewSessionAuth([]byte(Secret), r),
		UploadDir: uploadDir,
	})

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	return &Env{Echo: e, Server: srv, Repo: r, Events: rec, Tokens: issuer, UploadDir: uploadDir}
}

// User stores a user with password "123456" and returns it with a session
// token.
func (env *Env) User(t *testing.T, email string, admin bool) (*models.User, string) {
	t.Helper()
	pw, err := hash.HashPassword("123456")
	require.NoError(t, err)

	u := &models.User{Name: "User " + email, Email: email, PasswordHash: pw, IsAdmin: admin}
	require.NoError(t, env.Repo.CreateUser(context.Background(), u))

	issued, err := env.Tokens.Issue(u.ID, admin)
	require.NoError(t, err)
	return u, issued.Token
}

func (env *Env) Product(t *testing.T, name, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		UserID:       uuid.New(),
		Name:         name,
		Price:        decimal.RequireFromString(price),
		Image:        "/images/" + name + ".jpg",
		Brand:        "Acme",
		Category:     "Electronics",
		CountInStock: stock,
		Description:  "desc",
	}
	require.NoError(t, env.Repo.CreateProduct(context.Background(), p))
	return p
}
