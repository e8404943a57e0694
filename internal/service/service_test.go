package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/echoshop/internal/events"
	"github.com/Skotchmaster/echoshop/internal/models"
	"github.com/Skotchmaster/echoshop/internal/pricing"
	"github.com/Skotchmaster/echoshop/internal/repo"
	"github.com/Skotchmaster/echoshop/internal/testdb"
	"github.com/Skotchmaster/echoshop/internal/transport"
	"github.com/Skotchmaster/echoshop/pkg/hash"
	"github.com/Skotchmaster/echoshop/pkg/tokens"
)

func init() {
	hash.Cost = bcrypt.MinCost
}

type testEnv struct {
	repo     *repo.GormRepo
	events   *events.Recorder
	products *ProductService
	users    *UserService
	orders   *OrderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	r := testdb.NewRepo(t)
	rec := &events.Recorder{}
	return &testEnv{
		repo:     r,
		events:   rec,
		products: &ProductService{Repo: r, Events: rec},
		users: &UserService{
			Repo:   r,
			Tokens: &tokens.Issuer{Secret: []byte("test-jwt-secret"), TTL: time.Hour},
			Events: rec,
		},
		orders: &OrderService{
			Repo:           r,
			Rules:          pricing.DefaultRules(),
			PaymentMethods: []transport.PaymentMethod{transport.PayPal},
			Events:         rec,
		},
	}
}

func (env *testEnv) user(t *testing.T, email string, admin bool) *models.User {
	t.Helper()
	s, err := env.users.Register(context.Background(), transport.RegisterRequest{Name: "User " + email, Email: email, Password: "123456"})
	require.NoError(t, err)
	if admin {
		s.User.IsAdmin = true
		require.NoError(t, env.repo.SaveUser(context.Background(), s.User))
	}
	return s.User
}

func (env *testEnv) product(t *testing.T, name, price string, stock int) *models.Product {
	t.Helper()
	p, err := env.products.CreateProduct(context.Background(), uuid.New(), &transport.ProductRequest{
		Name:         name,
		Price:        decimal.RequireFromString(price),
		Image:        "/images/" + name + ".jpg",
		Brand:        "Acme",
		Category:     "Electronics",
		CountInStock: stock,
		Description:  "desc",
	})
	require.NoError(t, err)
	return p
}
