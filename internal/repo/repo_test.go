package repo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/echoshop/internal/models"
	"github.com/Skotchmaster/echoshop/internal/repo"
	"github.com/Skotchmaster/echoshop/internal/testdb"
	"github.com/Skotchmaster/echoshop/internal/transport"
)

func seedProduct(t *testing.T, r *repo.GormRepo, name string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:         name,
		Image:        "/images/" + name + ".jpg",
		Brand:        "Acme",
		Category:     "Electronics",
		Description:  name + " description",
		Price:        decimal.RequireFromString("19.99"),
		CountInStock: stock,
	}
	require.NoError(t, r.CreateProduct(context.Background(), p))
	return p
}

func seedUser(t *testing.T, r *repo.GormRepo, email string) *models.User {
	t.Helper()
	u := &models.User{Name: email, Email: email, PasswordHash: "x"}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	r := testdb.NewRepo(t)
	ctx := context.Background()

	seedUser(t, r, "jane@example.com")
	err := r.CreateUser(ctx, &models.User{Name: "Jane 2", Email: "jane@example.com", PasswordHash: "y"})
	assert.ErrorIs(t, err, repo.ErrUserAlreadyExist)

	other := seedUser(t, r, "john@example.com")
	other.Email = "jane@example.com"
	assert.ErrorIs(t, r.SaveUser(ctx, other), repo.ErrUserAlreadyExist)
}

func TestDeleteUser_Missing(t *testing.T) {
	r := testdb.NewRepo(t)
	err := r.DeleteUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRole(t *testing.T) {
	r := testdb.NewRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "jane@example.com")

	exists, admin, err := r.UserRole(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.False(t, admin)

	u.IsAdmin = true
	require.NoError(t, r.SaveUser(ctx, u))
	_, admin, err = r.UserRole(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, admin)

	require.NoError(t, r.DeleteUser(ctx, u.ID))
	exists, _, err = r.UserRole(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestListProducts_KeywordAndPaging(t *testing.T) {
	r := testdb.NewRepo(t)
	ctx := context.Background()

	seedProduct(t, r, "Phone", 5)
	seedProduct(t, r, "Headphones", 5)
	seedProduct(t, r, "Desk", 5)

	total, items, err := r.ListProducts(ctx, repo.ProductFilter{Keyword: "PHONE"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, items, 2)

	total, items, err = r.ListProducts(ctx, repo.ProductFilter{Offset: 2, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Desk", items[0].Name)

	total, items, err = r.ListProducts(ctx, repo.ProductFilter{IDs: []uuid.UUID{}})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
}

func TestListProducts_CategoryPriceAndSort(t *testing.T) {
	r := testdb.NewRepo(t)
	ctx := context.Background()
	add := func(name, category, price string, rating float64) {
		require.NoError(t, r.CreateProduct(ctx, &models.Product{
			Name: name, Image: "/images/x.jpg", Brand: "Acme", Category: category, Description: "d",
			Price: decimal.RequireFromString(price), CountInStock: 1, Rating: rating,
		}))
	}
	add("Phone", "Electronics", "499.99", 4)
	add("Cable", "Electronics", "9.50", 5)
	add("Scarf", "Fashion", "25", 3)
	add("Lamp", "Home & Garden", "60", 4.5)

	names := func(f repo.ProductFilter) []string {
		_, items, err := r.ListProducts(ctx, f)
		require.NoError(t, err)
		out := make([]string, 0, len(items))
		for _, p := range items {
			out = append(out, p.Name)
		}
		return out
	}

	assert.Equal(t, []string{"Phone", "Cable"}, names(repo.ProductFilter{Category: "Electronics"}))
	assert.Equal(t, []string{"Cable", "Phone"}, names(repo.ProductFilter{Category: "Electronics", Sort: repo.SortLowest}))
	assert.Equal(t, []string{"Phone", "Lamp", "Scarf", "Cable"}, names(repo.ProductFilter{Sort: repo.SortHighest}))
	assert.Equal(t, []string{"Cable", "Lamp", "Phone", "Scarf"}, names(repo.ProductFilter{Sort: repo.SortTopRated}))
	assert.Equal(t, []string{"Scarf", "Lamp"}, names(repo.ProductFilter{
		MinPrice: decimal.NewNullDecimal(decimal.NewFromInt(25)),
		MaxPrice: decimal.NewNullDecimal(decimal.NewFromInt(60)),
	}))
	assert.Equal(t, []string{"Phone"}, names(repo.ProductFilter{MinPrice: decimal.NewNullDecimal(decimal.NewFromInt(100))}))
	assert.Empty(t, names(repo.ProductFilter{Category: "Accessories"}))
}

func TestAddReview_RecomputesRating(t *testing.T) {
	r := testdb.NewRepo(t)
	ctx := context.Background()

	p := seedProduct(t, r, "Phone", 5)
	a := seedUser(t, r, "a@example.com")
	b := seedUser(t, r, "b@example.com")

	_, err := r.AddReview(ctx, &models.Review{ProductID: p.ID, UserID: a.ID, Name: a.Name, Rating: 5, Comment: "great"})
	require.NoError(t, err)
	got, err := r.AddReview(ctx, &models.Review{ProductID: p.ID, UserID: b.ID, Name: b.Name, Rating: 2, Comment: "meh"})
	require.NoError(t, err)

	assert.Equal(t, 2, got.NumReviews)
	assert.InDelta(t, 3.5, got.Rating, 1e-9)
	require.Len(t, got.Reviews, 2)
	assert.Equal(t, "great", got.Reviews[0].Comment)

	_, err = r.AddReview(ctx, &models.Review{ProductID: p.ID, UserID: a.ID, Name: a.Name, Rating: 1, Comment: "again"})
	assert.ErrorIs(t, err, repo.ErrAlreadyReviewed)

	reloaded, err := r.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.NumReviews)
	assert.InDelta(t, 3.5, reloaded.Rating, 1e-9)

	_, err = r.AddReview(ctx, &models.Review{ProductID: uuid.New(), UserID: a.ID, Rating: 4, Comment: "x"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTopProducts_OrdersByRating(t *testing.T) {
	r := testdb.NewRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "a@example.com")

	low := seedProduct(t, r, "Low", 1)
	high := seedProduct(t, r, "High", 1)
	seedProduct(t, r, "Unrated", 1)
	mid := seedProduct(t, r, "Mid", 1)

	for p, rating := range map[*models.Product]int{low: 1, high: 5, mid: 3} {
		_, err := r.AddReview(ctx, &models.Review{ProductID: p.ID, UserID: u.ID, Name: "a", Rating: rating, Comment: "c"})
		require.NoError(t, err)
	}

	top, err := r.TopProducts(ctx, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, []string{"High", "Mid", "Low"}, []string{top[0].Name, top[1].Name, top[2].Name})
}

func TestOrders_FlagsFlipOnce(t *testing.T) {
	r := testdb.NewRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "a@example.com")
	p := seedProduct(t, r, "Phone", 5)

	order := &models.Order{
		UserID: u.ID,
		OrderItems: []models.OrderItem{
			{ProductID: p.ID, Name: "Phone", Image: p.Image, Price: p.Price, Qty: 2},
			{ProductID: p.ID, Name: "Phone case", Image: p.Image, Price: decimal.NewFromInt(5), Qty: 1},
		},
		ShippingAddress: transport.ShippingAddress{Address: "1 Main St", City: "Town", PostalCode: "1", Country: "US"},
		PaymentMethod:   "PayPal",
		ItemsPrice:      decimal.RequireFromString("44.98"),
		ShippingPrice:   decimal.NewFromInt(10),
		TaxPrice:        decimal.RequireFromString("6.75"),
		TotalPrice:      decimal.RequireFromString("61.73"),
	}
	require.NoError(t, r.CreateOrder(ctx, order))

	got, err := r.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.OrderItems, 2)
	assert.Equal(t, "Phone", got.OrderItems[0].Name)
	assert.Equal(t, "Town", got.ShippingAddress.City)
	assert.True(t, got.TotalPrice.Equal(decimal.RequireFromString("61.73")))

	now := time.Now().UTC()
	paid, err := r.MarkPaid(ctx, order.ID, transport.PaymentResult{ID: "PAY-1", Status: "COMPLETED"}, now)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, "PAY-1", paid.PaymentResult.ID)

	_, err = r.MarkPaid(ctx, order.ID, transport.PaymentResult{}, now)
	assert.ErrorIs(t, err, repo.ErrAlreadyPaid)

	_, err = r.MarkDelivered(ctx, order.ID, now)
	require.NoError(t, err)
	_, err = r.MarkDelivered(ctx, order.ID, now)
	assert.ErrorIs(t, err, repo.ErrAlreadyDelivered)

	_, err = r.MarkDelivered(ctx, uuid.New(), now)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	mine, err := r.ListOrdersByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestRevokedTokens(t *testing.T) {
	r := testdb.NewRepo(t)
	ctx := context.Background()
	uid := uuid.New()

	revoked, err := r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, r.RevokeToken(ctx, "jti-1", uid, time.Now().Add(-time.Minute)))
	require.NoError(t, r.RevokeToken(ctx, "jti-1", uid, time.Now().Add(-time.Minute)))
	require.NoError(t, r.RevokeToken(ctx, "jti-2", uid, time.Now().Add(time.Hour)))

	revoked, err = r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	n, err := r.PurgeRevoked(ctx, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

type cartStore interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*transport.Cart, error)
	PutCart(ctx context.Context, userID uuid.UUID, cart transport.Cart) error
	DeleteCart(ctx context.Context, userID uuid.UUID) error
}

func exerciseCartStore(t *testing.T, store cartStore) {
	t.Helper()
	ctx := context.Background()
	uid := uuid.New()

	_, err := store.GetCart(ctx, uid)
	assert.True(t, errors.Is(err, repo.ErrCartNotFound))

	cart := transport.Cart{
		CartItems:     []transport.CartItem{{Product: uuid.New(), Name: "Phone", Price: decimal.NewFromInt(20), CountInStock: 3, Qty: 2}},
		PaymentMethod: transport.PayPal,
	}
	require.NoError(t, store.PutCart(ctx, uid, cart))

	cart.CartItems[0].Qty = 3
	require.NoError(t, store.PutCart(ctx, uid, cart))

	got, err := store.GetCart(ctx, uid)
	require.NoError(t, err)
	require.Len(t, got.CartItems, 1)
	assert.Equal(t, 3, got.CartItems[0].Qty)
	assert.Equal(t, transport.PayPal, got.PaymentMethod)

	require.NoError(t, store.DeleteCart(ctx, uid))
	_, err = store.GetCart(ctx, uid)
	assert.ErrorIs(t, err, repo.ErrCartNotFound)
}

func TestGormCartStore(t *testing.T) {
	exerciseCartStore(t, testdb.NewRepo(t))
}

func TestRedisCartStore(t *testing.T) {
	mr := miniredis.RunT(t)
	store := &repo.RedisCartRepo{
		Client: redis.NewClient(&redis.Options{Addr: mr.Addr()}),
		TTL:    time.Hour,
	}
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Ping(context.Background()))
	exerciseCartStore(t, store)

	uid := uuid.New()
	require.NoError(t, store.PutCart(context.Background(), uid, transport.Cart{}))
	mr.FastForward(2 * time.Hour)
	_, err := store.GetCart(context.Background(), uid)
	assert.ErrorIs(t, err, repo.ErrCartNotFound)
}

func TestNewRedisCartRepo_BadURL(t *testing.T) {
	_, err := repo.NewRedisCartRepo("not a url", time.Hour)
	require.Error(t, err)
}
