package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/Skotchmaster/echoshop/internal/transport"
)

// RedisCartRepo keeps cart mirrors in redis under cart:<userID> with a
// sliding TTL.
type RedisCartRepo struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisCartRepo(url string, ttl time.Duration) (*RedisCartRepo, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return &RedisCartRepo{Client: redis.NewClient(opts), TTL: ttl}, nil
}

func cartKey(userID uuid.UUID) string {
	return "cart:" + userID.String()
}

func (r *RedisCartRepo) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

func (r *RedisCartRepo) GetCart(ctx context.Context, userID uuid.UUID) (*transport.Cart, error) {
	raw, err := r.Client.Get(ctx, cartKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}
	var cart transport.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &cart, nil
}

func (r *RedisCartRepo) PutCart(ctx context.Context, userID uuid.UUID, cart transport.Cart) error {
	raw, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	return r.Client.Set(ctx, cartKey(userID), raw, r.TTL).Err()
}

func (r *RedisCartRepo) DeleteCart(ctx context.Context, userID uuid.UUID) error {
	return r.Client.Del(ctx, cartKey(userID)).Err()
}

func (r *RedisCartRepo) Close() error {
	return r.Client.Close()
}
