package client

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/Skotchmaster/echoshop/internal/models"
	"github.com/Skotchmaster/echoshop/internal/transport"
)

func (c *Client) CreateOrder(ctx context.Context, req transport.CreateOrderRequest) (*models.Order, error) {
	var o models.Order
	if err := c.send(ctx, http.MethodPost, "/api/orders", req, &o, TagOrder); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) Order(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	if err := c.get(ctx, "/api/orders/"+id.String(), &o, Tag(TagOrder, id)); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) MyOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := c.get(ctx, "/api/orders/mine", &orders, TagOrder); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) Orders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := c.get(ctx, "/api/orders", &orders, TagOrder); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) PayOrder(ctx context.Context, id uuid.UUID, result transport.PaymentResult) (*models.Order, error) {
	var o models.Order
	if err := c.send(ctx, http.MethodPut, "/api/orders/"+id.String()+"/pay", result, &o, TagOrder, Tag(TagOrder, id)); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) DeliverOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	if err := c.send(ctx, http.MethodPut, "/api/orders/"+id.String()+"/deliver", nil, &o, TagOrder, Tag(TagOrder, id)); err != nil {
		return nil, err
	}
	return &o, nil
}
