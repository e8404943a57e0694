package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/echoshop/internal/models"
	"github.com/Skotchmaster/echoshop/internal/transport"
)

type ProductQuery struct {
	Keyword  string
	Category string
	MinPrice decimal.NullDecimal
	MaxPrice decimal.NullDecimal
	// Sort is one of lowest, highest or toprated. Empty keeps listing order.
	Sort       string
	PageNumber int
	PageSize   int
	// All asks for every match on one page.
	All bool
}

func (q ProductQuery) encode() string {
	v := url.Values{}
	if q.Keyword != "" {
		v.Set("keyword", q.Keyword)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.MinPrice.Valid {
		v.Set("minPrice", q.MinPrice.Decimal.String())
	}
	if q.MaxPrice.Valid {
		v.Set("maxPrice", q.MaxPrice.Decimal.String())
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.PageNumber > 0 {
		v.Set("pageNumber", strconv.Itoa(q.PageNumber))
	}
	switch {
	case q.All:
		v.Set("pageSize", "all")
	case q.PageSize > 0:
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

func (c *Client) Products(ctx context.Context, q ProductQuery) (*models.ProductPage, error) {
	var page models.ProductPage
	if err := c.get(ctx, "/api/products"+q.encode(), &page, TagProduct); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) TopProducts(ctx context.Context) ([]models.Product, error) {
	var items []models.Product
	if err := c.get(ctx, "/api/products/top", &items, TagProduct); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) Product(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := c.get(ctx, "/api/products/"+id.String(), &p, Tag(TagProduct, id)); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct creates the server's sample product when req is nil.
func (c *Client) CreateProduct(ctx context.Context, req *transport.ProductRequest) (*models.Product, error) {
	var p models.Product
	var in any
	if req != nil {
		in = req
	}
	if err := c.send(ctx, http.MethodPost, "/api/products", in, &p, TagProduct); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id uuid.UUID, req transport.ProductRequest) (*models.Product, error) {
	var p models.Product
	if err := c.send(ctx, http.MethodPut, "/api/products/"+id.String(), req, &p, TagProduct, Tag(TagProduct, id)); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return c.send(ctx, http.MethodDelete, "/api/products/"+id.String(), nil, nil, TagProduct, Tag(TagProduct, id))
}

// CreateReview drops the cached detail and the lists, whose rating changed.
func (c *Client) CreateReview(ctx context.Context, productID uuid.UUID, req transport.ReviewRequest) error {
	return c.send(ctx, http.MethodPost, "/api/products/"+productID.String()+"/reviews", req, nil, TagProduct, Tag(TagProduct, productID))
}
