package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/echoshop/internal/events"
	"github.com/Skotchmaster/echoshop/internal/models"
	"github.com/Skotchmaster/echoshop/internal/repo"
	"github.com/Skotchmaster/echoshop/internal/transport"
	"github.com/Skotchmaster/echoshop/pkg/logging"
)

const (
	DefaultPageSize = 8
	topProductCount = 3
)

type SearchIndex interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	SearchIDs(ctx context.Context, keyword string) ([]uuid.UUID, error)
}

type ProductService struct {
	Repo   *repo.GormRepo
	Index  SearchIndex
	Events events.Publisher
}

type ListQuery struct {
	Keyword    string
	Category   string
	MinPrice   decimal.NullDecimal
	MaxPrice   decimal.NullDecimal
	Sort       string
	PageNumber int
	PageSize   int
	// All disables paging.
	All bool
}

func (q ListQuery) validate() error {
	if q.Category != "" && !models.ValidCategory(q.Category) {
		return fail(ErrValidation, "Unknown category %q", q.Category)
	}
	if !repo.ValidSort(q.Sort) {
		return fail(ErrValidation, "Unknown sort %q", q.Sort)
	}
	if (q.MinPrice.Valid && q.MinPrice.Decimal.IsNegative()) || (q.MaxPrice.Valid && q.MaxPrice.Decimal.IsNegative()) {
		return fail(ErrValidation, "Price bounds must not be negative")
	}
	if q.MinPrice.Valid && q.MaxPrice.Valid && q.MinPrice.Decimal.GreaterThan(q.MaxPrice.Decimal) {
		return fail(ErrValidation, "Minimum price is above maximum price")
	}
	return nil
}

func (s *ProductService) ListProducts(ctx context.Context, q ListQuery) (*models.ProductPage, error) {
	l := logging.FromContext(ctx).With("svc", "product.list")
	if err := q.validate(); err != nil {
		return nil, err
	}

	page := q.PageNumber
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size < 1 {
		size = DefaultPageSize
	}

	f := repo.ProductFilter{
		Keyword:  strings.TrimSpace(q.Keyword),
		Category: q.Category,
		MinPrice: q.MinPrice,
		MaxPrice: q.MaxPrice,
		Sort:     q.Sort,
	}
	if f.Keyword != "" && s.Index != nil {
		ids, err := s.Index.SearchIDs(ctx, f.Keyword)
		if err != nil {
			l.Warn("search_index_unavailable", "reason", "falling back to sql keyword match", "error", err)
		} else {
			f.Keyword = ""
			f.IDs = ids
		}
	}
	if !q.All {
		f.Offset = (page - 1) * size
		f.Limit = size
	}

	total, items, err := s.Repo.ListProducts(ctx, f)
	if err != nil {
		return nil, err
	}

	pages := 1
	if !q.All {
		pages = int(math.Ceil(float64(total) / float64(size)))
	} else {
		page = 1
	}
	return &models.ProductPage{Products: items, Page: page, Pages: pages, Total: total}, nil
}

func (s *ProductService) TopProducts(ctx context.Context) ([]models.Product, error) {
	return s.Repo.TopProducts(ctx, topProductCount)
}

func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fail(ErrNotFound, "Product not found")
	}
	return p, err
}

func sampleProduct() transport.ProductRequest {
	return transport.ProductRequest{
		Name:         "Sample name",
		Price:        decimal.Zero,
		Image:        "/images/sample.jpg",
		Brand:        "Sample brand",
		Category:     "Electronics",
		CountInStock: 0,
		Description:  "Sample description",
	}
}

func validateProduct(req transport.ProductRequest) error {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return fail(ErrValidation, "Name is required")
	case req.Price.IsNegative():
		return fail(ErrValidation, "Price must not be negative")
	case req.CountInStock < 0:
		return fail(ErrValidation, "Count in stock must not be negative")
	case !models.ValidCategory(req.Category):
		return fail(ErrValidation, "Category must be one of %s", strings.Join(models.Categories, ", "))
	}
	return nil
}

func applyProduct(p *models.Product, req transport.ProductRequest) {
	p.Name = strings.TrimSpace(req.Name)
	p.Price = req.Price.Round(2)
	p.Image = req.Image
	p.Brand = strings.TrimSpace(req.Brand)
	p.Category = req.Category
	p.CountInStock = req.CountInStock
	p.Description = req.Description
}

// CreateProduct stores req, or the sample product when req is nil.
func (s *ProductService) CreateProduct(ctx context.Context, adminID uuid.UUID, req *transport.ProductRequest) (*models.Product, error) {
	body := sampleProduct()
	if req != nil {
		body = *req
	}
	if err := validateProduct(body); err != nil {
		return nil, err
	}

	p := &models.Product{UserID: adminID, Reviews: []models.Review{}}
	applyProduct(p, body)
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.indexProduct(ctx, p)
	s.publish(ctx, "product_created", p)
	return p, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, req transport.ProductRequest) (*models.Product, error) {
	if err := validateProduct(req); err != nil {
		return nil, err
	}

	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	applyProduct(p, req)
	if err := s.Repo.SaveProduct(ctx, p); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(ErrNotFound, "Product not found")
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.indexProduct(ctx, p)
	s.publish(ctx, "product_updated", p)
	return p, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(ErrNotFound, "Product not found")
		}
		return fmt.Errorf("delete product: %w", err)
	}

	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search_index_delete_failed", "product_id", id, "error", err)
		}
	}
	s.publish(ctx, "product_deleted", &models.Product{ID: id})
	return nil
}

func (s *ProductService) CreateReview(ctx context.Context, productID, userID uuid.UUID, req transport.ReviewRequest) (*models.Product, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, fail(ErrValidation, "Rating must be between 1 and 5")
	}
	comment := strings.TrimSpace(req.Comment)
	if comment == "" {
		return nil, fail(ErrValidation, "Comment is required")
	}

	user, err := s.Repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(ErrUnauthorized, "Not authorized, user not found")
		}
		return nil, err
	}

	p, err := s.Repo.AddReview(ctx, &models.Review{
		ProductID: productID,
		UserID:    user.ID,
		Name:      user.Name,
		Rating:    req.Rating,
		Comment:   comment,
	})
	switch {
	case errors.Is(err, repo.ErrAlreadyReviewed):
		return nil, fail(ErrConflict, "Product already reviewed")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fail(ErrNotFound, "Product not found")
	case err != nil:
		return nil, fmt.Errorf("add review: %w", err)
	}

	events.Publish(ctx, s.Events, logging.FromContext(ctx), events.TopicProducts, p.ID.String(), map[string]any{
		"type":       "review_created",
		"productID":  p.ID,
		"userID":     user.ID,
		"rating":     req.Rating,
		"numReviews": p.NumReviews,
	})
	return p, nil
}

func (s *ProductService) indexProduct(ctx context.Context, p *models.Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexProduct(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("search_index_update_failed", "product_id", p.ID, "error", err)
	}
}

func (s *ProductService) publish(ctx context.Context, typ string, p *models.Product) {
	events.Publish(ctx, s.Events, logging.FromContext(ctx), events.TopicProducts, p.ID.String(), map[string]any{
		"type":      typ,
		"productID": p.ID,
		"name":      p.Name,
		"price":     p.Price,
	})
}
