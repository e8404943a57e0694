package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/echoshop/internal/models"
)

// Listing orders. The zero value keeps insertion order.
const (
	SortLatest   = ""
	SortLowest   = "lowest"
	SortHighest  = "highest"
	SortTopRated = "toprated"
)

func ValidSort(s string) bool {
	switch s {
	case SortLatest, SortLowest, SortHighest, SortTopRated:
		return true
	}
	return false
}

type ProductFilter struct {
	Keyword  string
	Category string
	// MinPrice and MaxPrice are inclusive bounds.
	MinPrice decimal.NullDecimal
	MaxPrice decimal.NullDecimal
	Sort     string
	// IDs restricts the result to these products. A non-nil empty slice
	// matches nothing.
	IDs    []uuid.UUID
	Offset int
	// Limit 0 returns every match.
	Limit int
}

func preloadReviews(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}

func (r *GormRepo) filtered(ctx context.Context, f ProductFilter) *gorm.DB {
	q := r.DB.WithContext(ctx).Model(&models.Product{})
	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(kw)+"%")
	}
	if f.IDs != nil {
		q = q.Where("id IN ?", f.IDs)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.MinPrice.Valid {
		q = q.Where("price >= ?", f.MinPrice.Decimal)
	}
	if f.MaxPrice.Valid {
		q = q.Where("price <= ?", f.MaxPrice.Decimal)
	}
	return q
}

func ordered(q *gorm.DB, sort string) *gorm.DB {
	switch sort {
	case SortLowest:
		q = q.Order("price ASC")
	case SortHighest:
		q = q.Order("price DESC")
	case SortTopRated:
		q = q.Order("rating DESC").Order("num_reviews DESC")
	}
	return q.Order("created_at ASC").Order("id ASC")
}

func (r *GormRepo) ListProducts(ctx context.Context, f ProductFilter) (int64, []models.Product, error) {
	items := make([]models.Product, 0)
	if f.IDs != nil && len(f.IDs) == 0 {
		return 0, items, nil
	}

	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	q := ordered(r.filtered(ctx, f).Preload("Reviews", preloadReviews), f.Sort)
	if f.Limit > 0 {
		q = q.Offset(f.Offset).Limit(f.Limit)
	}
	if err := q.Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) TopProducts(ctx context.Context, limit int) ([]models.Product, error) {
	items := make([]models.Product, 0, limit)
	if err := r.DB.WithContext(ctx).
		Preload("Reviews", preloadReviews).
		Order("rating DESC").Order("num_reviews DESC").Order("created_at ASC").
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).Preload("Reviews", preloadReviews).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	if product.Reviews == nil {
		product.Reviews = []models.Review{}
	}
	return &product, nil
}

func (r *GormRepo) GetProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var items []models.Product
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	for _, p := range items {
		out[p.ID] = p
	}
	return out, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product) error {
	return r.DB.WithContext(ctx).Create(prod).Error
}

// SaveProduct writes the product columns but leaves reviews alone.
func (r *GormRepo) SaveProduct(ctx context.Context, prod *models.Product) error {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).Where("id = ?", prod.ID).Updates(map[string]any{
		"name":           prod.Name,
		"image":          prod.Image,
		"brand":          prod.Brand,
		"category":       prod.Category,
		"description":    prod.Description,
		"price":          prod.Price,
		"count_in_stock": prod.CountInStock,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&models.Product{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("product_id = ?", id).Delete(&models.Review{}).Error
	})
}

type ratingAggregate struct {
	Count int64
	Avg   float64
}

// AddReview stores the review and refreshes the product's rating and review
// count in the same transaction.
func (r *GormRepo) AddReview(ctx context.Context, review *models.Review) (*models.Product, error) {
	var product models.Product
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", review.ProductID).First(&product).Error; err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.Review{}).
			Where("product_id = ? AND user_id = ?", review.ProductID, review.UserID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyReviewed
		}

		if err := tx.Create(review).Error; err != nil {
			return err
		}

		var agg ratingAggregate
		if err := tx.Model(&models.Review{}).
			Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS avg").
			Where("product_id = ?", review.ProductID).
			Scan(&agg).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).Updates(map[string]any{
			"rating":      agg.Avg,
			"num_reviews": agg.Count,
		}).Error; err != nil {
			return err
		}

		return tx.Preload("Reviews", preloadReviews).Where("id = ?", product.ID).First(&product).Error
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}
