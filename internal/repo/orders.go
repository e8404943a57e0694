package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/echoshop/internal/models"
	"github.com/Skotchmaster/echoshop/internal/transport"
)

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	for i := range order.OrderItems {
		order.OrderItems[i].Position = i
	}
	return r.DB.WithContext(ctx).Create(order).Error
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Preload("OrderItems", preloadItems).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	if err := r.DB.WithContext(ctx).Preload("OrderItems", preloadItems).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) ListOrders(ctx context.Context) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	if err := r.DB.WithContext(ctx).Preload("OrderItems", preloadItems).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// MarkPaid flips isPaid once. A second call reports ErrAlreadyPaid.
func (r *GormRepo) MarkPaid(ctx context.Context, id uuid.UUID, result transport.PaymentResult, at time.Time) (*models.Order, error) {
	return r.flipFlag(ctx, id, "is_paid", ErrAlreadyPaid, map[string]any{
		"is_paid":               true,
		"paid_at":               at,
		"payment_id":            result.ID,
		"payment_status":        result.Status,
		"payment_update_time":   result.UpdateTime,
		"payment_email_address": result.EmailAddress,
	})
}

func (r *GormRepo) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) (*models.Order, error) {
	return r.flipFlag(ctx, id, "is_delivered", ErrAlreadyDelivered, map[string]any{
		"is_delivered": true,
		"delivered_at": at,
	})
}

func (r *GormRepo) flipFlag(ctx context.Context, id uuid.UUID, column string, already error, updates map[string]any) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND "+column+" = ?", id, false).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.Where("id = ?", id).First(&order).Error; err != nil {
				return err
			}
			return already
		}
		return tx.Preload("OrderItems", preloadItems).Where("id = ?", id).First(&order).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}
