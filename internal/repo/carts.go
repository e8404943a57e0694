package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/echoshop/internal/models"
	"github.com/Skotchmaster/echoshop/internal/transport"
)

// ErrCartNotFound is returned by every cart store when the user has no
// mirrored cart.
var ErrCartNotFound = errors.New("cart not found")

func (r *GormRepo) GetCart(ctx context.Context, userID uuid.UUID) (*transport.Cart, error) {
	var row models.Cart
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}
	return &row.Data, nil
}

func (r *GormRepo) PutCart(ctx context.Context, userID uuid.UUID, cart transport.Cart) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&models.Cart{UserID: userID, Data: cart}).Error
}

func (r *GormRepo) DeleteCart(ctx context.Context, userID uuid.UUID) error {
	return r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Cart{}).Error
}
