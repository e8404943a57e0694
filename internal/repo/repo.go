package repo

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/echoshop/internal/models"
)

var (
	ErrUserAlreadyExist = errors.New("user already exist")
	ErrAlreadyReviewed  = errors.New("product already reviewed")
	ErrAlreadyPaid      = errors.New("order already paid")
	ErrAlreadyDelivered = errors.New("order already delivered")
)

type GormRepo struct {
	DB *gorm.DB
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}
