package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/echoshop/internal/transport"
)

var Categories = []string{"Electronics", "Fashion", "Home & Garden", "Accessories"}

func ValidCategory(c string) bool {
	for _, k := range Categories {
		if k == c {
			return true
		}
	}
	return false
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"        json:"_id"`
	Name         string    `gorm:"not null"                    json:"name"`
	Email        string    `gorm:"uniqueIndex;not null"        json:"email"`
	PasswordHash string    `gorm:"not null"                    json:"-"`
	IsAdmin      bool      `gorm:"not null;default:false"      json:"isAdmin"`
	Image        string    `                                   json:"image,omitempty"`
	CreatedAt    time.Time `                                   json:"createdAt"`
	UpdatedAt    time.Time `                                   json:"updatedAt"`
}

type Product struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"            json:"_id"`
	UserID       uuid.UUID       `gorm:"type:uuid;index"                 json:"user"`
	Name         string          `gorm:"not null"                        json:"name"`
	Image        string          `gorm:"not null"                        json:"image"`
	Brand        string          `gorm:"not null"                        json:"brand"`
	Category     string          `gorm:"not null;index"                  json:"category"`
	Description  string          `gorm:"not null"                        json:"description"`
	Price        decimal.Decimal `gorm:"type:numeric(12,2);not null"     json:"price"`
	CountInStock int             `gorm:"not null;default:0"              json:"countInStock"`
	Rating       float64         `gorm:"not null;default:0"              json:"rating"`
	NumReviews   int             `gorm:"not null;default:0"              json:"numReviews"`
	Reviews      []Review        `gorm:"constraint:OnDelete:CASCADE"     json:"reviews"`
	CreatedAt    time.Time       `                                       json:"createdAt"`
	UpdatedAt    time.Time       `                                       json:"updatedAt"`
}

type Review struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                                json:"_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index:idx_review_author"          json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_review_author"          json:"user"`
	Name      string    `gorm:"not null"                                            json:"name"`
	Rating    int       `gorm:"not null"                                            json:"rating"`
	Comment   string    `gorm:"not null"                                            json:"comment"`
	CreatedAt time.Time `                                                           json:"createdAt"`
}

type Order struct {
	ID              uuid.UUID                 `gorm:"type:uuid;primaryKey"                   json:"_id"`
	UserID          uuid.UUID                 `gorm:"type:uuid;not null;index"               json:"user"`
	OrderItems      []OrderItem               `gorm:"constraint:OnDelete:CASCADE"            json:"orderItems"`
	ShippingAddress transport.ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_"      json:"shippingAddress"`
	PaymentMethod   string                    `gorm:"not null"                               json:"paymentMethod"`
	PaymentResult   transport.PaymentResult   `gorm:"embedded;embeddedPrefix:payment_"       json:"paymentResult"`
	ItemsPrice      decimal.Decimal           `gorm:"type:numeric(12,2);not null"            json:"itemsPrice"`
	TaxPrice        decimal.Decimal           `gorm:"type:numeric(12,2);not null"            json:"taxPrice"`
	ShippingPrice   decimal.Decimal           `gorm:"type:numeric(12,2);not null"            json:"shippingPrice"`
	TotalPrice      decimal.Decimal           `gorm:"type:numeric(12,2);not null"            json:"totalPrice"`
	IsPaid          bool                      `gorm:"not null;default:false"                 json:"isPaid"`
	PaidAt          *time.Time                `                                              json:"paidAt,omitempty"`
	IsDelivered     bool                      `gorm:"not null;default:false"                 json:"isDelivered"`
	DeliveredAt     *time.Time                `                                              json:"deliveredAt,omitempty"`
	CreatedAt       time.Time                 `                                              json:"createdAt"`
	UpdatedAt       time.Time                 `                                              json:"updatedAt"`
}

type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"            json:"_id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"        json:"-"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null"              json:"product"`
	Position  int             `gorm:"not null"                        json:"-"`
	Name      string          `gorm:"not null"                        json:"name"`
	Image     string          `gorm:"not null"                        json:"image"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null"     json:"price"`
	Qty       int             `gorm:"not null"                        json:"qty"`
}

// Cart is the server-side mirror of a signed-in user's cart.
type Cart struct {
	UserID    uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Data      transport.Cart `gorm:"serializer:json;type:text;not null"`
	UpdatedAt time.Time
}

// RevokedToken blocks a session token until it would have expired anyway.
type RevokedToken struct {
	JTI       string    `gorm:"primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time
}

func newID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	newID(&u.ID)
	return nil
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	newID(&p.ID)
	return nil
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	newID(&r.ID)
	return nil
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	newID(&o.ID)
	return nil
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	newID(&i.ID)
	return nil
}

type ProductPage struct {
	Products []Product `json:"products"`
	Page     int       `json:"page"`
	Pages    int       `json:"pages"`
	Total    int64     `json:"total"`
}

func All() []any {
	return []any{&User{}, &Product{}, &Review{}, &Order{}, &OrderItem{}, &Cart{}, &RevokedToken{}}
}
