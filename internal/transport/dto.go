package transport

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/echoshop/internal/pricing"
)

type PaymentMethod string

const (
	PayPal PaymentMethod = "PayPal"
	Stripe PaymentMethod = "Stripe"
	Cash   PaymentMethod = "Cash"
)

func KnownPaymentMethods() []PaymentMethod {
	return []PaymentMethod{PayPal, Stripe, Cash}
}

func (m PaymentMethod) Known() bool {
	for _, k := range KnownPaymentMethods() {
		if m == k {
			return true
		}
	}
	return false
}

// ParsePaymentMethods maps configured names onto known methods, ignoring
// case.
func ParsePaymentMethods(names []string) ([]PaymentMethod, error) {
	out := make([]PaymentMethod, 0, len(names))
	for _, n := range names {
		found := false
		for _, k := range KnownPaymentMethods() {
			if strings.EqualFold(n, string(k)) {
				out = append(out, k)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown payment method %q", n)
		}
	}
	return out, nil
}

type ShippingAddress struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

func (a ShippingAddress) Trimmed() ShippingAddress {
	return ShippingAddress{
		Address:    strings.TrimSpace(a.Address),
		City:       strings.TrimSpace(a.City),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.TrimSpace(a.Country),
	}
}

// Complete reports whether every field is non-blank.
func (a ShippingAddress) Complete() bool {
	t := a.Trimmed()
	return t.Address != "" && t.City != "" && t.PostalCode != "" && t.Country != ""
}

// CartItem is a product snapshot taken when it was added to the cart.
type CartItem struct {
	Product      uuid.UUID       `json:"product"`
	Name         string          `json:"name"`
	Image        string          `json:"image"`
	Category     string          `json:"category,omitempty"`
	Price        decimal.Decimal `json:"price"`
	CountInStock int             `json:"countInStock"`
	Qty          int             `json:"qty"`
}

type Cart struct {
	CartItems       []CartItem      `json:"cartItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	pricing.Totals
}

func Lines(items []CartItem) []pricing.Line {
	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, pricing.Line{Price: it.Price, Qty: it.Qty})
	}
	return lines
}

type OrderItemRequest struct {
	Product uuid.UUID       `json:"product"`
	Name    string          `json:"name"`
	Image   string          `json:"image"`
	Price   decimal.Decimal `json:"price"`
	Qty     int             `json:"qty"`
}

type CreateOrderRequest struct {
	OrderItems      []OrderItemRequest `json:"orderItems"`
	ShippingAddress ShippingAddress    `json:"shippingAddress"`
	PaymentMethod   PaymentMethod      `json:"paymentMethod"`
	pricing.Totals
}

// OrderRequestFromCart freezes the cart into an order payload.
func OrderRequestFromCart(c Cart) CreateOrderRequest {
	items := make([]OrderItemRequest, 0, len(c.CartItems))
	for _, it := range c.CartItems {
		items = append(items, OrderItemRequest{
			Product: it.Product,
			Name:    it.Name,
			Image:   it.Image,
			Price:   it.Price,
			Qty:     it.Qty,
		})
	}
	return CreateOrderRequest{
		OrderItems:      items,
		ShippingAddress: c.ShippingAddress,
		PaymentMethod:   c.PaymentMethod,
		Totals:          c.Totals,
	}
}

type PaymentResult struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	UpdateTime   string `json:"update_time"`
	EmailAddress string `json:"email_address"`
}

type ProductRequest struct {
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image"`
	Brand        string          `json:"brand"`
	Category     string          `json:"category"`
	CountInStock int             `json:"countInStock"`
	Description  string          `json:"description"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileRequest leaves the password unchanged when it is empty.
type ProfileRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Image    string `json:"image,omitempty"`
}

type AdminUserRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

type AuthUser struct {
	ID      uuid.UUID `json:"_id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	IsAdmin bool      `json:"isAdmin"`
	Image   string    `json:"image,omitempty"`
	Token   string    `json:"token,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type UploadResponse struct {
	Message string `json:"message"`
	Image   string `json:"image"`
}

type PayPalConfigResponse struct {
	ClientID string `json:"clientId"`
}
