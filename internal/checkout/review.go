package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/echoshop/internal/models"
	"github.com/Skotchmaster/echoshop/internal/transport"
)

// ReviewAPI is the part of *client.Client reviews need.
type ReviewAPI interface {
	CreateReview(ctx context.Context, productID uuid.UUID, req transport.ReviewRequest) error
	Product(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// SubmitReview posts a review and returns the product as the server now sees
// it. Nothing is sent without a session or with invalid input.
func SubmitReview(ctx context.Context, session Session, api ReviewAPI, productID uuid.UUID, rating int, comment string) (*models.Product, error) {
	if session == nil || !session.LoggedIn() {
		return nil, ErrLoginRequired
	}
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, fmt.Errorf("%w: comment is required", ErrValidation)
	}

	if err := api.CreateReview(ctx, productID, transport.ReviewRequest{Rating: rating, Comment: comment}); err != nil {
		return nil, err
	}
	return api.Product(ctx, productID)
}
