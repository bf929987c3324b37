package reviews

import (
	"context"
	"errors"

	"github.com/theflex/reviews/pkg/common/models"
)

var (
	ErrNotFound        = errors.New("review not found")
	ErrListingNotFound = errors.New("listing not found")
)

// Store is the durable side of the pipeline.
type Store interface {
	// UpsertListing inserts by slug or overwrites name and channel.
	UpsertListing(ctx context.Context, in ListingInput) (Listing, error)
	// UpsertReviews applies the whole batch or nothing. Approval flags survive.
	UpsertReviews(ctx context.Context, in []ReviewInput) error
	FindReviews(ctx context.Context, f Filter) ([]models.ReviewView, error)
	FindListing(ctx context.Context, slug string) (Listing, error)
	SetApproval(ctx context.Context, extID string, approved bool) (models.ApprovalResult, error)
}
