package reviews

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/theflex/reviews/pkg/common/models"
	"github.com/theflex/reviews/pkg/common/slug"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// reviewUpdateColumns are overwritten on re-ingestion. approved and provider are not.
var reviewUpdateColumns = []string{
	"type",
	"status",
	"rating",
	"categories",
	"submitted_at",
	"author",
	"text",
	"listing_id",
	"updated_at",
}

// GormStore persists listings and reviews in Postgres.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (r *GormStore) AutoMigrate() error {
	return r.db.AutoMigrate(&listingModel{}, &reviewModel{})
}

func (r *GormStore) UpsertListing(ctx context.Context, in ListingInput) (Listing, error) {
	now := time.Now().UTC()
	rec := listingModel{
		Slug:      in.Slug,
		Name:      in.Name,
		Channel:   in.Channel,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "channel", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return Listing{}, fmt.Errorf("upserting listing %s: %w", in.Slug, err)
	}

	return r.FindListing(ctx, in.Slug)
}

func (r *GormStore) UpsertReviews(ctx context.Context, in []ReviewInput) error {
	if len(in) == 0 {
		return nil
	}

	rows := make([]reviewModel, 0, len(in))
	for _, item := range in {
		rec, err := toReviewModel(item)
		if err != nil {
			return err
		}
		rows = append(rows, rec)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			if err := upsertReview(tx, &rows[i]).Error; err != nil {
				return fmt.Errorf("upserting review %s: %w", rows[i].ExtID, err)
			}
		}
		return nil
	})
}

// upsertReview inserts row or refreshes the provider-owned columns of an existing ext_id.
func upsertReview(tx *gorm.DB, row *reviewModel) *gorm.DB {
	return tx.Omit("Listing").Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ext_id"}},
		DoUpdates: clause.AssignmentColumns(reviewUpdateColumns),
	}).Create(row)
}

func (r *GormStore) FindReviews(ctx context.Context, f Filter) ([]models.ReviewView, error) {
	var rows []reviewModel
	if err := reviewQuery(r.db.WithContext(ctx), f).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying reviews: %w", err)
	}

	out := make([]models.ReviewView, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromReviewModel(row))
	}
	return out, nil
}

func reviewQuery(db *gorm.DB, f Filter) *gorm.DB {
	q := db.Model(&reviewModel{}).Joins("Listing")

	if f.ListingSlug != "" {
		q = q.Where(`"Listing"."slug" = ?`, f.ListingSlug)
	}
	if f.Approved != nil {
		q = q.Where("reviews.approved = ?", *f.Approved)
	}
	if f.From != nil {
		q = q.Where("reviews.submitted_at >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("reviews.submitted_at <= ?", f.To.UTC())
	}

	sort := f.Sort
	if sort.Field == "" {
		sort = DefaultSort
	}
	column := "submitted_at"
	if sort.Field == SortRating {
		column = "rating"
	}
	return q.Order(clause.OrderByColumn{
		Column: clause.Column{Table: clause.CurrentTable, Name: column},
		Desc:   sort.Direction == SortDesc,
	}).Order(clause.OrderByColumn{Column: clause.Column{Table: clause.CurrentTable, Name: "id"}})
}

func (r *GormStore) FindListing(ctx context.Context, slugValue string) (Listing, error) {
	var rec listingModel
	result := r.db.WithContext(ctx).First(&rec, "slug = ?", slugValue)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return Listing{}, ErrListingNotFound
	}
	if result.Error != nil {
		return Listing{}, result.Error
	}
	return Listing{ID: rec.ID, Slug: rec.Slug, Name: rec.Name, Channel: rec.Channel}, nil
}

func (r *GormStore) SetApproval(ctx context.Context, extID string, approved bool) (models.ApprovalResult, error) {
	result := r.db.WithContext(ctx).Model(&reviewModel{}).
		Where("ext_id = ?", extID).
		Updates(map[string]interface{}{
			"approved":   approved,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return models.ApprovalResult{}, fmt.Errorf("updating approval: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ApprovalResult{}, ErrNotFound
	}
	return models.ApprovalResult{ExternalID: extID, Approved: approved}, nil
}

func toReviewModel(in ReviewInput) (reviewModel, error) {
	submitted, err := time.Parse(time.RFC3339Nano, in.Review.SubmittedAt)
	if err != nil {
		return reviewModel{}, fmt.Errorf("review %s: bad submittedAt: %w", in.Review.ExternalID, err)
	}

	var categories datatypes.JSON
	if in.Review.Categories != nil {
		raw, err := json.Marshal(in.Review.Categories)
		if err != nil {
			return reviewModel{}, fmt.Errorf("review %s: encoding categories: %w", in.Review.ExternalID, err)
		}
		categories = datatypes.JSON(raw)
	}

	now := time.Now().UTC()
	return reviewModel{
		ExtID:       in.Review.ExternalID,
		Provider:    string(in.Review.Provider),
		Type:        in.Review.Type,
		Status:      in.Review.Status,
		Rating:      in.Review.Rating,
		Categories:  categories,
		SubmittedAt: submitted.UTC(),
		Author:      in.Review.Author,
		Text:        in.Review.Text,
		Approved:    false,
		ListingID:   in.ListingID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func fromReviewModel(row reviewModel) models.ReviewView {
	return models.ReviewView{
		NormalizedReview: models.NormalizedReview{
			ExternalID:  row.ExtID,
			Provider:    models.Provider(row.Provider),
			Channel:     row.Listing.Channel,
			Type:        row.Type,
			Status:      row.Status,
			Rating:      row.Rating,
			Categories:  slug.ScoreMap(row.Categories),
			SubmittedAt: models.FormatInstant(row.SubmittedAt),
			Author:      row.Author,
			Text:        row.Text,
			ListingName: row.Listing.Name,
			ListingSlug: row.Listing.Slug,
		},
		Approved: row.Approved,
	}
}
