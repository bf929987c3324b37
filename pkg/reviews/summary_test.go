package reviews

import (
	"context"
	"testing"

	"github.com/theflex/reviews/pkg/common/models"
)

func view(extID, slug, name string, rating *float64, submitted string, approved bool) models.ReviewView {
	return models.ReviewView{
		NormalizedReview: models.NormalizedReview{
			ExternalID:  extID,
			Provider:    models.ProviderHostaway,
			Channel:     "Hostaway",
			Rating:      rating,
			SubmittedAt: submitted,
			ListingName: name,
			ListingSlug: slug,
		},
		Approved: approved,
	}
}

func ptr(v float64) *float64 { return &v }

func TestBuildSummaryCountsAndAverages(t *testing.T) {
	rows := BuildSummary([]models.ReviewView{
		view("1", "b", "beta", ptr(9), "2024-01-01T00:00:00.000Z", true),
		view("2", "b", "beta", ptr(8), "2024-03-01T00:00:00.000Z", false),
		view("3", "b", "beta", nil, "2024-02-01T00:00:00.000Z", false),
		view("4", "a", "Alpha", nil, "2023-01-01T00:00:00.000Z", false),
	})

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].ListingSlug != "a" {
		t.Fatalf("expected case-insensitive name ordering, got %s first", rows[0].ListingSlug)
	}
	if rows[0].AverageRating != nil {
		t.Fatalf("expected nil average for unrated listing, got %v", *rows[0].AverageRating)
	}

	beta := rows[1]
	if beta.ReviewCount != 3 || beta.ApprovedCount != 1 || beta.PendingCount != 2 {
		t.Fatalf("unexpected counts %+v", beta)
	}
	if beta.AverageRating == nil || *beta.AverageRating != 8.5 {
		t.Fatalf("expected average 8.5, got %v", beta.AverageRating)
	}
	if beta.LatestReviewAt == nil || *beta.LatestReviewAt != "2024-03-01T00:00:00.000Z" {
		t.Fatalf("unexpected latest %v", beta.LatestReviewAt)
	}
}

func TestBuildSummaryRounding(t *testing.T) {
	rows := BuildSummary([]models.ReviewView{
		view("1", "x", "x", ptr(10), "2024-01-01T00:00:00.000Z", false),
		view("2", "x", "x", ptr(9), "2024-01-01T00:00:00.000Z", false),
		view("3", "x", "x", ptr(9), "2024-01-01T00:00:00.000Z", false),
	})
	if *rows[0].AverageRating != 9.33 {
		t.Fatalf("expected 9.33, got %v", *rows[0].AverageRating)
	}
}

func TestBuildSummaryInvariantOnFixture(t *testing.T) {
	store := seedStore(t)
	found, err := store.FindReviews(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("find: %v", err)
	}

	rows := BuildSummary(found)
	total := 0
	for _, row := range rows {
		if row.ApprovedCount+row.PendingCount != row.ReviewCount {
			t.Fatalf("counts do not add up for %s: %+v", row.ListingSlug, row)
		}
		total += row.ReviewCount
	}
	if total != len(found) {
		t.Fatalf("expected %d reviews across rows, got %d", len(found), total)
	}

	if rows[1].ListingSlug != shoreditch || rows[1].AverageRating == nil || *rows[1].AverageRating != 8 {
		t.Fatalf("unexpected shoreditch row %+v", rows[1])
	}
	if rows[2].AverageRating == nil || *rows[2].AverageRating != 7.75 {
		t.Fatalf("unexpected bankside row %+v", rows[2])
	}
}

func TestBuildSummaryEmpty(t *testing.T) {
	rows := BuildSummary(nil)
	if rows == nil || len(rows) != 0 {
		t.Fatalf("expected empty non-nil rows, got %#v", rows)
	}
}
