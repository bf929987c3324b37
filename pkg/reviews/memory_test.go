package reviews

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/theflex/reviews/pkg/common/models"
	"github.com/theflex/reviews/pkg/hostaway"
)

func seedStore(t *testing.T) *MemoryStore {
	t.Helper()
	ctx := context.Background()
	batch, err := hostaway.Load(ctx, hostaway.NewFixtureSource(fixturePath))
	if err != nil {
		t.Fatalf("loading fixture: %v", err)
	}

	store := NewMemoryStore()
	ids := make(map[string]uint)
	for _, r := range batch {
		if _, ok := ids[r.ListingSlug]; ok {
			continue
		}
		l, err := store.UpsertListing(ctx, ListingInput{Slug: r.ListingSlug, Name: r.ListingName, Channel: r.Channel})
		if err != nil {
			t.Fatalf("upsert listing: %v", err)
		}
		ids[r.ListingSlug] = l.ID
	}
	inputs := make([]ReviewInput, 0, len(batch))
	for _, r := range batch {
		inputs = append(inputs, ReviewInput{Review: r, ListingID: ids[r.ListingSlug]})
	}
	if err := store.UpsertReviews(ctx, inputs); err != nil {
		t.Fatalf("upsert reviews: %v", err)
	}
	return store
}

func extIDs(reviews []models.ReviewView) []string {
	out := make([]string, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, r.ExternalID)
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestMemoryStoreSortsLikePostgres(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()
	camden := "1b-nw1-12-camden-lock-lofts"

	asc, err := store.FindReviews(ctx, Filter{ListingSlug: camden, Sort: Sort{Field: SortRating, Direction: SortAsc}})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got := extIDs(asc); !equalIDs(got, []string{"8121", "8120", "8122"}) {
		t.Fatalf("rating asc: got %v", got)
	}

	desc, err := store.FindReviews(ctx, Filter{ListingSlug: camden, Sort: Sort{Field: SortRating, Direction: SortDesc}})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got := extIDs(desc); !equalIDs(got, []string{"8122", "8120", "8121"}) {
		t.Fatalf("rating desc: got %v", got)
	}
}

func TestMemoryStoreDateRange(t *testing.T) {
	store := seedStore(t)
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	found, err := store.FindReviews(context.Background(), Filter{From: &from, Sort: DefaultSort})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got := extIDs(found); !equalIDs(got, []string{"8122", "7455"}) {
		t.Fatalf("from filter: got %v", got)
	}

	to := time.Date(2024, 3, 2, 18, 30, 0, 0, time.UTC)
	found, err = store.FindReviews(context.Background(), Filter{From: &from, To: &to, Sort: DefaultSort})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got := extIDs(found); !equalIDs(got, []string{"7455"}) {
		t.Fatalf("inclusive range: got %v", got)
	}
}

func TestMemoryStoreRejectsWholeBatch(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	l, err := store.UpsertListing(ctx, ListingInput{Slug: "a", Name: "A", Channel: "Hostaway"})
	if err != nil {
		t.Fatalf("upsert listing: %v", err)
	}

	good := models.NormalizedReview{ExternalID: "1", Provider: models.ProviderHostaway, SubmittedAt: "2024-01-01T00:00:00.000Z"}
	bad := models.NormalizedReview{ExternalID: "2", Provider: models.ProviderHostaway, SubmittedAt: "2024-01-01T00:00:00.000Z"}
	err = store.UpsertReviews(ctx, []ReviewInput{{Review: good, ListingID: l.ID}, {Review: bad, ListingID: 999}})
	if err == nil {
		t.Fatal("expected unknown listing to fail the batch")
	}

	found, err := store.FindReviews(ctx, Filter{})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(found) != 0 {
		t.Fatalf("expected nothing stored, got %v", extIDs(found))
	}
}

func TestMemoryStoreListingOverwrite(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first, err := store.UpsertListing(ctx, ListingInput{Slug: "a", Name: "Old", Channel: "Hostaway"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	second, err := store.UpsertListing(ctx, ListingInput{Slug: "a", Name: "New", Channel: "Hostaway"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if first.ID != second.ID || second.Name != "New" {
		t.Fatalf("expected same listing renamed, got %+v then %+v", first, second)
	}

	if _, err := store.FindListing(ctx, "b"); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("expected ErrListingNotFound, got %v", err)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	found, err := store.FindReviews(ctx, Filter{ListingSlug: shoreditch})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	for _, r := range found {
		if score, ok := r.Categories["cleanliness"]; ok && score != nil {
			*score = -1
		}
	}

	again, err := store.FindReviews(ctx, Filter{ListingSlug: shoreditch})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	for _, r := range again {
		if score := r.Categories["cleanliness"]; score != nil && *score < 0 {
			t.Fatalf("store leaked internal state for %s", r.ExternalID)
		}
	}
}
