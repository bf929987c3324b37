package reviews

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/theflex/reviews/pkg/common/models"
)

type memoryReview struct {
	seq       int
	review    models.NormalizedReview
	submitted time.Time
	listingID uint
	approved  bool
}

// MemoryStore is a process-local Store with the same upsert semantics as GormStore.
type MemoryStore struct {
	mu         sync.RWMutex
	listings   map[string]*Listing
	listingIDs map[uint]*Listing
	reviews    map[string]*memoryReview
	nextID     uint
	nextSeq    int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		listings:   make(map[string]*Listing),
		listingIDs: make(map[uint]*Listing),
		reviews:    make(map[string]*memoryReview),
	}
}

func (m *MemoryStore) UpsertListing(ctx context.Context, in ListingInput) (Listing, error) {
	if err := ctx.Err(); err != nil {
		return Listing{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.listings[in.Slug]; ok {
		existing.Name = in.Name
		existing.Channel = in.Channel
		return *existing, nil
	}

	m.nextID++
	l := &Listing{ID: m.nextID, Slug: in.Slug, Name: in.Name, Channel: in.Channel}
	m.listings[in.Slug] = l
	m.listingIDs[l.ID] = l
	return *l, nil
}

func (m *MemoryStore) UpsertReviews(ctx context.Context, in []ReviewInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	// Validate everything before touching state so the batch stays all-or-nothing.
	staged := make([]memoryReview, 0, len(in))
	for _, item := range in {
		if _, ok := m.listingIDs[item.ListingID]; !ok {
			return fmt.Errorf("upserting review %s: unknown listing id %d", item.Review.ExternalID, item.ListingID)
		}
		submitted, err := time.Parse(time.RFC3339Nano, item.Review.SubmittedAt)
		if err != nil {
			return fmt.Errorf("review %s: bad submittedAt: %w", item.Review.ExternalID, err)
		}
		staged = append(staged, memoryReview{
			review:    cloneReview(item.Review),
			submitted: submitted.UTC(),
			listingID: item.ListingID,
		})
	}

	for _, rec := range staged {
		if existing, ok := m.reviews[rec.review.ExternalID]; ok {
			rec.review.Provider = existing.review.Provider
			existing.review = rec.review
			existing.submitted = rec.submitted
			existing.listingID = rec.listingID
			continue
		}
		m.nextSeq++
		rec.seq = m.nextSeq
		stored := rec
		m.reviews[rec.review.ExternalID] = &stored
	}
	return nil
}

func (m *MemoryStore) FindReviews(ctx context.Context, f Filter) ([]models.ReviewView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]*memoryReview, 0, len(m.reviews))
	for _, rec := range m.reviews {
		listing := m.listingIDs[rec.listingID]
		if f.ListingSlug != "" && listing.Slug != f.ListingSlug {
			continue
		}
		if f.Approved != nil && rec.approved != *f.Approved {
			continue
		}
		if f.From != nil && rec.submitted.Before(*f.From) {
			continue
		}
		if f.To != nil && rec.submitted.After(*f.To) {
			continue
		}
		matched = append(matched, rec)
	}

	order := f.Sort
	if order.Field == "" {
		order = DefaultSort
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return lessReview(matched[i], matched[j], order)
	})

	out := make([]models.ReviewView, 0, len(matched))
	for _, rec := range matched {
		listing := m.listingIDs[rec.listingID]
		review := cloneReview(rec.review)
		review.Channel = listing.Channel
		review.ListingName = listing.Name
		review.ListingSlug = listing.Slug
		out = append(out, models.ReviewView{NormalizedReview: review, Approved: rec.approved})
	}
	return out, nil
}

func (m *MemoryStore) FindListing(ctx context.Context, slug string) (Listing, error) {
	if err := ctx.Err(); err != nil {
		return Listing{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.listings[slug]
	if !ok {
		return Listing{}, ErrListingNotFound
	}
	return *l, nil
}

func (m *MemoryStore) SetApproval(ctx context.Context, extID string, approved bool) (models.ApprovalResult, error) {
	if err := ctx.Err(); err != nil {
		return models.ApprovalResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.reviews[extID]
	if !ok {
		return models.ApprovalResult{}, ErrNotFound
	}
	rec.approved = approved
	return models.ApprovalResult{ExternalID: extID, Approved: approved}, nil
}

// lessReview orders like Postgres: NULL ratings sort last ascending and first descending.
func lessReview(a, b *memoryReview, order Sort) bool {
	desc := order.Direction == SortDesc
	if order.Field == SortRating {
		ar, br := a.review.Rating, b.review.Rating
		switch {
		case ar == nil && br == nil:
			return a.seq < b.seq
		case ar == nil:
			return desc
		case br == nil:
			return !desc
		case *ar != *br:
			if desc {
				return *ar > *br
			}
			return *ar < *br
		}
		return a.seq < b.seq
	}

	if !a.submitted.Equal(b.submitted) {
		if desc {
			return a.submitted.After(b.submitted)
		}
		return a.submitted.Before(b.submitted)
	}
	return a.seq < b.seq
}

func cloneReview(r models.NormalizedReview) models.NormalizedReview {
	out := r
	if r.Rating != nil {
		v := *r.Rating
		out.Rating = &v
	}
	if r.Categories != nil {
		out.Categories = make(map[string]*float64, len(r.Categories))
		for k, v := range r.Categories {
			if v == nil {
				out.Categories[k] = nil
				continue
			}
			c := *v
			out.Categories[k] = &c
		}
	}
	if r.Author != nil {
		v := *r.Author
		out.Author = &v
	}
	if r.Text != nil {
		v := *r.Text
		out.Text = &v
	}
	return out
}
