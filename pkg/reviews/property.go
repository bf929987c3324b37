package reviews

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/theflex/reviews/pkg/common/models"
	"github.com/theflex/reviews/pkg/common/slug"
	"github.com/theflex/reviews/pkg/properties"
)

type CategoryAverage struct {
	Category string  `json:"category"`
	Average  float64 `json:"average"`
	Count    int     `json:"count"`
}

// PropertyPage is the public read model for one listing: approved reviews only.
type PropertyPage struct {
	Slug             string               `json:"slug"`
	Name             string               `json:"name"`
	Channel          string               `json:"channel,omitempty"`
	Details          *properties.Property `json:"details,omitempty"`
	ReviewCount      int                  `json:"reviewCount"`
	AverageRating    *float64             `json:"averageRating"`
	CategoryAverages []CategoryAverage    `json:"categoryAverages"`
	Reviews          []models.ReviewView  `json:"reviews"`
}

// Property assembles the page for slug from the store and the catalog. ErrListingNotFound
// is returned when neither knows the slug.
func (s *Service) Property(ctx context.Context, listingSlug string) (*PropertyPage, error) {
	key := strings.ToLower(strings.TrimSpace(listingSlug))
	if key == "" {
		return nil, ErrListingNotFound
	}

	details, inCatalog := s.catalog.Lookup(key)

	listing, err := s.store.FindListing(ctx, key)
	switch {
	case errors.Is(err, ErrListingNotFound):
		if !inCatalog {
			return nil, ErrListingNotFound
		}
	case err != nil:
		return nil, err
	}

	page := &PropertyPage{
		Slug:             key,
		Name:             listing.Name,
		Channel:          listing.Channel,
		CategoryAverages: []CategoryAverage{},
		Reviews:          []models.ReviewView{},
	}
	if inCatalog {
		d := details
		page.Details = &d
		if page.Name == "" {
			page.Name = d.Name
		}
	}

	if listing.ID == 0 {
		return page, nil
	}

	approved := true
	found, err := s.store.FindReviews(ctx, Filter{
		ListingSlug: key,
		Approved:    &approved,
		Sort:        DefaultSort,
	})
	if err != nil {
		return nil, err
	}
	page.Reviews = found
	page.ReviewCount = len(found)
	page.AverageRating = averageRating(found)
	page.CategoryAverages = categoryAverages(found)
	return page, nil
}

func averageRating(reviews []models.ReviewView) *float64 {
	var sum float64
	var n int
	for _, r := range reviews {
		if r.Rating == nil {
			continue
		}
		sum += *r.Rating
		n++
	}
	if n == 0 {
		return nil
	}
	avg := slug.Round2(sum / float64(n))
	return &avg
}

func categoryAverages(reviews []models.ReviewView) []CategoryAverage {
	type acc struct {
		sum float64
		n   int
	}
	byName := make(map[string]*acc)
	for _, r := range reviews {
		for name, score := range r.Categories {
			if score == nil {
				continue
			}
			a, ok := byName[name]
			if !ok {
				a = &acc{}
				byName[name] = a
			}
			a.sum += *score
			a.n++
		}
	}

	out := make([]CategoryAverage, 0, len(byName))
	for name, a := range byName {
		out = append(out, CategoryAverage{
			Category: name,
			Average:  slug.Round2(a.sum / float64(a.n)),
			Count:    a.n,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}
