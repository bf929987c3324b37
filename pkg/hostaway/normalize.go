package hostaway

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/theflex/reviews/pkg/common/models"
	"github.com/theflex/reviews/pkg/common/slug"
)

// Channel is the display label stored on listings ingested from Hostaway.
const Channel = "Hostaway"

var ErrInvalidDate = errors.New("invalid submittedAt")

// DateError reports a submission timestamp that could not be parsed.
type DateError struct {
	Index int
	Value string
}

func (e *DateError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%v: %q", ErrInvalidDate, e.Value)
	}
	return fmt.Sprintf("record %d: %v: %q", e.Index, ErrInvalidDate, e.Value)
}

func (e *DateError) Unwrap() error {
	return ErrInvalidDate
}

// Zone-less layouts are read as UTC.
var submittedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseSubmittedAt accepts the timestamp shapes Hostaway has been seen to emit.
func ParseSubmittedAt(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	for _, layout := range submittedLayouts {
		if t, err := time.ParseInLocation(layout, trimmed, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &DateError{Index: -1, Value: value}
}

// Normalize maps one validated record onto the internal schema.
func Normalize(raw RawReview) (models.NormalizedReview, error) {
	submitted, err := ParseSubmittedAt(raw.SubmittedAt)
	if err != nil {
		return models.NormalizedReview{}, err
	}

	var categories map[string]*float64
	if len(raw.ReviewCategory) > 0 {
		categories = make(map[string]*float64, len(raw.ReviewCategory))
		for _, c := range raw.ReviewCategory {
			categories[c.Category] = c.Rating
		}
	}

	return models.NormalizedReview{
		ExternalID:  raw.ID,
		Provider:    models.ProviderHostaway,
		Channel:     Channel,
		Type:        valueOrEmpty(raw.Type),
		Status:      valueOrEmpty(raw.Status),
		Rating:      raw.Rating,
		Categories:  categories,
		SubmittedAt: models.FormatInstant(submitted),
		Author:      nonEmpty(raw.GuestName),
		Text:        nonEmpty(raw.PublicReview),
		ListingName: raw.ListingName,
		ListingSlug: slug.Slugify(raw.ListingName),
	}, nil
}

// NormalizeAll stops at the first record whose timestamp cannot be parsed.
func NormalizeAll(raws []RawReview) ([]models.NormalizedReview, error) {
	out := make([]models.NormalizedReview, 0, len(raws))
	for i, raw := range raws {
		n, err := Normalize(raw)
		if err != nil {
			var de *DateError
			if errors.As(err, &de) {
				de.Index = i
			}
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// NormalizePayload validates and normalizes a raw response body.
func NormalizePayload(data []byte) ([]models.NormalizedReview, error) {
	raws, err := ParsePayload(data)
	if err != nil {
		return nil, err
	}
	return NormalizeAll(raws)
}

func valueOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// nonEmpty treats empty strings like null, as the upstream UI does.
func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
