package models

import (
	"time"
)

// Provider identifies the upstream review system.
type Provider string

const ProviderHostaway Provider = "hostaway"

// SourceKind names where a batch of reviews came from.
type SourceKind string

const (
	SourceAPI      SourceKind = "api"
	SourceMock     SourceKind = "mock"
	SourceDatabase SourceKind = "database"
)

// ParseSourceKind maps user input to a fetch source. Anything but "api" means the fixture.
func ParseSourceKind(v string) SourceKind {
	if v == string(SourceAPI) {
		return SourceAPI
	}
	return SourceMock
}

// InstantLayout is the ISO-8601 form used for every timestamp leaving the service.
const InstantLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatInstant renders t in UTC with millisecond precision, e.g. 2024-03-01T10:00:00.000Z.
func FormatInstant(t time.Time) string {
	return t.UTC().Format(InstantLayout)
}

// NormalizedReview is a validated review in the internal schema.
type NormalizedReview struct {
	ExternalID  string              `json:"extId"`
	Provider    Provider            `json:"provider"`
	Channel     string              `json:"channel"`
	Type        string              `json:"type"`
	Status      string              `json:"status"`
	Rating      *float64            `json:"rating"`
	Categories  map[string]*float64 `json:"categories"`
	SubmittedAt string              `json:"submittedAt"`
	Author      *string             `json:"author"`
	Text        *string             `json:"text"`
	ListingName string              `json:"listingName"`
	ListingSlug string              `json:"listingSlug"`
}

// ReviewView is a normalized review plus its moderation state.
type ReviewView struct {
	NormalizedReview
	Approved bool `json:"approved"`
}

// Pending wraps freshly fetched reviews that have never been moderated.
func Pending(reviews []NormalizedReview) []ReviewView {
	out := make([]ReviewView, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, ReviewView{NormalizedReview: r})
	}
	return out
}

// SummaryRow aggregates the reviews of one listing.
type SummaryRow struct {
	ListingSlug    string   `json:"listingSlug"`
	ListingName    string   `json:"listingName"`
	Channel        string   `json:"channel"`
	ReviewCount    int      `json:"reviewCount"`
	ApprovedCount  int      `json:"approvedCount"`
	PendingCount   int      `json:"pendingCount"`
	AverageRating  *float64 `json:"averageRating"`
	LatestReviewAt *string  `json:"latestReviewAt"`
}

type ApprovalResult struct {
	ExternalID string `json:"extId"`
	Approved   bool   `json:"approved"`
}

// Event Bus models
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // review.ingested, review.approval_changed
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

const (
	EventReviewsIngested = "review.ingested"
	EventApprovalChanged = "review.approval_changed"
)
