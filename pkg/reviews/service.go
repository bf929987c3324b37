package reviews

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/theflex/reviews/pkg/common/logger"
	"github.com/theflex/reviews/pkg/common/models"
	"github.com/theflex/reviews/pkg/hostaway"
	"github.com/theflex/reviews/pkg/observability/metrics"
	"github.com/theflex/reviews/pkg/properties"
	"github.com/theflex/reviews/pkg/runs"
)

const eventSource = "reviews-service"

// EventPublisher is satisfied by *kafka.Producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

// Sources are the two interchangeable payload providers.
type Sources struct {
	Fixture hostaway.Source
	API     hostaway.Source
}

type Service struct {
	store   Store
	sources Sources
	runs    runs.Tracker
	events  EventPublisher
	catalog properties.Catalog
	now     func() time.Time
}

// NewService wires the pipeline. tracker may be nil (memory tracker) and events may be nil.
func NewService(store Store, sources Sources, tracker runs.Tracker, events EventPublisher, catalog properties.Catalog) *Service {
	if tracker == nil {
		tracker = runs.NewMemoryTracker()
	}
	return &Service{
		store:   store,
		sources: sources,
		runs:    tracker,
		events:  events,
		catalog: catalog,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type IngestResult struct {
	OK              bool                `json:"ok"`
	Provider        models.Provider     `json:"provider"`
	RunID           string              `json:"runId"`
	RequestedSource models.SourceKind   `json:"requestedSource"`
	Source          models.SourceKind   `json:"source"`
	Error           string              `json:"error,omitempty"`
	Count           int                 `json:"count"`
	Total           int                 `json:"total"`
	Summary         []models.SummaryRow `json:"summary"`
}

// Ingest loads the requested source, falling back to the fixture when the API fails,
// and upserts the batch. The returned summary covers every stored review.
func (s *Service) Ingest(ctx context.Context, requested models.SourceKind) (*IngestResult, error) {
	run := runs.Run{
		ID:              uuid.New().String(),
		RequestedSource: requested,
		StartedAt:       s.now(),
	}
	log := logger.WithFields(map[string]interface{}{
		"run_id":           run.ID,
		"requested_source": requested,
	})

	batch, source, fetchErr, err := s.loadWithFallback(ctx, requested)
	if err != nil {
		s.finishFailedRun(ctx, run, err)
		return nil, err
	}
	run.Source = source
	if fetchErr != nil {
		run.Error = fetchErr.Error()
		log.WithError(fetchErr).Warn("hostaway api unavailable, ingested fixture instead")
	}

	if err := s.persist(ctx, batch); err != nil {
		s.finishFailedRun(ctx, run, err)
		return nil, err
	}

	stored, err := s.store.FindReviews(ctx, Filter{Sort: DefaultSort})
	if err != nil {
		s.finishFailedRun(ctx, run, err)
		return nil, fmt.Errorf("reading reviews after ingestion: %w", err)
	}

	run.Ingested = len(batch)
	run.FinishedAt = s.now()
	run.Status = runs.StatusSucceeded
	if fetchErr != nil {
		run.Status = runs.StatusFallback
	}
	if err := s.runs.Record(ctx, run); err != nil {
		log.WithError(err).Warn("failed to record ingestion run")
	}
	metrics.ObserveIngestion(len(batch), fetchErr != nil)

	s.publish(ctx, models.EventReviewsIngested, map[string]interface{}{
		"run_id":           run.ID,
		"requested_source": string(requested),
		"source":           string(source),
		"count":            len(batch),
	})

	log.WithFields(map[string]interface{}{
		"source":   source,
		"ingested": len(batch),
		"total":    len(stored),
	}).Info("reviews ingested")

	return &IngestResult{
		OK:              true,
		Provider:        models.ProviderHostaway,
		RunID:           run.ID,
		RequestedSource: requested,
		Source:          source,
		Error:           run.Error,
		Count:           len(batch),
		Total:           len(stored),
		Summary:         BuildSummary(stored),
	}, nil
}

// loadWithFallback returns the batch, the source actually used, the API error that caused a
// fallback (if any) and a hard error when nothing could be loaded.
func (s *Service) loadWithFallback(ctx context.Context, requested models.SourceKind) ([]models.NormalizedReview, models.SourceKind, error, error) {
	if requested == models.SourceAPI {
		batch, err := hostaway.Load(ctx, s.sources.API)
		if err == nil {
			return batch, models.SourceAPI, nil, nil
		}
		countValidation(err)
		fixture, fixtureErr := s.loadFixture(ctx)
		if fixtureErr != nil {
			return nil, "", err, fmt.Errorf("hostaway api failed (%v) and fixture fallback failed: %w", err, fixtureErr)
		}
		return fixture, models.SourceMock, err, nil
	}

	batch, err := s.loadFixture(ctx)
	if err != nil {
		return nil, "", nil, err
	}
	return batch, models.SourceMock, nil, nil
}

func (s *Service) loadFixture(ctx context.Context) ([]models.NormalizedReview, error) {
	batch, err := hostaway.Load(ctx, s.sources.Fixture)
	if err != nil {
		countValidation(err)
		return nil, fmt.Errorf("loading fixture reviews: %w", err)
	}
	return batch, nil
}

// persist upserts listings one by one and then the reviews in a single transaction.
// A failure between the two leaves listings without reviews; a re-run converges.
func (s *Service) persist(ctx context.Context, batch []models.NormalizedReview) error {
	type group struct {
		name    string
		channel string
	}
	groups := make(map[string]group)
	order := make([]string, 0)
	for _, r := range batch {
		g, ok := groups[r.ListingSlug]
		if !ok {
			groups[r.ListingSlug] = group{name: r.ListingName, channel: r.Channel}
			order = append(order, r.ListingSlug)
			continue
		}
		if g.name != r.ListingName {
			logger.WithFields(map[string]interface{}{
				"slug":      r.ListingSlug,
				"kept_name": g.name,
				"merged":    r.ListingName,
			}).Warn("distinct listing names share a slug, merging")
		}
	}

	ids := make(map[string]uint, len(order))
	for _, key := range order {
		g := groups[key]
		listing, err := s.store.UpsertListing(ctx, ListingInput{Slug: key, Name: g.name, Channel: g.channel})
		if err != nil {
			return err
		}
		ids[key] = listing.ID
	}

	inputs := make([]ReviewInput, 0, len(batch))
	for _, r := range batch {
		inputs = append(inputs, ReviewInput{Review: r, ListingID: ids[r.ListingSlug]})
	}
	if err := s.store.UpsertReviews(ctx, inputs); err != nil {
		return fmt.Errorf("upserting reviews: %w", err)
	}
	return nil
}

func (s *Service) finishFailedRun(ctx context.Context, run runs.Run, cause error) {
	run.Status = runs.StatusFailed
	run.Error = cause.Error()
	run.FinishedAt = s.now()
	if err := s.runs.Record(ctx, run); err != nil {
		logger.Log.WithError(err).Warn("failed to record ingestion run")
	}
	metrics.ObserveIngestionFailure()
	logger.Log.WithError(cause).WithField("run_id", run.ID).Error("review ingestion failed")
}

type FilterEcho struct {
	ListingSlug string `json:"listingSlug,omitempty"`
	Approved    *bool  `json:"approved,omitempty"`
	From        string `json:"from,omitempty"`
	To          string `json:"to,omitempty"`
	Sort        string `json:"sort"`
}

type QueryResult struct {
	Provider models.Provider     `json:"provider"`
	Source   models.SourceKind   `json:"source"`
	Fallback models.SourceKind   `json:"fallback,omitempty"`
	Error    string              `json:"error,omitempty"`
	Count    int                 `json:"count"`
	Filters  *FilterEcho         `json:"filters,omitempty"`
	Reviews  []models.ReviewView `json:"reviews"`
	Summary  []models.SummaryRow `json:"summary"`
}

// Query reads reviews for the dashboard. In API mode a failed call is answered from the
// fixture with Fallback and Error set; callers surface that as an upstream failure.
func (s *Service) Query(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	switch req.Mode {
	case QueryMock:
		batch, err := s.loadFixture(ctx)
		if err != nil {
			return nil, err
		}
		return newQueryResult(models.SourceMock, models.Pending(batch)), nil

	case QueryAPI:
		batch, err := hostaway.Load(ctx, s.sources.API)
		if err == nil {
			return newQueryResult(models.SourceAPI, models.Pending(batch)), nil
		}
		countValidation(err)
		logger.Log.WithError(err).Warn("hostaway api query failed, answering from fixture")
		fixture, fixtureErr := s.loadFixture(ctx)
		if fixtureErr != nil {
			return nil, fmt.Errorf("hostaway api failed (%v) and fixture fallback failed: %w", err, fixtureErr)
		}
		res := newQueryResult(models.SourceMock, models.Pending(fixture))
		res.Fallback = models.SourceAPI
		res.Error = err.Error()
		return res, nil
	}

	found, err := s.store.FindReviews(ctx, req.Filter)
	if err != nil {
		return nil, err
	}
	res := newQueryResult(models.SourceDatabase, found)
	res.Filters = &FilterEcho{
		ListingSlug: req.Filter.ListingSlug,
		Approved:    req.Filter.Approved,
		From:        req.FromParam,
		To:          req.ToParam,
		Sort:        req.Filter.Sort.String(),
	}
	return res, nil
}

func newQueryResult(source models.SourceKind, reviews []models.ReviewView) *QueryResult {
	return &QueryResult{
		Provider: models.ProviderHostaway,
		Source:   source,
		Count:    len(reviews),
		Reviews:  reviews,
		Summary:  BuildSummary(reviews),
	}
}

// Approve flips the moderation flag of one review.
func (s *Service) Approve(ctx context.Context, req ApprovalRequest) (models.ApprovalResult, error) {
	if err := req.Validate(); err != nil {
		metrics.ObserveValidationFailure()
		return models.ApprovalResult{}, err
	}

	res, err := s.store.SetApproval(ctx, req.ExtID, *req.Approved)
	if err != nil {
		return models.ApprovalResult{}, err
	}
	metrics.ObserveApproval()

	s.publish(ctx, models.EventApprovalChanged, map[string]interface{}{
		"ext_id":   res.ExternalID,
		"approved": res.Approved,
	})
	return res, nil
}

// LatestRun returns the report of the most recent ingestion.
func (s *Service) LatestRun(ctx context.Context) (*runs.Run, error) {
	return s.runs.Latest(ctx)
}

func (s *Service) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishEvent(ctx, eventType, eventSource, data); err != nil {
		logger.Log.WithError(err).WithField("event_type", eventType).Warn("failed to publish review event")
	}
}

func countValidation(err error) {
	if errors.Is(err, hostaway.ErrInvalidRecord) || errors.Is(err, hostaway.ErrInvalidDate) {
		metrics.ObserveValidationFailure()
	}
}
