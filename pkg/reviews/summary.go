package reviews

import (
	"sort"
	"strings"
	"time"

	"github.com/theflex/reviews/pkg/common/models"
	"github.com/theflex/reviews/pkg/common/slug"
)

type summaryAcc struct {
	row         models.SummaryRow
	ratingSum   float64
	ratingCount int
	latest      time.Time
	latestOK    bool
}

// BuildSummary groups reviews by listing slug. Rows are ordered by listing name,
// case-insensitively.
func BuildSummary(reviews []models.ReviewView) []models.SummaryRow {
	groups := make(map[string]*summaryAcc)
	order := make([]string, 0)

	for _, r := range reviews {
		acc, ok := groups[r.ListingSlug]
		if !ok {
			acc = &summaryAcc{row: models.SummaryRow{
				ListingSlug: r.ListingSlug,
				ListingName: r.ListingName,
				Channel:     r.Channel,
			}}
			groups[r.ListingSlug] = acc
			order = append(order, r.ListingSlug)
		}

		acc.row.ReviewCount++
		if r.Approved {
			acc.row.ApprovedCount++
		} else {
			acc.row.PendingCount++
		}
		if r.Rating != nil {
			acc.ratingSum += *r.Rating
			acc.ratingCount++
		}
		acc.observe(r.SubmittedAt)
	}

	out := make([]models.SummaryRow, 0, len(order))
	for _, key := range order {
		acc := groups[key]
		row := acc.row
		if acc.ratingCount > 0 {
			avg := slug.Round2(acc.ratingSum / float64(acc.ratingCount))
			row.AverageRating = &avg
		}
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].ListingName), strings.ToLower(out[j].ListingName)
		if a != b {
			return a < b
		}
		return out[i].ListingSlug < out[j].ListingSlug
	})
	return out
}

// observe keeps the latest timestamp. Unparseable values only win when nothing parsed yet.
func (a *summaryAcc) observe(submittedAt string) {
	t, err := time.Parse(time.RFC3339Nano, submittedAt)
	if err != nil {
		if a.row.LatestReviewAt == nil {
			v := submittedAt
			a.row.LatestReviewAt = &v
		}
		return
	}
	if !a.latestOK || t.After(a.latest) {
		a.latest = t
		a.latestOK = true
		v := submittedAt
		a.row.LatestReviewAt = &v
	}
}
