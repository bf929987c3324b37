package reviews

import (
	"strings"
	"testing"
	"time"

	"github.com/theflex/reviews/pkg/common/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// dryRunDB renders Postgres SQL without a server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=reviews password=reviews dbname=reviews sslmode=disable",
	}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	return db
}

func TestUpsertReviewKeepsApprovalAndProvider(t *testing.T) {
	db := dryRunDB(t)
	rating := 9.0
	row, err := toReviewModel(ReviewInput{ListingID: 3, Review: models.NormalizedReview{
		ExternalID:  "7453",
		Provider:    models.ProviderHostaway,
		Rating:      &rating,
		SubmittedAt: "2024-03-01T10:00:00.000Z",
	}})
	if err != nil {
		t.Fatalf("toReviewModel: %v", err)
	}

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return upsertReview(tx, &row)
	})

	if !strings.HasPrefix(sql, `INSERT INTO "reviews"`) || !strings.Contains(sql, `"approved"`) {
		t.Fatalf("expected insert carrying the approved column, got %s", sql)
	}
	_, set, ok := strings.Cut(sql, `ON CONFLICT ("ext_id") DO UPDATE SET `)
	if !ok {
		t.Fatalf("expected ext_id conflict target, got %s", sql)
	}
	set, _, _ = strings.Cut(set, " RETURNING")
	for _, col := range []string{`"approved"`, `"provider"`, `"ext_id"`, `"created_at"`} {
		if strings.Contains(set, col) {
			t.Errorf("conflict update must not touch %s: %s", col, set)
		}
	}
	for _, col := range reviewUpdateColumns {
		want := `"` + col + `"="excluded"."` + col + `"`
		if !strings.Contains(set, want) {
			t.Errorf("conflict update missing %s: %s", want, set)
		}
	}
	if strings.Contains(sql, `"listings"`) {
		t.Fatalf("upsert must not write the listing association: %s", sql)
	}
}

func TestReviewQueryFiltersAndOrder(t *testing.T) {
	db := dryRunDB(t)
	approved := true
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	filter := Filter{
		ListingSlug: "flat-one",
		Approved:    &approved,
		From:        &from,
		Sort:        Sort{Field: SortRating, Direction: SortDesc},
	}

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rows []reviewModel
		return reviewQuery(tx, filter).Find(&rows)
	})

	for _, want := range []string{
		`LEFT JOIN "listings" "Listing" ON "reviews"."listing_id" = "Listing"."id"`,
		`"Listing"."slug" = 'flat-one'`,
		`reviews.approved = true`,
		`reviews.submitted_at >= `,
		`ORDER BY "reviews"."rating" DESC,"reviews"."id"`,
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("expected %q in %s", want, sql)
		}
	}
	if strings.Contains(sql, "reviews.submitted_at <=") {
		t.Errorf("unexpected upper bound in %s", sql)
	}
}

func TestReviewQueryDefaultsToNewestFirst(t *testing.T) {
	db := dryRunDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rows []reviewModel
		return reviewQuery(tx, Filter{}).Find(&rows)
	})

	if strings.Contains(sql, "WHERE") {
		t.Errorf("expected no filters, got %s", sql)
	}
	if !strings.Contains(sql, `ORDER BY "reviews"."submitted_at" DESC,"reviews"."id"`) {
		t.Errorf("expected submitted_at desc ordering, got %s", sql)
	}
}

func TestReviewModelRoundTrip(t *testing.T) {
	rating := 8.5
	location := 9.0
	text := "Lovely stay"
	in := ReviewInput{
		ListingID: 7,
		Review: models.NormalizedReview{
			ExternalID:  "7453",
			Provider:    models.ProviderHostaway,
			Channel:     "Hostaway",
			Type:        "guest-to-host",
			Status:      "published",
			Rating:      &rating,
			Categories:  map[string]*float64{"location": &location, "value": nil},
			SubmittedAt: "2024-03-01T10:00:00.000Z",
			Text:        &text,
			ListingName: "Flat One",
			ListingSlug: "flat-one",
		},
	}

	row, err := toReviewModel(in)
	if err != nil {
		t.Fatalf("toReviewModel: %v", err)
	}
	if row.Approved || row.ListingID != 7 || row.ExtID != "7453" {
		t.Fatalf("unexpected row %+v", row)
	}

	row.Listing = listingModel{ID: 7, Slug: "flat-one", Name: "Flat One", Channel: "Hostaway"}
	out := fromReviewModel(row)

	if out.SubmittedAt != "2024-03-01T10:00:00.000Z" {
		t.Fatalf("unexpected instant %s", out.SubmittedAt)
	}
	if out.Rating == nil || *out.Rating != 8.5 {
		t.Fatalf("unexpected rating %v", out.Rating)
	}
	if got := out.Categories["location"]; got == nil || *got != 9 {
		t.Fatalf("unexpected location score %v", got)
	}
	if v, ok := out.Categories["value"]; !ok || v != nil {
		t.Fatalf("expected explicit null category to survive, got %v (present=%v)", v, ok)
	}
	if out.ListingSlug != "flat-one" || out.Author != nil || *out.Text != text {
		t.Fatalf("unexpected view %+v", out.NormalizedReview)
	}
}

func TestReviewModelWithoutCategories(t *testing.T) {
	row, err := toReviewModel(ReviewInput{Review: models.NormalizedReview{
		ExternalID:  "1",
		SubmittedAt: "2024-01-01T00:00:00.000Z",
	}})
	if err != nil {
		t.Fatalf("toReviewModel: %v", err)
	}
	if row.Categories != nil {
		t.Fatalf("expected NULL categories column, got %s", row.Categories)
	}
	if out := fromReviewModel(row); out.Categories != nil {
		t.Fatalf("expected nil categories, got %v", out.Categories)
	}
}

func TestReviewModelRejectsBadInstant(t *testing.T) {
	if _, err := toReviewModel(ReviewInput{Review: models.NormalizedReview{ExternalID: "1", SubmittedAt: "yesterday"}}); err == nil {
		t.Fatal("expected error for unparseable instant")
	}
}
