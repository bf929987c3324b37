package reviews

import (
	"time"

	"github.com/theflex/reviews/pkg/common/models"
	"gorm.io/datatypes"
)

type listingModel struct {
	ID        uint      `gorm:"primaryKey;column:id"`
	Slug      string    `gorm:"column:slug;uniqueIndex;not null"`
	Name      string    `gorm:"column:name;not null"`
	Channel   string    `gorm:"column:channel;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (listingModel) TableName() string { return "listings" }

type reviewModel struct {
	ID          uint           `gorm:"primaryKey;column:id"`
	ExtID       string         `gorm:"column:ext_id;uniqueIndex;not null"`
	Provider    string         `gorm:"column:provider;not null"`
	Type        string         `gorm:"column:type;not null;default:''"`
	Status      string         `gorm:"column:status;not null;default:''"`
	Rating      *float64       `gorm:"column:rating;index"`
	Categories  datatypes.JSON `gorm:"column:categories"`
	SubmittedAt time.Time      `gorm:"column:submitted_at;index;not null"`
	Author      *string        `gorm:"column:author"`
	Text        *string        `gorm:"column:text"`
	Approved    bool           `gorm:"column:approved;not null;default:false;index"`
	ListingID   uint           `gorm:"column:listing_id;index;not null"`
	Listing     listingModel   `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time      `gorm:"column:created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at"`
}

func (reviewModel) TableName() string { return "reviews" }

// Listing is a property as known to the store.
type Listing struct {
	ID      uint   `json:"id"`
	Slug    string `json:"slug"`
	Name    string `json:"name"`
	Channel string `json:"channel"`
}

type ListingInput struct {
	Slug    string
	Name    string
	Channel string
}

// ReviewInput is a normalized review bound to the listing row that owns it.
type ReviewInput struct {
	Review    models.NormalizedReview
	ListingID uint
}

type SortField string

const (
	SortSubmittedAt SortField = "submittedAt"
	SortRating      SortField = "rating"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

type Sort struct {
	Field     SortField
	Direction SortDirection
}

func (s Sort) String() string {
	return string(s.Field) + ":" + string(s.Direction)
}

// DefaultSort is newest first.
var DefaultSort = Sort{Field: SortSubmittedAt, Direction: SortDesc}

// Filter narrows FindReviews. Zero values mean "no constraint".
type Filter struct {
	ListingSlug string
	Approved    *bool
	From        *time.Time
	To          *time.Time
	Sort        Sort
}
