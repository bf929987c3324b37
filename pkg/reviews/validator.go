package reviews

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/theflex/reviews/pkg/common/models"
	"github.com/theflex/reviews/pkg/hostaway"
)

var (
	errMissingExtID    = errors.New("extId required")
	errMissingApproved = errors.New("approved must be a boolean")
	errInvalidRange    = errors.New("invalid date range")
)

type ValidationError struct {
	reason error
}

func (e ValidationError) Error() string {
	return e.reason.Error()
}

func (e ValidationError) Unwrap() error {
	return e.reason
}

func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// ApprovalRequest is the body of the approval endpoint.
type ApprovalRequest struct {
	ExtID    string `json:"extId"`
	Approved *bool  `json:"approved"`
}

func (r ApprovalRequest) Validate() error {
	if strings.TrimSpace(r.ExtID) == "" {
		return ValidationError{reason: errMissingExtID}
	}
	if r.Approved == nil {
		return ValidationError{reason: errMissingApproved}
	}
	return nil
}

// QueryMode picks where GET /reviews/hostaway reads from.
type QueryMode string

const (
	QueryDatabase QueryMode = "database"
	QueryMock     QueryMode = "mock"
	QueryAPI      QueryMode = "api"
)

type QueryRequest struct {
	Mode   QueryMode
	Filter Filter
	// Raw inputs echoed back to the caller.
	FromParam string
	ToParam   string
}

// ParseQuery reads the dashboard's query string. Unknown sort fields fall back to
// submittedAt and unknown directions to desc; unparseable dates are rejected.
func ParseQuery(values url.Values) (QueryRequest, error) {
	req := QueryRequest{Mode: QueryDatabase}

	switch {
	case values.Get("raw") == "1" || values.Get("source") == string(models.SourceMock):
		req.Mode = QueryMock
	case values.Get("source") == string(models.SourceAPI):
		req.Mode = QueryAPI
	}

	req.Filter.ListingSlug = strings.TrimSpace(values.Get("listingSlug"))

	switch values.Get("approved") {
	case "true":
		v := true
		req.Filter.Approved = &v
	case "false":
		v := false
		req.Filter.Approved = &v
	}

	req.FromParam = values.Get("from")
	req.ToParam = values.Get("to")
	if req.FromParam != "" {
		t, err := parseBound(req.FromParam)
		if err != nil {
			return QueryRequest{}, ValidationError{reason: fmt.Errorf("from: %w", err)}
		}
		req.Filter.From = &t
	}
	if req.ToParam != "" {
		t, err := parseBound(req.ToParam)
		if err != nil {
			return QueryRequest{}, ValidationError{reason: fmt.Errorf("to: %w", err)}
		}
		req.Filter.To = &t
	}
	if req.Filter.From != nil && req.Filter.To != nil && req.Filter.From.After(*req.Filter.To) {
		return QueryRequest{}, ValidationError{reason: fmt.Errorf("from after to: %w", errInvalidRange)}
	}

	req.Filter.Sort = ParseSort(values.Get("sort"))
	return req, nil
}

// ParseSort reads "field:direction".
func ParseSort(v string) Sort {
	out := DefaultSort
	if v == "" {
		return out
	}
	field, dir, _ := strings.Cut(v, ":")
	if SortField(field) == SortRating {
		out.Field = SortRating
	}
	if SortDirection(dir) == SortAsc {
		out.Direction = SortAsc
	}
	return out
}

func parseBound(v string) (time.Time, error) {
	t, err := hostaway.ParseSubmittedAt(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q: %w", v, errInvalidRange)
	}
	return t, nil
}
