package hostaway

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidRecord is wrapped by every ValidationError.
var ErrInvalidRecord = errors.New("invalid hostaway review")

// ValidationError identifies the first record that broke the payload contract.
// Index is -1 when the envelope itself is malformed.
type ValidationError struct {
	Index  int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Index < 0 && e.Field == "":
		return fmt.Sprintf("payload: %s", e.Reason)
	case e.Index < 0:
		return fmt.Sprintf("payload: %s: %s", e.Field, e.Reason)
	default:
		return fmt.Sprintf("record %d: %s: %s", e.Index, e.Field, e.Reason)
	}
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRecord
}

// RawCategory is one entry of reviewCategory.
type RawCategory struct {
	Category string
	Rating   *float64
}

// RawReview is a review record that passed schema validation. Optional strings that
// were absent or null are nil.
type RawReview struct {
	ID             string
	Type           *string
	Status         *string
	Rating         *float64
	PublicReview   *string
	ReviewCategory []RawCategory
	SubmittedAt    string
	GuestName      *string
	ListingName    string
}

// ParsePayload decodes and validates a Hostaway reviews response body.
func ParsePayload(data []byte) ([]RawReview, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, &ValidationError{Index: -1, Reason: fmt.Sprintf("malformed json: %v", err)}
	}
	return ValidatePayload(doc)
}

// ValidatePayload checks an already decoded JSON value. Numbers may be float64 or json.Number.
func ValidatePayload(doc interface{}) ([]RawReview, error) {
	envelope, ok := doc.(map[string]interface{})
	if !ok {
		return nil, &ValidationError{Index: -1, Reason: "expected a JSON object"}
	}

	rawResult, present := envelope["result"]
	if !present || rawResult == nil {
		return []RawReview{}, nil
	}
	items, ok := rawResult.([]interface{})
	if !ok {
		return nil, &ValidationError{Index: -1, Field: "result", Reason: "expected an array"}
	}

	out := make([]RawReview, 0, len(items))
	for i, item := range items {
		rec, err := validateRecord(item)
		if err != nil {
			err.Index = i
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func validateRecord(item interface{}) (RawReview, *ValidationError) {
	obj, ok := item.(map[string]interface{})
	if !ok {
		return RawReview{}, &ValidationError{Field: "record", Reason: "expected an object"}
	}

	var rec RawReview
	var verr *ValidationError

	if rec.ID, verr = requiredID(obj, "id"); verr != nil {
		return RawReview{}, verr
	}
	if rec.ListingName, verr = requiredString(obj, "listingName"); verr != nil {
		return RawReview{}, verr
	}
	if rec.SubmittedAt, verr = requiredString(obj, "submittedAt"); verr != nil {
		return RawReview{}, verr
	}
	if rec.Type, verr = optionalString(obj, "type", false); verr != nil {
		return RawReview{}, verr
	}
	if rec.Status, verr = optionalString(obj, "status", false); verr != nil {
		return RawReview{}, verr
	}
	if rec.PublicReview, verr = optionalString(obj, "publicReview", true); verr != nil {
		return RawReview{}, verr
	}
	if rec.GuestName, verr = optionalString(obj, "guestName", true); verr != nil {
		return RawReview{}, verr
	}
	if rec.Rating, verr = optionalNumber(obj, "rating"); verr != nil {
		return RawReview{}, verr
	}
	if rec.ReviewCategory, verr = categories(obj); verr != nil {
		return RawReview{}, verr
	}
	return rec, nil
}

func requiredID(obj map[string]interface{}, field string) (string, *ValidationError) {
	switch v := obj[field].(type) {
	case string:
		return v, nil
	case json.Number:
		return numberString(v.String()), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case nil:
		return "", &ValidationError{Field: field, Reason: "required"}
	default:
		return "", &ValidationError{Field: field, Reason: "expected string or number"}
	}
}

// numberString renders a JSON number literal the way it would print as a plain decimal.
func numberString(lit string) string {
	if !strings.ContainsAny(lit, ".eE") {
		return lit
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return lit
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func requiredString(obj map[string]interface{}, field string) (string, *ValidationError) {
	v, present := obj[field]
	if !present || v == nil {
		return "", &ValidationError{Field: field, Reason: "required"}
	}
	s, ok := v.(string)
	if !ok {
		return "", &ValidationError{Field: field, Reason: "expected string"}
	}
	return s, nil
}

func optionalString(obj map[string]interface{}, field string, nullable bool) (*string, *ValidationError) {
	v, present := obj[field]
	if !present {
		return nil, nil
	}
	if v == nil {
		if nullable {
			return nil, nil
		}
		return nil, &ValidationError{Field: field, Reason: "must not be null"}
	}
	s, ok := v.(string)
	if !ok {
		return nil, &ValidationError{Field: field, Reason: "expected string"}
	}
	return &s, nil
}

func optionalNumber(obj map[string]interface{}, field string) (*float64, *ValidationError) {
	v, present := obj[field]
	if !present || v == nil {
		return nil, nil
	}
	f, ok := toFloat(v)
	if !ok {
		return nil, &ValidationError{Field: field, Reason: "expected number"}
	}
	return &f, nil
}

func categories(obj map[string]interface{}) ([]RawCategory, *ValidationError) {
	v, present := obj["reviewCategory"]
	if !present {
		return nil, nil
	}
	list, ok := v.([]interface{})
	if !ok {
		return nil, &ValidationError{Field: "reviewCategory", Reason: "expected an array"}
	}

	out := make([]RawCategory, 0, len(list))
	for j, entry := range list {
		field := fmt.Sprintf("reviewCategory[%d]", j)
		catObj, ok := entry.(map[string]interface{})
		if !ok {
			return nil, &ValidationError{Field: field, Reason: "expected an object"}
		}
		name, verr := requiredString(catObj, "category")
		if verr != nil {
			verr.Field = field + "." + verr.Field
			return nil, verr
		}
		rating, verr := optionalNumber(catObj, "rating")
		if verr != nil {
			verr.Field = field + "." + verr.Field
			return nil, verr
		}
		out = append(out, RawCategory{Category: name, Rating: rating})
	}
	return out, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
