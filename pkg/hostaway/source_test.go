package hostaway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/theflex/reviews/pkg/common/models"
)

const samplePayload = `{"status":"success","result":[{"id":1,"listingName":"Flat One","submittedAt":"2024-01-01 10:00:00","rating":9}]}`

func TestFixtureSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.json")
	if err := os.WriteFile(path, []byte(samplePayload), 0o600); err != nil {
		t.Fatal(err)
	}

	src := NewFixtureSource(path)
	if src.Kind() != models.SourceMock {
		t.Fatalf("unexpected kind %s", src.Kind())
	}
	reviews, err := Load(context.Background(), src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reviews) != 1 || reviews[0].ListingSlug != "flat-one" {
		t.Fatalf("unexpected reviews %+v", reviews)
	}
}

func TestFixtureSourceMissingFile(t *testing.T) {
	_, err := NewFixtureSource(filepath.Join(t.TempDir(), "nope.json")).Fetch(context.Background())
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestAPISourceMissingCredentials(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	src := NewAPISource(APIConfig{BaseURL: srv.URL, AccountID: "61148"})
	_, err := src.Fetch(context.Background())
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	if hits.Load() != 0 {
		t.Fatal("expected no network call without credentials")
	}
}

func TestAPISourceSendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/reviews" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("accountId"); got != "61148" {
			t.Errorf("unexpected accountId %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret-key" {
			t.Errorf("unexpected Authorization %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	src := NewAPISource(APIConfig{BaseURL: srv.URL + "/v1", AccountID: "61148", APIKey: "secret-key", Timeout: time.Second})
	reviews, err := Load(context.Background(), src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reviews) != 1 {
		t.Fatalf("expected 1 review, got %d", len(reviews))
	}
}

func TestAPISourceStatusError(t *testing.T) {
	long := strings.Repeat("x", 500)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, long, http.StatusForbidden)
	}))
	defer srv.Close()

	src := NewAPISource(APIConfig{BaseURL: srv.URL, AccountID: "1", APIKey: "k", Timeout: time.Second})
	_, err := src.Fetch(context.Background())

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusForbidden {
		t.Fatalf("unexpected code %d", se.Code)
	}
	if len(se.Body) != maxErrorBody {
		t.Fatalf("expected body truncated to %d, got %d", maxErrorBody, len(se.Body))
	}
	if !strings.HasPrefix(err.Error(), "Hostaway API request failed (403): ") {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if hits.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", hits.Load())
	}
}

func TestAPISourceTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewAPISource(APIConfig{BaseURL: url, AccountID: "1", APIKey: "k", Timeout: time.Second}).Fetch(context.Background())
	if err == nil || !strings.Contains(err.Error(), "fetching hostaway reviews") {
		t.Fatalf("expected wrapped transport error, got %v", err)
	}
}

func TestAPISourceClientCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/accessTokens", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.Form.Get("client_id") != "61148" || r.Form.Get("client_secret") != "secret" {
			t.Errorf("unexpected client credentials %v", r.Form)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"exchanged","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/reviews", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer exchanged" {
			t.Errorf("unexpected Authorization %q", got)
		}
		w.Write([]byte(samplePayload))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	src := NewAPISource(APIConfig{
		BaseURL:   srv.URL,
		AccountID: "61148",
		APIKey:    "secret",
		TokenURL:  srv.URL + "/accessTokens",
		Timeout:   time.Second,
	})
	if _, err := src.Fetch(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
