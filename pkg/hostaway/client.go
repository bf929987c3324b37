package hostaway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/theflex/reviews/pkg/common/logger"
	"github.com/theflex/reviews/pkg/common/models"
	"github.com/theflex/reviews/pkg/gateway/httpclient"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

var ErrMissingCredentials = errors.New("hostaway credentials are not configured")

const maxErrorBody = 200

// StatusError is returned for any non-2xx reply.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Hostaway API request failed (%d): %s", e.Code, e.Body)
}

type APIConfig struct {
	BaseURL   string
	AccountID string
	APIKey    string
	// TokenURL switches from using APIKey as a static bearer token to an OAuth2
	// client-credentials exchange (client id = AccountID, secret = APIKey).
	TokenURL string
	Timeout  time.Duration
}

// APISource calls the Hostaway reviews endpoint once per Fetch.
type APISource struct {
	cfg  APIConfig
	base *http.Client
}

func NewAPISource(cfg APIConfig) *APISource {
	return &APISource{cfg: cfg, base: httpclient.New(cfg.Timeout)}
}

// WithHTTPClient swaps the underlying transport client, mostly for tests.
func (a *APISource) WithHTTPClient(c *http.Client) *APISource {
	a.base = c
	return a
}

func (a *APISource) Kind() models.SourceKind { return models.SourceAPI }

func (a *APISource) Fetch(ctx context.Context) ([]byte, error) {
	if a.cfg.AccountID == "" || a.cfg.APIKey == "" {
		return nil, ErrMissingCredentials
	}

	endpoint := fmt.Sprintf("%s/reviews?accountId=%s", a.cfg.BaseURL, url.QueryEscape(a.cfg.AccountID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building hostaway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-store")

	start := time.Now()
	resp, err := a.client(ctx).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching hostaway reviews: %w", err)
	}
	defer resp.Body.Close()

	logger.Log.WithFields(map[string]interface{}{
		"status":   resp.StatusCode,
		"duration": time.Since(start).Milliseconds(),
	}).Debug("Hostaway reviews request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*maxErrorBody))
		return nil, &StatusError{Code: resp.StatusCode, Body: truncate(string(body), maxErrorBody)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading hostaway response: %w", err)
	}
	return body, nil
}

func (a *APISource) client(ctx context.Context) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.base)
	var c *http.Client
	if a.cfg.TokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     a.cfg.AccountID,
			ClientSecret: a.cfg.APIKey,
			TokenURL:     a.cfg.TokenURL,
			Scopes:       []string{"general"},
			AuthStyle:    oauth2.AuthStyleInParams,
		}
		c = cc.Client(ctx)
	} else {
		c = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: a.cfg.APIKey,
			TokenType:   "Bearer",
		}))
	}
	// oauth2 only borrows the transport; keep the configured deadline.
	c.Timeout = a.base.Timeout
	return c
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
