package httpclient

import (
	"net"
	"net/http"
	"time"
)

const DefaultUserAgent = "theflex-reviews/1.0"

// New creates the client used for calls to review providers. It never retries.
func New(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: &userAgent{base: transport, agent: DefaultUserAgent},
	}
}

type userAgent struct {
	base  http.RoundTripper
	agent string
}

func (u *userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	if r.Header.Get("User-Agent") != "" {
		return u.base.RoundTrip(r)
	}
	clone := r.Clone(r.Context())
	clone.Header.Set("User-Agent", u.agent)
	return u.base.RoundTrip(clone)
}
