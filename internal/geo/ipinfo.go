// Package geo resolves client addresses to country codes through the
// ipinfo.io HTTP API.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-retry"
)

var ErrInvalidIP = errors.New("invalid ip address")

// Client looks up countries and caches answers, empty ones included, for the
// configured TTL.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	cache      *gocache.Cache
	retries    uint64
	backoff    time.Duration
}

type Options struct {
	BaseURL  string
	Token    string
	Timeout  time.Duration
	CacheTTL time.Duration
	// Retries is how many times a throttled or failed lookup is retried.
	Retries int
	Backoff time.Duration
}

func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      opts.Token,
		httpClient: &http.Client{Timeout: timeout},
		cache:      gocache.New(ttl, 2*ttl),
		retries:    uint64(max(opts.Retries, 0)),
		backoff:    backoff,
	}
}

type ipinfoResponse struct {
	IP      string `json:"ip"`
	Country string `json:"country"`
	Bogon   bool   `json:"bogon"`
}

// Country returns the ISO country code for ip, or "" when the address is
// private or the provider does not know it.
func (c *Client) Country(ctx context.Context, ip string) (string, error) {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidIP, ip)
	}
	if parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() || parsed.IsLinkLocalUnicast() {
		return "", nil
	}

	key := parsed.String()
	if cached, ok := c.cache.Get(key); ok {
		return cached.(string), nil
	}

	var country string
	backoff := retry.WithMaxRetries(c.retries, retry.NewExponential(c.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		country, err = c.fetch(ctx, key)
		return err
	})
	if err != nil {
		return "", err
	}
	c.cache.SetDefault(key, country)
	return country, nil
}

func (c *Client) fetch(ctx context.Context, ip string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(ip))
	if c.token != "" {
		endpoint += "?token=" + url.QueryEscape(c.token)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build geo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", retry.RetryableError(fmt.Errorf("geo lookup for %s failed: %w", ip, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		err := fmt.Errorf("geo lookup for %s: unexpected status %d", ip, resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return "", retry.RetryableError(err)
		}
		return "", err
	}

	var body ipinfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode geo response: %w", err)
	}

	log.Debug().Str("ip", ip).Str("country", body.Country).Bool("bogon", body.Bogon).Msg("geo lookup")
	return body.Country, nil
}
