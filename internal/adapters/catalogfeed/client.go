package catalogfeed

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"hotel_concierge/internal/adapters/observability"
	"hotel_concierge/internal/domain"
)

const maxAttempts = 4

// Client pulls hotel payloads from a remote catalog feed.
type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if strings.TrimSpace(base) == "" {
		return nil, fmt.Errorf("catalog feed base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

var (
	ErrNotFound     = fmt.Errorf("catalog feed: %w", domain.ErrNotFound)
	ErrUnauthorized = errors.New("catalog feed: 401 unauthorized")
	ErrForbidden    = errors.New("catalog feed: 403 forbidden")
)

// ListHotelIDs accepts a bare id array, an array of hotel objects, or
// an envelope {"hotel_ids": [...]} / {"hotels": [...]}.
func (c *Client) ListHotelIDs(ctx context.Context) ([]string, error) {
	var raw json.RawMessage
	if err := c.getFirst(ctx, "list", []string{c.base + "/hotels/ids", c.base + "/hotels"}, &raw); err != nil {
		return nil, err
	}
	return decodeIDs(raw)
}

func (c *Client) GetHotel(ctx context.Context, id string) (map[string]any, error) {
	esc := url.PathEscape(id)
	candidates := []string{
		c.base + "/hotels/" + esc, // preferred
		c.base + "/hotel/" + esc,  // legacy
	}
	var out map[string]any
	return out, c.getFirst(ctx, "hotel", candidates, &out)
}

func decodeIDs(raw json.RawMessage) ([]string, error) {
	var env struct {
		IDs    []any `json:"hotel_ids"`
		Hotels []any `json:"hotels"`
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("decode hotel id list: %w", err)
		}
		items = append(env.IDs, env.Hotels...)
	}

	out := make([]string, 0, len(items))
	for _, it := range items {
		switch v := it.(type) {
		case string:
			out = append(out, v)
		case float64:
			out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
		case map[string]any:
			for _, k := range []string{"hotel_id", "id"} {
				if s, ok := v[k].(string); ok && s != "" {
					out = append(out, s)
					break
				}
			}
		}
	}
	return out, nil
}

// ---- Internals ----

func (c *Client) getFirst(ctx context.Context, endpoint string, urls []string, out any) error {
	var last error
	for _, u := range urls {
		if err := c.get(ctx, endpoint, u, out); err != nil {
			if errors.Is(err, ErrNotFound) {
				last = err
				continue // try next pattern
			}
			return err
		}
		return nil
	}
	if last != nil {
		return last
	}
	return errors.New("catalog feed: no candidate URL succeeded")
}

// retryable lists the statuses worth another attempt.
var retryable = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// get performs one rate-limited logical GET. Transport errors and retryable
// statuses are retried up to maxAttempts, waiting Retry-After when given.
func (c *Client) get(ctx context.Context, endpoint, u string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var (
		wait    time.Duration
		lastErr error
	)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 && !sleepCtx(ctx, wait) {
			return ctx.Err()
		}
		resp, err := c.send(ctx, endpoint, u)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr, wait = err, backoff(attempt)
			continue
		}
		if retryable[resp.StatusCode] {
			if wait = retryAfter(resp); wait == 0 {
				wait = backoff(attempt)
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("catalog feed: remote %d", resp.StatusCode)
			continue
		}
		return decodeResponse(resp, endpoint, out)
	}
	return lastErr
}

func (c *Client) send(ctx context.Context, endpoint, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if c.key != "" {
		req.Header.Set("X-API-Key", c.key)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "hotel-concierge-importer/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	observability.ObserveExternal("catalogfeed", endpoint, status, time.Since(start))
	return resp, err
}

// decodeResponse maps a terminal response onto out or a feed error.
func decodeResponse(resp *http.Response, endpoint string, out any) error {
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("catalog feed: decode %s: %w", endpoint, err)
		}
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("catalog feed: bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
}

// sleepCtx waits for d or returns false once ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). 0 if absent or invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	return base + time.Duration(0.5*float64(b[0])/255.0*float64(base))
}
