package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/yatrafleet/service-booking/internal/config"
)

const (
	// minBufferHours is the buffer for same-locale or unspecified trips.
	minBufferHours = 1
	// fallbackBufferHours is the estimate used when the external
	// travel-duration lookup cannot be completed.
	fallbackBufferHours = 4
	// safetyMarginHours is added on top of the reported driving duration.
	safetyMarginHours = 1
)

// TravelTimeEstimator resolves the minimum idle time, in whole hours, a
// vehicle needs between dropping one trip and picking up the next.
// Implementations never fail; a usable estimate always comes back.
type TravelTimeEstimator interface {
	BufferHours(ctx context.Context, from, to string) int
}

// TravelTimeOracle resolves buffers via the Google Distance Matrix API,
// memoizing successful lookups in an injected cache and degrading to a
// constant estimate when the service is unreachable or unconfigured.
type TravelTimeOracle struct {
	cfg    config.MapsConfig
	client *http.Client
	memo   *cache.Cache
	logger *zap.Logger
}

// NewTravelTimeOracle creates an oracle backed by the given cache. A nil
// memo gets a fresh unbounded cache; injecting one keeps tests isolated
// and leaves room for a TTL policy without touching call sites.
func NewTravelTimeOracle(cfg config.MapsConfig, memo *cache.Cache, logger *zap.Logger) *TravelTimeOracle {
	if memo == nil {
		memo = cache.New(cache.NoExpiration, 0)
	}
	return &TravelTimeOracle{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		memo:   memo,
		logger: logger,
	}
}

// BufferHours resolves the buffer required to travel from one named
// location to the other. Same-locale pairs (equal after normalization, or
// one a substring of the other) resolve to the minimal buffer without any
// lookup. Fallback results are deliberately not cached so that a later
// successful lookup can still populate the entry.
func (o *TravelTimeOracle) BufferHours(ctx context.Context, from, to string) int {
	from = strings.ToLower(strings.TrimSpace(from))
	to = strings.ToLower(strings.TrimSpace(to))
	if from == "" || to == "" {
		return minBufferHours
	}
	if from == to || strings.Contains(from, to) || strings.Contains(to, from) {
		return minBufferHours
	}

	// Directional key: A->B and B->A are distinct routes and may have
	// different driving durations.
	key := from + "|" + to
	if v, found := o.memo.Get(key); found {
		return v.(int)
	}

	hours, err := o.lookupDrivingHours(ctx, from, to)
	if err != nil {
		o.logger.Warn("travel duration lookup failed, using fallback estimate",
			zap.String("from", from),
			zap.String("to", to),
			zap.Int("fallback_hours", fallbackBufferHours),
			zap.Error(err),
		)
		return fallbackBufferHours
	}

	o.memo.Set(key, hours, cache.NoExpiration)
	return hours
}

// distanceMatrixResponse mirrors the subset of the Distance Matrix JSON
// payload we consume.
type distanceMatrixResponse struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []struct {
			Status   string `json:"status"`
			Duration struct {
				Value int64 `json:"value"` // seconds
			} `json:"duration"`
		} `json:"elements"`
	} `json:"rows"`
}

func (o *TravelTimeOracle) lookupDrivingHours(ctx context.Context, from, to string) (int, error) {
	if o.cfg.APIKey == "" {
		return 0, errors.New("maps API key not configured")
	}

	q := url.Values{}
	q.Set("origins", from)
	q.Set("destinations", to)
	q.Set("mode", "driving")
	q.Set("region", o.cfg.Region)
	q.Set("key", o.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	var body distanceMatrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}
	if body.Status != "OK" {
		return 0, fmt.Errorf("distance matrix returned status %q", body.Status)
	}
	if len(body.Rows) == 0 || len(body.Rows[0].Elements) == 0 {
		return 0, errors.New("distance matrix returned no elements")
	}
	element := body.Rows[0].Elements[0]
	if element.Status != "OK" {
		return 0, fmt.Errorf("distance matrix element status %q", element.Status)
	}

	// Round the driving duration up to whole hours, then pad with the
	// safety margin.
	return int(math.Ceil(float64(element.Duration.Value)/3600.0)) + safetyMarginHours, nil
}
