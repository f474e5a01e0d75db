package scheduling

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yatrafleet/service-booking/internal/config"
)

// fakeDistanceMatrix serves canned Distance Matrix responses and counts
// upstream calls.
type fakeDistanceMatrix struct {
	server  *httptest.Server
	calls   atomic.Int64
	seconds int64
	fail    atomic.Bool
}

func newFakeDistanceMatrix(t *testing.T, durationSeconds int64) *fakeDistanceMatrix {
	t.Helper()
	f := &fakeDistanceMatrix{seconds: durationSeconds}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		if f.fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"status": "OK",
			"rows": [{"elements": [{"status": "OK", "duration": {"value": %d}}]}]
		}`, f.seconds)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func newTestOracle(baseURL string) *TravelTimeOracle {
	return NewTravelTimeOracle(config.MapsConfig{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Region:  "in",
		Timeout: 2 * time.Second,
	}, nil, zap.NewNop())
}

func TestBufferHours_SameLocaleSkipsLookup(t *testing.T) {
	fake := newFakeDistanceMatrix(t, 7200)
	oracle := newTestOracle(fake.server.URL)
	ctx := context.Background()

	assert.Equal(t, 1, oracle.BufferHours(ctx, "Pune", "Pune"))
	assert.Equal(t, 1, oracle.BufferHours(ctx, " pune ", "PUNE"))
	// One locale naming a part of the other counts as the same locale.
	assert.Equal(t, 1, oracle.BufferHours(ctx, "Pune Station", "Pune"))
	assert.Equal(t, 1, oracle.BufferHours(ctx, "Andheri", "Andheri, Mumbai"))

	assert.Zero(t, fake.calls.Load(), "same-locale pairs must not hit the API")
}

func TestBufferHours_EmptyLocationsUseMinimum(t *testing.T) {
	fake := newFakeDistanceMatrix(t, 7200)
	oracle := newTestOracle(fake.server.URL)
	ctx := context.Background()

	assert.Equal(t, 1, oracle.BufferHours(ctx, "", "Mumbai"))
	assert.Equal(t, 1, oracle.BufferHours(ctx, "Pune", ""))
	assert.Equal(t, 1, oracle.BufferHours(ctx, "  ", ""))
	assert.Zero(t, fake.calls.Load())
}

func TestBufferHours_RoundsUpAndAddsMargin(t *testing.T) {
	// 2h30m of driving rounds up to 3, plus the 1h margin.
	fake := newFakeDistanceMatrix(t, 9000)
	oracle := newTestOracle(fake.server.URL)

	got := oracle.BufferHours(context.Background(), "Pune", "Mumbai")
	assert.Equal(t, 4, got)
}

func TestBufferHours_CachesSuccessfulLookups(t *testing.T) {
	fake := newFakeDistanceMatrix(t, 7200)
	oracle := newTestOracle(fake.server.URL)
	ctx := context.Background()

	first := oracle.BufferHours(ctx, "Pune", "Mumbai")
	second := oracle.BufferHours(ctx, "Pune", "Mumbai")

	assert.Equal(t, 3, first) // ceil(7200/3600)+1
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), fake.calls.Load(), "second call must be served from cache")

	// The reverse direction is a distinct route and needs its own lookup.
	oracle.BufferHours(ctx, "Mumbai", "Pune")
	assert.Equal(t, int64(2), fake.calls.Load())
}

func TestBufferHours_FallbackOnFailureIsNotCached(t *testing.T) {
	fake := newFakeDistanceMatrix(t, 7200)
	oracle := newTestOracle(fake.server.URL)
	ctx := context.Background()

	fake.fail.Store(true)
	assert.Equal(t, 4, oracle.BufferHours(ctx, "Pune", "Nagpur"))

	// Once the service recovers the real estimate must win, which only
	// happens if the fallback was not written to the cache.
	fake.fail.Store(false)
	assert.Equal(t, 3, oracle.BufferHours(ctx, "Pune", "Nagpur"))
}

func TestBufferHours_FallbackWhenUnconfigured(t *testing.T) {
	oracle := NewTravelTimeOracle(config.MapsConfig{
		BaseURL: "http://localhost:1",
		Timeout: time.Second,
	}, nil, zap.NewNop())

	assert.Equal(t, 4, oracle.BufferHours(context.Background(), "Pune", "Mumbai"))
}

func TestBufferHours_FallbackOnBadPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status": "OK", "rows": [{"elements": [{"status": "NOT_FOUND"}]}]}`)
	}))
	defer server.Close()

	oracle := newTestOracle(server.URL)
	assert.Equal(t, 4, oracle.BufferHours(context.Background(), "Pune", "Atlantis"))
}

func TestLookupDrivingHours_SendsExpectedQuery(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"origins":      r.URL.Query().Get("origins"),
			"destinations": r.URL.Query().Get("destinations"),
			"mode":         r.URL.Query().Get("mode"),
			"region":       r.URL.Query().Get("region"),
			"key":          r.URL.Query().Get("key"),
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status": "OK", "rows": [{"elements": [{"status": "OK", "duration": {"value": 3600}}]}]}`)
	}))
	defer server.Close()

	oracle := newTestOracle(server.URL)
	got := oracle.BufferHours(context.Background(), "Pune", "Mumbai")

	require.Equal(t, 2, got)
	assert.Equal(t, "pune", gotQuery["origins"])
	assert.Equal(t, "mumbai", gotQuery["destinations"])
	assert.Equal(t, "driving", gotQuery["mode"])
	assert.Equal(t, "in", gotQuery["region"])
	assert.Equal(t, "test-key", gotQuery["key"])
}
