package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/airsight-labs/airsight/internal/adapter/http"
	"github.com/airsight-labs/airsight/internal/dataset"
	"github.com/airsight-labs/airsight/internal/domain"
	"github.com/airsight-labs/airsight/internal/observability"
)

// mapFetcher serves canned day files keyed by date, any root.
type mapFetcher struct {
	mu   sync.Mutex
	days map[string]string
}

func (f *mapFetcher) FetchDay(_ context.Context, _, date string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.days[date]
	if !ok {
		return nil, errors.New("status 404")
	}
	return []byte(body), nil
}

type staticLocator struct{}

func (staticLocator) Root() string { return "test" }

func (staticLocator) Resolve(_ context.Context, _ string) string { return "test" }

func newTestServer(days map[string]string) *httpadapter.Server {
	logger := slog.New(slog.DiscardHandler)
	service := dataset.New(&mapFetcher{days: days}, staticLocator{}, "20130101", logger, observability.NewMetricsForTesting())
	resolver := domain.NewResolver(nil)
	return httpadapter.NewServer(":0", service, resolver, 600, 2000, logger)
}

func get(t *testing.T, srv *httpadapter.Server, url string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	srv.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

const testDay = "lat,lon,PM2.5(微克每立方米),TEMP,RH,U,V\n" +
	"30.1,120.2,55,18.5,60,1.2,-0.8\n" +
	"30.2,120.3,NA,19.0,61,0.5,0.5\n" +
	"30.3,120.4,70,19.5,62,NA,0.1\n"

func TestHandleDay(t *testing.T) {
	srv := newTestServer(map[string]string{"20130105": testDay})

	t.Run("resolves decorated column and drops NA", func(t *testing.T) {
		rec, body := get(t, srv, "/api/v1/day?date=20130105&var=PM2.5")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "20130105", body["date"])
		assert.Equal(t, float64(2), body["count"])
		points := body["points"].([]any)
		require.Len(t, points, 2)
		first := points[0].(map[string]any)
		assert.Equal(t, 55.0, first["value"])
	})

	t.Run("missing day yields empty points, not an error", func(t *testing.T) {
		rec, body := get(t, srv, "/api/v1/day?date=20130104&var=PM2.5")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(0), body["count"])
	})

	t.Run("unknown variable noted, still 200", func(t *testing.T) {
		rec, body := get(t, srv, "/api/v1/day?date=20130105&var=NO2")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "no data for this variable", body["note"])
	})

	t.Run("malformed date is a 400", func(t *testing.T) {
		rec, body := get(t, srv, "/api/v1/day?date=2013-01-05")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, body["error"], "YYYYMMDD")
	})

	t.Run("request id header set", func(t *testing.T) {
		rec, _ := get(t, srv, "/api/v1/day?date=20130105")
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})
}

func TestHandleSeries(t *testing.T) {
	days := map[string]string{
		"20130105": "lat,lon,PM2.5\n30.1,120.2,50\n",
		"20130104": "lat,lon,PM2.5\n30.1,120.2,40\n",
		"20130103": "lat,lon,PM2.5\n30.1,120.2,30\n",
	}
	srv := newTestServer(days)

	t.Run("raw series is date-descending", func(t *testing.T) {
		rec, body := get(t, srv, "/api/v1/series?date=20130105&days=3&var=PM2.5")

		assert.Equal(t, http.StatusOK, rec.Code)
		points := body["points"].([]any)
		require.Len(t, points, 3)
		assert.Equal(t, "20130105", points[0].(map[string]any)["date"])
		assert.Equal(t, "20130103", points[2].(map[string]any)["date"])
	})

	t.Run("daily aggregation is date-ascending", func(t *testing.T) {
		rec, body := get(t, srv, "/api/v1/series/daily?date=20130105&days=3&var=PM2.5")

		assert.Equal(t, http.StatusOK, rec.Code)
		daily := body["daily"].([]any)
		require.Len(t, daily, 3)
		first := daily[0].(map[string]any)
		assert.Equal(t, "20130103", first["date"])
		assert.Equal(t, 30.0, first["value"])
	})
}

func TestHandleWind(t *testing.T) {
	srv := newTestServer(map[string]string{"20130105": testDay})

	rec, body := get(t, srv, "/api/v1/wind?date=20130105&var=PM2.5")

	assert.Equal(t, http.StatusOK, rec.Code)
	vectors := body["vectors"].([]any)
	// Row 2 has no pollutant value, row 3 has no U component; one vector remains.
	require.Len(t, vectors, 1)
	v := vectors[0].(map[string]any)
	assert.Equal(t, 1.2, v["u"])
	assert.Equal(t, -0.8, v["v"])
}

func TestHandleDescribe(t *testing.T) {
	srv := newTestServer(map[string]string{"20130105": testDay})

	rec, body := get(t, srv, "/api/v1/describe?date=20130105&days=1&var=PM2.5")

	assert.Equal(t, http.StatusOK, rec.Code)
	summary := body["summary"].(map[string]any)
	assert.Equal(t, 62.5, summary["mean"])
	assert.Equal(t, 55.0, summary["min"])
	assert.Equal(t, 70.0, summary["max"])
	assert.Equal(t, float64(2), summary["count"])
}

func TestHandleCorrelation(t *testing.T) {
	srv := newTestServer(map[string]string{"20130105": testDay})

	t.Run("matrix shape and diagonal", func(t *testing.T) {
		rec, body := get(t, srv, "/api/v1/correlation?date=20130105&days=1&vars=PM2.5,TEMP,RH")

		assert.Equal(t, http.StatusOK, rec.Code)
		matrix := body["matrix"].([]any)
		require.Len(t, matrix, 3)
		row := matrix[0].([]any)
		require.Len(t, row, 3)
		assert.Equal(t, 1.0, row[0])
	})

	t.Run("fewer than two variables is a 400", func(t *testing.T) {
		rec, _ := get(t, srv, "/api/v1/correlation?date=20130105&vars=PM2.5")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHealthAndReadiness(t *testing.T) {
	srv := newTestServer(map[string]string{"20130105": testDay})

	rec, body := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])

	rec, _ = get(t, srv, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "not ready before any day load")

	get(t, srv, "/api/v1/day?date=20130105")

	rec, body = get(t, srv, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", body["status"])
}

func TestSpatialCapApplied(t *testing.T) {
	var b []byte
	b = append(b, "lat,lon,PM2.5\n"...)
	for i := 0; i < 2000; i++ {
		b = append(b, fmt.Sprintf("%.3f,%.3f,%d\n", 25.0+float64(i%100)*0.1, 110.0+float64(i/100)*0.1, i)...)
	}
	srv := newTestServer(map[string]string{"20130105": string(b)})

	_, body := get(t, srv, "/api/v1/day?date=20130105&var=PM2.5&max=100")
	assert.LessOrEqual(t, int(body["count"].(float64)), 100)
}
