package archive

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airsight-labs/airsight/internal/observability"
)

// archiveStub is a fake root that counts hits and can be told to fail.
func archiveStub(hits *atomic.Int64, ok bool) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("lat,lon,PM2.5\n30.1,120.2,55\n")) //nolint:errcheck
	}))
}

func TestLocatorResolve(t *testing.T) {
	t.Run("adopts first responding candidate in order", func(t *testing.T) {
		var hitsA, hitsB, hitsC atomic.Int64
		down := archiveStub(&hitsA, false)
		defer down.Close()
		up := archiveStub(&hitsB, true)
		defer up.Close()
		never := archiveStub(&hitsC, true)
		defer never.Close()

		client := NewClient("china_sites", time.Second, testLogger())
		metrics := observability.NewMetricsForTesting()
		l := NewLocator(client, down.URL, []string{down.URL, up.URL, never.URL}, testLogger(), metrics)

		root := l.Resolve(context.Background(), "20130105")

		assert.Equal(t, up.URL, root)
		assert.Equal(t, up.URL, l.Root())
		assert.Equal(t, int64(1), hitsA.Load())
		assert.Equal(t, int64(1), hitsB.Load())
		assert.Equal(t, int64(0), hitsC.Load(), "probing must stop at the first success")
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RootProbes.WithLabelValues("failure")))
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RootProbes.WithLabelValues("success")))
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RootResolved))
	})

	t.Run("resolution is remembered", func(t *testing.T) {
		var hits atomic.Int64
		up := archiveStub(&hits, true)
		defer up.Close()

		client := NewClient("china_sites", time.Second, testLogger())
		l := NewLocator(client, up.URL, []string{up.URL}, testLogger(), observability.NewMetricsForTesting())

		first := l.Resolve(context.Background(), "20130105")
		second := l.Resolve(context.Background(), "20130106")

		assert.Equal(t, first, second)
		assert.Equal(t, int64(1), hits.Load(), "a resolved locator must not probe again")
	})

	t.Run("concurrent callers share one probe pass", func(t *testing.T) {
		var hits atomic.Int64
		up := archiveStub(&hits, true)
		defer up.Close()

		client := NewClient("china_sites", time.Second, testLogger())
		l := NewLocator(client, up.URL, []string{up.URL}, testLogger(), observability.NewMetricsForTesting())

		var wg sync.WaitGroup
		roots := make([]string, 8)
		for i := range roots {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				roots[i] = l.Resolve(context.Background(), "20130105")
			}(i)
		}
		wg.Wait()

		for _, root := range roots {
			assert.Equal(t, up.URL, root)
		}
		assert.Equal(t, int64(1), hits.Load(), "only one caller may walk the candidate list")
	})

	t.Run("total failure keeps the configured root", func(t *testing.T) {
		var hits atomic.Int64
		down := archiveStub(&hits, false)
		defer down.Close()

		client := NewClient("china_sites", time.Second, testLogger())
		metrics := observability.NewMetricsForTesting()
		l := NewLocator(client, "http://configured.invalid", []string{down.URL, down.URL}, testLogger(), metrics)

		root := l.Resolve(context.Background(), "20130105")

		assert.Equal(t, "http://configured.invalid", root)
		assert.Equal(t, int64(2), hits.Load())
		assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RootProbes.WithLabelValues("failure")))
		assert.Equal(t, 0.0, testutil.ToFloat64(metrics.RootResolved))
		// Not resolved: a later call probes again.
		l.Resolve(context.Background(), "20130106")
		assert.Equal(t, int64(4), hits.Load())
	})

	t.Run("override pins the root and stops probing", func(t *testing.T) {
		var hits atomic.Int64
		up := archiveStub(&hits, true)
		defer up.Close()

		client := NewClient("china_sites", time.Second, testLogger())
		metrics := observability.NewMetricsForTesting()
		l := NewLocator(client, up.URL, []string{up.URL}, testLogger(), metrics)
		l.Override("http://pinned.example.com")

		root := l.Resolve(context.Background(), "20130105")

		require.Equal(t, "http://pinned.example.com", root)
		assert.Equal(t, int64(0), hits.Load())
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RootResolved))
	})
}
