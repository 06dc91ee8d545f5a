package fetch_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/marine-risk-pipeline/internal/domain"
	"github.com/couchcryptid/marine-risk-pipeline/internal/fetch"
	"github.com/couchcryptid/marine-risk-pipeline/internal/observability"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFetcher(t *testing.T, delay time.Duration, clock clockwork.Clock) *fetch.Fetcher {
	t.Helper()
	return fetch.New(10*time.Second, delay, clock, discardLogger(), observability.NewMetricsForTesting())
}

func unitFor(t *testing.T, url string) fetch.Unit {
	t.Helper()
	return fetch.Unit{
		Name: "ais-2024-01-01.parquet",
		URL:  url,
		Dest: filepath.Join(t.TempDir(), "ais", "ais-2024-01-01.parquet"),
	}
}

func TestFetch_Downloads(t *testing.T) {
	payload := []byte("parquet-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	f := newFetcher(t, 0, clockwork.NewRealClock())
	u := unitFor(t, srv.URL)

	outcome, err := f.Fetch(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, fetch.Downloaded, outcome)

	got, err := os.ReadFile(u.Dest)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFetch_SkipsExistingWithoutNetworkCall(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte("fresh"))
	}))
	defer srv.Close()

	f := newFetcher(t, 0, clockwork.NewRealClock())
	u := unitFor(t, srv.URL)
	require.NoError(t, os.MkdirAll(filepath.Dir(u.Dest), 0o755))
	require.NoError(t, os.WriteFile(u.Dest, []byte("existing"), 0o644))

	outcome, err := f.Fetch(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, fetch.Skipped, outcome)
	assert.Equal(t, int64(0), requests.Load(), "skip must not touch the network")

	got, err := os.ReadFile(u.Dest)
	require.NoError(t, err)
	assert.Equal(t, []byte("existing"), got, "existing file must be untouched")
}

func TestFetch_NonSuccessStatusLeavesNoFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	f := newFetcher(t, 0, clockwork.NewRealClock())
	u := unitFor(t, srv.URL)

	outcome, err := f.Fetch(context.Background(), u)
	assert.Error(t, err)
	assert.Equal(t, fetch.Failed, outcome)

	_, statErr := os.Stat(u.Dest)
	assert.True(t, os.IsNotExist(statErr), "no file may remain at the canonical path")
}

func TestFetch_MidStreamFailureRemovesPartialFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Announce more bytes than we send, then cut the connection so the
		// client sees an unexpected EOF mid-stream.
		w.Header().Set("Content-Length", "1048576")
		_, _ = w.Write([]byte("partial"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		hj, ok := w.(http.Hijacker)
		require.True(t, ok)
		conn, _, err := hj.Hijack()
		require.NoError(t, err)
		conn.Close()
	}))
	defer srv.Close()

	f := newFetcher(t, 0, clockwork.NewRealClock())
	u := unitFor(t, srv.URL)

	outcome, err := f.Fetch(context.Background(), u)
	assert.Error(t, err)
	assert.Equal(t, fetch.Failed, outcome)

	_, statErr := os.Stat(u.Dest)
	assert.True(t, os.IsNotExist(statErr), "truncated file must be removed")
}

func TestFetchAll_SecondRunAllSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("data"))
	}))

	dir := t.TempDir()
	r, err := domain.NewDateRange("2024-01-01", "2024-01-03")
	require.NoError(t, err)
	units := fetch.AISUnits(r, srv.URL, dir)
	require.Len(t, units, 3)

	f := newFetcher(t, 0, clockwork.NewRealClock())

	totals, err := f.FetchAll(context.Background(), units)
	require.NoError(t, err)
	assert.Equal(t, fetch.Totals{Downloaded: 3}, totals)

	// Second run with the network gone: destination presence alone must
	// produce a full skip.
	srv.Close()
	totals, err = f.FetchAll(context.Background(), units)
	require.NoError(t, err)
	assert.Equal(t, fetch.Totals{Skipped: 3}, totals)
}

func TestFetchAll_FailureDoesNotHaltSequence(t *testing.T) {
	var served atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if served.Add(1) == 2 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("data"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	r, err := domain.NewDateRange("2024-01-01", "2024-01-03")
	require.NoError(t, err)
	units := fetch.AISUnits(r, srv.URL, dir)

	f := newFetcher(t, 0, clockwork.NewRealClock())
	totals, err := f.FetchAll(context.Background(), units)
	require.NoError(t, err)
	assert.Equal(t, fetch.Totals{Downloaded: 2, Failed: 1}, totals)
}

func TestFetchAll_PausesBetweenDownloads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("data"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	r, err := domain.NewDateRange("2024-01-01", "2024-01-02")
	require.NoError(t, err)
	units := fetch.AISUnits(r, srv.URL, dir)

	clock := clockwork.NewFakeClock()
	f := newFetcher(t, time.Second, clock)

	done := make(chan fetch.Totals, 1)
	go func() {
		totals, _ := f.FetchAll(context.Background(), units)
		done <- totals
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// One pause per downloaded unit.
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Second)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Second)

	select {
	case totals := <-done:
		assert.Equal(t, fetch.Totals{Downloaded: 2}, totals)
	case <-ctx.Done():
		t.Fatal("FetchAll did not finish after clock advances")
	}
}

func TestAISUnits_DeterministicNames(t *testing.T) {
	r, err := domain.NewDateRange("2024-03-01", "2024-03-02")
	require.NoError(t, err)

	units := fetch.AISUnits(r, "https://example.test/ais2024", "/data/raw/ais")
	want := []fetch.Unit{
		{
			Name: "ais-2024-03-01.parquet",
			URL:  "https://example.test/ais2024/ais-2024-03-01.parquet",
			Dest: filepath.Join("/data/raw/ais", "ais-2024-03-01.parquet"),
		},
		{
			Name: "ais-2024-03-02.parquet",
			URL:  "https://example.test/ais2024/ais-2024-03-02.parquet",
			Dest: filepath.Join("/data/raw/ais", "ais-2024-03-02.parquet"),
		},
	}
	if diff := cmp.Diff(want, units); diff != "" {
		t.Errorf("units mismatch (-want +got):\n%s", diff)
	}
}
