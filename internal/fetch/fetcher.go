package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/marine-risk-pipeline/internal/domain"
	"github.com/couchcryptid/marine-risk-pipeline/internal/observability"
	"github.com/jonboulle/clockwork"
)

// chunkSize is the streaming copy buffer. Downloads never hold more than one
// chunk of the response in memory, so peak memory is independent of file size.
const chunkSize = 64 * 1024

// Unit is one addressable slice of a remote dataset: a single file to fetch.
type Unit struct {
	Name string // identity for logs and reports
	URL  string
	Dest string
}

// Outcome classifies one fetch attempt.
type Outcome int

const (
	Downloaded Outcome = iota
	Skipped
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Downloaded:
		return "downloaded"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Totals accumulates outcomes across a unit sequence.
type Totals struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// Fetcher streams remote files to local storage with skip, retry-by-rerun,
// and partial-file cleanup semantics.
type Fetcher struct {
	client  *http.Client
	clock   clockwork.Clock
	delay   time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Fetcher. delay is the politeness pause applied after every
// attempt that touched the network; the clock is injectable so tests can use
// a fake.
func New(timeout, delay time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Fetcher {
	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		clock:   clock,
		delay:   delay,
		logger:  logger,
		metrics: metrics,
	}
}

// AISUnits enumerates the daily AIS files for a date range, in ascending
// date order. Filenames are derived from the date so reruns locate
// already-fetched units by name alone.
func AISUnits(r domain.DateRange, baseURL, dir string) []Unit {
	days := r.Days()
	units := make([]Unit, 0, len(days))
	for _, day := range days {
		name := fmt.Sprintf("ais-%s.parquet", day.Format(time.DateOnly))
		units = append(units, Unit{
			Name: name,
			URL:  baseURL + "/" + name,
			Dest: filepath.Join(dir, name),
		})
	}
	return units
}

// AlreadyComplete reports whether the unit's destination exists non-empty.
// Existence is trusted as "complete"; there is no checksum. Swapping in a
// stronger completion signal only requires replacing this method.
func (f *Fetcher) AlreadyComplete(u Unit) bool {
	info, err := os.Stat(u.Dest)
	return err == nil && info.Size() > 0
}

// Fetch downloads one unit. A present destination short-circuits without any
// network call. Transport failures remove the partial file so a rerun's skip
// check cannot mistake it for a completed download.
func (f *Fetcher) Fetch(ctx context.Context, u Unit) (Outcome, error) {
	if f.AlreadyComplete(u) {
		f.logger.Info("skipping, already exists", "file", u.Name)
		f.metrics.FilesSkipped.Inc()
		return Skipped, nil
	}

	f.logger.Info("downloading", "file", u.Name)

	n, err := f.download(ctx, u)
	if err != nil {
		f.metrics.FilesFailed.Inc()
		return Failed, err
	}

	f.metrics.FilesDownloaded.Inc()
	f.metrics.BytesDownloaded.Add(float64(n))
	f.logger.Info("saved", "file", u.Name, "mb", fmt.Sprintf("%.1f", float64(n)/1e6))
	return Downloaded, nil
}

// download streams the response body to the destination path. On any error
// the partial file is removed before returning.
func (f *Fetcher) download(ctx context.Context, u Unit) (written int64, err error) {
	if err := os.MkdirAll(filepath.Dir(u.Dest), 0o755); err != nil {
		return 0, fmt.Errorf("create destination dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request %s: %w", u.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("fetch %s: status %d", u.URL, resp.StatusCode)
	}

	out, err := os.Create(u.Dest)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", u.Dest, err)
	}

	written, copyErr := io.CopyBuffer(out, resp.Body, make([]byte, chunkSize))
	closeErr := out.Close()

	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		// A truncated file at the canonical path would defeat the skip check
		// on the next run.
		os.Remove(u.Dest)
		return 0, fmt.Errorf("stream %s: %w", u.Name, copyErr)
	}
	return written, nil
}

// FetchAll processes units strictly in order, isolating per-unit failures,
// and returns aggregate counts once the sequence is exhausted. The politeness
// delay applies after every attempt that reached the network.
func (f *Fetcher) FetchAll(ctx context.Context, units []Unit) (Totals, error) {
	var totals Totals
	f.logger.Info("starting download", "files", len(units))

	for i, u := range units {
		f.logger.Info("progress", "current", i+1, "total", len(units))

		outcome, err := f.Fetch(ctx, u)
		switch outcome {
		case Downloaded:
			totals.Downloaded++
		case Skipped:
			totals.Skipped++
		case Failed:
			totals.Failed++
			f.logger.Error("download failed", "file", u.Name, "error", err)
		}

		if outcome == Skipped {
			continue
		}
		if err := f.pause(ctx); err != nil {
			return totals, err
		}
	}

	f.logger.Info("download complete",
		"downloaded", totals.Downloaded,
		"skipped", totals.Skipped,
		"failed", totals.Failed,
	)
	return totals, nil
}

// pause sleeps the politeness delay, returning early if the context ends.
func (f *Fetcher) pause(ctx context.Context) error {
	if f.delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-f.clock.After(f.delay):
		return nil
	}
}
