// Package normalize turns the zipped MPA inventory shapefile into the
// pipeline's canonical parquet snapshot: reprojected to WGS-84, filtered to
// the configured region, attributes flattened to a fixed record shape.
package normalize

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/marine-risk-pipeline/internal/domain"
	"github.com/couchcryptid/marine-risk-pipeline/internal/fetch"
	"github.com/couchcryptid/marine-risk-pipeline/internal/observability"
	"github.com/parquet-go/parquet-go"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/project"
)

// ErrNoSpatialDataset is returned when the downloaded archive contains no
// recognizable shapefile. Fatal: no snapshot is written.
var ErrNoSpatialDataset = errors.New("no spatial dataset found in archive")

// Normalizer downloads, filters, and persists the MPA boundary dataset.
type Normalizer struct {
	archiveURL   string
	archivePath  string
	snapshotPath string
	region       domain.Region
	fetcher      *fetch.Fetcher
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// New creates a Normalizer. The fetcher supplies the same streaming and
// partial-file cleanup discipline used for the daily AIS downloads.
func New(archiveURL, archivePath, snapshotPath string, region domain.Region, fetcher *fetch.Fetcher, logger *slog.Logger, metrics *observability.Metrics) *Normalizer {
	return &Normalizer{
		archiveURL:   archiveURL,
		archivePath:  archivePath,
		snapshotPath: snapshotPath,
		region:       region,
		fetcher:      fetcher,
		logger:       logger,
		metrics:      metrics,
	}
}

// Normalize produces the snapshot file. An existing snapshot short-circuits
// the whole operation, fetch included. On success the source archive is
// deleted; on any failure no snapshot is written.
func (n *Normalizer) Normalize(ctx context.Context) error {
	if info, err := os.Stat(n.snapshotPath); err == nil && info.Size() > 0 {
		n.logger.Info("snapshot already exists, skipping", "path", n.snapshotPath)
		return nil
	}

	outcome, err := n.fetcher.Fetch(ctx, fetch.Unit{
		Name: filepath.Base(n.archivePath),
		URL:  n.archiveURL,
		Dest: n.archivePath,
	})
	if outcome == fetch.Failed {
		return fmt.Errorf("fetch archive: %w", err)
	}

	features, crs, err := n.extractAndRead()
	if err != nil {
		return err
	}
	n.logger.Info("read features", "count", len(features))

	if crs == CRSWebMercator {
		n.logger.Info("reprojecting to EPSG:4326", "from", "web mercator")
		for i := range features {
			features[i].geom = project.Geometry(features[i].geom, project.Mercator.ToWGS84)
		}
	}

	kept := n.filter(features)
	n.logger.Info("filtered to region", "kept", len(kept), "total", len(features))

	if err := n.writeSnapshot(kept); err != nil {
		return err
	}

	if err := os.Remove(n.archivePath); err != nil {
		n.logger.Warn("could not remove source archive", "path", n.archivePath, "error", err)
	} else {
		n.logger.Info("cleaned up source archive")
	}
	return nil
}

// extractAndRead unpacks the archive into a transient workspace, locates the
// shapefile, and reads every feature. The workspace is always removed, on
// success and on failure alike.
func (n *Normalizer) extractAndRead() ([]feature, CRS, error) {
	tmpDir, err := os.MkdirTemp("", "mpa-extract-*")
	if err != nil {
		return nil, CRSUnknown, fmt.Errorf("create workspace: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	if err := extractZip(n.archivePath, tmpDir); err != nil {
		return nil, CRSUnknown, fmt.Errorf("extract archive: %w", err)
	}

	shpPath, err := findShapefile(tmpDir)
	if err != nil {
		return nil, CRSUnknown, err
	}
	n.logger.Info("found spatial dataset", "file", filepath.Base(shpPath))

	crs, err := detectCRS(strings.TrimSuffix(shpPath, filepath.Ext(shpPath)) + ".prj")
	if err != nil {
		return nil, CRSUnknown, fmt.Errorf("detect CRS: %w", err)
	}
	if crs == CRSUnknown {
		return nil, CRSUnknown, ErrUnsupportedCRS
	}

	features, err := readShapefile(shpPath)
	if err != nil {
		return nil, CRSUnknown, err
	}
	return features, crs, nil
}

// filter applies the bounding-box inclusion rule: a feature survives only if
// its envelope lies entirely inside the region.
func (n *Normalizer) filter(features []feature) []domain.ProtectedArea {
	kept := make([]domain.ProtectedArea, 0, len(features))
	for _, f := range features {
		if !n.region.Contains(f.geom.Bound()) {
			n.metrics.FeaturesFiltered.Inc()
			continue
		}
		n.metrics.FeaturesKept.Inc()
		kept = append(kept, record(f, wkt.MarshalString(f.geom)))
	}
	return kept
}

// writeSnapshot persists the filtered features as parquet. The write goes to
// a temp name first so a crash cannot leave a partial snapshot that would
// satisfy the idempotency gate.
func (n *Normalizer) writeSnapshot(rows []domain.ProtectedArea) error {
	if err := os.MkdirAll(filepath.Dir(n.snapshotPath), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp := n.snapshotPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}

	w := parquet.NewGenericWriter[domain.ProtectedArea](f)
	if _, err := w.Write(rows); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("close snapshot writer: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp, n.snapshotPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalize snapshot: %w", err)
	}

	n.logger.Info("saved snapshot", "features", len(rows), "path", n.snapshotPath)
	return nil
}

// extractZip unpacks src into dest, refusing entries that escape dest.
func extractZip(src, dest string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, entry := range r.File {
		target := filepath.Join(dest, filepath.Clean(entry.Name))
		if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry escapes workspace: %s", entry.Name)
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := writeZipEntry(entry, target); err != nil {
			return err
		}
	}
	return nil
}

func writeZipEntry(entry *zip.File, target string) error {
	in, err := entry.Open()
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// findShapefile returns the first .shp under root in walk order.
func findShapefile(root string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if found == "" && !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".shp") {
			found = path
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("scan workspace: %w", err)
	}
	if found == "" {
		return "", ErrNoSpatialDataset
	}
	return found, nil
}
