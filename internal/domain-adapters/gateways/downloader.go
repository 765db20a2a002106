package gateways

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/ochairo/specfetch/internal/domain/entities"
	"github.com/ochairo/specfetch/internal/domain/interfaces"
	"github.com/ochairo/specfetch/internal/domain/interfaces/gateways"
	"github.com/ochairo/specfetch/internal/domain/services"
)

// tempFilePattern names in-progress downloads inside the destination directory
const tempFilePattern = ".specfetch-*"

// Downloader streams resolved specs into a destination directory, one at a time
type Downloader struct {
	source gateways.ArtifactSource
	logger interfaces.Logger
}

// NewDownloader creates a new downloader
func NewDownloader(source gateways.ArtifactSource, logger interfaces.Logger) *Downloader {
	return &Downloader{
		source: source,
		logger: interfaces.OrNoOp(logger),
	}
}

// Prepare creates destDir and any missing parents. It is a no-op when the directory exists.
func (d *Downloader) Prepare(destDir string) error {
	if info, err := os.Stat(destDir); err == nil && info.IsDir() {
		return nil
	}

	if err := os.MkdirAll(destDir, 0750); err != nil {
		return entities.NewError(entities.KindFilesystem, errors.Wrapf(err, "failed to create output directory %s", destDir))
	}
	return nil
}

// DownloadAll downloads specs sequentially in the given order. It stops at the first
// failure and returns the paths written before it.
func (d *Downloader) DownloadAll(ctx context.Context, destDir string, specs []*entities.SpecMetadata) ([]string, error) {
	written := make([]string, 0, len(specs))

	for _, spec := range specs {
		destFile := services.DestinationPath(destDir, spec)

		if err := ctx.Err(); err != nil {
			return written, entities.NewError(entities.KindTransport, errors.Wrapf(err, "error downloading spec %s to %s", spec.DownloadURL, destFile))
		}

		if err := d.downloadFile(ctx, spec.DownloadURL, destFile); err != nil {
			return written, errors.Wrapf(err, "error downloading spec %s to %s", spec.DownloadURL, destFile)
		}
		written = append(written, destFile)
	}

	return written, nil
}

// downloadFile streams url into a temporary file next to dest and renames it into
// place once complete. A failed download leaves any existing dest untouched.
func (d *Downloader) downloadFile(ctx context.Context, url, dest string) error {
	d.logger.Debug("Downloading file", interfaces.F("url", url))

	body, err := d.source.OpenDownload(ctx, url)
	if err != nil {
		return err
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer body.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), tempFilePattern)
	if err != nil {
		return entities.NewError(entities.KindFilesystem, fmt.Errorf("failed to create file: %w", err))
	}
	tmpPath := tmp.Name()

	w := &trackingWriter{w: tmp}
	written, copyErr := io.Copy(w, body)
	closeErr := tmp.Close()

	if copyErr != nil {
		_ = os.Remove(tmpPath)
		if w.err != nil {
			return entities.NewError(entities.KindFilesystem, fmt.Errorf("failed to write file: %w", copyErr))
		}
		return entities.NewError(entities.KindTransport, fmt.Errorf("failed to read response body: %w", copyErr))
	}
	if closeErr != nil {
		_ = os.Remove(tmpPath)
		return entities.NewError(entities.KindFilesystem, fmt.Errorf("failed to close file: %w", closeErr))
	}

	//nolint:gosec // G302: downloaded specs are world-readable like any checked-out file
	if err := os.Chmod(tmpPath, 0644); err != nil {
		_ = os.Remove(tmpPath)
		return entities.NewError(entities.KindFilesystem, fmt.Errorf("failed to set file mode: %w", err))
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return entities.NewError(entities.KindFilesystem, fmt.Errorf("failed to move file into place: %w", err))
	}

	d.logger.Debug("Downloaded file", interfaces.F("path", dest), interfaces.F("bytes", written))
	return nil
}

// trackingWriter remembers whether a failure came from the local write side
type trackingWriter struct {
	w   io.Writer
	err error
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if err != nil {
		t.err = err
	}
	return n, err
}
