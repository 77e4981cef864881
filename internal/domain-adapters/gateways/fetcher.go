package gateways

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"driverprov/internal/domain/entities"
)

// maxDriverBytes caps extracted file size (decompression bomb guard)
const maxDriverBytes = 1 << 30

// Archive format magic bytes
var (
	zipMagic  = []byte{'P', 'K', 0x03, 0x04}
	gzipMagic = []byte{0x1f, 0x8b}
)

// Fetcher downloads a resolved driver release archive and installs the
// driver executable into a target directory.
type Fetcher struct {
	httpClient *http.Client
	driverName string
}

// NewFetcher creates a fetcher for the named driver executable
func NewFetcher(driverName string) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: 5 * time.Minute, // Long timeout for large downloads
		},
		driverName: driverName,
	}
}

// Install downloads the archive for the descriptor, extracts exactly the
// driver executable and atomically replaces any prior binary at
// targetDir/driverName. On any failure the prior binary is left untouched;
// temporary files are cleaned up on every exit path.
func (f *Fetcher) Install(ctx context.Context, descriptor entities.ReleaseDescriptor, targetDir string) (entities.InstalledDriver, error) {
	if err := os.MkdirAll(targetDir, 0o750); err != nil {
		return entities.InstalledDriver{}, &entities.FetchError{
			Reason: entities.FetchPermissionDenied,
			Msg:    fmt.Sprintf("failed to create target directory %s", targetDir),
			Err:    err,
		}
	}

	tmpDir, err := os.MkdirTemp("", "driverprov-*")
	if err != nil {
		return entities.InstalledDriver{}, &entities.FetchError{
			Reason: entities.FetchPermissionDenied,
			Msg:    "failed to create temporary directory",
			Err:    err,
		}
	}
	//nolint:errcheck // Best effort cleanup of scoped temp dir
	defer os.RemoveAll(tmpDir)

	archivePath := filepath.Join(tmpDir, "driver-archive")
	if err := f.download(ctx, descriptor.DownloadURL, archivePath); err != nil {
		return entities.InstalledDriver{}, err
	}

	extractedPath := filepath.Join(tmpDir, f.driverName)
	if err := f.extractDriver(archivePath, extractedPath); err != nil {
		return entities.InstalledDriver{}, err
	}

	finalPath := filepath.Join(targetDir, f.driverName)
	if err := f.replaceBinary(extractedPath, targetDir, finalPath); err != nil {
		return entities.InstalledDriver{}, err
	}

	return entities.InstalledDriver{
		Path:      finalPath,
		ReleaseID: descriptor.ReleaseID,
	}, nil
}

// download fetches the archive to dest, failing on non-200 or empty bodies
func (f *Fetcher) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &entities.FetchError{
			Reason: entities.FetchNetworkFailure,
			Msg:    "failed to create request",
			Err:    err,
		}
	}
	req.Header.Set("User-Agent", "driverprov/1.0")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return &entities.FetchError{
			Reason: entities.FetchNetworkFailure,
			Msg:    "archive download failed",
			Err:    err,
		}
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &entities.FetchError{
			Reason: entities.FetchNetworkFailure,
			Msg:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.Status),
		}
	}

	//nolint:gosec // G304: dest lives inside the scoped temp dir
	out, err := os.Create(dest)
	if err != nil {
		return &entities.FetchError{
			Reason: entities.FetchPermissionDenied,
			Msg:    "failed to create archive file",
			Err:    err,
		}
	}
	//nolint:errcheck // Defer close on file being written
	defer out.Close()

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		return &entities.FetchError{
			Reason: entities.FetchNetworkFailure,
			Msg:    "failed to write archive",
			Err:    err,
		}
	}
	if written == 0 {
		return &entities.FetchError{
			Reason: entities.FetchCorruptArchive,
			Msg:    "downloaded archive is empty",
		}
	}

	return nil
}

// extractDriver extracts exactly the driver executable from the archive at
// archivePath into destPath, discarding auxiliary files. The container
// format is sniffed from magic bytes; zip and tar.gz are supported.
func (f *Fetcher) extractDriver(archivePath, destPath string) error {
	//nolint:gosec // G304: archivePath lives inside the scoped temp dir
	file, err := os.Open(archivePath)
	if err != nil {
		return &entities.FetchError{
			Reason: entities.FetchExtractionFailure,
			Msg:    "failed to open archive",
			Err:    err,
		}
	}

	magic := make([]byte, 4)
	n, _ := io.ReadFull(file, magic)
	//nolint:errcheck // Read-only file
	file.Close()

	switch {
	case n >= len(zipMagic) && bytes.Equal(magic[:len(zipMagic)], zipMagic):
		return f.extractFromZip(archivePath, destPath)
	case n >= len(gzipMagic) && bytes.Equal(magic[:len(gzipMagic)], gzipMagic):
		return f.extractFromTarGz(archivePath, destPath)
	default:
		return &entities.FetchError{
			Reason: entities.FetchCorruptArchive,
			Msg:    "archive is not a zip or tar.gz container",
		}
	}
}

// isDriverEntry reports whether an archive member is the driver executable.
// Real driver archives carry license and notice files next to the binary,
// sometimes under a platform subdirectory; those are discarded.
func (f *Fetcher) isDriverEntry(name string) bool {
	return filepath.Base(filepath.ToSlash(name)) == f.driverName
}

// isUnsafePath flags absolute or parent-escaping archive member paths
func isUnsafePath(name string) bool {
	cleaned := filepath.Clean(filepath.ToSlash(name))
	return filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, "../")
}

func (f *Fetcher) extractFromZip(archivePath, destPath string) error {
	// ErrInsecurePath still yields a usable reader; unsafe members are
	// rejected per entry below.
	reader, err := zip.OpenReader(archivePath)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return &entities.FetchError{
			Reason: entities.FetchCorruptArchive,
			Msg:    "failed to read zip archive",
			Err:    err,
		}
	}
	//nolint:errcheck // Defer close on zip reader
	defer reader.Close()

	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() || !f.isDriverEntry(entry.Name) {
			continue
		}
		if isUnsafePath(entry.Name) {
			return &entities.FetchError{
				Reason: entities.FetchExtractionFailure,
				Msg:    fmt.Sprintf("invalid file path in archive: %s", entry.Name),
			}
		}

		rc, err := entry.Open()
		if err != nil {
			return &entities.FetchError{
				Reason: entities.FetchExtractionFailure,
				Msg:    fmt.Sprintf("failed to open archive member %s", entry.Name),
				Err:    err,
			}
		}
		err = writeExtracted(destPath, rc)
		//nolint:errcheck // Read-only member
		rc.Close()
		return err
	}

	return &entities.FetchError{
		Reason: entities.FetchExtractionFailure,
		Msg:    fmt.Sprintf("archive does not contain %s", f.driverName),
	}
}

func (f *Fetcher) extractFromTarGz(archivePath, destPath string) error {
	//nolint:gosec // G304: archivePath lives inside the scoped temp dir
	file, err := os.Open(archivePath)
	if err != nil {
		return &entities.FetchError{
			Reason: entities.FetchExtractionFailure,
			Msg:    "failed to open archive",
			Err:    err,
		}
	}
	//nolint:errcheck // Defer close on read-only file
	defer file.Close()

	gzr, err := gzip.NewReader(file)
	if err != nil {
		return &entities.FetchError{
			Reason: entities.FetchCorruptArchive,
			Msg:    "failed to read gzip stream",
			Err:    err,
		}
	}
	//nolint:errcheck // Defer close on gzip reader
	defer gzr.Close()

	tr := tar.NewReader(gzr)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		// ErrInsecurePath still yields the header; unsafe members are
		// rejected per entry below.
		if err != nil && !errors.Is(err, tar.ErrInsecurePath) {
			return &entities.FetchError{
				Reason: entities.FetchCorruptArchive,
				Msg:    "tar read error",
				Err:    err,
			}
		}

		if header.Typeflag != tar.TypeReg || !f.isDriverEntry(header.Name) {
			continue
		}
		if isUnsafePath(header.Name) {
			return &entities.FetchError{
				Reason: entities.FetchExtractionFailure,
				Msg:    fmt.Sprintf("invalid file path in archive: %s", header.Name),
			}
		}

		return writeExtracted(destPath, tr)
	}

	return &entities.FetchError{
		Reason: entities.FetchExtractionFailure,
		Msg:    fmt.Sprintf("archive does not contain %s", f.driverName),
	}
}

// writeExtracted copies the archive member to destPath with the executable
// bit set.
func writeExtracted(destPath string, src io.Reader) error {
	//nolint:gosec // G304: destPath lives inside the scoped temp dir
	out, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return &entities.FetchError{
			Reason: entities.FetchPermissionDenied,
			Msg:    "failed to create extracted file",
			Err:    err,
		}
	}

	if _, err := io.Copy(out, io.LimitReader(src, maxDriverBytes)); err != nil {
		//nolint:errcheck // Best effort close after copy failure
		out.Close()
		return &entities.FetchError{
			Reason: entities.FetchExtractionFailure,
			Msg:    "failed to write extracted file",
			Err:    err,
		}
	}
	if err := out.Close(); err != nil {
		return &entities.FetchError{
			Reason: entities.FetchExtractionFailure,
			Msg:    "failed to close extracted file",
			Err:    err,
		}
	}

	return nil
}

// replaceBinary stages the extracted binary next to its final location and
// swaps it in with a rename, so a partially written file is never observable
// at finalPath. The temp dir may sit on another filesystem, which rules out
// renaming straight out of it.
func (f *Fetcher) replaceBinary(extractedPath, targetDir, finalPath string) error {
	staged, err := os.CreateTemp(targetDir, "."+f.driverName+".staged-*")
	if err != nil {
		return &entities.FetchError{
			Reason: entities.FetchPermissionDenied,
			Msg:    fmt.Sprintf("failed to stage binary in %s", targetDir),
			Err:    err,
		}
	}
	stagedPath := staged.Name()

	cleanup := func() {
		//nolint:errcheck // Best effort removal of staged file
		os.Remove(stagedPath)
	}

	//nolint:gosec // G304: extractedPath lives inside the scoped temp dir
	src, err := os.Open(extractedPath)
	if err != nil {
		//nolint:errcheck // Best effort close before cleanup
		staged.Close()
		cleanup()
		return &entities.FetchError{
			Reason: entities.FetchExtractionFailure,
			Msg:    "failed to open extracted binary",
			Err:    err,
		}
	}

	_, copyErr := io.Copy(staged, src)
	//nolint:errcheck // Read-only file
	src.Close()
	closeErr := staged.Close()
	if copyErr != nil || closeErr != nil {
		cleanup()
		err := copyErr
		if err == nil {
			err = closeErr
		}
		return &entities.FetchError{
			Reason: entities.FetchExtractionFailure,
			Msg:    "failed to stage binary",
			Err:    err,
		}
	}

	if err := os.Chmod(stagedPath, 0o755); err != nil {
		cleanup()
		return &entities.FetchError{
			Reason: entities.FetchPermissionDenied,
			Msg:    "failed to set executable bit",
			Err:    err,
		}
	}

	if err := os.Rename(stagedPath, finalPath); err != nil {
		cleanup()
		return &entities.FetchError{
			Reason: entities.FetchPermissionDenied,
			Msg:    fmt.Sprintf("failed to replace %s", finalPath),
			Err:    err,
		}
	}

	return nil
}
