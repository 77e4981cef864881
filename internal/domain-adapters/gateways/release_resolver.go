package gateways

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"driverprov/internal/domain/entities"
)

// maxReleaseIDBytes bounds the index response body; release ids are short
// dotted tokens.
const maxReleaseIDBytes = 1 << 10

// ReleaseResolver resolves a compatible driver release for a browser major
// version against a remote release index.
//
// Lookup protocol: GET {base}/LATEST_RELEASE_{major} returns the release id
// as plain text; HTTP 404 means the index has no entry for that major.
type ReleaseResolver struct {
	httpClient          *http.Client
	baseURL             string
	driverName          string
	platform            string
	allowLatestFallback bool
}

// NewReleaseResolver creates a resolver against the given release index
func NewReleaseResolver(baseURL, driverName, platform string, allowLatestFallback bool) *ReleaseResolver {
	return &ReleaseResolver{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:             strings.TrimRight(baseURL, "/"),
		driverName:          driverName,
		platform:            platform,
		allowLatestFallback: allowLatestFallback,
	}
}

// Resolve looks up the release for the queried major version. When the index
// has no entry for that major and the latest known-good fallback is enabled,
// one retry is issued against the unkeyed LATEST_RELEASE alias; otherwise
// NotFound is surfaced to the caller. Nearby majors are never guessed.
func (rr *ReleaseResolver) Resolve(ctx context.Context, query entities.ReleaseQuery) (entities.ReleaseDescriptor, error) {
	if query.MajorVersion < 1 {
		return entities.ReleaseDescriptor{}, &entities.ResolutionError{
			Reason: entities.ResolutionMalformedResponse,
			Msg:    fmt.Sprintf("invalid major version %d", query.MajorVersion),
		}
	}

	lookupURL := fmt.Sprintf("%s/LATEST_RELEASE_%d", rr.baseURL, query.MajorVersion)
	releaseID, err := rr.lookup(ctx, lookupURL, query.MajorVersion)
	if err != nil {
		var resErr *entities.ResolutionError
		if !rr.allowLatestFallback || !errors.As(err, &resErr) || resErr.Reason != entities.ResolutionNotFound {
			return entities.ReleaseDescriptor{}, err
		}

		// The alias is not keyed by major, so the returned id is accepted
		// regardless of its leading segment.
		releaseID, err = rr.lookup(ctx, rr.baseURL+"/LATEST_RELEASE", 0)
		if err != nil {
			return entities.ReleaseDescriptor{}, err
		}
	}

	return entities.ReleaseDescriptor{
		ReleaseID:   releaseID,
		DownloadURL: fmt.Sprintf("%s/%s/%s_%s.zip", rr.baseURL, releaseID, rr.driverName, rr.platform),
	}, nil
}

// lookup issues a single index request and validates the returned id.
// A wantMajor of 0 disables the major-segment check.
func (rr *ReleaseResolver) lookup(ctx context.Context, url string, wantMajor int) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &entities.ResolutionError{
			Reason: entities.ResolutionNetworkFailure,
			Msg:    "failed to create request",
			Err:    err,
		}
	}
	req.Header.Set("User-Agent", "driverprov/1.0")

	resp, err := rr.httpClient.Do(req)
	if err != nil {
		return "", &entities.ResolutionError{
			Reason: entities.ResolutionNetworkFailure,
			Msg:    "index request failed",
			Err:    err,
		}
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", &entities.ResolutionError{
			Reason: entities.ResolutionNotFound,
			Msg:    fmt.Sprintf("index has no entry at %s", url),
		}
	case resp.StatusCode != http.StatusOK:
		return "", &entities.ResolutionError{
			Reason: entities.ResolutionNetworkFailure,
			Msg:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReleaseIDBytes))
	if err != nil {
		return "", &entities.ResolutionError{
			Reason: entities.ResolutionNetworkFailure,
			Msg:    "failed to read index response",
			Err:    err,
		}
	}

	releaseID := strings.TrimSpace(string(body))
	if !dottedVersionPattern.MatchString(releaseID) {
		return "", &entities.ResolutionError{
			Reason: entities.ResolutionMalformedResponse,
			Msg:    fmt.Sprintf("index returned %q, not a dotted release id", releaseID),
		}
	}
	if wantMajor > 0 && !strings.HasPrefix(releaseID, strconv.Itoa(wantMajor)+".") {
		return "", &entities.ResolutionError{
			Reason: entities.ResolutionMalformedResponse,
			Msg:    fmt.Sprintf("index returned %q for major version %d", releaseID, wantMajor),
		}
	}

	return releaseID, nil
}
