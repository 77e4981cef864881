package gateways

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"driverprov/internal/domain/entities"
)

// releaseIndex serves the plain-text lookup protocol used by the resolver
func releaseIndex(entries map[string]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		release, ok := entries[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, release)
	}
}

func resolutionReason(t *testing.T, err error) entities.ResolutionReason {
	t.Helper()

	var resErr *entities.ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("error = %v, want *entities.ResolutionError", err)
	}
	return resErr.Reason
}

func TestReleaseResolver_Resolve(t *testing.T) {
	server := httptest.NewServer(releaseIndex(map[string]string{
		"/LATEST_RELEASE_123": "123.0.6312.86\n",
	}))
	defer server.Close()

	rr := NewReleaseResolver(server.URL, "chromedriver", "linux64", false)

	got, err := rr.Resolve(context.Background(), entities.ReleaseQuery{MajorVersion: 123})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.ReleaseID != "123.0.6312.86" {
		t.Errorf("Resolve() ReleaseID = %q, want 123.0.6312.86", got.ReleaseID)
	}
	wantURL := server.URL + "/123.0.6312.86/chromedriver_linux64.zip"
	if got.DownloadURL != wantURL {
		t.Errorf("Resolve() DownloadURL = %q, want %q", got.DownloadURL, wantURL)
	}
}

func TestReleaseResolver_Resolve_Deterministic(t *testing.T) {
	server := httptest.NewServer(releaseIndex(map[string]string{
		"/LATEST_RELEASE_123": "123.0.6312.86",
	}))
	defer server.Close()

	rr := NewReleaseResolver(server.URL, "chromedriver", "linux64", false)

	first, err := rr.Resolve(context.Background(), entities.ReleaseQuery{MajorVersion: 123})
	if err != nil {
		t.Fatalf("first Resolve() error = %v", err)
	}
	second, err := rr.Resolve(context.Background(), entities.ReleaseQuery{MajorVersion: 123})
	if err != nil {
		t.Fatalf("second Resolve() error = %v", err)
	}
	if first != second {
		t.Errorf("Resolve() not deterministic: %+v vs %+v", first, second)
	}
}

func TestReleaseResolver_Resolve_NotFound(t *testing.T) {
	server := httptest.NewServer(releaseIndex(map[string]string{}))
	defer server.Close()

	rr := NewReleaseResolver(server.URL, "chromedriver", "linux64", false)

	_, err := rr.Resolve(context.Background(), entities.ReleaseQuery{MajorVersion: 999})
	if got := resolutionReason(t, err); got != entities.ResolutionNotFound {
		t.Errorf("Resolve() reason = %s, want %s", got, entities.ResolutionNotFound)
	}
}

func TestReleaseResolver_Resolve_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	rr := NewReleaseResolver(server.URL, "chromedriver", "linux64", false)

	_, err := rr.Resolve(context.Background(), entities.ReleaseQuery{MajorVersion: 123})
	if got := resolutionReason(t, err); got != entities.ResolutionNetworkFailure {
		t.Errorf("Resolve() reason = %s, want %s", got, entities.ResolutionNetworkFailure)
	}
}

func TestReleaseResolver_Resolve_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	rr := NewReleaseResolver(server.URL, "chromedriver", "linux64", false)

	_, err := rr.Resolve(context.Background(), entities.ReleaseQuery{MajorVersion: 123})
	if got := resolutionReason(t, err); got != entities.ResolutionNetworkFailure {
		t.Errorf("Resolve() reason = %s, want %s", got, entities.ResolutionNetworkFailure)
	}
}

func TestReleaseResolver_Resolve_MalformedResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "garbage body", body: "<html>error</html>"},
		{name: "bare integer", body: "123"},
		{name: "mismatched major", body: "999.0.0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(releaseIndex(map[string]string{
				"/LATEST_RELEASE_123": tt.body,
			}))
			defer server.Close()

			rr := NewReleaseResolver(server.URL, "chromedriver", "linux64", false)

			_, err := rr.Resolve(context.Background(), entities.ReleaseQuery{MajorVersion: 123})
			if got := resolutionReason(t, err); got != entities.ResolutionMalformedResponse {
				t.Errorf("Resolve() reason = %s, want %s", got, entities.ResolutionMalformedResponse)
			}
		})
	}
}

func TestReleaseResolver_Resolve_LatestFallback(t *testing.T) {
	// The alias is not keyed by major, so a different major is acceptable.
	entries := map[string]string{
		"/LATEST_RELEASE": "124.0.6367.91",
	}

	t.Run("enabled", func(t *testing.T) {
		server := httptest.NewServer(releaseIndex(entries))
		defer server.Close()

		rr := NewReleaseResolver(server.URL, "chromedriver", "linux64", true)

		got, err := rr.Resolve(context.Background(), entities.ReleaseQuery{MajorVersion: 999})
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if got.ReleaseID != "124.0.6367.91" {
			t.Errorf("Resolve() ReleaseID = %q, want 124.0.6367.91", got.ReleaseID)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		server := httptest.NewServer(releaseIndex(entries))
		defer server.Close()

		rr := NewReleaseResolver(server.URL, "chromedriver", "linux64", false)

		_, err := rr.Resolve(context.Background(), entities.ReleaseQuery{MajorVersion: 999})
		if got := resolutionReason(t, err); got != entities.ResolutionNotFound {
			t.Errorf("Resolve() reason = %s, want %s", got, entities.ResolutionNotFound)
		}
	})
}

func TestReleaseResolver_Resolve_InvalidMajor(t *testing.T) {
	rr := NewReleaseResolver("http://unused.invalid", "chromedriver", "linux64", false)

	_, err := rr.Resolve(context.Background(), entities.ReleaseQuery{MajorVersion: 0})
	if err == nil {
		t.Fatal("Resolve() should reject a non-positive major version")
	}
}
