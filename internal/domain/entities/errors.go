package entities

import "fmt"

// ResolutionReason classifies release lookup failures
type ResolutionReason string

// Resolution failure reasons
const (
	ResolutionNotFound          ResolutionReason = "not_found"
	ResolutionNetworkFailure    ResolutionReason = "network_failure"
	ResolutionMalformedResponse ResolutionReason = "malformed_response"
)

// FetchReason classifies download and installation failures
type FetchReason string

// Fetch failure reasons
const (
	FetchNetworkFailure    FetchReason = "network_failure"
	FetchCorruptArchive    FetchReason = "corrupt_archive"
	FetchExtractionFailure FetchReason = "extraction_failure"
	FetchPermissionDenied  FetchReason = "permission_denied"
)

// DetectionError reports that the installed browser version could not be
// determined, either because the binary failed to run or because its output
// held no parseable version token.
type DetectionError struct {
	Msg string
	Err error
}

func (e *DetectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("browser version detection failed: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("browser version detection failed: %s", e.Msg)
}

func (e *DetectionError) Unwrap() error { return e.Err }

// ResolutionError reports a failure to resolve a driver release from the
// remote index.
type ResolutionError struct {
	Reason ResolutionReason
	Msg    string
	Err    error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("release resolution failed (%s): %s: %v", e.Reason, e.Msg, e.Err)
	}
	return fmt.Sprintf("release resolution failed (%s): %s", e.Reason, e.Msg)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// FetchError reports a failure to download, extract or install the driver
// binary.
type FetchError struct {
	Reason FetchReason
	Msg    string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("driver fetch failed (%s): %s: %v", e.Reason, e.Msg, e.Err)
	}
	return fmt.Sprintf("driver fetch failed (%s): %s", e.Reason, e.Msg)
}

func (e *FetchError) Unwrap() error { return e.Err }
