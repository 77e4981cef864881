package entities

// ReleaseIDUnknown marks an installed driver whose release could not be
// determined, e.g. a pre-existing binary reused after a lookup failure.
const ReleaseIDUnknown = "unknown"

// ReleaseQuery is the input to release resolution
type ReleaseQuery struct {
	MajorVersion int
}

// ReleaseDescriptor identifies a resolved driver release.
// ReleaseID is opaque to downstream components and never parsed further.
type ReleaseDescriptor struct {
	ReleaseID   string
	DownloadURL string
}

// InstalledDriver represents the driver binary on disk after a run.
type InstalledDriver struct {
	Path      string
	ReleaseID string // ReleaseIDUnknown when a prior installation was reused
}
