package entities

// BrowserVersion represents the version reported by an installed browser binary.
// Full always carries Major as its leading dotted segment.
type BrowserVersion struct {
	Major int    // integer before the first dot, always positive
	Full  string // complete dotted version, e.g. "123.0.6312.58"
}
