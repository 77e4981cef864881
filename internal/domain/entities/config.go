package entities

import "fmt"

// Defaults for optional provisioning parameters
const (
	DefaultDriverName     = "chromedriver"
	DefaultPlatform       = "linux64"
	DefaultLookupBaseURL  = "https://chromedriver.storage.googleapis.com"
	DefaultTimeoutSeconds = 120
)

// ProvisionConfig carries the parameters of one provisioning run
type ProvisionConfig struct {
	BrowserPath         string // path to the installed browser binary
	TargetDir           string // directory on the executable search path
	LookupBaseURL       string // base URL of the release index
	DriverName          string // name of the driver executable inside archives
	Platform            string // platform suffix used in download URLs
	TimeoutSeconds      int    // bound for the whole run
	AllowLatestFallback bool   // retry NotFound against the latest known-good alias
}

// ApplyDefaults fills unset optional fields with their default values.
func (c *ProvisionConfig) ApplyDefaults() {
	if c.DriverName == "" {
		c.DriverName = DefaultDriverName
	}
	if c.Platform == "" {
		c.Platform = DefaultPlatform
	}
	if c.LookupBaseURL == "" {
		c.LookupBaseURL = DefaultLookupBaseURL
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
}

// Validate checks that required fields are present and bounds are sane.
func (c *ProvisionConfig) Validate() error {
	if c.BrowserPath == "" {
		return fmt.Errorf("browser path is required")
	}
	if c.TargetDir == "" {
		return fmt.Errorf("target directory is required")
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout must be positive, got %d", c.TimeoutSeconds)
	}
	return nil
}
