package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable. Release coordinates are
// checked separately by ValidateRelease because commands such as login do
// not need them.
func (c *Config) Validate() error {
	if err := c.validateLaunchpad(); err != nil {
		return err
	}
	if err := c.validateUpload(); err != nil {
		return err
	}
	return c.validateLogging()
}

// ValidateRelease reports the first missing release coordinate.
func (c *Config) ValidateRelease() error {
	missing := c.MissingReleaseFields()
	if len(missing) == 0 {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("%s must be set. Pass the matching flag or edit %s (create with 'lpupload config init')",
		strings.Join(missing, ", "), defaultPath)
}

// MissingReleaseFields lists the release keys that are still empty.
func (c *Config) MissingReleaseFields() []string {
	var missing []string
	for key, value := range map[string]string{
		"release.project":   c.Release.Project,
		"release.series":    c.Release.Series,
		"release.milestone": c.Release.Milestone,
		"release.version":   c.Release.Version,
		"release.directory": c.Release.Directory,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}
	slices.Sort(missing)
	return missing
}

func (c *Config) validateLaunchpad() error {
	lp := c.Launchpad
	if _, ok := instanceRoots[lp.Instance]; !ok && lp.ServiceRoot == "" {
		return fmt.Errorf("launchpad.instance %q is unknown; use production, staging or qastaging, or set launchpad.service_root", lp.Instance)
	}
	for key, value := range map[string]string{
		"launchpad.service_root": lp.ServiceRoot,
		"launchpad.web_root":     lp.WebRoot,
	} {
		parsed, err := url.Parse(value)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", key, value)
		}
	}
	if strings.ContainsAny(lp.ApplicationName, "/\\") {
		return errors.New("launchpad.application_name must not contain path separators")
	}
	return ensurePositiveMap(map[string]int{
		"launchpad.request_timeout": lp.RequestTimeout,
		"launchpad.upload_timeout":  lp.UploadTimeout,
		"launchpad.login_timeout":   lp.LoginTimeout,
	})
}

func (c *Config) validateUpload() error {
	if c.Upload.SignatureSuffix == "." {
		return errors.New("upload.signature_suffix must include an extension")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q is invalid; use debug, info, warn or error", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
