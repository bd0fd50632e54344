package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeLaunchpad(); err != nil {
		return err
	}
	if err := c.normalizeRelease(); err != nil {
		return err
	}
	c.normalizeUpload()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeLaunchpad() error {
	lp := &c.Launchpad
	lp.Instance = strings.ToLower(strings.TrimSpace(lp.Instance))
	if lp.Instance == "" {
		lp.Instance = defaultInstance
	}
	lp.ServiceRoot = strings.TrimRight(strings.TrimSpace(lp.ServiceRoot), "/")
	lp.WebRoot = strings.TrimRight(strings.TrimSpace(lp.WebRoot), "/")
	if roots, ok := instanceRoots[lp.Instance]; ok {
		if lp.ServiceRoot == "" {
			lp.ServiceRoot = roots.service
		}
		if lp.WebRoot == "" {
			lp.WebRoot = roots.web
		}
	}
	lp.APIVersion = strings.Trim(strings.TrimSpace(lp.APIVersion), "/")
	if lp.APIVersion == "" {
		lp.APIVersion = defaultAPIVersion
	}
	lp.ApplicationName = strings.TrimSpace(lp.ApplicationName)
	if lp.ApplicationName == "" {
		lp.ApplicationName = defaultApplicationName
	}

	if value, ok := os.LookupEnv("LAUNCHPAD_CREDENTIALS_DIR"); ok && strings.TrimSpace(value) != "" {
		lp.CredentialsDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(lp.CredentialsDir) == "" {
		lp.CredentialsDir = defaultCredentialsDir
	}
	var err error
	if lp.CredentialsDir, err = expandPath(lp.CredentialsDir); err != nil {
		return fmt.Errorf("launchpad.credentials_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeRelease() error {
	r := &c.Release
	r.Project = strings.TrimSpace(r.Project)
	r.Series = strings.TrimSpace(r.Series)
	r.Milestone = strings.TrimSpace(r.Milestone)
	r.Version = strings.TrimSpace(r.Version)
	if strings.TrimSpace(r.Directory) == "" {
		r.Directory = ""
		return nil
	}
	var err error
	if r.Directory, err = expandPath(strings.TrimSpace(r.Directory)); err != nil {
		return fmt.Errorf("release.directory: %w", err)
	}
	return nil
}

func (c *Config) normalizeUpload() {
	if strings.TrimSpace(c.Upload.Description) == "" {
		c.Upload.Description = defaultDescription
	}
	c.Upload.FileType = strings.TrimSpace(c.Upload.FileType)
	if c.Upload.FileType == "" {
		c.Upload.FileType = defaultFileType
	}
	c.Upload.SignatureSuffix = strings.TrimSpace(c.Upload.SignatureSuffix)
	if c.Upload.SignatureSuffix == "" {
		c.Upload.SignatureSuffix = defaultSignatureSuffix
	}
	if !strings.HasPrefix(c.Upload.SignatureSuffix, ".") {
		c.Upload.SignatureSuffix = "." + c.Upload.SignatureSuffix
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Ledger.Path) == "" {
		c.Ledger.Path = filepath.Join(c.Paths.StateDir, defaultLedgerFile)
	}
	if c.Ledger.Path, err = expandPath(c.Ledger.Path); err != nil {
		return fmt.Errorf("ledger.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.Dir) == "" {
		c.Logging.Dir = ""
		return nil
	}
	var err error
	if c.Logging.Dir, err = expandPath(c.Logging.Dir); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	return nil
}
