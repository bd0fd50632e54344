package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Launchpad contains connection and authentication settings.
type Launchpad struct {
	// Instance selects a Launchpad deployment: production, staging or qastaging.
	Instance string `toml:"instance"`
	// ServiceRoot and WebRoot override the URLs derived from Instance.
	ServiceRoot     string `toml:"service_root"`
	WebRoot         string `toml:"web_root"`
	APIVersion      string `toml:"api_version"`
	ApplicationName string `toml:"application_name"`
	CredentialsDir  string `toml:"credentials_dir"`
	RequestTimeout  int    `toml:"request_timeout"`
	UploadTimeout   int    `toml:"upload_timeout"`
	LoginTimeout    int    `toml:"login_timeout"`
}

// Release identifies the upload target and the local artifact directory.
type Release struct {
	Project   string `toml:"project"`
	Series    string `toml:"series"`
	Milestone string `toml:"milestone"`
	Version   string `toml:"version"`
	Directory string `toml:"directory"`
}

// Upload contains per-file upload settings.
type Upload struct {
	// Description is sent with every file; {filename} is replaced with the file name.
	Description     string `toml:"description"`
	FileType        string `toml:"file_type"`
	SignatureSuffix string `toml:"signature_suffix"`
	FailOnError     bool   `toml:"fail_on_error"`
}

// Paths contains local state locations.
type Paths struct {
	StateDir string `toml:"state_dir"`
}

// Ledger contains configuration for the local upload history database.
type Ledger struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	Dir    string `toml:"dir"`
}

// Config encapsulates all configuration values for lpupload.
//
// Configuration sections by subsystem:
//   - Launchpad: service instance, OAuth application name, credential cache
//   - Release: project/series/milestone/version coordinates and artifact directory
//   - Upload: description, file type and signature sidecar suffix
//   - Paths: state directory for the run lock
//   - Ledger: SQLite upload history
//   - Logging: log format, level and optional log directory
type Config struct {
	Launchpad Launchpad `toml:"launchpad"`
	Release   Release   `toml:"release"`
	Upload    Upload    `toml:"upload"`
	Paths     Paths     `toml:"paths"`
	Ledger    Ledger    `toml:"ledger"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("lpupload.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and credential directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.StateDir, c.Launchpad.CredentialsDir}
	if c.Ledger.Enabled {
		dirs = append(dirs, filepath.Dir(c.Ledger.Path))
	}
	if strings.TrimSpace(c.Logging.Dir) != "" {
		dirs = append(dirs, c.Logging.Dir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ServiceURL returns the versioned API root, e.g. https://api.launchpad.net/devel.
func (c *Config) ServiceURL() string {
	return strings.TrimRight(c.Launchpad.ServiceRoot, "/") + "/" + c.Launchpad.APIVersion
}

// CredentialsPath returns the JSON file holding cached OAuth credentials for
// the configured application and instance.
func (c *Config) CredentialsPath() string {
	name := fmt.Sprintf("%s-%s.json", c.Launchpad.ApplicationName, c.Launchpad.Instance)
	return filepath.Join(c.Launchpad.CredentialsDir, name)
}

// LockPath returns the path of the inter-process upload lock.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "upload.lock")
}

// RequestTimeout returns the per-request timeout for metadata calls.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Launchpad.RequestTimeout) * time.Second
}

// UploadTimeout returns the per-request timeout for file uploads.
func (c *Config) UploadTimeout() time.Duration {
	return time.Duration(c.Launchpad.UploadTimeout) * time.Second
}

// LoginTimeout returns how long the login flow waits for browser approval.
func (c *Config) LoginTimeout() time.Duration {
	return time.Duration(c.Launchpad.LoginTimeout) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
