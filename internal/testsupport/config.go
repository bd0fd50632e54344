package testsupport

import (
	"path/filepath"
	"testing"

	"lpupload/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Launchpad.ServiceRoot = "http://127.0.0.1:0"
	cfgVal.Launchpad.WebRoot = "http://127.0.0.1:0"
	cfgVal.Launchpad.CredentialsDir = filepath.Join(base, "credentials")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Ledger.Path = filepath.Join(base, "state", "ledger.db")
	cfgVal.Release = config.Release{
		Project:   "veracrypt",
		Series:    "trunk",
		Milestone: "1.26.24",
		Version:   "1.26.24",
		Directory: filepath.Join(base, "packages"),
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithLaunchpad points the config at a fake Launchpad server.
func WithLaunchpad(fake *FakeLaunchpad) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Launchpad.ServiceRoot = fake.URL()
		b.cfg.Launchpad.WebRoot = fake.URL()
	}
}

// WithRelease overrides the release coordinates, keeping the temp directory.
func WithRelease(project, series, milestone, version string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Release.Project = project
		b.cfg.Release.Series = series
		b.cfg.Release.Milestone = milestone
		b.cfg.Release.Version = version
	}
}

// WithoutLedger disables the upload history database.
func WithoutLedger() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Ledger.Enabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
