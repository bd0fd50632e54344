package main

import (
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"lpupload/internal/config"
	"lpupload/internal/launchpad"
	"lpupload/internal/logging"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) newLogger(cfg *config.Config, stderr io.Writer) (*slog.Logger, error) {
	return logging.NewFromConfig(cfg, stderr, c.verbose != nil && *c.verbose)
}

func (c *commandContext) credentialStore(cfg *config.Config) *launchpad.FileCredentialStore {
	return launchpad.NewFileCredentialStore(cfg.CredentialsPath())
}

// newClient loads cached credentials and builds an API client for cfg.
func (c *commandContext) newClient(cfg *config.Config, logger *slog.Logger) (*launchpad.Client, error) {
	creds, err := launchpad.LoadValid(c.credentialStore(cfg))
	if err != nil {
		return nil, err
	}
	return launchpad.NewClient(cfg.ServiceURL(), creds,
		launchpad.WithLogger(logger),
		launchpad.WithRequestTimeout(cfg.RequestTimeout()),
		launchpad.WithUploadTimeout(cfg.UploadTimeout()),
	)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
