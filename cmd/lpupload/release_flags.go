package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"lpupload/internal/config"
	"lpupload/internal/hierarchy"
)

// releaseFlags override the [release] section for a single invocation.
type releaseFlags struct {
	project   string
	series    string
	milestone string
	version   string
	dir       string
}

func (f *releaseFlags) register(cmd *cobra.Command, withDir bool) {
	cmd.Flags().StringVar(&f.project, "project", "", "Launchpad project name (overrides release.project)")
	cmd.Flags().StringVar(&f.series, "series", "", "Project series (overrides release.series)")
	cmd.Flags().StringVar(&f.milestone, "milestone", "", "Milestone name (overrides release.milestone)")
	cmd.Flags().StringVar(&f.version, "version", "", "Expected release version (overrides release.version)")
	if withDir {
		cmd.Flags().StringVarP(&f.dir, "dir", "d", "", "Directory holding the artifacts (overrides release.directory)")
	}
}

// apply returns a copy of cfg with flag overrides applied and the release
// section validated.
func (f *releaseFlags) apply(cfg *config.Config, requireDir bool) (*config.Config, error) {
	resolved, err := f.overlay(cfg)
	if err != nil {
		return nil, err
	}
	if requireDir {
		if err := resolved.ValidateRelease(); err != nil {
			return nil, err
		}
		return resolved, nil
	}
	missing := slices.DeleteFunc(resolved.MissingReleaseFields(), func(key string) bool {
		return key == "release.directory"
	})
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s must be set. Pass the matching flag or edit the config file", strings.Join(missing, ", "))
	}
	return resolved, nil
}

// overlay copies cfg and applies the flag overrides without validating. The
// milestone stands in for the version only when neither the flags nor the
// config name one, so a configured release.version is still checked.
func (f *releaseFlags) overlay(cfg *config.Config) (*config.Config, error) {
	resolved := *cfg
	r := &resolved.Release
	overrides := []struct {
		value string
		dst   *string
	}{
		{f.project, &r.Project},
		{f.series, &r.Series},
		{f.milestone, &r.Milestone},
		{f.version, &r.Version},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(o.value); v != "" {
			*o.dst = v
		}
	}
	if strings.TrimSpace(r.Version) == "" && strings.TrimSpace(f.milestone) != "" {
		r.Version = r.Milestone
	}
	if dir := strings.TrimSpace(f.dir); dir != "" {
		expanded, err := config.ExpandPath(dir)
		if err != nil {
			return nil, fmt.Errorf("resolve --dir: %w", err)
		}
		r.Directory = expanded
	}
	return &resolved, nil
}

func releaseTarget(cfg *config.Config) hierarchy.Target {
	return hierarchy.Target{
		Project:   cfg.Release.Project,
		Series:    cfg.Release.Series,
		Milestone: cfg.Release.Milestone,
		Version:   cfg.Release.Version,
	}
}
