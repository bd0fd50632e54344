package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"lpupload/internal/launchpad"
	"lpupload/internal/logging"
)

// ErrVersionMismatch is returned when the milestone's release carries a
// different version than the one requested.
var ErrVersionMismatch = errors.New("release version mismatch")

// Service is the subset of the Launchpad client the resolver needs.
type Service interface {
	Project(ctx context.Context, name string) (*launchpad.Project, error)
	FindProject(ctx context.Context, name string) (*launchpad.Project, error)
	Series(ctx context.Context, project *launchpad.Project, name string) (*launchpad.Series, error)
	FindSeries(ctx context.Context, project *launchpad.Project, name string) (*launchpad.Series, error)
	EachMilestone(ctx context.Context, series *launchpad.Series, visit func(launchpad.Milestone) bool) error
	Release(ctx context.Context, milestone *launchpad.Milestone) (*launchpad.Release, error)
}

// Target names the release an upload run writes to.
type Target struct {
	Project   string
	Series    string
	Milestone string
	Version   string
}

func (t Target) String() string {
	return fmt.Sprintf("%s/%s/%s (%s)", t.Project, t.Series, t.Milestone, t.Version)
}

// Resolved holds every level of a resolved target.
type Resolved struct {
	Project   *launchpad.Project
	Series    *launchpad.Series
	Milestone *launchpad.Milestone
	Release   *launchpad.Release
}

// Resolver walks the Launchpad hierarchy by name.
type Resolver struct {
	svc    Service
	logger *slog.Logger
}

// NewResolver builds a resolver over svc.
func NewResolver(svc Service, logger *slog.Logger) *Resolver {
	return &Resolver{
		svc:    svc,
		logger: logging.NewComponentLogger(logger, "hierarchy"),
	}
}

// Resolve looks up each level of target in turn and stops at the first failure.
func (r *Resolver) Resolve(ctx context.Context, target Target) (*Resolved, error) {
	project, err := r.Project(ctx, target.Project)
	if err != nil {
		return nil, err
	}
	series, err := r.Series(ctx, project, target.Series)
	if err != nil {
		return nil, err
	}
	milestone, err := r.Milestone(ctx, series, target.Milestone)
	if err != nil {
		return nil, err
	}
	release, err := r.Release(ctx, milestone, target.Version)
	if err != nil {
		return nil, err
	}
	r.logger.Info("release resolved",
		logging.Args(
			logging.String(logging.FieldRelease, target.String()),
			logging.String("release_link", release.SelfLink),
		)...)
	return &Resolved{Project: project, Series: series, Milestone: milestone, Release: release}, nil
}

// Project finds a project by name.
func (r *Resolver) Project(ctx context.Context, name string) (*launchpad.Project, error) {
	project, err := findByName(ctx, r.logger, "project", name,
		r.svc.Project, r.svc.FindProject)
	if errors.Is(err, launchpad.ErrNotFound) {
		return nil, fmt.Errorf("project %q not found: %w", name, err)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve project %q: %w", name, err)
	}
	return project, nil
}

// Series finds a series of project by name.
func (r *Resolver) Series(ctx context.Context, project *launchpad.Project, name string) (*launchpad.Series, error) {
	series, err := findByName(ctx, r.logger, "series", name,
		func(ctx context.Context, name string) (*launchpad.Series, error) {
			return r.svc.Series(ctx, project, name)
		},
		func(ctx context.Context, name string) (*launchpad.Series, error) {
			return r.svc.FindSeries(ctx, project, name)
		})
	if errors.Is(err, launchpad.ErrNotFound) {
		return nil, fmt.Errorf("series %q not found in project %q: %w", name, project.Name, err)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve series %q: %w", name, err)
	}
	return series, nil
}

// Milestone scans every milestone of series, active or not, for an exact name match.
func (r *Resolver) Milestone(ctx context.Context, series *launchpad.Series, name string) (*launchpad.Milestone, error) {
	var found *launchpad.Milestone
	scanned := 0
	err := r.svc.EachMilestone(ctx, series, func(m launchpad.Milestone) bool {
		scanned++
		if m.Name == name {
			found = &m
			return false
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("list milestones of series %q: %w", series.Name, err)
	}
	if found == nil {
		return nil, fmt.Errorf("milestone %q not found in series %q (%d scanned): %w",
			name, series.Name, scanned, launchpad.ErrNotFound)
	}
	r.logger.Debug("milestone found",
		logging.Args(logging.String("milestone", name), logging.Int("scanned", scanned))...)
	return found, nil
}

// Release loads the milestone's release and checks it carries version.
func (r *Resolver) Release(ctx context.Context, milestone *launchpad.Milestone, version string) (*launchpad.Release, error) {
	if strings.TrimSpace(milestone.ReleaseLink) == "" {
		return nil, fmt.Errorf("milestone %q has no release: %w", milestone.Name, launchpad.ErrNotFound)
	}
	release, err := r.svc.Release(ctx, milestone)
	if err != nil {
		return nil, fmt.Errorf("resolve release of milestone %q: %w", milestone.Name, err)
	}
	if release.Version != version {
		return nil, fmt.Errorf("expected version %q, but milestone only links to %q: %w",
			version, release.Version, ErrVersionMismatch)
	}
	return release, nil
}

// findByName runs primary and falls back to search only when primary reports
// not found. Any other error is returned as is.
func findByName[T any](ctx context.Context, logger *slog.Logger, kind, name string, primary, search func(context.Context, string) (*T, error)) (*T, error) {
	value, err := primary(ctx, name)
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, launchpad.ErrNotFound) {
		return nil, err
	}
	logger.Debug("direct lookup missed; searching by name",
		logging.Args(logging.String("kind", kind), logging.String("name", name))...)
	value, err = search(ctx, name)
	if err != nil {
		return nil, err
	}
	return value, nil
}
