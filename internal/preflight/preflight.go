package preflight

import (
	"context"

	"lpupload/internal/config"
	"lpupload/internal/launchpad"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for cfg. prober may be nil when no
// client could be built, in which case the service check reports why.
func RunAll(ctx context.Context, cfg *config.Config, store launchpad.CredentialStore, prober Prober) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	if cfg.Release.Directory != "" {
		results = append(results, CheckDirectory("Artifact directory", cfg.Release.Directory))
	} else {
		results = append(results, Result{Name: "Artifact directory", Detail: "release.directory is not set"})
	}

	results = append(results, CheckStateDirectory("State directory", cfg.Paths.StateDir))
	results = append(results, CheckCredentials(store))

	if prober == nil {
		results = append(results, Result{Name: "Launchpad API", Detail: "skipped (no usable credentials)"})
	} else {
		results = append(results, CheckService(ctx, prober))
	}

	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
