// Package hierarchy resolves the Launchpad project, series, milestone and
// release an upload run targets.
//
// Project and series use a direct keyed lookup and fall back to the named
// search operation only when the direct lookup reports not found. Milestones
// have no keyed lookup, so the series' full milestone collection is scanned.
// Every failure here is fatal for the run: a missing level or a release
// version that does not match the configured one means the configuration
// points at the wrong target.
package hierarchy
