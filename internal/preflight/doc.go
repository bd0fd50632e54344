// Package preflight provides readiness checks for the paths and services an
// upload run depends on.
//
// The CLI "lpupload doctor" command runs every check and prints the results.
// The upload command runs CheckDirectory on the artifact directory before it
// contacts Launchpad so a typo in the path fails fast.
package preflight
