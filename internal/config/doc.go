// Package config loads, normalizes, and validates lpupload configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// LAUNCHPAD_CREDENTIALS_DIR. The Config type centralizes the Launchpad
// connection settings, the release coordinates an upload targets, and the
// local state directories used for the run lock and upload ledger.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, resolved service roots, and clear validation errors.
package config
