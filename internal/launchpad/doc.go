// Package launchpad is a small client for the Launchpad web service API.
//
// It signs requests with OAuth 1.0 PLAINTEXT credentials, walks paged
// collections, decodes the handful of entry types release uploads need
// (projects, series, milestones, releases and release files), and performs
// the multipart add_file operation. The Authorizer runs the browser-based
// token exchange used by `lpupload login`, and credentials are cached on disk
// through a CredentialStore.
//
// Lookups that miss return ErrNotFound so callers can choose a fallback path;
// authentication problems surface as ErrUnauthorized.
package launchpad
