// Package ledger keeps a local SQLite history of upload runs and the outcome
// of every file each run touched.
//
// The ledger is informational. Whether a file needs uploading is always
// decided from the release's remote file list, never from here, so a
// deleted or stale ledger cannot cause a file to be skipped or re-sent.
package ledger
