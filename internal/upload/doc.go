// Package upload decides which local artifacts a release still needs and
// attaches them one by one.
//
// The remote release's file list is the only source of truth for skipping:
// a file whose name already appears on the release is never sent again.
// Uploads run sequentially and a failure on one file is recorded and the
// run moves on to the next file without retrying.
package upload
