// Package main hosts the lpupload CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves a Launchpad release from config and
// flags, lists what is already attached to it, and uploads the artifacts that
// are still missing. It also carries the OAuth login flow, upload history from
// the local ledger, preflight checks, and configuration scaffolding.
//
// Keep this package lean: behaviour lives in the internal packages and the
// commands here only wire configuration, output and exit codes.
package main
