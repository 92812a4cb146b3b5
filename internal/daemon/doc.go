// Package daemon coordinates the long-running Cadence process.
//
// It wires configuration, the downloads store, and the workflow manager into a
// single lifecycle with flock-based locking to prevent multiple instances, and
// exposes a runtime status summary for operator surfaces.
//
// Keep orchestration logic here: individual workflow steps should live in
// their respective packages while the daemon focuses on startup, shutdown, and
// high level coordination.
package daemon
