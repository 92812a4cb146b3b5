// Package downloads persists acquisition requests and enforces their status
// state machine. Every status change goes through a guarded conditional
// update, so illegal transitions and lost races surface as errors instead of
// silent overwrites.
package downloads
