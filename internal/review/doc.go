// Package review holds staged imports the orchestrator could not commit
// confidently and applies operator decisions to them. Approval re-runs the
// import with corrected metadata; rejection optionally deletes the staged
// files. Failure after approval is terminal.
package review
