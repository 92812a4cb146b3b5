// Package services provides shared error classification and context plumbing
// for workflow stages and external collaborators.
package services
