// Package main hosts the Cadence CLI entrypoint and command graph.
//
// The Cobra-based command tree covers queue maintenance, the manual review
// workflow, consumer library hearting, link repair, local import enqueueing,
// and configuration scaffolding. Commands open the same sqlite stores the
// daemon writes; WAL journaling keeps the concurrent access safe.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
