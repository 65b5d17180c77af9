// Package task implements tasks within projects: creation, assignment,
// the status state machine, list shaping, and per-project summaries.
//
// Layering follows the other contexts: domain holds entities, sentinel
// errors, and the pure transition/sorting rules; application coordinates
// operations against the repository and the project directory; adapters
// provide in-memory and postgres repositories plus the HTTP handler.
package task
