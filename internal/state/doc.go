// Package state persists build state between runs in SQLite: the last
// content hash seen for each asset and a log of runs.
package state
