// Package audit writes the update audit trail.
//
// Every update attempt, accepted or not, appends one JSON line to
// audit.jsonl in the configured directory. The file is rotated by size and
// old generations are pruned.
package audit
