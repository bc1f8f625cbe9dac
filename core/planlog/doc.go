// Package planlog keeps a history of computed plans in a JSONL file
// (optionally rotated) or a SQLite database.
package planlog
