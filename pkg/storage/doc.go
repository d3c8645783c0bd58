// Package storage performs the filesystem side of archiving: idempotent
// directory creation, existence checks used for media deduplication, and
// temp-file-then-rename writes so an interrupted run never leaves a partial
// file under its final name.
package storage
