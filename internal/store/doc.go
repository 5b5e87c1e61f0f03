// Package store provides the SQLite-backed launchpad for quench workflows.
//
// A submission records:
//   - Workflows: name, content hash, metadata and the canonical JSON export
//   - Steps: one row per step with its content-addressed ID and descriptor
//   - Step links: parent to child dependencies by step ID
//
// # Identity and Ordering
//
// Submissions are idempotent on the workflow hash, so resubmitting an
// identical graph is a no-op. Ordering uses the logical seq column, never
// timestamps; submission IDs are UUIDv7 by default.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Descriptors and metadata are stored as RFC 8785 canonical JSON produced
// by internal/ir.
package store
