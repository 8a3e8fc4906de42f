// Package store provides SQLite-backed persistence for scenesync.
//
// The store holds two tables:
//   - packages: the scene-data buffers served in reply to distribution requests
//   - journal: an append-only log of every message an engine received or sent
//
// # Ordering
//
// Journal reads are ordered by seq, the autoincrement row id. Wall-clock
// timestamps are recorded for display only and never used for ordering, so a
// replay sees messages in exactly the order they were handled.
//
// # Sessions
//
// Each engine run journals under a session id, a UUIDv7 string. UUIDv7 ids
// sort by creation time, so listing sessions needs no extra column.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
