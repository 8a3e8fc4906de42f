// Package engine implements the scenesync Sync Engine.
//
// The engine joins a session over four channels: it subscribes to the
// server's sync stream, answers scene-data requests, publishes local
// parameter changes and optionally pings the server to estimate latency.
//
// ARCHITECTURE:
//
// Single-Writer Host Loop:
// Socket readers never touch the scene. They hand messages to a FIFO queue
// which Poll drains on the host loop, the only goroutine that mutates
// parameters. This keeps:
// - strict buffer order within a batch
// - arrival order across batches
// - last-write-wins without locks on the scene
//
// Inbound Flow:
// 1. Reader goroutine receives a batch and enqueues it
// 2. Poll dequeues batches one at a time
// 3. Dispatch routes by message kind (SYNC, LOCK, PARAMETERUPDATE)
// 4. Each record is bounds- and kind-checked, then decoded into its parameter
// 5. The parameter's observers apply it to the host or distribute it
//
// Malformed or out-of-range records are discarded with a debug log. Nothing
// received from the network is ever reported to the host as an error.
//
// Lifecycle:
// Disconnected -> Listening -> Distributing on Start; any state ->
// Disconnected on Stop. Outbound messages are sent only while Distributing.
package engine
