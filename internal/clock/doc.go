// Package clock implements the shared modular time base and the round-trip
// latency estimator.
//
// Time is an integer step counter modulo a cycle length derived from the
// update rate, (128 / rate) * rate; 120 at 60 Hz. Peers exchange the counter
// in every message header and correct drift on SYNC.
package clock
