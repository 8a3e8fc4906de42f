// Package harness runs scripted sync sessions against the real engine.
//
// A scenario loads a CUE scene, starts an engine on an in-memory transport
// and plays the server and the user: it publishes inbound messages on the
// sync channel, edits host values, changes the selection and polls. Every
// message the engine handles or publishes, and every value it writes into
// a host object, is appended to the result trace.
//
// # Scenario Format
//
//	name: locked_apply
//	description: "A remote lock routes updates into the host"
//	scene: ../scenes/studio.cue
//	client_id: 2
//	steps:
//	  - inbound: {from: 7, lock: Cube}
//	  - inbound:
//	      from: 7
//	      update:
//	        - {object: Cube, param: Position, value: [1, 2, 3]}
//	  - poll: true
//	  - local: {object: Cube, param: Scale, value: [2, 2, 2]}
//	  - select: {objects: [Cube]}
//	assertions:
//	  - {type: parameter, object: Cube, param: Position, value: [1, 2, 3]}
//	  - {type: locked, object: Cube, locked: true}
//	  - {type: outbound_count, kind: LOCK, count: 1}
//
// # Assertion Types
//
//   - parameter: a parameter's final value, within the watcher epsilon
//   - locked: an entity's lock state
//   - outbound_count: published messages, optionally of one kind
//   - applied_count: values written into a host object
//   - clock: the final local time
//
// # Determinism
//
// Ping is disabled and the clock only moves on sync and advance steps, so
// a scenario always produces the same trace. RunWithGolden compares it with
// testdata/golden/<name>.golden.
package harness
