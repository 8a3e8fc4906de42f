// Package scene holds the synchronized data model: Parameters owned by
// Entities owned by a Scene.
//
// A Scene is the session context. It assigns entity ids (1-based, never
// reused) and routes unlocked local edits to a Distributor. Each Entity
// creates its parameters in a fixed order at construction time:
//
//	0 Position  vec3
//	1 Rotation  quaternion
//	2 Scale     vec3
//	3..         type-specific (camera lens, light, character joints)
//
// A parameter's index is its position in that list and never changes.
//
// The host application is reached only through the Object interface.
// Locked entities are owned by a remote peer: changes are applied to the
// host and never echoed. Unlocked entities forward changes to the network.
package scene
