// Package value implements the typed values carried by synchronized parameters
// and their fixed-layout binary codec.
//
// Every kind has a fixed little-endian width except String:
//
//	bool        1
//	int32       4
//	float32     4
//	vec2        8
//	vec3       12   (Y and Z swapped on the wire)
//	vec4       16
//	quaternion 16   (local w,x,y,z <-> wire x,z,y,-w)
//	color      16   (r,g,b + 4 pad bytes; alpha is not transmitted)
//	string      n   (NFC UTF-8, at most MaxStringBytes)
//
// KindUnknown is a terminal fallback for host types without a wire form.
// Reaching the codec with it panics.
package value
