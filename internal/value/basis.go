package value

// The local basis is Z-up and the renderer clients are Y-up. Crossing the
// wire swaps the Y and Z axes. Quaternions additionally move between the
// local (w, x, y, z) layout and the wire (x, y, z, w) layout; the sign flip
// on w accounts for the handedness change of the axis swap.

func toWireVec3(v Vec3) [3]float32 {
	return [3]float32{v.X, v.Z, v.Y}
}

func fromWireVec3(w [3]float32) Vec3 {
	return Vec3{X: w[0], Y: w[2], Z: w[1]}
}

func toWireQuat(q Quat) [4]float32 {
	return [4]float32{q.X, q.Z, q.Y, -q.W}
}

func fromWireQuat(w [4]float32) Quat {
	return Quat{W: -w[3], X: w[0], Y: w[2], Z: w[1]}
}
