package physics

// Vector2 represents a 2D vector.
type Vector2 interface {
	X() float64
	Y() float64
}

// Vector3 represents a 3D vector.
type Vector3 interface {
	X() float64
	Y() float64
	Z() float64
}
