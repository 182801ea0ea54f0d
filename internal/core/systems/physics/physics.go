package physics

import "math"

type Vec2 struct{ Xv, Yv float64 }

func (v Vec2) X() float64 { return v.Xv }
func (v Vec2) Y() float64 { return v.Yv }

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.Xv + o.Xv, v.Yv + o.Yv} }

func (v Vec2) Scale(f float64) Vec2 { return Vec2{v.Xv * f, v.Yv * f} }

// Interpolate blends linearly towards other.
func (v Vec2) Interpolate(other Vec2, alpha float64) Vec2 {
	return Vec2{lerp(v.Xv, other.Xv, alpha), lerp(v.Yv, other.Yv, alpha)}
}

type Vec3 struct{ Xv, Yv, Zv float64 }

func (v Vec3) X() float64 { return v.Xv }
func (v Vec3) Y() float64 { return v.Yv }
func (v Vec3) Z() float64 { return v.Zv }

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.Xv + o.Xv, v.Yv + o.Yv, v.Zv + o.Zv} }

func (v Vec3) Scale(f float64) Vec3 { return Vec3{v.Xv * f, v.Yv * f, v.Zv * f} }

// Interpolate blends linearly towards other.
func (v Vec3) Interpolate(other Vec3, alpha float64) Vec3 {
	return Vec3{lerp(v.Xv, other.Xv, alpha), lerp(v.Yv, other.Yv, alpha), lerp(v.Zv, other.Zv, alpha)}
}

// Position is the interpolated 2D location component.
type Position struct{ Vec2 }

func (Position) ComponentName() string { return "physics.position" }

func (p Position) Interpolate(other Position, alpha float64) Position {
	return Position{p.Vec2.Interpolate(other.Vec2, alpha)}
}

// Velocity is applied in steps: between keyframes the earlier value holds.
type Velocity struct{ Vec2 }

func (Velocity) ComponentName() string { return "physics.velocity" }

// Integrate advances p by v over dt seconds.
func Integrate(p Position, v Velocity, dt float64) Position {
	return Position{p.Add(v.Scale(dt))}
}

// Distance2 computes Euclidean distance between two 2D points.
func Distance2(x1, y1, x2, y2 float64) float64 { return math.Hypot(x2-x1, y2-y1) }

// Distance2V computes distance from two Vector2.
func Distance2V(a, b Vector2) float64 { return math.Hypot(b.X()-a.X(), b.Y()-a.Y()) }

func lerp(a, b, alpha float64) float64 { return a + (b-a)*alpha }
