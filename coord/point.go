package coord

import (
	"math"
)

// Point is an absolute machine position in mm.
type Point struct{ X, Y, Z float64 }

func (p Point) Equal(b Point) bool {
	return p.X == b.X && p.Y == b.Y && p.Z == b.Z
}

func (p Point) Mul(val float64) Point {
	p.X *= val
	p.Y *= val
	p.Z *= val
	return p
}

// Add will add the target values to p.
func (p Point) Add(target Point) Point {
	p.X += target.X
	p.Y += target.Y
	p.Z += target.Z
	return p
}

// Sub will subtract the target values from p.
func (p Point) Sub(target Point) Point {
	p.X -= target.X
	p.Y -= target.Y
	p.Z -= target.Z
	return p
}

// DistanceXY will return the 2D distance to p from (x,y).
func (p Point) DistanceXY(x, y float64) float64 {
	return math.Sqrt(math.Pow(x-p.X, 2) + math.Pow(y-p.Y, 2))
}

// Vec2 is a lateral direction in the XY plane. It encodes both the
// search axis and the initial step sign/magnitude.
type Vec2 struct{ DX, DY float64 }

// Scale returns the vector multiplied by f.
func (v Vec2) Scale(f float64) Vec2 {
	v.DX *= f
	v.DY *= f
	return v
}

// Offset returns p advanced laterally by v. Z is untouched.
func (v Vec2) Offset(p Point) Point {
	p.X += v.DX
	p.Y += v.DY
	return p
}
