package coord

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoint_Add(t *testing.T) {
	a := Point{X: 1, Y: 2, Z: 3}
	b := Point{X: 4, Y: 5, Z: 6}

	assert.Equal(t, Point{X: 5, Y: 7, Z: 9}, a.Add(b))
}

func TestPoint_DistanceXY(t *testing.T) {
	dist := Point{X: 1, Y: 2, Z: 3}.DistanceXY(4, 5)
	assert.InEpsilon(t, 4.24264, dist, .01)
}

func TestVec2_Scale(t *testing.T) {
	v := Vec2{DX: 1}.Scale(-0.5)
	assert.Equal(t, Vec2{DX: -0.5}, v)

	v = v.Scale(-0.5)
	assert.Equal(t, Vec2{DX: 0.25}, v)
}

func TestVec2_Offset(t *testing.T) {
	p := Vec2{DX: 0.5, DY: -1}.Offset(Point{X: 1, Y: 2, Z: 3})
	assert.Equal(t, Point{X: 1.5, Y: 1, Z: 3}, p)
}
