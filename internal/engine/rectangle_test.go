package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nzcvm/nzcvm-webapp/internal/geodesy"
)

var wellington = geodesy.LatLng{Lat: -41.2865, Lng: 174.7762}

func newDefaultRect(t *testing.T, rotation float64) *OrientedRectangle {
	t.Helper()
	r, err := NewOrientedRectangle(wellington, 300, 300, rotation)
	require.NoError(t, err)
	return r
}

func assertLatLng(t *testing.T, expected, actual geodesy.LatLng, delta float64, msgAndArgs ...interface{}) {
	t.Helper()
	assert.InDelta(t, expected.Lat, actual.Lat, delta, msgAndArgs...)
	assert.InDelta(t, expected.Lng, actual.Lng, delta, msgAndArgs...)
}

func TestNewOrientedRectangleRejectsDegenerate(t *testing.T) {
	for _, ext := range [][2]float64{{0, 1}, {1, -1}, {math.NaN(), 1}, {1, math.Inf(1)}} {
		_, err := NewOrientedRectangle(wellington, ext[0], ext[1], 0)
		assert.ErrorIs(t, err, ErrDegenerate, "extents %v", ext)
	}
}

func TestCornersUnrotated(t *testing.T) {
	r := newDefaultRect(t, 0)
	c := r.Corners()
	b := r.Bounds()

	assertLatLng(t, b.SouthWest, c[SouthWest], 1e-9)
	assertLatLng(t, b.SouthEast(), c[SouthEast], 1e-9)
	assertLatLng(t, b.NorthEast, c[NorthEast], 1e-9)
	assertLatLng(t, b.NorthWest(), c[NorthWest], 1e-9)
}

func TestCornerOrderAndCentroid(t *testing.T) {
	for _, rot := range []float64{0, 15, 45, 90, 135, 180, 225, 270, 333.3} {
		r := newDefaultRect(t, rot)
		c := r.Corners()
		require.Len(t, c, 4)

		var lat, lng float64
		for _, p := range c {
			lat += p.Lat
			lng += p.Lng
		}
		assertLatLng(t, wellington, geodesy.LatLng{Lat: lat / 4, Lng: lng / 4}, 1e-9, "rotation %v", rot)

		// Each index keeps its place in the rectangle's own frame.
		expected := [4][2]float64{{-150, -150}, {150, -150}, {150, 150}, {-150, 150}}
		for i, p := range c {
			x, y := r.toLocal(p)
			assert.InDelta(t, expected[i][0], x, 1e-6, "rotation %v corner %v", rot, Corner(i))
			assert.InDelta(t, expected[i][1], y, 1e-6, "rotation %v corner %v", rot, Corner(i))
		}
	}
}

func TestRotationNormalization(t *testing.T) {
	r := newDefaultRect(t, 0)
	for _, in := range []float64{-720, -90, 0, 359.999, 360, 725.5, 1e6} {
		r.SetRotation(in)
		assert.True(t, r.Rotation() >= 0 && r.Rotation() < 360, "input %v gave %v", in, r.Rotation())
	}

	r.SetRotation(42)
	base := r.Corners()
	for k := -2; k <= 2; k++ {
		r.SetRotation(42 + 360*float64(k))
		assert.InDelta(t, 42, r.Rotation(), 1e-9)
		for i, p := range r.Corners() {
			assertLatLng(t, base[i], p, 1e-9, "k=%d corner %d", k, i)
		}
	}
}

func TestRotateNinetyShiftsCorners(t *testing.T) {
	r := newDefaultRect(t, 0)
	before := r.Corners()

	r.SetRotation(90)
	after := r.Corners()

	for i := range after {
		assert.InDelta(t, distanceKm(wellington, before[i]), distanceKm(wellington, after[i]), 1e-6)
		// clockwise by a quarter turn: southWest lands where northWest was
		assertLatLng(t, before[(i+3)%4], after[i], 1e-9, "corner %v", Corner(i))
	}
}

func TestSetBoundsKeepsRotation(t *testing.T) {
	r := newDefaultRect(t, 30)
	b := geodesy.Bounds{
		SouthWest: geodesy.LatLng{Lat: -42, Lng: 173},
		NorthEast: geodesy.LatLng{Lat: -40, Lng: 175},
	}
	require.NoError(t, r.SetBounds(b))

	assert.Equal(t, 30.0, r.Rotation())
	assertLatLng(t, geodesy.LatLng{Lat: -41, Lng: 174}, r.Center(), 1e-12)
	assert.InDelta(t, 2*geodesy.KmPerDegree, r.ExtentY(), 1e-9)
	assert.InDelta(t, 2*geodesy.KmPerDegree*math.Cos(-41*math.Pi/180), r.ExtentX(), 1e-9)

	unrotated := r.Bounds()
	assertLatLng(t, b.SouthWest, unrotated.SouthWest, 1e-9)
	assertLatLng(t, b.NorthEast, unrotated.NorthEast, 1e-9)
}

func TestSetBoundsRejectsEmptyBox(t *testing.T) {
	r := newDefaultRect(t, 0)
	before := r.State()
	err := r.SetBounds(geodesy.Bounds{SouthWest: wellington, NorthEast: wellington})
	assert.ErrorIs(t, err, ErrDegenerate)
	assert.Equal(t, before, r.State())
}

func TestMove(t *testing.T) {
	r := newDefaultRect(t, 10)
	r.Move(0.5, -0.25)
	assertLatLng(t, geodesy.LatLng{Lat: wellington.Lat + 0.5, Lng: wellington.Lng - 0.25}, r.Center(), 1e-12)
	assert.Equal(t, 300.0, r.ExtentX())
	assert.Equal(t, 10.0, r.Rotation())
}

func TestCornerString(t *testing.T) {
	assert.Equal(t, "southWest", SouthWest.String())
	assert.Equal(t, "northWest", NorthWest.String())
	assert.Equal(t, "unknown", Corner(7).String())
}
