package engine

import (
	"errors"
	"math"

	"github.com/nzcvm/nzcvm-webapp/internal/geodesy"
)

// ErrDegenerate is returned when an update would leave the rectangle with a
// non-positive or non-finite extent.
var ErrDegenerate = errors.New("rectangle extents must be positive and finite")

// Corner indexes the array returned by OrientedRectangle.Corners. The order
// is fixed in the rectangle's own frame and never changes with rotation.
type Corner int

const (
	SouthWest Corner = iota
	SouthEast
	NorthEast
	NorthWest
)

var cornerNames = [...]string{"southWest", "southEast", "northEast", "northWest"}

func (c Corner) String() string {
	if c < SouthWest || c > NorthWest {
		return "unknown"
	}
	return cornerNames[c]
}

// RectangleState is the complete mutable state of an OrientedRectangle.
type RectangleState struct {
	Center   geodesy.LatLng `json:"center"`
	ExtentX  float64        `json:"extentX"`
	ExtentY  float64        `json:"extentY"`
	Rotation float64        `json:"rotation"`
}

// OrientedRectangle is a model domain: a rectangle of ExtentX by ExtentY
// kilometres in its own frame, turned clockwise by Rotation degrees about
// Center. Corners are always derived from that state, never stored.
type OrientedRectangle struct {
	center   geodesy.LatLng
	extentX  float64
	extentY  float64
	rotation float64
}

// NewOrientedRectangle creates a rectangle. Extents are in kilometres.
func NewOrientedRectangle(center geodesy.LatLng, extentX, extentY, rotation float64) (*OrientedRectangle, error) {
	r := &OrientedRectangle{center: center}
	if err := r.SetExtents(extentX, extentY); err != nil {
		return nil, err
	}
	r.SetRotation(rotation)
	return r, nil
}

func (r *OrientedRectangle) Center() geodesy.LatLng { return r.center }
func (r *OrientedRectangle) ExtentX() float64       { return r.extentX }
func (r *OrientedRectangle) ExtentY() float64       { return r.extentY }
func (r *OrientedRectangle) Rotation() float64      { return r.rotation }

// State returns a copy of the rectangle's state.
func (r *OrientedRectangle) State() RectangleState {
	return RectangleState{
		Center:   r.center,
		ExtentX:  r.extentX,
		ExtentY:  r.extentY,
		Rotation: r.rotation,
	}
}

// SetBounds moves the center to the middle of b and sets the extents to b's
// size measured at the new center latitude. Rotation is left unchanged.
func (r *OrientedRectangle) SetBounds(b geodesy.Bounds) error {
	center := b.Center()
	latKm, lngKm := geodesy.DegreesToKm(
		b.NorthEast.Lat-b.SouthWest.Lat,
		b.NorthEast.Lng-b.SouthWest.Lng,
		center.Lat,
	)
	if !validExtent(lngKm) || !validExtent(latKm) || !center.IsFinite() {
		return ErrDegenerate
	}
	r.center = center
	r.extentX = lngKm
	r.extentY = latKm
	return nil
}

// Bounds returns the unrotated box implied by the center and extents.
func (r *OrientedRectangle) Bounds() geodesy.Bounds {
	return geodesy.BoundsFromCenterAndExtents(r.center, r.extentX, r.extentY)
}

// SetExtents sets the width and height in kilometres.
func (r *OrientedRectangle) SetExtents(extentX, extentY float64) error {
	if !validExtent(extentX) || !validExtent(extentY) {
		return ErrDegenerate
	}
	r.extentX = extentX
	r.extentY = extentY
	return nil
}

// SetCenter moves the rectangle without changing its extents or rotation.
func (r *OrientedRectangle) SetCenter(center geodesy.LatLng) {
	r.center = center
}

// SetRotation stores the angle normalised into [0, 360).
func (r *OrientedRectangle) SetRotation(deg float64) {
	r.rotation = geodesy.NormalizeDegrees(deg)
}

// Move translates the center by the given degree offsets.
func (r *OrientedRectangle) Move(dLat, dLng float64) {
	r.center = r.center.Add(dLat, dLng)
}

// Corners returns the geographic corners in the order
// [southWest, southEast, northEast, northWest] of the rectangle's own frame.
// The rotation is applied in a flat projection around the center.
func (r *OrientedRectangle) Corners() [4]geodesy.LatLng {
	b := r.Bounds()
	unrotated := [4]geodesy.LatLng{b.SouthWest, b.SouthEast(), b.NorthEast, b.NorthWest()}
	var corners [4]geodesy.LatLng
	for i, p := range unrotated {
		north, east := geodesy.DegreesToKm(p.Lat-r.center.Lat, p.Lng-r.center.Lng, r.center.Lat)
		corners[i] = r.fromLocal(east, north)
	}
	return corners
}

// frame maps offsets in the rectangle's own frame to east/north offsets.
func (r *OrientedRectangle) frame() Matrix2D {
	return RotateClockwiseDegrees(r.rotation)
}

// fromLocal converts a kilometre offset in the rectangle's own frame to a
// geographic point.
func (r *OrientedRectangle) fromLocal(x, y float64) geodesy.LatLng {
	east, north := r.frame().Apply(x, y)
	return offsetFrom(r.center, east, north)
}

// toLocal converts a geographic point into the rectangle's own frame.
func (r *OrientedRectangle) toLocal(p geodesy.LatLng) (x, y float64) {
	north, east := geodesy.DegreesToKm(p.Lat-r.center.Lat, p.Lng-r.center.Lng, r.center.Lat)
	return r.frame().Inverse().Apply(east, north)
}

func offsetFrom(origin geodesy.LatLng, east, north float64) geodesy.LatLng {
	dLat, _ := geodesy.KmToDegrees(north, origin.Lat)
	_, dLng := geodesy.KmToDegrees(east, origin.Lat)
	return origin.Add(dLat, dLng)
}

func validExtent(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
