package engine

import (
	"math"

	"github.com/nzcvm/nzcvm-webapp/internal/geodesy"
)

// Resizer drags one edge or corner of the rectangle while the opposite edge
// or corner stays where it was at drag start. Rotation is never changed.
type Resizer struct {
	limits  Limits
	session *DragSession
}

// NewResizer creates an idle resizer enforcing limits.
func NewResizer(limits Limits) *Resizer {
	return &Resizer{limits: limits}
}

func (z *Resizer) Active() bool { return z.session != nil }

// Begin snapshots the rectangle and the fixed anchor for handle.
func (z *Resizer) Begin(r *OrientedRectangle, handle Handle, pointer geodesy.LatLng) error {
	if z.session != nil {
		return ErrDragInProgress
	}
	sx, sy, ok := handle.axes()
	if !ok {
		return ErrWrongHandle
	}
	z.session = &DragSession{
		Kind:         DragResize,
		Handle:       handle,
		Start:        r.State(),
		StartPointer: pointer,
		LastPointer:  pointer,
		Anchor:       r.fromLocal(-sx*r.ExtentX()/2, -sy*r.ExtentY()/2),
	}
	return nil
}

// Drag resizes towards pointer. It reports false, leaving r untouched, when
// the result would be smaller than the minimum extent or not finite.
func (z *Resizer) Drag(r *OrientedRectangle, pointer geodesy.LatLng) bool {
	s := z.session
	if s == nil || !pointer.IsFinite() {
		return false
	}
	sx, sy, _ := s.Handle.axes()
	frame := RotateClockwiseDegrees(s.Start.Rotation)

	// Pointer movement since drag start, projected onto the rectangle's axes.
	north, east := geodesy.DegreesToKm(
		pointer.Lat-s.StartPointer.Lat,
		pointer.Lng-s.StartPointer.Lng,
		s.Start.Center.Lat,
	)
	dx, dy := frame.Inverse().Apply(east, north)

	width := s.Start.ExtentX + sx*dx
	height := s.Start.ExtentY + sy*dy
	if !finite(width, height) {
		return false
	}
	if width < z.limits.MinExtentKm || height < z.limits.MinExtentKm {
		return false
	}

	// Place the new center so the anchor keeps its geographic position when
	// the corners are derived at the new center's latitude.
	aEast, aNorth := frame.Apply(-sx*width/2, -sy*height/2)
	centerLat := s.Anchor.Lat - aNorth/geodesy.KmPerDegree
	if math.Abs(math.Cos(centerLat*math.Pi/180)) < 1e-9 {
		return false
	}
	_, dLng := geodesy.KmToDegrees(aEast, centerLat)
	center := geodesy.LatLng{Lat: centerLat, Lng: s.Anchor.Lng - dLng}
	if !center.IsFinite() {
		return false
	}

	if err := r.SetExtents(width, height); err != nil {
		return false
	}
	r.SetCenter(center)
	s.LastPointer = pointer
	return true
}

// End discards the drag snapshot.
func (z *Resizer) End() { z.session = nil }

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
