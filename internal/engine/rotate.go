package engine

import (
	"github.com/nzcvm/nzcvm-webapp/internal/geodesy"
)

// minPivotKm is how close to the center the pointer may get before the
// sweep angle is considered undefined.
const minPivotKm = 1e-6

// Rotator turns the rectangle about its center by the angle the pointer
// sweeps. The angle is tracked frame by frame so long drags never wrap.
type Rotator struct {
	session *DragSession
}

func (t *Rotator) Active() bool { return t.session != nil }

// Begin records the pivot and the starting pointer position.
func (t *Rotator) Begin(r *OrientedRectangle, pointer geodesy.LatLng) error {
	if t.session != nil {
		return ErrDragInProgress
	}
	t.session = &DragSession{
		Kind:         DragRotate,
		Handle:       HandleRotate,
		Start:        r.State(),
		StartPointer: pointer,
		LastPointer:  pointer,
	}
	return nil
}

// Drag adds the angle swept since the previous pointer position.
func (t *Rotator) Drag(r *OrientedRectangle, pointer geodesy.LatLng) bool {
	s := t.session
	if s == nil || !pointer.IsFinite() {
		return false
	}
	pivot := s.Start.Center
	if distanceKm(pivot, pointer) < minPivotKm || distanceKm(pivot, s.LastPointer) < minPivotKm {
		return false
	}
	delta := geodesy.AngleBetween(pivot, s.LastPointer, pointer)
	if !finite(delta) {
		return false
	}
	r.SetRotation(r.Rotation() + delta)
	s.LastPointer = pointer
	return true
}

// End returns the rotator to idle.
func (t *Rotator) End() { t.session = nil }
