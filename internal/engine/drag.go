package engine

import (
	"errors"
	"fmt"

	"github.com/nzcvm/nzcvm-webapp/internal/geodesy"
)

var (
	// ErrDragInProgress is returned when a drag starts, or the domain is
	// edited, while another drag is active.
	ErrDragInProgress = errors.New("a drag session is already active")
	// ErrNoDrag is returned when a drag operation needs an active session.
	ErrNoDrag = errors.New("no active drag session")
	// ErrWrongHandle is returned when a handle cannot start the requested drag.
	ErrWrongHandle = errors.New("handle does not support this drag")
)

// DragKind is the gesture a DragSession performs.
type DragKind int

const (
	DragNone DragKind = iota
	DragMove
	DragResize
	DragRotate
)

func (k DragKind) String() string {
	switch k {
	case DragMove:
		return "move"
	case DragResize:
		return "resize"
	case DragRotate:
		return "rotate"
	default:
		return "none"
	}
}

// ParseDragKind parses the names produced by DragKind.String.
func ParseDragKind(s string) (DragKind, error) {
	switch s {
	case "move":
		return DragMove, nil
	case "resize":
		return DragResize, nil
	case "rotate":
		return DragRotate, nil
	}
	return DragNone, fmt.Errorf("unknown drag kind %q", s)
}

// DragSession is the snapshot taken on pointer-down. It lives until
// pointer-up.
type DragSession struct {
	Kind         DragKind
	Handle       Handle
	Start        RectangleState
	StartPointer geodesy.LatLng
	LastPointer  geodesy.LatLng
	// Anchor is the point a resize holds fixed: the opposite corner or the
	// midpoint of the opposite side. For a side handle on a rotated
	// rectangle only that midpoint is exact. The two corners of the fixed
	// side are re-derived at the new center latitude and drift slightly,
	// about 0.5 km for a 100 km drag at 45 degrees near Wellington.
	Anchor geodesy.LatLng
}

// Limits are the policy thresholds applied while dragging.
type Limits struct {
	MinExtentKm float64
}

// DefaultLimits rejects extents below roughly 0.001 degrees of latitude.
var DefaultLimits = Limits{MinExtentKm: 0.001 * geodesy.KmPerDegree}

// Controller routes pointer events to the move, resize, and rotate gestures.
// At most one gesture is active at a time.
type Controller struct {
	rect    *OrientedRectangle
	mover   Mover
	resizer Resizer
	rotator Rotator
}

// NewController creates a controller acting on rect.
func NewController(rect *OrientedRectangle, limits Limits) *Controller {
	return &Controller{
		rect:    rect,
		resizer: Resizer{limits: limits},
	}
}

// Active reports whether a drag session is in progress.
func (c *Controller) Active() bool {
	return c.mover.Active() || c.resizer.Active() || c.rotator.Active()
}

// Session returns a copy of the active session.
func (c *Controller) Session() (DragSession, bool) {
	for _, s := range []*DragSession{c.mover.session, c.resizer.session, c.rotator.session} {
		if s != nil {
			return *s, true
		}
	}
	return DragSession{}, false
}

// Begin starts a gesture at pointer. handle is only used for resizes.
func (c *Controller) Begin(kind DragKind, handle Handle, pointer geodesy.LatLng) error {
	if c.Active() {
		return ErrDragInProgress
	}
	switch kind {
	case DragMove:
		return c.mover.Begin(c.rect, pointer)
	case DragResize:
		return c.resizer.Begin(c.rect, handle, pointer)
	case DragRotate:
		return c.rotator.Begin(c.rect, pointer)
	}
	return fmt.Errorf("begin drag: %w", ErrWrongHandle)
}

// BeginAt starts the gesture implied by the handle under the pointer.
func (c *Controller) BeginAt(handle Handle, pointer geodesy.LatLng) error {
	switch {
	case handle == HandleRotate:
		return c.Begin(DragRotate, handle, pointer)
	case handle == HandleBody:
		return c.Begin(DragMove, handle, pointer)
	case handle.IsResize():
		return c.Begin(DragResize, handle, pointer)
	}
	return ErrWrongHandle
}

// Update applies a pointer move. It reports whether the rectangle changed;
// a rejected frame leaves the rectangle and the session as they were.
func (c *Controller) Update(pointer geodesy.LatLng) bool {
	switch {
	case c.mover.Active():
		return c.mover.Drag(c.rect, pointer)
	case c.resizer.Active():
		return c.resizer.Drag(c.rect, pointer)
	case c.rotator.Active():
		return c.rotator.Drag(c.rect, pointer)
	}
	return false
}

// End finishes the active gesture, if any.
func (c *Controller) End() {
	c.mover.End()
	c.resizer.End()
	c.rotator.End()
}

// Mover translates the rectangle with the pointer.
type Mover struct {
	session *DragSession
}

func (m *Mover) Active() bool { return m.session != nil }

func (m *Mover) Begin(r *OrientedRectangle, pointer geodesy.LatLng) error {
	if m.session != nil {
		return ErrDragInProgress
	}
	m.session = &DragSession{
		Kind:         DragMove,
		Handle:       HandleBody,
		Start:        r.State(),
		StartPointer: pointer,
		LastPointer:  pointer,
	}
	return nil
}

func (m *Mover) Drag(r *OrientedRectangle, pointer geodesy.LatLng) bool {
	if m.session == nil || !pointer.IsFinite() {
		return false
	}
	s := m.session
	target := s.Start.Center.Add(pointer.Lat-s.StartPointer.Lat, pointer.Lng-s.StartPointer.Lng)
	current := r.Center()
	r.Move(target.Lat-current.Lat, target.Lng-current.Lng)
	s.LastPointer = pointer
	return true
}

func (m *Mover) End() { m.session = nil }
