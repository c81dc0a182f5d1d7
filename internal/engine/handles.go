package engine

import (
	"fmt"
	"math"

	"github.com/nzcvm/nzcvm-webapp/internal/geodesy"
)

// Handle names an interactive control point on the rectangle. Edge and
// corner names refer to the rectangle's own frame, so "top" is the north
// side only while the rotation is zero.
type Handle string

const (
	HandleNone        Handle = ""
	HandleBody        Handle = "body"
	HandleRotate      Handle = "rotate"
	HandleTop         Handle = "top"
	HandleBottom      Handle = "bottom"
	HandleLeft        Handle = "left"
	HandleRight       Handle = "right"
	HandleTopLeft     Handle = "topLeft"
	HandleTopRight    Handle = "topRight"
	HandleBottomLeft  Handle = "bottomLeft"
	HandleBottomRight Handle = "bottomRight"
)

// rotateHandleOffset places the rotation anchor beyond the top edge, as a
// fraction of the rectangle's height.
const rotateHandleOffset = 0.15

// resizeAxes holds, for each resize handle, which side of the center it sits
// on along the rectangle's x and y axes. Zero means the axis is unaffected.
var resizeAxes = map[Handle][2]float64{
	HandleTop:         {0, 1},
	HandleBottom:      {0, -1},
	HandleLeft:        {-1, 0},
	HandleRight:       {1, 0},
	HandleTopLeft:     {-1, 1},
	HandleTopRight:    {1, 1},
	HandleBottomLeft:  {-1, -1},
	HandleBottomRight: {1, -1},
}

// handleOrder is the order handles are reported and hit-tested in. Corners
// come first so they win over the sides next to them.
var handleOrder = []Handle{
	HandleBottomLeft, HandleBottomRight, HandleTopRight, HandleTopLeft,
	HandleBottom, HandleRight, HandleTop, HandleLeft,
	HandleRotate,
}

// ParseHandle validates a handle name.
func ParseHandle(s string) (Handle, error) {
	h := Handle(s)
	if h == HandleBody || h == HandleRotate || h.IsResize() {
		return h, nil
	}
	return HandleNone, fmt.Errorf("unknown handle %q", s)
}

// IsResize reports whether the handle is an edge or corner.
func (h Handle) IsResize() bool {
	_, ok := resizeAxes[h]
	return ok
}

// IsCorner reports whether the handle moves two edges at once.
func (h Handle) IsCorner() bool {
	a, ok := resizeAxes[h]
	return ok && a[0] != 0 && a[1] != 0
}

func (h Handle) axes() (sx, sy float64, ok bool) {
	a, ok := resizeAxes[h]
	return a[0], a[1], ok
}

// HandlePosition is where a handle is drawn.
type HandlePosition struct {
	Handle   Handle         `json:"handle"`
	Position geodesy.LatLng `json:"position"`
	// Corner handles resize both axes and are drawn larger.
	Corner bool `json:"corner"`
}

// Handles returns the geographic position of every handle.
func Handles(r *OrientedRectangle) []HandlePosition {
	out := make([]HandlePosition, 0, len(handleOrder))
	for _, h := range handleOrder {
		x, y := handleLocal(r, h)
		out = append(out, HandlePosition{Handle: h, Position: r.fromLocal(x, y), Corner: h.IsCorner()})
	}
	return out
}

func handleLocal(r *OrientedRectangle, h Handle) (float64, float64) {
	if h == HandleRotate {
		return 0, r.ExtentY()/2 + rotateHandleOffset*r.ExtentY()
	}
	sx, sy, _ := h.axes()
	return sx * r.ExtentX() / 2, sy * r.ExtentY() / 2
}

// HitTest returns the handle nearest to p within toleranceKm, HandleBody when
// p is inside the rectangle, or HandleNone.
func HitTest(r *OrientedRectangle, p geodesy.LatLng, toleranceKm float64) Handle {
	best := HandleNone
	bestDist := math.Inf(1)
	for _, hp := range Handles(r) {
		d := distanceKm(hp.Position, p)
		if d <= toleranceKm && d < bestDist {
			best, bestDist = hp.Handle, d
		}
	}
	if best != HandleNone {
		return best
	}
	x, y := r.toLocal(p)
	if math.Abs(x) <= r.ExtentX()/2 && math.Abs(y) <= r.ExtentY()/2 {
		return HandleBody
	}
	return HandleNone
}

// distanceKm is the flat-projection distance between two nearby points.
func distanceKm(a, b geodesy.LatLng) float64 {
	north, east := geodesy.DegreesToKm(b.Lat-a.Lat, b.Lng-a.Lng, a.Lat)
	return math.Hypot(east, north)
}
