package engine

import (
	"encoding/json"
	"fmt"

	"github.com/nzcvm/nzcvm-webapp/internal/geodesy"
	"github.com/nzcvm/nzcvm-webapp/internal/vmconfig"
)

// Engine owns one model domain and the form fields that go with it. It
// processes commands from the map page and returns query results as JSON.
// An Engine is not safe for concurrent use.
type Engine struct {
	rect       *OrientedRectangle
	controller *Controller
	limits     Limits
	runtime    geodesy.RuntimeModel

	// Non-geometric fields of the configuration record. The origin and
	// extent fields are always taken from rect.
	record vmconfig.Record
}

// Option configures an Engine.
type Option func(*Engine)

// WithLimits sets the drag policy thresholds.
func WithLimits(l Limits) Option {
	return func(e *Engine) { e.limits = l }
}

// WithRuntimeModel sets the model used for runtime estimates.
func WithRuntimeModel(m geodesy.RuntimeModel) Option {
	return func(e *Engine) { e.runtime = m }
}

// NewEngine creates an engine holding the default domain.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		limits:  DefaultLimits,
		runtime: geodesy.DefaultRuntimeModel,
		record:  vmconfig.NewDefaultRecord(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.rect, _ = NewOrientedRectangle(vmconfig.DefaultOrigin, vmconfig.DefaultExtentKm, vmconfig.DefaultExtentKm, 0)
	e.controller = NewController(e.rect, e.limits)
	return e
}

// --- Commands (map page → engine) ---

// LoadRecord replaces the domain and form fields with those of rec.
func (e *Engine) LoadRecord(rec vmconfig.Record) error {
	if e.controller.Active() {
		return ErrDragInProgress
	}
	if err := checkOrigin(rec.Origin()); err != nil {
		return err
	}
	if err := e.rect.SetExtents(rec.ExtentX, rec.ExtentY); err != nil {
		return err
	}
	e.rect.SetCenter(rec.Origin())
	e.rect.SetRotation(rec.OriginRot)
	e.record = rec
	return nil
}

// SetOrigin moves the domain center. The latitude must lie strictly
// between the poles.
func (e *Engine) SetOrigin(lat, lng float64) error {
	if e.controller.Active() {
		return ErrDragInProgress
	}
	p := geodesy.LatLng{Lat: lat, Lng: lng}
	if err := checkOrigin(p); err != nil {
		return err
	}
	e.rect.SetCenter(p)
	return nil
}

func checkOrigin(p geodesy.LatLng) error {
	if !p.IsFinite() {
		return fmt.Errorf("origin %s is not finite", p)
	}
	if p.Lat <= -90 || p.Lat >= 90 {
		return fmt.Errorf("origin latitude %v must lie strictly between -90 and 90", p.Lat)
	}
	return nil
}

// SetExtents sets the domain width and height in kilometres.
func (e *Engine) SetExtents(extentX, extentY float64) error {
	if e.controller.Active() {
		return ErrDragInProgress
	}
	return e.rect.SetExtents(extentX, extentY)
}

// SetRotation sets the clockwise rotation in degrees.
func (e *Engine) SetRotation(deg float64) error {
	if e.controller.Active() {
		return ErrDragInProgress
	}
	if !finite(deg) {
		return fmt.Errorf("rotation %v is not finite", deg)
	}
	e.rect.SetRotation(deg)
	return nil
}

// SetBounds fits the unrotated domain to an axis-aligned box.
func (e *Engine) SetBounds(swLat, swLng, neLat, neLng float64) error {
	if e.controller.Active() {
		return ErrDragInProgress
	}
	return e.rect.SetBounds(geodesy.Bounds{
		SouthWest: geodesy.LatLng{Lat: swLat, Lng: swLng},
		NorthEast: geodesy.LatLng{Lat: neLat, Lng: neLng},
	})
}

// GridParams are the spacing and depth fields of the form, in kilometres.
type GridParams struct {
	LatLonSpacing float64 `json:"latlonSpacing"`
	ZMax          float64 `json:"zMax"`
	ZMin          float64 `json:"zMin"`
	ZSpacing      float64 `json:"zSpacing"`
}

// SetGrid stores the grid fields as entered. Invalid values are kept and
// show up as a placeholder estimate.
func (e *Engine) SetGrid(p GridParams) {
	e.record.ExtentLatLonSpacing = p.LatLonSpacing
	e.record.ExtentZMax = p.ZMax
	e.record.ExtentZMin = p.ZMin
	e.record.ExtentZSpacing = p.ZSpacing
}

// Grid returns the current grid fields.
func (e *Engine) Grid() GridParams {
	return GridParams{
		LatLonSpacing: e.record.ExtentLatLonSpacing,
		ZMax:          e.record.ExtentZMax,
		ZMin:          e.record.ExtentZMin,
		ZSpacing:      e.record.ExtentZSpacing,
	}
}

// SetModelVersion selects the velocity model version.
func (e *Engine) SetModelVersion(v string) {
	e.record.ModelVersion = v
}

// SetMinVS sets the minimum shear velocity in metres per second.
func (e *Engine) SetMinVS(v float64) {
	e.record.MinVS = v
}

// SetTopoType selects the topography handling mode.
func (e *Engine) SetTopoType(s string) error {
	t, err := vmconfig.ParseTopoType(s)
	if err != nil {
		return err
	}
	e.record.TopoType = t
	return nil
}

// SetOutputDir sets where the generator writes its output.
func (e *Engine) SetOutputDir(dir string) {
	e.record.OutputDir = dir
}

// PointerDown starts a drag. An empty kind picks the gesture from the
// handle: body moves, rotate rotates, edges and corners resize.
func (e *Engine) PointerDown(kind, handle string, lat, lng float64) error {
	pointer := geodesy.LatLng{Lat: lat, Lng: lng}
	if !pointer.IsFinite() {
		return fmt.Errorf("pointer %s is not finite", pointer)
	}
	h := Handle(handle)
	if handle != "" {
		var err error
		if h, err = ParseHandle(handle); err != nil {
			return err
		}
	}
	if kind == "" {
		return e.controller.BeginAt(h, pointer)
	}
	k, err := ParseDragKind(kind)
	if err != nil {
		return err
	}
	return e.controller.Begin(k, h, pointer)
}

// PointerMove feeds one pointer position to the active drag. It reports
// whether the domain changed.
func (e *Engine) PointerMove(lat, lng float64) bool {
	return e.controller.Update(geodesy.LatLng{Lat: lat, Lng: lng})
}

// PointerUp ends the active drag.
func (e *Engine) PointerUp() {
	e.controller.End()
}

// --- Queries (map page ← engine) ---

// State is everything the map page needs to draw the domain and fill in the
// derived form fields.
type State struct {
	RectangleState
	Corners        [4]geodesy.LatLng     `json:"corners"`
	Handles        []HandlePosition      `json:"handles"`
	Grid           *geodesy.GridEstimate `json:"grid"`
	TotalPoints    string                `json:"totalPoints"`
	RuntimeSeconds *float64              `json:"runtimeSeconds"`
	Dragging       string                `json:"dragging"`
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() State {
	s := State{
		RectangleState: e.rect.State(),
		Corners:        e.rect.Corners(),
		Handles:        Handles(e.rect),
		Dragging:       DragNone.String(),
	}
	g, ok := e.GridEstimate()
	s.TotalPoints = geodesy.FormatTotal(g, ok)
	if ok {
		s.Grid = &g
		secs := e.runtime.Estimate(g.TotalPoints)
		s.RuntimeSeconds = &secs
	}
	if sess, active := e.controller.Session(); active {
		s.Dragging = sess.Kind.String()
	}
	return s
}

// GetState returns Snapshot as JSON.
func (e *Engine) GetState() string {
	data, _ := json.Marshal(e.Snapshot())
	return string(data)
}

// GridEstimate derives the grid size from the domain and grid fields.
func (e *Engine) GridEstimate() (geodesy.GridEstimate, bool) {
	return e.Record().Grid()
}

// RuntimeSeconds estimates how long generation would take. It reports false
// when the grid fields are invalid.
func (e *Engine) RuntimeSeconds() (float64, bool) {
	g, ok := e.GridEstimate()
	if !ok {
		return 0, false
	}
	return e.runtime.Estimate(g.TotalPoints), true
}

// HitTest returns the handle under the given point, "body" when the point
// is inside the domain, or an empty string.
func (e *Engine) HitTest(lat, lng, toleranceKm float64) string {
	return string(HitTest(e.rect, geodesy.LatLng{Lat: lat, Lng: lng}, toleranceKm))
}

// Record builds the configuration record for the current domain.
func (e *Engine) Record() vmconfig.Record {
	rec := e.record
	s := e.rect.State()
	rec.SetDomain(s.Center, s.ExtentX, s.ExtentY, s.Rotation)
	return rec
}

// ConfigText returns the record as KEY=VALUE lines.
func (e *Engine) ConfigText() string {
	return string(e.Record().Text())
}

// ConfigJSON returns the record as the JSON object posted to the backend.
func (e *Engine) ConfigJSON() string {
	data, _ := json.Marshal(e.Record())
	return string(data)
}

// Rectangle exposes the domain for callers that work with it directly.
func (e *Engine) Rectangle() *OrientedRectangle {
	return e.rect
}

// Dragging reports whether a drag is in progress.
func (e *Engine) Dragging() bool {
	return e.controller.Active()
}
