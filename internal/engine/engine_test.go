package engine

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nzcvm/nzcvm-webapp/internal/geodesy"
	"github.com/nzcvm/nzcvm-webapp/internal/vmconfig"
)

func TestEngineDefaultState(t *testing.T) {
	e := NewEngine()
	s := e.Snapshot()

	assert.Equal(t, vmconfig.DefaultOrigin, s.Center)
	assert.Equal(t, 300.0, s.ExtentX)
	assert.Equal(t, 300.0, s.ExtentY)
	assert.Equal(t, 0.0, s.Rotation)
	assert.Len(t, s.Handles, 9)
	assert.Equal(t, "none", s.Dragging)

	require.NotNil(t, s.Grid)
	assert.Equal(t, geodesy.GridEstimate{NX: 300, NY: 300, NZ: 46, TotalPoints: 4140000}, *s.Grid)
	assert.Equal(t, "4140000", s.TotalPoints)
	require.NotNil(t, s.RuntimeSeconds)
	assert.InDelta(t, 140.64, *s.RuntimeSeconds, 1e-9)
}

func TestEngineInvalidGridShowsPlaceholder(t *testing.T) {
	e := NewEngine()
	e.SetGrid(GridParams{LatLonSpacing: 0, ZMax: 45, ZMin: 0, ZSpacing: 0.4})

	var s map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(e.GetState()), &s))
	assert.Equal(t, geodesy.Placeholder, s["totalPoints"])
	assert.Nil(t, s["grid"])
	assert.Nil(t, s["runtimeSeconds"])

	_, ok := e.RuntimeSeconds()
	assert.False(t, ok)
}

func TestEngineGridFromForm(t *testing.T) {
	e := NewEngine()
	e.SetGrid(GridParams{LatLonSpacing: 0.4, ZMax: 45, ZMin: 0, ZSpacing: 0.4})
	g, ok := e.GridEstimate()
	require.True(t, ok)
	assert.Equal(t, int64(63562500), g.TotalPoints)
	assert.Equal(t, GridParams{LatLonSpacing: 0.4, ZMax: 45, ZMin: 0, ZSpacing: 0.4}, e.Grid())
}

func TestEngineConfigText(t *testing.T) {
	e := NewEngine()
	require.NoError(t, e.SetRotation(-30))

	expected := strings.Join([]string{
		"CALL_TYPE=GENERATE_VELOCITY_MOD",
		"MODEL_VERSION=2.03",
		"ORIGIN_LAT=-41.2865",
		"ORIGIN_LON=174.7762",
		"ORIGIN_ROT=330",
		"EXTENT_X=300",
		"EXTENT_Y=300",
		"EXTENT_ZMAX=46",
		"EXTENT_ZMIN=0",
		"EXTENT_Z_SPACING=1",
		"EXTENT_LATLON_SPACING=1",
		"MIN_VS=500",
		"TOPO_TYPE=SQUASHED_TAPERED",
		"OUTPUT_DIR=/tmp/nzcvm_output",
	}, "\n")
	assert.Equal(t, expected, e.ConfigText())

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(e.ConfigJSON()), &rec))
	assert.Equal(t, 330.0, rec["ORIGIN_ROT"])
	assert.Equal(t, "GENERATE_VELOCITY_MOD", rec["CALL_TYPE"])
}

func TestEnginePointerGestures(t *testing.T) {
	e := NewEngine()
	c := e.Rectangle().Corners()

	require.NoError(t, e.PointerDown("", "topRight", c[NorthEast].Lat, c[NorthEast].Lng))
	assert.True(t, e.Dragging())
	assert.Equal(t, "resize", e.Snapshot().Dragging)

	p := pointAt(c[NorthEast], 20, 10)
	assert.True(t, e.PointerMove(p.Lat, p.Lng))
	e.PointerUp()
	assert.False(t, e.Dragging())

	assert.InDelta(t, 320, e.Snapshot().ExtentX, 1e-6)
	assert.InDelta(t, 310, e.Snapshot().ExtentY, 1e-6)
	assertLatLng(t, c[SouthWest], e.Rectangle().Corners()[SouthWest], 1e-9)

	rec := e.Record()
	assert.InDelta(t, 320, rec.ExtentX, 1e-6)
	assert.Equal(t, e.Rectangle().Center().Lat, rec.OriginLat)
}

func TestEnginePointerDownErrors(t *testing.T) {
	e := NewEngine()
	assert.Error(t, e.PointerDown("", "middle", 0, 0))
	assert.Error(t, e.PointerDown("spin", "", -41, 174))
	assert.Error(t, e.PointerDown("move", "body", 0, math.NaN()))

	require.NoError(t, e.PointerDown("rotate", "", -40, 174.7762))
	assert.ErrorIs(t, e.PointerDown("move", "body", -41, 174), ErrDragInProgress)
	assert.ErrorIs(t, e.LoadRecord(vmconfig.NewDefaultRecord()), ErrDragInProgress)
}

func TestEngineSettersRejectedWhileDragging(t *testing.T) {
	e := NewEngine()
	c := e.Rectangle().Corners()
	require.NoError(t, e.PointerDown("", "topRight", c[NorthEast].Lat, c[NorthEast].Lng))

	assert.ErrorIs(t, e.SetExtents(100, 100), ErrDragInProgress)
	assert.ErrorIs(t, e.SetOrigin(-45, 170), ErrDragInProgress)
	assert.ErrorIs(t, e.SetRotation(30), ErrDragInProgress)
	assert.ErrorIs(t, e.SetBounds(-46, 169, -44, 171), ErrDragInProgress)
	assert.Equal(t, 300.0, e.Snapshot().ExtentX)
	assert.Equal(t, vmconfig.DefaultOrigin, e.Snapshot().Center)

	p := pointAt(c[NorthEast], 20, 10)
	require.True(t, e.PointerMove(p.Lat, p.Lng))
	e.PointerUp()
	assert.InDelta(t, 320, e.Snapshot().ExtentX, 1e-6)

	require.NoError(t, e.SetExtents(100, 100))
	assert.Equal(t, 100.0, e.Snapshot().ExtentX)
}

func TestEngineSetOriginRejectsPoles(t *testing.T) {
	e := NewEngine()
	for _, lat := range []float64{90, -90, 95, math.NaN()} {
		assert.Error(t, e.SetOrigin(lat, 170), "lat %v", lat)
	}
	assert.Equal(t, vmconfig.DefaultOrigin, e.Snapshot().Center)

	rec := vmconfig.NewDefaultRecord()
	rec.OriginLat = -90
	assert.Error(t, e.LoadRecord(rec))
	assert.Equal(t, vmconfig.DefaultOrigin, e.Snapshot().Center)

	require.NoError(t, e.SetOrigin(-89.5, 170))
}

func TestEngineLoadRecord(t *testing.T) {
	e := NewEngine()
	rec := vmconfig.NewDefaultRecord()
	rec.OriginLat = -43.5
	rec.OriginLon = 172.6
	rec.OriginRot = 400
	rec.ExtentX = 120
	rec.ExtentY = 80
	rec.ModelVersion = "2.07"

	require.NoError(t, e.LoadRecord(rec))
	s := e.Snapshot()
	assert.Equal(t, geodesy.LatLng{Lat: -43.5, Lng: 172.6}, s.Center)
	assert.InDelta(t, 40, s.Rotation, 1e-9)
	assert.Equal(t, "2.07", e.Record().ModelVersion)

	rec.ExtentX = -1
	assert.ErrorIs(t, e.LoadRecord(rec), ErrDegenerate)
	assert.Equal(t, 120.0, e.Snapshot().ExtentX)
}

func TestEngineSetters(t *testing.T) {
	e := NewEngine()
	require.NoError(t, e.SetOrigin(-45, 170))
	require.NoError(t, e.SetExtents(100, 50))
	assert.ErrorIs(t, e.SetExtents(0, 50), ErrDegenerate)
	assert.Error(t, e.SetRotation(math.Inf(1)))
	assert.Error(t, e.SetTopoType("FLAT"))
	require.NoError(t, e.SetTopoType("BULLDOZED"))
	e.SetMinVS(300)
	e.SetModelVersion("2.06")
	e.SetOutputDir("/data/out")

	rec := e.Record()
	assert.Equal(t, -45.0, rec.OriginLat)
	assert.Equal(t, 100.0, rec.ExtentX)
	assert.Equal(t, vmconfig.TopoBulldozed, rec.TopoType)
	assert.Equal(t, 300.0, rec.MinVS)
	assert.Equal(t, "2.06", rec.ModelVersion)
	assert.Equal(t, "/data/out", rec.OutputDir)
	assert.NoError(t, rec.Validate())

	require.NoError(t, e.SetBounds(-46, 169, -44, 171))
	assert.Equal(t, geodesy.LatLng{Lat: -45, Lng: 170}, e.Snapshot().Center)
}

func TestEngineHitTest(t *testing.T) {
	e := NewEngine()
	c := e.Rectangle().Corners()
	assert.Equal(t, "bottomLeft", e.HitTest(c[SouthWest].Lat, c[SouthWest].Lng, 2))
	assert.Equal(t, "body", e.HitTest(-41.2865, 174.7762, 2))
	assert.Equal(t, "", e.HitTest(0, 0, 2))
}

func TestEngineOptions(t *testing.T) {
	e := NewEngine(
		WithLimits(Limits{MinExtentKm: 250}),
		WithRuntimeModel(geodesy.RuntimeModel{InterceptSeconds: 1, SecondsPerPoint: 0}),
	)
	secs, ok := e.RuntimeSeconds()
	require.True(t, ok)
	assert.Equal(t, 1.0, secs)

	c := e.Rectangle().Corners()
	require.NoError(t, e.PointerDown("resize", "right", c[NorthEast].Lat, c[NorthEast].Lng))
	p := pointAt(c[NorthEast], -100, 0)
	assert.False(t, e.PointerMove(p.Lat, p.Lng))
	assert.Equal(t, 300.0, e.Snapshot().ExtentX)
}
