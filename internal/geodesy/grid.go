package geodesy

import (
	"math"
	"strconv"
)

// Placeholder is shown in place of an estimate when the inputs are invalid.
const Placeholder = "---"

// GridEstimate is the point count of the 3D sampling grid.
type GridEstimate struct {
	NX          int   `json:"nx"`
	NY          int   `json:"ny"`
	NZ          int   `json:"nz"`
	TotalPoints int64 `json:"totalPoints"`
}

// EstimateGrid derives grid dimensions from the domain extents and the
// horizontal and vertical spacings, all in kilometres. It reports false when
// a spacing is not positive or any input is not finite.
func EstimateGrid(extentX, extentY, latlonSpacing, zMax, zMin, zSpacing float64) (GridEstimate, bool) {
	for _, v := range []float64{extentX, extentY, latlonSpacing, zMax, zMin, zSpacing} {
		if !isFinite(v) {
			return GridEstimate{}, false
		}
	}
	if latlonSpacing <= 0 || zSpacing <= 0 {
		return GridEstimate{}, false
	}
	nx := int(math.Round(extentX / latlonSpacing))
	ny := int(math.Round(extentY / latlonSpacing))
	nz := int(math.Round((zMax - zMin) / zSpacing))
	if nz < 1 {
		nz = 1
	}
	return GridEstimate{
		NX:          nx,
		NY:          ny,
		NZ:          nz,
		TotalPoints: int64(nx) * int64(ny) * int64(nz),
	}, true
}

// RuntimeModel is an affine fit of generation time against grid size. It
// was tuned on one deployment's hardware and is only good enough to warn
// about oversized requests.
type RuntimeModel struct {
	InterceptSeconds float64
	SecondsPerPoint  float64
}

// DefaultRuntimeModel holds the empirically fitted constants.
var DefaultRuntimeModel = RuntimeModel{
	InterceptSeconds: 33,
	SecondsPerPoint:  2.6e-5,
}

// Estimate returns the expected generation time in seconds.
func (m RuntimeModel) Estimate(totalPoints int64) float64 {
	return m.InterceptSeconds + m.SecondsPerPoint*float64(totalPoints)
}

// EstimateRuntimeSeconds applies DefaultRuntimeModel.
func EstimateRuntimeSeconds(totalPoints int64) float64 {
	return DefaultRuntimeModel.Estimate(totalPoints)
}

// FormatTotal renders the total point count, or Placeholder when ok is false.
func FormatTotal(g GridEstimate, ok bool) string {
	if !ok {
		return Placeholder
	}
	return strconv.FormatInt(g.TotalPoints, 10)
}
