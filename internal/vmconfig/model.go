// Package vmconfig is the velocity-model configuration record handed to the
// model generator. Key names are part of the generator's input contract and
// must not change.
package vmconfig

import (
	"fmt"

	"github.com/nzcvm/nzcvm-webapp/internal/geodesy"
)

const (
	KeyCallType            = "CALL_TYPE"
	KeyModelVersion        = "MODEL_VERSION"
	KeyOriginLat           = "ORIGIN_LAT"
	KeyOriginLon           = "ORIGIN_LON"
	KeyOriginRot           = "ORIGIN_ROT"
	KeyExtentX             = "EXTENT_X"
	KeyExtentY             = "EXTENT_Y"
	KeyExtentZMax          = "EXTENT_ZMAX"
	KeyExtentZMin          = "EXTENT_ZMIN"
	KeyExtentZSpacing      = "EXTENT_Z_SPACING"
	KeyExtentLatLonSpacing = "EXTENT_LATLON_SPACING"
	KeyMinVS               = "MIN_VS"
	KeyTopoType            = "TOPO_TYPE"
	KeyOutputDir           = "OUTPUT_DIR"
)

// CallGenerateVelocityModel is the only call type the generator accepts.
const CallGenerateVelocityModel = "GENERATE_VELOCITY_MOD"

// Keys lists every key in the order it is written to a config file.
var Keys = []string{
	KeyCallType,
	KeyModelVersion,
	KeyOriginLat,
	KeyOriginLon,
	KeyOriginRot,
	KeyExtentX,
	KeyExtentY,
	KeyExtentZMax,
	KeyExtentZMin,
	KeyExtentZSpacing,
	KeyExtentLatLonSpacing,
	KeyMinVS,
	KeyTopoType,
	KeyOutputDir,
}

// RequiredKeys are the keys a submission must carry. OUTPUT_DIR is chosen
// by whoever runs the generator.
var RequiredKeys = Keys[:len(Keys)-1]

// TopoType selects how surface topography is handled.
type TopoType string

const (
	TopoSquashedTapered TopoType = "SQUASHED_TAPERED"
	TopoSquashed        TopoType = "SQUASHED"
	TopoBulldozed       TopoType = "BULLDOZED"
	TopoTrue            TopoType = "TRUE"
)

// TopoTypes lists the accepted values.
var TopoTypes = []TopoType{TopoSquashedTapered, TopoSquashed, TopoBulldozed, TopoTrue}

// ParseTopoType validates a topography mode.
func ParseTopoType(s string) (TopoType, error) {
	for _, t := range TopoTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown topography type %q", s)
}

// Record is one generation request. Distances are kilometres, angles
// degrees, MinVS metres per second.
type Record struct {
	CallType            string   `json:"CALL_TYPE"`
	ModelVersion        string   `json:"MODEL_VERSION"`
	OriginLat           float64  `json:"ORIGIN_LAT"`
	OriginLon           float64  `json:"ORIGIN_LON"`
	OriginRot           float64  `json:"ORIGIN_ROT"`
	ExtentX             float64  `json:"EXTENT_X"`
	ExtentY             float64  `json:"EXTENT_Y"`
	ExtentZMax          float64  `json:"EXTENT_ZMAX"`
	ExtentZMin          float64  `json:"EXTENT_ZMIN"`
	ExtentZSpacing      float64  `json:"EXTENT_Z_SPACING"`
	ExtentLatLonSpacing float64  `json:"EXTENT_LATLON_SPACING"`
	MinVS               float64  `json:"MIN_VS"`
	TopoType            TopoType `json:"TOPO_TYPE"`
	OutputDir           string   `json:"OUTPUT_DIR,omitempty"`
}

// SetDomain copies a rectangle's state into the origin and extent fields.
func (r *Record) SetDomain(center geodesy.LatLng, extentX, extentY, rotation float64) {
	r.OriginLat = center.Lat
	r.OriginLon = center.Lng
	r.OriginRot = rotation
	r.ExtentX = extentX
	r.ExtentY = extentY
}

// Origin returns the domain center.
func (r Record) Origin() geodesy.LatLng {
	return geodesy.LatLng{Lat: r.OriginLat, Lng: r.OriginLon}
}

// Grid estimates the grid size of the requested model.
func (r Record) Grid() (geodesy.GridEstimate, bool) {
	return geodesy.EstimateGrid(r.ExtentX, r.ExtentY, r.ExtentLatLonSpacing, r.ExtentZMax, r.ExtentZMin, r.ExtentZSpacing)
}
