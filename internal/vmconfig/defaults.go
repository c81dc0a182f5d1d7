package vmconfig

import "github.com/nzcvm/nzcvm-webapp/internal/geodesy"

// DefaultOrigin is the center of the domain a new session starts with.
var DefaultOrigin = geodesy.LatLng{Lat: -41.2865, Lng: 174.7762}

const (
	DefaultExtentKm     = 300.0
	DefaultModelVersion = "2.03"
	DefaultOutputDir    = "/tmp/nzcvm_output"
)

// NewDefaultRecord returns the record a new session starts with.
func NewDefaultRecord() Record {
	return Record{
		CallType:            CallGenerateVelocityModel,
		ModelVersion:        DefaultModelVersion,
		OriginLat:           DefaultOrigin.Lat,
		OriginLon:           DefaultOrigin.Lng,
		OriginRot:           0,
		ExtentX:             DefaultExtentKm,
		ExtentY:             DefaultExtentKm,
		ExtentZMax:          46,
		ExtentZMin:          0,
		ExtentZSpacing:      1,
		ExtentLatLonSpacing: 1,
		MinVS:               500,
		TopoType:            TopoSquashedTapered,
		OutputDir:           DefaultOutputDir,
	}
}
