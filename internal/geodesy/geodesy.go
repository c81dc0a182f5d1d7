// Package geodesy converts between geographic degrees and local kilometres
// and derives grid sizes from a model domain's extents.
//
// All conversions use a flat local projection anchored at a reference
// latitude. This is accurate at the few-hundred-kilometre scale of a model
// domain and is not a great-circle computation.
package geodesy

import (
	"fmt"
	"math"
)

// KmPerDegree is the length of one degree of latitude, and of longitude at
// the equator, in kilometres.
const KmPerDegree = 111.32

// LatLng is a geographic point in decimal degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p LatLng) String() string {
	return fmt.Sprintf("[%f;%f]", p.Lat, p.Lng)
}

// Add returns p shifted by the given degree offsets.
func (p LatLng) Add(dLat, dLng float64) LatLng {
	return LatLng{Lat: p.Lat + dLat, Lng: p.Lng + dLng}
}

// IsFinite reports whether both coordinates are finite numbers.
func (p LatLng) IsFinite() bool {
	return isFinite(p.Lat) && isFinite(p.Lng)
}

// Bounds is an axis-aligned geographic box.
type Bounds struct {
	SouthWest LatLng `json:"southWest"`
	NorthEast LatLng `json:"northEast"`
}

// Center returns the midpoint of the box.
func (b Bounds) Center() LatLng {
	return LatLng{
		Lat: (b.SouthWest.Lat + b.NorthEast.Lat) / 2,
		Lng: (b.SouthWest.Lng + b.NorthEast.Lng) / 2,
	}
}

// SouthEast returns the south-east corner.
func (b Bounds) SouthEast() LatLng {
	return LatLng{Lat: b.SouthWest.Lat, Lng: b.NorthEast.Lng}
}

// NorthWest returns the north-west corner.
func (b Bounds) NorthWest() LatLng {
	return LatLng{Lat: b.NorthEast.Lat, Lng: b.SouthWest.Lng}
}

// KmToDegrees converts a distance to latitude and longitude degree spans at
// refLat. refLat must not be a pole.
func KmToDegrees(km, refLat float64) (latDeg, lngDeg float64) {
	latDeg = km / KmPerDegree
	lngDeg = km / (KmPerDegree * math.Cos(radians(refLat)))
	return latDeg, lngDeg
}

// DegreesToKm is the inverse of KmToDegrees.
func DegreesToKm(latDeg, lngDeg, refLat float64) (latKm, lngKm float64) {
	latKm = latDeg * KmPerDegree
	lngKm = lngDeg * KmPerDegree * math.Cos(radians(refLat))
	return latKm, lngKm
}

// BoundsFromCenterAndExtents returns the unrotated box of extentXKm
// (east-west) by extentYKm (north-south) centred on center.
func BoundsFromCenterAndExtents(center LatLng, extentXKm, extentYKm float64) Bounds {
	halfLat, _ := KmToDegrees(extentYKm/2, center.Lat)
	_, halfLng := KmToDegrees(extentXKm/2, center.Lat)
	return Bounds{
		SouthWest: LatLng{Lat: center.Lat - halfLat, Lng: center.Lng - halfLng},
		NorthEast: LatLng{Lat: center.Lat + halfLat, Lng: center.Lng + halfLng},
	}
}

// AngleBetween returns the signed angle in degrees swept from p1 to p2
// around center. The angle is positive when the sweep is clockwise on a
// north-up map and lies in (-360, 360); callers normalise it.
func AngleBetween(center, p1, p2 LatLng) float64 {
	return bearing(center, p2) - bearing(center, p1)
}

// bearing is the clockwise angle from north of the vector center->p, measured
// in the local kilometre frame so that longitude convergence is accounted for.
func bearing(center, p LatLng) float64 {
	north, east := DegreesToKm(p.Lat-center.Lat, p.Lng-center.Lng, center.Lat)
	return degrees(math.Atan2(east, north))
}

// NormalizeDegrees maps any angle into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	n := math.Mod(math.Mod(deg, 360)+360, 360)
	if n == 360 {
		// math.Mod of a tiny negative value can round back up to 360
		return 0
	}
	return n
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
