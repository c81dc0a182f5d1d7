package vmconfig

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	"golang.org/x/crypto/blake2b"
)

// Validate checks the record against the generator's input rules.
func (r Record) Validate() error {
	var errs []error
	if r.CallType != CallGenerateVelocityModel {
		errs = append(errs, fmt.Errorf("%s must be %s", KeyCallType, CallGenerateVelocityModel))
	}
	if r.ModelVersion == "" {
		errs = append(errs, fmt.Errorf("%s is empty", KeyModelVersion))
	}
	if !finite(r.OriginLat) || r.OriginLat <= -90 || r.OriginLat >= 90 {
		errs = append(errs, fmt.Errorf("%s must lie strictly between -90 and 90", KeyOriginLat))
	}
	if !finite(r.OriginLon) {
		errs = append(errs, fmt.Errorf("%s is not a number", KeyOriginLon))
	}
	if !finite(r.OriginRot) {
		errs = append(errs, fmt.Errorf("%s is not a number", KeyOriginRot))
	}
	positive := []struct {
		key string
		v   float64
	}{
		{KeyExtentX, r.ExtentX},
		{KeyExtentY, r.ExtentY},
		{KeyExtentZSpacing, r.ExtentZSpacing},
		{KeyExtentLatLonSpacing, r.ExtentLatLonSpacing},
	}
	for _, p := range positive {
		if !finite(p.v) || p.v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", p.key))
		}
	}
	if !finite(r.ExtentZMax) || !finite(r.ExtentZMin) || r.ExtentZMax <= r.ExtentZMin {
		errs = append(errs, fmt.Errorf("%s must be greater than %s", KeyExtentZMax, KeyExtentZMin))
	}
	if !finite(r.MinVS) || r.MinVS < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyMinVS))
	}
	if _, err := ParseTopoType(string(r.TopoType)); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", KeyTopoType, err))
	}
	return errors.Join(errs...)
}

// Fingerprint identifies the generation request independent of where its
// output goes.
func (r Record) Fingerprint() string {
	r.OutputDir = ""
	text := r.Text()
	sum := blake2b.Sum256(text)
	return hex.EncodeToString(sum[:])
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
