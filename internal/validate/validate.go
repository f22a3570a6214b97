// Package validate implements the record validation engine: pure rule
// evaluation with accumulated per-field results, warnings, and optional
// reference-integrity checks against the photo store.
//
// All rules run on every call; nothing short-circuits. A field that is
// present with value zero is valid for every numeric rule.
package validate

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rivo/uniseg"

	"github.com/minato/gyotaku/internal/apperr"
	"github.com/minato/gyotaku/internal/models"
)

// Hard bounds for the numeric measurements.
const (
	MaxSizeCm     = 999
	MaxWeightG    = 99999
	MaxTempC      = 50
	MaxTextLen    = 100
	MaxNotesLen   = 500
	typicalTempLo = 5
	typicalTempHi = 35
)

// Region is the expected geographic bounding box. A valid coordinate outside
// it yields a warning, never an error.
type Region struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// DefaultRegion covers the Japanese archipelago and surrounding waters.
var DefaultRegion = Region{MinLat: 20, MaxLat: 46, MinLon: 122, MaxLon: 154}

// PhotoGetter is the single store dependency: existence lookup for
// reference-integrity checks.
type PhotoGetter interface {
	GetPhoto(id string) (*models.Photo, error)
}

// Options control reference checking and strictness.
type Options struct {
	// CheckReferences enables the photo existence lookup.
	CheckReferences bool
	// Strict makes reference errors fail validation, not just report.
	Strict bool
}

// FieldResult is the outcome of one field rule.
type FieldResult struct {
	Field   string `json:"field"`
	Valid   bool   `json:"is_valid"`
	Error   string `json:"error,omitempty"`
	Warning string `json:"warning,omitempty"`
}

// Result is the accumulated outcome of a validation run.
type Result struct {
	Valid           bool          `json:"is_valid"`
	Fields          []FieldResult `json:"fields"`
	ReferenceErrors []string      `json:"reference_errors"`
	Warnings        []string      `json:"warnings"`
}

func (r *Result) add(f FieldResult) {
	r.Fields = append(r.Fields, f)
	if f.Warning != "" {
		r.Warnings = append(r.Warnings, f.Field+": "+f.Warning)
	}
}

// Validator evaluates records and photos against the rule set.
// It is stateless between calls and safe for concurrent use.
type Validator struct {
	photos PhotoGetter
	region Region
}

// New creates a Validator. photos may be nil if reference checking is never
// requested.
func New(photos PhotoGetter, region Region) *Validator {
	return &Validator{photos: photos, region: region}
}

// ValidateRecord runs every rule against the candidate record.
func (v *Validator) ValidateRecord(rec *models.Record, opts Options) *Result {
	res := &Result{ReferenceErrors: []string{}, Warnings: []string{}}

	res.add(textField("location", rec.Location, MaxTextLen, true))
	res.add(textField("species", rec.Species, MaxTextLen, true))
	res.add(dateField("caught_at", rec.CaughtAt))
	res.add(boundedField("size", rec.Size, 0, MaxSizeCm))
	res.add(temperatureField(rec.Temperature))
	res.add(boundedField("weight", rec.Weight, 0, MaxWeightG))
	res.add(v.coordinateField(rec.Coordinate))
	res.add(textField("notes", rec.Notes, MaxNotesLen, false))

	if opts.CheckReferences && rec.PhotoID != "" {
		v.checkPhotoReference(rec.PhotoID, res)
	}

	res.Valid = true
	for _, f := range res.Fields {
		if !f.Valid {
			res.Valid = false
			break
		}
	}
	if opts.Strict && len(res.ReferenceErrors) > 0 {
		res.Valid = false
	}
	return res
}

// textField validates a free-text field: required presence (post-trim) and a
// maximum length in user-perceived characters. Grapheme clusters are counted
// so combined emoji and similar multi-code-point symbols count once.
func textField(field, value string, maxLen int, required bool) FieldResult {
	trimmed := strings.TrimSpace(value)
	if required && trimmed == "" {
		return FieldResult{Field: field, Valid: false, Error: field + " is required"}
	}
	if n := uniseg.GraphemeClusterCount(value); n > maxLen {
		return FieldResult{Field: field, Valid: false,
			Error: fmt.Sprintf("%s exceeds %d characters (%d)", field, maxLen, n)}
	}
	return FieldResult{Field: field, Valid: true}
}

// dateField validates the catch timestamp. A future date is a warning only:
// the record stays valid but callers should surface it.
func dateField(field string, t time.Time) FieldResult {
	if t.IsZero() {
		return FieldResult{Field: field, Valid: false, Error: field + " is required"}
	}
	if t.After(time.Now()) {
		return FieldResult{Field: field, Valid: true, Warning: "date is in the future"}
	}
	return FieldResult{Field: field, Valid: true}
}

// boundedField validates an optional numeric measurement against an
// inclusive [min, max] range. NaN and ±Inf always fail regardless of bounds.
func boundedField(field string, value *float64, min, max float64) FieldResult {
	if value == nil {
		return FieldResult{Field: field, Valid: true}
	}
	v := *value
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return FieldResult{Field: field, Valid: false, Error: field + " is not a finite number"}
	}
	if v < min || v > max {
		return FieldResult{Field: field, Valid: false,
			Error: fmt.Sprintf("%s must be between %g and %g", field, min, max)}
	}
	return FieldResult{Field: field, Valid: true}
}

// temperatureField applies the hard bound plus a typical-range warning for
// water temperatures that are plausible but unusual.
func temperatureField(value *float64) FieldResult {
	f := boundedField("temperature", value, 0, MaxTempC)
	if !f.Valid || value == nil {
		return f
	}
	if *value < typicalTempLo || *value > typicalTempHi {
		f.Warning = fmt.Sprintf("temperature %g is outside the typical range %d-%d",
			*value, typicalTempLo, typicalTempHi)
	}
	return f
}

// coordinateField validates an optional GPS fix: both components finite and
// within bounds (boundary values valid), accuracy non-negative when present.
// A valid fix outside the expected region is a warning.
func (v *Validator) coordinateField(c *models.Coordinate) FieldResult {
	const field = "coordinate"
	if c == nil {
		return FieldResult{Field: field, Valid: true}
	}
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) ||
		math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) {
		return FieldResult{Field: field, Valid: false, Error: "coordinate components must be finite numbers"}
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return FieldResult{Field: field, Valid: false, Error: "latitude must be between -90 and 90"}
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return FieldResult{Field: field, Valid: false, Error: "longitude must be between -180 and 180"}
	}
	if c.Accuracy != nil && (math.IsNaN(*c.Accuracy) || math.IsInf(*c.Accuracy, 0) || *c.Accuracy < 0) {
		return FieldResult{Field: field, Valid: false, Error: "accuracy must be a non-negative number"}
	}
	r := v.region
	if c.Latitude < r.MinLat || c.Latitude > r.MaxLat ||
		c.Longitude < r.MinLon || c.Longitude > r.MaxLon {
		return FieldResult{Field: field, Valid: true, Warning: "coordinate lies outside the expected region"}
	}
	return FieldResult{Field: field, Valid: true}
}

// checkPhotoReference performs the single reference-existence read. A store
// failure is reported as "could not be verified" rather than silently passing
// or being conflated with a missing photo. No retries.
func (v *Validator) checkPhotoReference(photoID string, res *Result) {
	if v.photos == nil {
		res.ReferenceErrors = append(res.ReferenceErrors,
			fmt.Sprintf("photo %s could not be verified: no photo store configured", photoID))
		return
	}
	_, err := v.photos.GetPhoto(photoID)
	switch {
	case err == nil:
	case errors.Is(err, apperr.ErrNotFound):
		res.ReferenceErrors = append(res.ReferenceErrors,
			fmt.Sprintf("referenced photo %s does not exist", photoID))
	default:
		res.ReferenceErrors = append(res.ReferenceErrors,
			fmt.Sprintf("photo %s could not be verified: %v", photoID, err))
	}
}
