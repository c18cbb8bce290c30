package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"slices"
)

// CustomSize is a measured pair of foot lengths in centimeters.
type CustomSize struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// Valid reports whether both measurements are present.
func (c CustomSize) Valid() bool {
	return c.Left > 0 && c.Right > 0
}

// SizeSpec is either a set of regular sizes (one unit each) or a single
// custom-measured pair. On the wire a regular SizeSpec is a JSON array and a
// custom one is an object with left and right.
type SizeSpec struct {
	regular []float64
	custom  *CustomSize
}

func RegularSizes(sizes ...float64) SizeSpec {
	return SizeSpec{regular: slices.Clone(sizes)}
}

func CustomMeasurement(left, right float64) SizeSpec {
	return SizeSpec{custom: &CustomSize{Left: left, Right: right}}
}

func (s SizeSpec) IsCustom() bool {
	return s.custom != nil
}

// Regular returns a copy of the regular sizes; nil for a custom SizeSpec.
func (s SizeSpec) Regular() []float64 {
	if s.custom != nil {
		return nil
	}
	return slices.Clone(s.regular)
}

func (s SizeSpec) Custom() (CustomSize, bool) {
	if s.custom == nil {
		return CustomSize{}, false
	}
	return *s.custom, true
}

// Units is the number of purchasable units s represents.
func (s SizeSpec) Units() int {
	if s.custom != nil {
		return 1
	}
	return len(s.regular)
}

// Clone returns a SizeSpec sharing no memory with s.
func (s SizeSpec) Clone() SizeSpec {
	if s.custom != nil {
		c := *s.custom
		return SizeSpec{custom: &c}
	}
	return SizeSpec{regular: slices.Clone(s.regular)}
}

func (s SizeSpec) MarshalJSON() ([]byte, error) {
	if s.custom != nil {
		return json.Marshal(s.custom)
	}
	if s.regular == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.regular)
}

var errSizeFormat = errors.New("size must be a list of sizes or an object with left and right")

func (s *SizeSpec) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return errSizeFormat
	}
	switch trimmed[0] {
	case '[':
		var sizes []float64
		if err := json.Unmarshal(trimmed, &sizes); err != nil {
			return errSizeFormat
		}
		*s = SizeSpec{regular: sizes}
		return nil
	case '{':
		var c CustomSize
		if err := json.Unmarshal(trimmed, &c); err != nil {
			return errSizeFormat
		}
		*s = SizeSpec{custom: &c}
		return nil
	default:
		return errSizeFormat
	}
}
