package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Float is a nullable numeric cell. The zero value is null.
type Float struct {
	Value float64
	Valid bool
}

// Null is the null Float
var Null = Float{}

// Some wraps v as a non-null Float. NaN and infinities become null.
func Some(v float64) Float {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Null
	}
	return Float{Value: v, Valid: true}
}

// IsNull reports whether f holds no value
func (f Float) IsNull() bool {
	return !f.Valid
}

// String formats the value with the shortest exact representation.
// Null formats as the empty string.
func (f Float) String() string {
	if !f.Valid {
		return ""
	}
	return strconv.FormatFloat(f.Value, 'f', -1, 64)
}

// MarshalJSON encodes null as JSON null
func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// UnmarshalJSON decodes JSON null into the null Float
func (f *Float) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = Null
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Some(v)
	return nil
}
