package vars

import (
	"math"
	"strings"

	perr "chartline/internal/platform/errors"
)

// NormMode selects the output range of Normalize
type NormMode string

const (
	// NormFraction maps into [0,1] rounded to two places
	NormFraction NormMode = "NormFraction"
	// NormInt100 maps into the integers 0..100
	NormInt100 NormMode = "NormInt0-100"
)

// ParseNorm accepts a mode name case-insensitively; empty means NormFraction
func ParseNorm(s string) (NormMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normfraction", "fraction":
		return NormFraction, nil
	case "normint0-100", "int0-100", "int":
		return NormInt100, nil
	}
	return "", perr.InvalidArgf("vars: unknown normalization %q", s)
}

// Normalize clips v to the descriptor bounds and maps it linearly into the mode's range
func Normalize(v float64, d Descriptor, mode NormMode) float64 {
	span := d.Max - d.Min
	frac := 0.0
	if span > 0 {
		frac = (d.Clip(v) - d.Min) / span
	}
	if mode == NormInt100 {
		return math.Round(frac * 100)
	}
	return math.Round(frac*100) / 100
}
