// Package timeline interpolates standings between stages for animation.
package timeline

import "math"

// Lerp linearly interpolates between a and b by ratio r. The endpoints and
// equal bounds are returned exactly.
func Lerp(a, b, r float64) float64 {
	switch {
	case a == b, r == 0:
		return a
	case r == 1:
		return b
	}
	return a*(1-r) + b*r
}

// Scale maps a time domain linearly onto a pixel range.
type Scale struct {
	DomainStart float64
	DomainEnd   float64
	RangeStart  float64
	RangeEnd    float64
}

// Map converts a value from the domain into the range. Values outside the
// domain extrapolate beyond the range.
func (s Scale) Map(v float64) float64 {
	span := s.DomainEnd - s.DomainStart
	if math.Abs(span) < 1e-9 {
		return s.RangeStart
	}
	return Lerp(s.RangeStart, s.RangeEnd, (v-s.DomainStart)/span)
}

// Invert converts a range value back into the domain.
func (s Scale) Invert(px float64) float64 {
	span := s.RangeEnd - s.RangeStart
	if math.Abs(span) < 1e-9 {
		return s.DomainStart
	}
	return Lerp(s.DomainStart, s.DomainEnd, (px-s.RangeStart)/span)
}
