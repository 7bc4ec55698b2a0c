package gene

import (
	"math"

	"golang.org/x/exp/constraints"
)

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func within[T constraints.Ordered](v, lo, hi T) bool {
	return v >= lo && v <= hi
}

// relativePosition maps v from the representable range [srcLo, srcHi] onto
// [lo, hi], keeping its relative position.
func relativePosition[T constraints.Integer | constraints.Float](v, srcLo, srcHi, lo, hi T) float64 {
	fv := float64(clamp(v, srcLo, srcHi))
	frac := (fv - float64(srcLo)) / (float64(srcHi) - float64(srcLo))
	return float64(lo) + frac*(float64(hi)-float64(lo))
}

func remapInt(v, lo, hi int64) int64 {
	if within(v, lo, hi) {
		return v
	}
	mapped := int64(math.Round(relativePosition(v, math.MinInt32, math.MaxInt32, lo, hi)))
	return clamp(mapped, lo, hi)
}

func remapReal(v, lo, hi float64) float64 {
	if within(v, lo, hi) {
		return v
	}
	return clamp(relativePosition(v, -math.MaxFloat32, math.MaxFloat32, lo, hi), lo, hi)
}
