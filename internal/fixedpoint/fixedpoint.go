// Package fixedpoint implements the scaled-integer storage used by the
// 256-byte configuration ABI, the same role as the original firmware's
// util/fixed_point.h ScaledValue<TStorage, Num, Denom> template. Go has
// no templates, so this uses a generic type parameterized the same way
// the teacher parameterizes mapRange[T constraints.Float] in main.go.
package fixedpoint

import (
	"golang.org/x/exp/constraints"
)

// ScaledValue stores a float as an integer of type T, scaled by
// num/denom. ScaledValue[uint8, 1, 10] stores 0.1V/bit (130 raw -> 13.0),
// ScaledValue[uint8, 5, 1] stores 5-second steps (1 raw -> 5.0), etc. It
// is the direct analogue of the C++ ScaledValue<TStorage, Num, Denom>.
type ScaledValue[T constraints.Integer] struct {
	Raw T
}

func scale[T constraints.Integer](num, denom int) float32 {
	return float32(num) / float32(denom)
}

// Value decodes the stored raw integer into its scaled float value.
func Value[T constraints.Integer](v ScaledValue[T], num, denom int) float32 {
	return float32(v.Raw) * scale[T](num, denom)
}

// Set encodes f into the raw integer, rounding to nearest and clamping
// to the range of T, mirroring ScaledValue::setValue's round+clamp.
func Set[T constraints.Integer](f float32, num, denom int) ScaledValue[T] {
	scaled := f / scale[T](num, denom)

	min, max := rangeOf[T]()

	if scaled < min {
		return ScaledValue[T]{Raw: T(min)}
	}
	if scaled > max {
		return ScaledValue[T]{Raw: T(max)}
	}

	if scaled >= 0 {
		scaled += 0.5
	} else {
		scaled -= 0.5
	}
	return ScaledValue[T]{Raw: T(scaled)}
}

func rangeOf[T constraints.Integer]() (min, max float32) {
	var zero T
	var isSigned bool
	switch any(zero).(type) {
	case int8, int16, int32, int64, int:
		isSigned = true
	}

	bits := bitSize[T]()
	if isSigned {
		max = float32(int64(1)<<(bits-1) - 1)
		min = -float32(int64(1) << (bits - 1))
	} else {
		max = float32(uint64(1)<<bits - 1)
		min = 0
	}
	return min, max
}

func bitSize[T constraints.Integer]() uint {
	var zero T
	switch any(zero).(type) {
	case int8, uint8:
		return 8
	case int16, uint16:
		return 16
	case int32, uint32:
		return 32
	default:
		return 64
	}
}
