package fixedpoint

import "testing"

func TestScaleFactorLessThanOne(t *testing.T) {
	// 0.1 V/bit storage, matches heater-config off/on voltage fields.
	v := Set[uint8](12.8, 1, 10)
	if v.Raw != 128 {
		t.Fatalf("raw = %d, want 128", v.Raw)
	}
	if got := Value(v, 1, 10); absf(got-12.8) > 0.01 {
		t.Fatalf("value = %v, want ~12.8", got)
	}
}

func TestScaleFactorMoreThanOne(t *testing.T) {
	// preheat time stored in 5-second steps.
	v := Set[uint8](125, 5, 1)
	if v.Raw != 25 {
		t.Fatalf("raw = %d, want 25", v.Raw)
	}
	if got := Value(v, 5, 1); got != 125 {
		t.Fatalf("value = %v, want 125", got)
	}
}

func TestClampsToStorageRange(t *testing.T) {
	v := Set[uint8](1000, 1, 10)
	if v.Raw != 255 {
		t.Fatalf("raw = %d, want clamp to 255", v.Raw)
	}

	v = Set[uint8](-10, 1, 10)
	if v.Raw != 0 {
		t.Fatalf("raw = %d, want clamp to 0", v.Raw)
	}
}

func TestHeaterConfigExample(t *testing.T) {
	// From the original firmware's config ABI test: raw 120 -> 12.0V,
	// raw 135 -> 13.5V, preheat raw 25 -> 125s.
	off := ScaledValue[uint8]{Raw: 120}
	on := ScaledValue[uint8]{Raw: 135}
	preheat := ScaledValue[uint8]{Raw: 25}

	if got := Value(off, 1, 10); got != 12.0 {
		t.Fatalf("off_v = %v, want 12.0", got)
	}
	if got := Value(on, 1, 10); got != 13.5 {
		t.Fatalf("on_v = %v, want 13.5", got)
	}
	if got := Value(preheat, 5, 1); got != 125 {
		t.Fatalf("preheat = %v, want 125", got)
	}
}

func absf(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
