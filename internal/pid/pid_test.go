package pid

import "testing"

func TestProportionalOnly(t *testing.T) {
	c := New(Config{Kp: 2, Clamp: 100})
	if got := c.Update(10, 4, 0.01); got != 12 {
		t.Fatalf("output = %v, want 12", got)
	}
}

func TestIntegralAccumulatesAndClamps(t *testing.T) {
	c := New(Config{Ki: 1, Clamp: 0.5})

	// error = 1, dt = 1s each tick: integral would grow to 1.0, 2.0, ...
	// but clamp holds it at 0.5.
	var out float32
	for i := 0; i < 5; i++ {
		out = c.Update(1, 0, 1)
	}
	if out != 0.5 {
		t.Fatalf("output = %v, want clamp of 0.5", out)
	}
}

func TestIntegralClampsNegative(t *testing.T) {
	c := New(Config{Ki: 1, Clamp: 0.5})

	var out float32
	for i := 0; i < 5; i++ {
		out = c.Update(0, 1, 1)
	}
	if out != -0.5 {
		t.Fatalf("output = %v, want clamp of -0.5", out)
	}
}

func TestDerivativeIgnoredOnFirstTick(t *testing.T) {
	c := New(Config{Kd: 10, Clamp: 100})
	if got := c.Update(5, 0, 0.01); got != 0 {
		t.Fatalf("first-tick derivative output = %v, want 0 (no prior error)", got)
	}
}

func TestDerivativeRespondsToChange(t *testing.T) {
	c := New(Config{Kd: 1, Clamp: 100})
	c.Update(10, 0, 1) // error = 10, no derivative yet
	got := c.Update(10, 5, 1) // error = 5, d(error)/dt = (5-10)/1 = -5
	if got != -5 {
		t.Fatalf("output = %v, want -5", got)
	}
}

func TestResetClearsState(t *testing.T) {
	c := New(Config{Ki: 1, Kd: 1, Clamp: 10})
	c.Update(5, 0, 1)
	c.Reset()
	// after reset, derivative should again be suppressed on the next tick
	// and the integrator should restart from zero.
	got := c.Update(1, 0, 1)
	if got != 1 { // Ki*err*dt = 1*1*1 = 1, no derivative (first tick post-reset)
		t.Fatalf("output after reset = %v, want 1", got)
	}
}

func TestPumpGainConfigurationShape(t *testing.T) {
	// Mirrors the original firmware's pump PID config: Kp=50, Ki=10000,
	// Kd=0, clamp=10mA. A small Nernst error should saturate the
	// integrator quickly given the large Ki.
	c := New(Config{Kp: 50, Ki: 10000, Kd: 0, Clamp: 10})
	got := c.Update(0.46, 0.45, 0.002) // 500Hz tick, 10mV error
	if got <= 0 {
		t.Fatalf("output = %v, want positive correction toward target", got)
	}
}
