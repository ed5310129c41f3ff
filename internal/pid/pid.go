// Package pid implements the PID controller shared by the heater and
// pump loops. It generalizes the teacher's PIDController
// (firmware/src/pid.go) to match the original firmware's Pid class:
// an integrator clamp expressed in output units (volts for the heater,
// milliamps for the pump) rather than an unclamped accumulator.
package pid

// Config holds the three gains and the integrator clamp. Field names
// mirror the original firmware's PidConfig (kP, kI, kD, clamp).
type Config struct {
	Kp    float32
	Ki    float32
	Kd    float32
	Clamp float32 // symmetric clamp on the integral term, in output units
}

// Controller is a single-input PID loop. Unlike the teacher's
// PIDController, Update takes dt explicitly rather than baking a fixed
// period into the struct, so the same type serves the 1kHz heater loop
// and the 500Hz pump loop without two near-identical copies.
type Controller struct {
	cfg       Config
	integral  float32
	prevError float32
	havePrev  bool
}

// New creates a Controller with zeroed integrator and derivative state.
func New(cfg Config) *Controller {
	return &Controller{cfg: cfg}
}

// Reset clears the integrator and derivative history, as when a
// channel leaves closed-loop control and later re-enters it.
func (c *Controller) Reset() {
	c.integral = 0
	c.prevError = 0
	c.havePrev = false
}

// Update advances the controller by one tick of duration dtSeconds and
// returns the new control output for (target - measured).
func (c *Controller) Update(target, measured, dtSeconds float32) float32 {
	err := target - measured

	c.integral += c.cfg.Ki * err * dtSeconds
	if c.integral > c.cfg.Clamp {
		c.integral = c.cfg.Clamp
	} else if c.integral < -c.cfg.Clamp {
		c.integral = -c.cfg.Clamp
	}

	proportional := c.cfg.Kp * err

	var derivative float32
	if c.havePrev && dtSeconds > 0 {
		derivative = c.cfg.Kd * (err - c.prevError) / dtSeconds
	}
	c.prevError = err
	c.havePrev = true

	return proportional + c.integral + derivative
}
