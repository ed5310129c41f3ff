// Package heater implements the heater state machine and its PID,
// grounded on the original firmware's HeaterControllerBase
// (heater_control.cpp/.h).
package heater

import (
	"wbo-ecu-core/internal/pid"
	"wbo-ecu-core/internal/ports"
	"wbo-ecu-core/internal/wbconfig"
	"wbo-ecu-core/internal/wbostatus"
)

// State is one of the four heater states.
type State uint8

const (
	Preheat State = iota
	WarmupRamp
	ClosedLoop
	Stopped
)

func (s State) String() string {
	switch s {
	case Preheat:
		return "Preheat"
	case WarmupRamp:
		return "WarmupRamp"
	case ClosedLoop:
		return "ClosedLoop"
	case Stopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

const (
	// PeriodMS is the heater loop's tick period; it runs at 1 kHz.
	PeriodMS      = 1
	periodSeconds = float32(PeriodMS) / 1000

	batteryStabSeconds    = 0.5
	warmupTimeoutSeconds  = 60
	closedLoopStabSeconds = 2.0
	overUnderheatSeconds  = 0.5

	didntHeatRetrySeconds  = 30
	overheatRetrySeconds   = 30
	underheatRetrySeconds  = 10

	preheatVoltage      = 2.0
	warmupRampStartV    = 7.0
	warmupFastStartV    = 9.0
	closedLoopNominalV  = 7.5
	rampRateVoltPerSec  = 0.4
	maxHeaterVoltage    = 12.0
	lowSupplyVoltage    = 3.0
	overVoltageShutdown = 23.0

	overheatOffsetC   = 100
	closedLoopOffsetC = 30
	underheatOffsetC  = 100
)

// Config is the heater PID's fixed gains, per the original firmware's
// heaterPidConfig.
var Config = pid.Config{Kp: 0.3, Ki: 0.3, Kd: 0.01, Clamp: 3.0}

// tickTimer counts elapsed ticks rather than wall-clock time, so the
// state machine's timing is driven purely by how many times Update is
// called — deterministic under test without a clock dependency.
type tickTimer struct {
	ticks int
}

func (t *tickTimer) reset()        { t.ticks = 0 }
func (t *tickTimer) tick()         { t.ticks++ }
func (t *tickTimer) elapsedSeconds() float32 {
	return float32(t.ticks) * periodSeconds
}
func (t *tickTimer) hasElapsedSeconds(s float32) bool {
	return t.elapsedSeconds() >= s
}

// Controller drives one AFR channel's heater state machine and PID.
type Controller struct {
	pid *pid.Controller

	state      State
	rampV      float32
	effectiveV float32
	lastDuty   float32

	targetTempC float32
	targetEsr   float32

	retrySeconds float32
	stopCause    wbostatus.Status

	heaterStableTimer    tickTimer
	preheatTimer         tickTimer
	warmupTimer          tickTimer
	closedLoopStableTimer tickTimer
	underheatTimer       tickTimer
	overheatTimer        tickTimer
	retryTimer           tickTimer

	// fastStartEnabled mirrors the original firmware's optional
	// HEATER_FAST_HEATING_THRESHOLD_T board feature; disabled unless a
	// board wires a threshold via EnableFastStart.
	fastStartEnabled   bool
	fastStartThreshold float32

	// maxDutyEnabled mirrors the original firmware's optional
	// HEATER_MAX_DUTY board feature: boards that sense the heater
	// supply through the heater low-side need duty clamped every 10th
	// cycle so that edge has a chance to settle and be measured.
	maxDutyEnabled bool
	maxDuty        float32
	dutyCycle      int
}

// New creates a Controller targeting targetTempC (the sensor
// temperature that counts as "at operating point") and targetEsr (the
// ESR the ClosedLoop PID regulates toward).
func New(targetTempC, targetEsr float32) *Controller {
	return &Controller{
		pid:         pid.New(Config),
		state:       Preheat,
		targetTempC: targetTempC,
		targetEsr:   targetEsr,
	}
}

// EnableFastStart turns on the optional fast-heating shortcut: when
// the sensor is at or above thresholdC on any Preheat tick, the
// warmup ramp starts at a higher voltage instead of the normal path.
func (c *Controller) EnableFastStart(thresholdC float32) {
	c.fastStartEnabled = true
	c.fastStartThreshold = thresholdC
}

// EnableMaxDutyClamp turns on the optional HEATER_MAX_DUTY board
// feature: on boards that sense the heater supply through the heater
// low-side, duty is clamped to maxDuty every 10th tick so that edge
// stays low long enough to measure.
func (c *Controller) EnableMaxDutyClamp(maxDuty float32) {
	c.maxDutyEnabled = true
	c.maxDuty = maxDuty
}

// State returns the current heater state.
func (c *Controller) State() State { return c.state }

// EffectiveVoltage returns the commanded heater voltage from the most
// recent Update, before the 12V clamp and duty conversion.
func (c *Controller) EffectiveVoltage() float32 { return c.effectiveV }

// IsRunningClosedLoop reports whether the heater is in ClosedLoop.
func (c *Controller) IsRunningClosedLoop() bool { return c.state == ClosedLoop }

// TargetTempC returns the configured operating temperature.
func (c *Controller) TargetTempC() float32 { return c.targetTempC }

// nextState computes the state transition for one tick, per the
// original firmware's GetNextState.
func (c *Controller) nextState(heaterAllow wbostatus.HeaterAllow, supplyV, sensorTempC float32, heaterCfg wbconfig.HeaterConfig) State {
	allowed := heaterAllow == wbostatus.Allowed

	if heaterAllow == wbostatus.Unknown {
		if supplyV < heaterCfg.OffVolts() {
			c.heaterStableTimer.reset()
		} else if supplyV > heaterCfg.OnVolts() {
			allowed = c.heaterStableTimer.hasElapsedSeconds(batteryStabSeconds)
		}
	}

	if !allowed {
		c.preheatTimer.reset()
		return Preheat
	}

	overheatTemp := c.targetTempC + overheatOffsetC
	closedLoopTemp := c.targetTempC - closedLoopOffsetC
	underheatTemp := c.targetTempC - underheatOffsetC

	switch c.state {
	case Preheat:
		if c.fastStartEnabled && sensorTempC >= c.fastStartThreshold {
			c.rampV = warmupFastStartV
			c.warmupTimer.reset()
			return WarmupRamp
		}
		if c.preheatTimer.hasElapsedSeconds(heaterCfg.PreheatSeconds()) || sensorTempC > closedLoopTemp {
			c.rampV = warmupRampStartV
			c.warmupTimer.reset()
			return WarmupRamp
		}
		return Preheat

	case WarmupRamp:
		if sensorTempC > closedLoopTemp {
			c.closedLoopStableTimer.reset()
			return ClosedLoop
		}
		if c.warmupTimer.hasElapsedSeconds(warmupTimeoutSeconds) {
			c.retrySeconds = didntHeatRetrySeconds
			c.stopCause = wbostatus.SensorDidntHeat
			c.retryTimer.reset()
			return Stopped
		}
		return WarmupRamp

	case ClosedLoop:
		if sensorTempC <= overheatTemp {
			c.overheatTimer.reset()
		}
		if sensorTempC >= underheatTemp {
			c.underheatTimer.reset()
		}

		if c.closedLoopStableTimer.hasElapsedSeconds(closedLoopStabSeconds) {
			if c.overheatTimer.hasElapsedSeconds(overUnderheatSeconds) {
				c.retrySeconds = overheatRetrySeconds
				c.stopCause = wbostatus.SensorOverheat
				c.retryTimer.reset()
				return Stopped
			}
			if c.underheatTimer.hasElapsedSeconds(overUnderheatSeconds) {
				c.retrySeconds = underheatRetrySeconds
				c.stopCause = wbostatus.SensorUnderheat
				c.retryTimer.reset()
				return Stopped
			}
		}
		return ClosedLoop

	case Stopped:
		if c.retrySeconds > 0 && c.retryTimer.hasElapsedSeconds(c.retrySeconds) {
			return Preheat
		}
		return Stopped
	}

	return c.state
}

// voltageForState computes the commanded heater voltage for state,
// per the original firmware's GetVoltageForState.
func (c *Controller) voltageForState(state State, sensorEsr float32) float32 {
	switch state {
	case Preheat:
		return preheatVoltage
	case WarmupRamp:
		if c.rampV < maxHeaterVoltage {
			c.rampV += rampRateVoltPerSec * periodSeconds
		}
		return c.rampV
	case ClosedLoop:
		return closedLoopNominalV - c.pid.Update(c.targetEsr, sensorEsr, periodSeconds)
	case Stopped:
		return 0
	}
	return 0
}

// Update runs one tick of the heater loop: advances the state
// machine, computes the commanded voltage, and drives pwm with the
// resulting duty cycle.
func (c *Controller) Update(sampler ports.Sampler, heaterAllow wbostatus.HeaterAllow, remoteBatteryV float32, heaterCfg wbconfig.HeaterConfig, pwm ports.HeaterPWM) {
	c.heaterStableTimer.tick()
	c.preheatTimer.tick()
	c.warmupTimer.tick()
	c.closedLoopStableTimer.tick()
	c.underheatTimer.tick()
	c.overheatTimer.tick()
	c.retryTimer.tick()

	snap := sampler.Get()

	supplyV := snap.InternalHeaterVoltageV
	if supplyV == 0 {
		supplyV = remoteBatteryV
	}

	c.state = c.nextState(heaterAllow, supplyV, snap.SensorTemperatureC, heaterCfg)
	voltage := c.voltageForState(c.state, snap.SensorESROhm)

	if voltage > maxHeaterVoltage {
		voltage = maxHeaterVoltage
	}
	c.effectiveV = voltage

	if supplyV < lowSupplyVoltage {
		supplyV = maxHeaterVoltage
	}

	var ratio float32
	if supplyV >= 1.0 {
		ratio = voltage / supplyV
	}
	duty := ratio * ratio

	if c.maxDutyEnabled {
		c.dutyCycle++
		if c.dutyCycle%10 == 0 && duty > c.maxDuty {
			duty = c.maxDuty
		}
	}

	if supplyV >= overVoltageShutdown {
		duty = 0
	}

	if duty < 0 {
		duty = 0
	} else if duty > 1 {
		duty = 1
	}

	c.lastDuty = duty
	pwm.SetDuty(duty)
}

// Duty returns the most recently commanded PWM duty cycle.
func (c *Controller) Duty() float32 { return c.lastDuty }

// Status maps the current state to the process-wide status enum used
// in CAN telemetry.
func (c *Controller) Status() wbostatus.Status {
	switch c.state {
	case Preheat:
		return wbostatus.Preheat
	case WarmupRamp:
		return wbostatus.Warmup
	case ClosedLoop:
		return wbostatus.RunningClosedLoop
	case Stopped:
		return c.stopCause
	default:
		return wbostatus.Preheat
	}
}
