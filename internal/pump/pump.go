// Package pump implements the pump-current PID controller and the
// sensor-presence detector, grounded on the original firmware's
// pump_control.cpp PumpThread/SensorDetector.
package pump

import (
	"wbo-ecu-core/internal/pid"
	"wbo-ecu-core/internal/ports"
)

const (
	// PeriodMS is the pump loop's tick period; it runs at 500 Hz.
	PeriodMS      = 2
	periodSeconds = float32(PeriodMS) / 1000

	// NernstTargetV is the Nernst cell voltage the PID holds, the
	// Nernst-null point where the pump current tracks lambda.
	NernstTargetV = 0.45

	// StartPumpTempOffsetC gates full closed-loop pump actuation: the
	// pump runs once the sensor is within this many degrees of target
	// temperature, in addition to running unconditionally once the
	// heater is in closed loop.
	StartPumpTempOffsetC = 200

	// StartSensorDetectionTempOffsetC gates the sensor-presence
	// detector: it runs once the sensor is within this many degrees of
	// target, a wider window than StartPumpTempOffsetC so presence can
	// be probed before the sensor is hot enough to pump safely.
	StartSensorDetectionTempOffsetC = 400

	// SensorPresentAmplitudeThresholdV is the peak-to-peak Nernst swing
	// (over one detector cycle) above which a sensor is considered
	// connected.
	SensorPresentAmplitudeThresholdV = 0.05

	detectorHalfCycleTicks = 25
	detectorFullCycleTicks = 50
	detectorProbeCurrentUA = 1000
)

// Config is the pump PID's fixed gains, per the original firmware's
// pumpPidConfig.
var Config = pid.Config{Kp: 50, Ki: 10000, Kd: 0, Clamp: 10}

// SensorDetector probes for a connected sensor by alternating the
// pump current target and watching the resulting Nernst swing, used
// while the sensor is too cold to pump safely but warm enough to
// probe.
type SensorDetector struct {
	cycle        int
	nernstHi     float32
	nernstLo     float32
	maxAmplitude float32
}

// Feed advances the detector by one tick: it commands dac with the
// alternating probe current and records the resulting Nernst reading.
func (d *SensorDetector) Feed(nernst float32, dac ports.PumpDAC) {
	if d.cycle < detectorHalfCycleTicks {
		dac.SetCurrentMicroamps(detectorProbeCurrentUA)
		d.nernstHi = nernst
	} else {
		dac.SetCurrentMicroamps(-detectorProbeCurrentUA)
		d.nernstLo = nernst
	}

	d.cycle++
	if d.cycle >= detectorFullCycleTicks {
		amplitude := absf(d.nernstHi - d.nernstLo)
		if amplitude > d.maxAmplitude {
			d.maxAmplitude = amplitude
		}
		d.cycle = 0
	}
}

// Reset clears all detector state, as when the sensor cools below the
// detection window.
func (d *SensorDetector) Reset() {
	*d = SensorDetector{}
}

// Present reports whether the largest amplitude seen so far indicates
// a connected sensor.
func (d *SensorDetector) Present() bool {
	return d.maxAmplitude > SensorPresentAmplitudeThresholdV
}

func absf(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

// Controller drives one AFR channel's pump cell.
type Controller struct {
	pid          *pid.Controller
	detector     SensorDetector
	GainAdjust   float32
	lastCurrentUA float32
}

// New creates a Controller with the default gain adjust of 1.0.
func New() *Controller {
	return &Controller{pid: pid.New(Config), GainAdjust: 1.0}
}

// SetGainAdjust applies the CAN-commanded pump_gain_adjust trim,
// clamped to [0, 1].
func (c *Controller) SetGainAdjust(v float32) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	c.GainAdjust = v
}

// Detector exposes the sensor-presence detector for status reporting.
func (c *Controller) Detector() *SensorDetector { return &c.detector }

// LastCurrentMA returns the most recently commanded pump current, for
// telemetry that reports pump output without re-deriving it.
func (c *Controller) LastCurrentMA() float32 { return c.lastCurrentUA / 1000 }

// OutputDuty normalizes the last commanded current into [0, 1] against
// the PID's clamp range, the closest equivalent to the original
// firmware's board-specific "pump output duty" telemetry field.
func (c *Controller) OutputDuty() float32 {
	duty := (c.lastCurrentUA/1000 + Config.Clamp) / (2 * Config.Clamp)
	if duty < 0 {
		return 0
	}
	if duty > 1 {
		return 1
	}
	return duty
}

// Update runs one 500 Hz tick: closed-loop pump current when hot
// enough, sensor-presence probing in a wider warm-up window, or a
// parked zero-current state otherwise.
func (c *Controller) Update(heaterClosedLoop bool, targetTempC float32, snapshot ports.SensorSnapshot, dac ports.PumpDAC) {
	switch {
	case heaterClosedLoop || snapshot.SensorTemperatureC >= targetTempC-StartPumpTempOffsetC:
		resultMA := c.GainAdjust * c.pid.Update(NernstTargetV, snapshot.NernstDC, periodSeconds)
		c.lastCurrentUA = resultMA * 1000
		dac.SetCurrentMicroamps(c.lastCurrentUA)
		c.detector.Reset()
	case snapshot.SensorTemperatureC >= targetTempC-StartSensorDetectionTempOffsetC:
		c.detector.Feed(snapshot.NernstDC, dac)
	default:
		c.detector.Reset()
		c.lastCurrentUA = 0
		dac.SetCurrentMicroamps(0)
		c.pid.Reset()
	}
}
