// Package afrchannel wires one AFR channel's heater controller, pump
// controller and lambda derivation together, and hosts the validity
// and O2% helpers every CAN encoder shares instead of re-deriving them
// per protocol (the original firmware recomputed both inline in each
// of its encoder files).
package afrchannel

import (
	"wbo-ecu-core/internal/heater"
	"wbo-ecu-core/internal/lambda"
	"wbo-ecu-core/internal/ports"
	"wbo-ecu-core/internal/pump"
	"wbo-ecu-core/internal/wbostatus"
)

// Channel owns the heater and pump controllers for one sensor and the
// hardware ports that serve it.
type Channel struct {
	Index int

	Heater *heater.Controller
	Pump   *pump.Controller

	Sampler ports.Sampler
	DAC     ports.PumpDAC
	PWM     ports.HeaterPWM

	SensorType wbostatus.SensorType
}

// New builds a Channel with fresh heater/pump controllers targeting
// sensor's rated operating temperature.
func New(index int, sensor wbostatus.SensorType, targetEsr float32, sampler ports.Sampler, dac ports.PumpDAC, pwm ports.HeaterPWM) *Channel {
	return &Channel{
		Index:      index,
		Heater:     heater.New(sensor.TargetTempC(), targetEsr),
		Pump:       pump.New(),
		Sampler:    sampler,
		DAC:        dac,
		PWM:        pwm,
		SensorType: sensor,
	}
}

// Lambda derives this channel's current lambda reading from the
// sensor's pump-current table.
func (c *Channel) Lambda() float32 {
	snap := c.Sampler.Get()
	return lambda.FromPumpCurrent(c.SensorType, snap.PumpNominalCurrentMA)
}

// LambdaValid implements the validity gate shared by every CAN
// encoder: lambda is trustworthy only when it's at least 0.6, the
// heater is in closed loop, and the Nernst cell sits near its target
// voltage.
func (c *Channel) LambdaValid() bool {
	snap := c.Sampler.Get()
	lambdaValue := lambda.FromPumpCurrent(c.SensorType, snap.PumpNominalCurrentMA)

	const window = 0.1
	return lambdaValue >= 0.6 &&
		c.Heater.IsRunningClosedLoop() &&
		snap.NernstDC > pump.NernstTargetV-window &&
		snap.NernstDC < pump.NernstTargetV+window
}

// OxygenPercent derives O2% from lambda when a protocol doesn't carry
// it directly from the sensor, per the shared
// O2%=(lambda-1)/lambda*20.95 formula the original repeated inline in
// its AEMNet and EcuMaster encoders.
func OxygenPercent(lambdaValue float32, valid bool) float32 {
	if !valid || lambdaValue == 0 {
		return 0
	}
	return (lambdaValue - 1) / lambdaValue * 20.95
}
