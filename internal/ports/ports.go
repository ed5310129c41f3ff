// Package ports declares the narrow contracts this module expects from
// its hardware collaborators: the ADC/DAC/GPIO/CAN peripheral drivers,
// the thermocouple chip driver, and non-volatile storage. None of
// those are implemented here — internal/boards provides the TinyGo
// bring-up that satisfies them on real hardware, and tests supply
// hand-rolled fakes. This mirrors the teacher's machine-package
// boundary in main.go, generalized to interfaces so the control loops
// never import "machine" directly.
package ports

// Sampler is the per-sensor analog snapshot produced by the
// ADC-owning task. Implementations must make Get safe to call
// concurrently with the producer updating it.
type Sampler interface {
	Get() SensorSnapshot
}

// SensorSnapshot is a point-in-time read of one sensor's analog state.
type SensorSnapshot struct {
	NernstDC               float32 // volts
	PumpNominalCurrentMA   float32 // milliamps
	SensorESROhm           float32 // ohms
	SensorTemperatureC     float32 // degrees C
	InternalHeaterVoltageV float32 // volts, the supply rail seen by the heater PWM
}

// PumpDAC drives the pump cell to a target current.
type PumpDAC interface {
	SetCurrentMicroamps(ua float32)
}

// HeaterPWM drives the heater element at a duty cycle in [0, 1].
type HeaterPWM interface {
	SetDuty(duty float32)
}

// CANFrame is a single CAN message, standard (11-bit) or extended
// (29-bit) identifier, payload up to 8 bytes.
type CANFrame struct {
	ID       uint32
	Extended bool
	Data     []byte
}

// CANTransport sends and receives framed CAN messages. Receive blocks
// until a frame arrives, matching the original firmware's blocking RX
// thread.
type CANTransport interface {
	Send(f CANFrame) error
	Receive() (CANFrame, error)
}

// EGTDriver exposes one thermocouple channel's hot-junction and
// cold-junction readings, as from a MAX3185x-family chip.
type EGTDriver interface {
	TemperatureC() float32
	ColdJunctionC() float32
}

// NonvolatileStore reads and writes the fixed-size configuration blob
// at whatever offset the board layer has reserved for it.
type NonvolatileStore interface {
	Read(buf []byte) error
	Write(buf []byte) error
}
