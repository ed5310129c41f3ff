// Package wbostatus holds the small enums shared across the heater, pump
// and CAN packages so none of them need to import each other just to
// describe a state.
package wbostatus

// Status is the externally-visible condition of one AFR channel, carried
// in diagnostic CAN frames and used to pick vendor-protocol status codes.
type Status uint8

const (
	Preheat Status = iota
	Warmup
	RunningClosedLoop
	SensorDidntHeat
	SensorOverheat
	SensorUnderheat
	SensorShutdownThermalShock
)

func (s Status) String() string {
	switch s {
	case Preheat:
		return "Preheat"
	case Warmup:
		return "Warmup"
	case RunningClosedLoop:
		return "RunningClosedLoop"
	case SensorDidntHeat:
		return "SensorDidntHeat"
	case SensorOverheat:
		return "SensorOverheat"
	case SensorUnderheat:
		return "SensorUnderheat"
	case SensorShutdownThermalShock:
		return "SensorShutdownThermalShock"
	default:
		return "Unknown"
	}
}

// HeaterAllow is the CAN-commanded permission to energize a heater,
// typically gated by the ECU on "engine running".
type HeaterAllow uint8

const (
	Unknown HeaterAllow = iota
	Allowed
	NotAllowed
)

func (h HeaterAllow) String() string {
	switch h {
	case Allowed:
		return "Allowed"
	case NotAllowed:
		return "NotAllowed"
	default:
		return "Unknown"
	}
}

// SensorType identifies the Bosch LSU variant driven by a channel. Values
// are frozen: they are stored in the configuration ABI (see wbconfig).
type SensorType uint8

const (
	LSU49 SensorType = iota
	LSU42
	LSUADV
)

func (s SensorType) String() string {
	switch s {
	case LSU49:
		return "LSU4.9"
	case LSU42:
		return "LSU4.2"
	case LSUADV:
		return "LSU-ADV"
	default:
		return "Unknown"
	}
}

// TargetTempC returns the closed-loop target sensor temperature for the
// sensor type, per spec.
func (s SensorType) TargetTempC() float32 {
	switch s {
	case LSUADV:
		return 785
	case LSU42:
		return 730
	default:
		return 780
	}
}

// CanProtocol is the per-channel extra vendor CAN protocol, stored as a
// 3-bit field in the configuration ABI. The internal protocol is always
// emitted independent of this selection.
type CanProtocol uint8

const (
	CanProtocolNone CanProtocol = iota
	CanProtocolAemNet
	CanProtocolEcuMasterClassic
	CanProtocolEcuMasterBlack
	CanProtocolHaltech
	CanProtocolLinkEcu
	CanProtocolEmtron
	CanProtocolMotec
)

func (p CanProtocol) String() string {
	switch p {
	case CanProtocolAemNet:
		return "AemNet"
	case CanProtocolEcuMasterClassic:
		return "EcuMasterClassic"
	case CanProtocolEcuMasterBlack:
		return "EcuMasterBlack"
	case CanProtocolHaltech:
		return "Haltech"
	case CanProtocolLinkEcu:
		return "LinkEcu"
	case CanProtocolEmtron:
		return "Emtron"
	case CanProtocolMotec:
		return "Motec"
	default:
		return "None"
	}
}

// AuxOutputMode selects the source quantity for one of the two analog
// auxiliary outputs.
type AuxOutputMode uint8

const (
	AuxAfr0 AuxOutputMode = iota
	AuxAfr1
	AuxLambda0
	AuxLambda1
	AuxEgt0
	AuxEgt1
)
