package canbus

import (
	"wbo-ecu-core/internal/afrchannel"
	"wbo-ecu-core/internal/heater"
	"wbo-ecu-core/internal/ports"
	"wbo-ecu-core/internal/wbconfig"
)

type linkEcuAfrStatus uint8

const (
	linkEcuOff linkEcuAfrStatus = iota
	linkEcuDisabled
	linkEcuInitializing
	linkEcuDiagnostic
	linkEcuCalibration
	linkEcuHeating
	linkEcuOperating
)

func linkEcuStatusFor(state heater.State) linkEcuAfrStatus {
	switch state {
	case heater.Preheat, heater.WarmupRamp:
		return linkEcuHeating
	case heater.ClosedLoop:
		return linkEcuOperating
	default:
		return linkEcuDisabled
	}
}

// EncodeLinkEcuAfr builds the two-frame LinkEcu AFR pair: AfrData1
// (lambda, sensor temp, status) and AfrData2 (pump current, system
// voltage, heater voltage), both at the same id.
func EncodeLinkEcuAfr(ch *afrchannel.Channel, settings wbconfig.ChannelSettings) [2]ports.CANFrame {
	id := linkEcuAfrBaseID + uint32(settings.ExtraCanIdOffset)
	snap := ch.Sampler.Get()
	lambdaValue := ch.Lambda()
	valid := ch.LambdaValid()

	var b1 frameBuilder
	b1.putU8(0, 50)
	if valid {
		b1.putU16(2, clampU16(lambdaValue*1000))
	}
	b1.putU16(4, clampU16(snap.SensorTemperatureC))
	b1.putU8(6, byte(linkEcuStatusFor(ch.Heater.State())))

	var b2 frameBuilder
	b2.putU8(0, 51)
	b2.putU16(2, clampU16(snap.PumpNominalCurrentMA*1000))
	b2.putU16(4, clampU16(snap.InternalHeaterVoltageV*100))
	b2.putU16(6, clampU16(ch.Heater.EffectiveVoltage()*100))

	return [2]ports.CANFrame{extFrame(id, b1.bytes()), extFrame(id, b2.bytes())}
}

// EncodeLinkEcuAck builds the LinkEcu acknowledgement frame sent
// after a set-index request, at the original firmware's
// base-plus-received-id address.
func EncodeLinkEcuAck(receivedID uint32, idOK, busFreqOK bool) ports.CANFrame {
	var b frameBuilder
	b.putU8(0, 24)
	if idOK {
		b.putU8(1, 0x01)
	} else {
		b.putU8(1, 0xFF)
	}
	if busFreqOK {
		b.putU8(2, 0x01)
	} else {
		b.putU8(2, 0xFF)
	}
	return extFrame(linkEcuAfrBaseID+receivedID, b.bytes())
}

// linkEcuMCUTempC is a placeholder for the board's MCU temperature
// sensor, which has no corresponding contract in this module's six
// hardware ports.
const linkEcuMCUTempC = 35.0

// EncodeLinkEcuEgt builds the three LinkEcu TC-box frames: EgtData1
// (four channels /4), EgtData3 (supply voltage and chip temp; its
// two EGT slots are left zero, matching the original's unfilled
// struct), and EgtStatus (all-Ok placeholder, per-channel fault
// detection not modelled).
func EncodeLinkEcuEgt(drivers []ports.EGTDriver, supplyV float32) [3]ports.CANFrame {
	var b1 frameBuilder
	for i, d := range drivers {
		if i >= 4 {
			break
		}
		b1.putI16(i*2, clampI16(d.TemperatureC()/4))
	}

	var b2 frameBuilder
	b2.putU8(6, clampU8(supplyV/10))
	b2.putU8(7, clampU8(linkEcuMCUTempC))

	var b3 frameBuilder

	return [3]ports.CANFrame{
		extFrame(linkEcuTCCxxBaseID, b1.bytes()),
		extFrame(linkEcuTCCxxData3ID, b2.bytes()),
		extFrame(linkEcuTCCxxStatID, b3.bytes()),
	}
}
