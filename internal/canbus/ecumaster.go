package canbus

import (
	"wbo-ecu-core/internal/afrchannel"
	"wbo-ecu-core/internal/ports"
	"wbo-ecu-core/internal/wbconfig"
	"wbo-ecu-core/internal/wbostatus"
)

// ecuMasterDeviceVersion maps a sensor type onto the 3-bit
// DeviceVersion field EcuMaster's AfrData1 carries.
func ecuMasterDeviceVersion(s wbostatus.SensorType) byte {
	switch s {
	case wbostatus.LSU42:
		return 0
	case wbostatus.LSUADV:
		return 2
	default:
		return 1 // LSU4.9
	}
}

// ecuMasterCalibrationFinished is the 3-bit CalibrationState value
// this encoder always reports, since this implementation has no
// separate calibration phase to report mid-flight.
const ecuMasterCalibrationFinished = 2

// EncodeEcuMasterAfr builds the two-frame EcuMaster AFR pair:
// AfrData1 (system volts, heater duty, sensor temp, lambda, fault
// bits) at id, AfrData2 (pump current, O2%, ESR) at id+1.
func EncodeEcuMasterAfr(ch *afrchannel.Channel, settings wbconfig.ChannelSettings) [2]ports.CANFrame {
	id := ecuMasterBaseID + uint32(settings.ExtraCanIdOffset)*2
	snap := ch.Sampler.Get()
	lambdaValue := ch.Lambda()
	valid := ch.LambdaValid()

	var b1 frameBuilder
	b1.putU16(0, clampU16(snap.InternalHeaterVoltageV*100))
	b1.putU8(2, clampU8(ch.Heater.Duty()*255))
	b1.putU8(3, clampU8(snap.SensorTemperatureC/4))
	if valid {
		b1.putU16(4, clampU16(lambdaValue*1000))
	}
	b1.putU8(6, 0) // no modelled short/open fault bits
	// Byte 7 bitfield, LSB first: HeaterShortGnd:1, HeaterOpenLoad:1,
	// CalibrationState:3, DeviceVersion:3. Neither fault bit is
	// modelled, so both sit at 0.
	b1.putU8(7, (ecuMasterCalibrationFinished&0x7)<<2|(ecuMasterDeviceVersion(ch.SensorType)&0x7)<<5)

	var b2 frameBuilder
	b2.putI16(0, clampI16(snap.PumpNominalCurrentMA*1000))
	oxygenPercent := afrchannel.OxygenPercent(lambdaValue, valid)
	b2.putI16(2, clampI16(oxygenPercent*100))
	b2.putU16(4, clampU16(snap.SensorESROhm*10))

	return [2]ports.CANFrame{extFrame(id, b1.bytes()), extFrame(id+1, b2.bytes())}
}

// EncodeEcuMasterEgt builds the EcuMaster EGT frame; base is Classic
// or Black depending on egtSettings.ExtraCanProtocol.
func EncodeEcuMasterEgt(egtSettings wbconfig.ChannelSettings, drivers []ports.EGTDriver) ports.CANFrame {
	base := uint32(ecuMasterClassicEGTBase)
	if egtSettings.ExtraCanProtocol == wbostatus.CanProtocolEcuMasterBlack {
		base = ecuMasterBlackEGTBase
	}
	id := base + uint32(egtSettings.ExtraCanIdOffset)

	var b frameBuilder
	for i, d := range drivers {
		if i >= 4 {
			break
		}
		b.putI16(i*2, clampI16(d.TemperatureC()))
	}
	return extFrame(id, b.bytes())
}
