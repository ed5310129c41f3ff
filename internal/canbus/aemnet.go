package canbus

import (
	"wbo-ecu-core/internal/afrchannel"
	"wbo-ecu-core/internal/ports"
	"wbo-ecu-core/internal/wbconfig"
	"wbo-ecu-core/internal/wbostatus"
)

// EncodeAemNetUEGO builds the AEMNet UEGO frame: lambda, derived O2%,
// system volts, and a flags byte carrying sensor-type/validity.
func EncodeAemNetUEGO(ch *afrchannel.Channel, settings wbconfig.ChannelSettings) ports.CANFrame {
	id := aemNetUEGOBaseID + uint32(settings.ExtraCanIdOffset)

	snap := ch.Sampler.Get()
	lambdaValue := ch.Lambda()
	valid := ch.LambdaValid()
	oxygenPercent := afrchannel.OxygenPercent(lambdaValue, valid)

	var b frameBuilder
	if valid {
		b.putU16(0, clampU16(lambdaValue*10000))
	}
	b.putI16(2, clampI16(oxygenPercent*1000))
	b.putU8(4, clampU8(snap.InternalHeaterVoltageV*10))

	var flags byte
	if ch.SensorType == wbostatus.LSU49 {
		flags |= 0x02
	}
	if valid {
		flags |= 0x80
	}
	b.putU8(6, flags)

	return extFrame(id, b.bytes())
}

// EncodeAemNetEGT builds the AEMNet 8-channel K-type module frame.
// AEMNet only accepts two units (offset 0 or 1); any other offset is
// not representable and ok reports false.
func EncodeAemNetEGT(settings wbconfig.ChannelSettings, drivers []ports.EGTDriver) (frame ports.CANFrame, ok bool) {
	var id uint32
	switch settings.ExtraCanIdOffset {
	case 0:
		id = aemNetEGT1BaseID
	case 1:
		id = aemNetEGT2BaseID
	default:
		return ports.CANFrame{}, false
	}

	var b frameBuilder
	for i, d := range drivers {
		if i >= 4 {
			break
		}
		b.putI16(i*2, clampI16(d.TemperatureC()*10))
	}
	return extFrame(id, b.bytes()), true
}
