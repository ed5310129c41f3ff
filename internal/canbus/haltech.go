package canbus

import (
	"wbo-ecu-core/internal/afrchannel"
	"wbo-ecu-core/internal/ports"
	"wbo-ecu-core/internal/wbconfig"
)

func haltechAfrID(offset uint8) uint32 {
	switch offset {
	case 1:
		return haltechWB2BaseID + 4
	case 2:
		return haltechWB2BaseID + 6
	case 3:
		return haltechWB2BaseID + 8
	default:
		return haltechWB2BaseID
	}
}

// EncodeHaltechAfr builds one Haltech WB2 frame carrying up to two
// channels. ch2 is nil when the paired channel isn't
// configured for Haltech, matching the original's "read it as well
// for dual sensor setups" behavior.
func EncodeHaltechAfr(ch1 *afrchannel.Channel, settings1 wbconfig.ChannelSettings, ch2 *afrchannel.Channel) ports.CANFrame {
	id := haltechAfrID(settings1.ExtraCanIdOffset)

	snap1 := ch1.Sampler.Get()
	lambda1 := ch1.Lambda()
	valid1 := ch1.LambdaValid()

	var b frameBuilder
	if valid1 {
		b.putU16(0, clampU16(lambda1*1024))
	}
	if ch2 != nil {
		snap2 := ch2.Sampler.Get()
		lambda2 := ch2.Lambda()
		if ch2.LambdaValid() {
			b.putU16(2, clampU16(lambda2*1024))
		}
		b.putU8(5, clampU8(snap2.SensorESROhm))
	}
	b.putU8(4, clampU8(snap1.SensorESROhm))
	b.putU8(6, 0) // sensor-fault nibbles: no fault modelled
	b.putU8(7, clampU8(snap1.InternalHeaterVoltageV*255.0/20.0))

	return extFrame(id, b.bytes())
}

// EncodeHaltechEgt builds the Haltech TC box frame, scaled by the
// vendor's documented multiplier/divider/offset (2381/5850/-250).
func EncodeHaltechEgt(egtSettings wbconfig.ChannelSettings, drivers []ports.EGTDriver) ports.CANFrame {
	id := haltechTCABaseID + uint32(egtSettings.ExtraCanIdOffset)

	var b frameBuilder
	for i, d := range drivers {
		if i >= 4 {
			break
		}
		scaled := (d.TemperatureC() + 250.0) * 5850.0 / 2381.0
		b.putI16(i*2, clampI16(scaled))
	}
	return extFrame(id, b.bytes())
}
