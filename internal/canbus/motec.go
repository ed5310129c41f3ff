package canbus

import (
	"wbo-ecu-core/internal/afrchannel"
	"wbo-ecu-core/internal/heater"
	"wbo-ecu-core/internal/ports"
	"wbo-ecu-core/internal/wbconfig"
	"wbo-ecu-core/internal/wbostatus"
)

type motecSensorState uint8

const (
	motecHeating motecSensorState = 6
	motecRunning motecSensorState = 7
	motecPaused  motecSensorState = 8
)

func motecSensorStateFor(state heater.State) motecSensorState {
	switch state {
	case heater.Preheat, heater.WarmupRamp:
		return motecHeating
	case heater.ClosedLoop:
		return motecRunning
	default:
		return motecPaused
	}
}

// motecLTCInternalTempC is a placeholder for the LTC module's own
// case temperature, which has no corresponding contract in this
// module's six hardware ports.
const motecLTCInternalTempC = 35

// EncodeMotecAfr builds the three-frame MOTEC LTC AFR group:
// AfrData1 (lambda, normalized pump current, heater fault bit,
// duty), AfrData2 (sensor state, battery, raw pump current, ESR),
// AfrData3 (static firmware/serial identity).
func EncodeMotecAfr(ch *afrchannel.Channel, settings wbconfig.ChannelSettings, status wbostatus.Status) [3]ports.CANFrame {
	id := motecLTCBaseID + uint32(settings.ExtraCanIdOffset)
	snap := ch.Sampler.Get()
	lambdaValue := ch.Lambda()

	var b1 frameBuilder
	b1.putU8(0, 0)
	if ch.LambdaValid() {
		b1.putU16(1, clampU16(lambdaValue*1000))
	}
	b1.putU16(3, clampU16(snap.PumpNominalCurrentMA*1000))
	b1.putU8(5, clampU8(motecLTCInternalTempC))
	var faults byte
	if status == wbostatus.SensorDidntHeat {
		faults |= 1 << 3 // SensorFailedToHeat
	}
	b1.putU8(6, faults)
	b1.putU8(7, clampU8(ch.Heater.Duty()*100))

	var b2 frameBuilder
	b2.putU8(0, 1)
	b2.putU8(1, byte(motecSensorStateFor(ch.Heater.State())))
	b2.putU16(2, clampU16(snap.InternalHeaterVoltageV*100))
	b2.putU16(4, clampU16(snap.PumpNominalCurrentMA*1000))
	b2.putU16(6, clampU16(snap.SensorESROhm))

	var b3 frameBuilder
	b3.putU8(0, 2)
	b3.putU8(1, 0) // firmware letter "A"
	b3.putU16(2, 100)
	b3.putU16(4, 0)

	return [3]ports.CANFrame{extFrame(id, b1.bytes()), extFrame(id, b2.bytes()), extFrame(id, b3.bytes())}
}

// EncodeMotecEgt builds the MOTEC E888 frame for one channel pair
// (ch, ch+1), packing a 3-bit compound id and 13-bit value into the
// first two bytes and the second channel's value as a big-endian i16
// in bytes 2-3; bytes 4-7 stay zero.
func EncodeMotecEgt(pairIndex int, egtSettings wbconfig.ChannelSettings, drivers []ports.EGTDriver) ports.CANFrame {
	id := motecE888BaseID + uint32(egtSettings.ExtraCanIdOffset)

	compoundID := byte(pairIndex) & 0x7
	first := pairIndex * 2

	var value1 uint16
	if first < len(drivers) {
		t := drivers[first].TemperatureC() * 4
		if t < 0 {
			t = 0
		} else if t > 8191 {
			t = 8191
		}
		value1 = uint16(t)
	}

	var buf [8]byte
	buf[0] = (byte(value1) << 3) | compoundID
	buf[1] = byte(value1 >> 5)

	if first+1 < len(drivers) {
		v2 := clampI16(drivers[first+1].TemperatureC() * 4)
		buf[2] = byte(v2 >> 8)
		buf[3] = byte(v2)
	}

	return extFrame(id, buf[:])
}
