package canbus

import (
	"wbo-ecu-core/internal/afrchannel"
	"wbo-ecu-core/internal/ports"
	"wbo-ecu-core/internal/wbconfig"
	"wbo-ecu-core/internal/wbostatus"
)

type emtronAfrStatus uint8

const (
	emtronOff                         emtronAfrStatus = 0
	emtronNormalOperation              emtronAfrStatus = 1
	emtronSensorWarmingUp              emtronAfrStatus = 2
	emtronHeaterUnderTemperature       emtronAfrStatus = 14
	emtronHeaterOverTemperature        emtronAfrStatus = 15
	emtronSensorShutdownThermalShock   emtronAfrStatus = 16
)

func emtronStatusFor(s wbostatus.Status) emtronAfrStatus {
	switch s {
	case wbostatus.Preheat, wbostatus.Warmup:
		return emtronSensorWarmingUp
	case wbostatus.RunningClosedLoop:
		return emtronNormalOperation
	case wbostatus.SensorDidntHeat, wbostatus.SensorUnderheat:
		return emtronHeaterUnderTemperature
	case wbostatus.SensorOverheat:
		return emtronHeaterOverTemperature
	case wbostatus.SensorShutdownThermalShock:
		return emtronSensorShutdownThermalShock
	default:
		return emtronOff
	}
}

// emtronAllFaultsOk is the fault-nibble byte with all four 2-bit
// status fields set to their Ok value (3), since this implementation
// models no per-subsystem short/open fault detection.
const emtronAllFaultsOk byte = 0xFF

// EncodeEmtronAfr builds the Emtron AFR frame: lambda, pump current,
// fault nibbles (always Ok), derived status, heater duty.
func EncodeEmtronAfr(ch *afrchannel.Channel, settings wbconfig.ChannelSettings, status wbostatus.Status) ports.CANFrame {
	id := emtronELCBaseID + uint32(settings.ExtraCanIdOffset)
	snap := ch.Sampler.Get()
	lambdaValue := ch.Lambda()

	var b frameBuilder
	b.putU8(0, 0)
	if ch.LambdaValid() {
		b.putU16(1, clampU16(lambdaValue*1000))
	}
	b.putU16(3, clampU16(snap.PumpNominalCurrentMA*1000))
	b.putU8(5, emtronAllFaultsOk)
	b.putU8(6, byte(emtronStatusFor(status)))
	b.putU8(7, clampU8(ch.Heater.Duty()*100))

	return extFrame(id, b.bytes())
}

// EncodeEmtronEgt builds the Emtron ETC4 frame: four 12-bit
// temperature fields offset by 50 C, packed low-bit-first across six
// bytes, plus a cold-junction byte.
func EncodeEmtronEgt(egtSettings wbconfig.ChannelSettings, drivers []ports.EGTDriver) ports.CANFrame {
	id := emtronETC4BaseID + uint32(egtSettings.ExtraCanIdOffset)

	var vals [4]uint16
	for i := 0; i < 4 && i < len(drivers); i++ {
		t := drivers[i].TemperatureC() + 50
		if t < 0 {
			t = 0
		} else if t > 4095 {
			t = 4095
		}
		vals[i] = uint16(t)
	}

	var buf [8]byte
	buf[0] = byte(vals[0])
	buf[1] = byte(vals[0]>>8) | byte(vals[1]<<4)
	buf[2] = byte(vals[1] >> 4)
	buf[3] = byte(vals[2])
	buf[4] = byte(vals[2]>>8) | byte(vals[3]<<4)
	buf[5] = byte(vals[3] >> 4)
	if len(drivers) > 0 {
		buf[6] = clampU8(drivers[0].ColdJunctionC())
	}

	return extFrame(id, buf[:])
}
