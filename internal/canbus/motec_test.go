package canbus

import (
	"testing"

	"wbo-ecu-core/internal/heater"
	"wbo-ecu-core/internal/wbconfig"
	"wbo-ecu-core/internal/wbostatus"
)

func TestMotecSensorStateForMapsHeaterStates(t *testing.T) {
	cases := map[heater.State]motecSensorState{
		heater.Preheat:    motecHeating,
		heater.WarmupRamp: motecHeating,
		heater.ClosedLoop: motecRunning,
		heater.Stopped:    motecPaused,
	}
	for state, want := range cases {
		if got := motecSensorStateFor(state); got != want {
			t.Fatalf("motecSensorStateFor(%v) = %v, want %v", state, got, want)
		}
	}
}

func TestEncodeMotecAfrThreeFramesShareID(t *testing.T) {
	sampler := fakeSampler{}
	ch := afrchannelClosedLoop(sampler, wbostatus.LSU49)

	frames := EncodeMotecAfr(ch, wbconfig.ChannelSettings{}, wbostatus.RunningClosedLoop)
	for i, f := range frames {
		if f.ID != frames[0].ID {
			t.Fatalf("frame %d id = %#x, want %#x (all three share the motec LTC id)", i, f.ID, frames[0].ID)
		}
		if f.Data[0] != byte(i) {
			t.Fatalf("frame %d CompoundId byte = %d, want %d", i, f.Data[0], i)
		}
	}
}

func TestEncodeMotecAfrSensorFailedToHeatFaultBit(t *testing.T) {
	sampler := fakeSampler{}
	ch := afrchannelClosedLoop(sampler, wbostatus.LSU49)

	frames := EncodeMotecAfr(ch, wbconfig.ChannelSettings{}, wbostatus.SensorDidntHeat)
	if frames[0].Data[6]&(1<<3) == 0 {
		t.Fatalf("SensorFailedToHeat fault bit not set on SensorDidntHeat status")
	}
}

func TestEncodeMotecEgtPairIndexCompoundID(t *testing.T) {
	f := EncodeMotecEgt(1, wbconfig.ChannelSettings{}, fakeEGTDrivers(100, 200, 300, 400))
	if f.Data[0]&0x7 != 1 {
		t.Fatalf("CompoundId nibble = %d, want 1", f.Data[0]&0x7)
	}
}

func TestEncodeMotecEgtValue2IsBigEndianI16TimesFour(t *testing.T) {
	drivers := fakeEGTDrivers(0, 250)
	f := EncodeMotecEgt(0, wbconfig.ChannelSettings{}, drivers)
	got := int16(uint16(f.Data[2])<<8 | uint16(f.Data[3]))
	if got != clampI16(250*4) {
		t.Fatalf("value2 = %d, want %d", got, clampI16(250*4))
	}
}

func TestEncodeMotecEgtMissingSecondChannelLeavesValue2Zero(t *testing.T) {
	f := EncodeMotecEgt(0, wbconfig.ChannelSettings{}, fakeEGTDrivers(100))
	if f.Data[2] != 0 || f.Data[3] != 0 {
		t.Fatalf("value2 bytes = %x %x, want zero with no second driver", f.Data[2], f.Data[3])
	}
}
