package canbus

import (
	"testing"

	"wbo-ecu-core/internal/ports"
	"wbo-ecu-core/internal/wbconfig"
	"wbo-ecu-core/internal/wbostatus"
)

// TestAemNetUEGOStoichFrame mirrors the scenario fixture: at lambda
// 1.000 the encoder must produce {0x27, 0x10, 0x00, 0x00, V*10, 0x00,
// flags, 0x00} with flags 0x82 for an LSU4.9 sensor reporting valid.
func TestAemNetUEGOStoichFrame(t *testing.T) {
	sampler := fakeSampler{snap: ports.SensorSnapshot{NernstDC: 0.45, PumpNominalCurrentMA: 0, SensorTemperatureC: 780, InternalHeaterVoltageV: 1.4}}
	ch := closedLoopChannel(sampler)

	f := EncodeAemNetUEGO(ch, wbconfig.ChannelSettings{})

	want := []byte{0x27, 0x10, 0x00, 0x00, byte(sampler.snap.InternalHeaterVoltageV * 10), 0x00, 0x82, 0x00}
	for i, b := range want {
		if f.Data[i] != b {
			t.Fatalf("byte %d = %#x, want %#x (full frame %v)", i, f.Data[i], b, f.Data)
		}
	}
}

func TestAemNetUEGONonLSU49ValidFlagIsJust0x80(t *testing.T) {
	sampler := fakeSampler{snap: ports.SensorSnapshot{NernstDC: 0.45, SensorTemperatureC: 785}}
	ch := afrchannelClosedLoop(sampler, wbostatus.LSUADV)

	f := EncodeAemNetUEGO(ch, wbconfig.ChannelSettings{})
	if f.Data[6] != 0x80 {
		t.Fatalf("flags = %#x, want 0x80 for a non-LSU4.9 sensor", f.Data[6])
	}
}

func TestAemNetUEGOInvalidLambdaZeroesField(t *testing.T) {
	sampler := fakeSampler{snap: ports.SensorSnapshot{SensorTemperatureC: 100}}
	ch := afrchannelClosedLoop(sampler, wbostatus.LSU49)

	f := EncodeAemNetUEGO(ch, wbconfig.ChannelSettings{})
	if f.Data[0] != 0 || f.Data[1] != 0 {
		t.Fatalf("lambda bytes = %x %x, want zero when invalid", f.Data[0], f.Data[1])
	}
}

func TestAemNetEGTRejectsOffsetsAboveOne(t *testing.T) {
	_, ok := EncodeAemNetEGT(wbconfig.ChannelSettings{ExtraCanIdOffset: 2}, nil)
	if ok {
		t.Fatalf("expected offset 2 to be unrepresentable for AEMNet EGT")
	}
}

func TestAemNetEGTUsesUnit2BaseForOffsetOne(t *testing.T) {
	f, ok := EncodeAemNetEGT(wbconfig.ChannelSettings{ExtraCanIdOffset: 1}, nil)
	if !ok || f.ID != aemNetEGT2BaseID {
		t.Fatalf("id = %#x ok=%v, want unit2 base", f.ID, ok)
	}
}
