package canbus

import (
	"testing"

	"wbo-ecu-core/internal/heater"
	"wbo-ecu-core/internal/ports"
	"wbo-ecu-core/internal/wbconfig"
	"wbo-ecu-core/internal/wbostatus"
)

func TestLinkEcuStatusForMapsHeaterStates(t *testing.T) {
	cases := map[heater.State]linkEcuAfrStatus{
		heater.Preheat:    linkEcuHeating,
		heater.WarmupRamp: linkEcuHeating,
		heater.ClosedLoop: linkEcuOperating,
		heater.Stopped:    linkEcuDisabled,
	}
	for state, want := range cases {
		if got := linkEcuStatusFor(state); got != want {
			t.Fatalf("linkEcuStatusFor(%v) = %v, want %v", state, got, want)
		}
	}
}

func TestEncodeLinkEcuAfrBothFramesShareID(t *testing.T) {
	sampler := fakeSampler{snap: ports.SensorSnapshot{SensorTemperatureC: 500}}
	ch := afrchannelClosedLoop(sampler, wbostatus.LSU49)

	frames := EncodeLinkEcuAfr(ch, wbconfig.ChannelSettings{ExtraCanIdOffset: 3})
	if frames[0].ID != frames[1].ID {
		t.Fatalf("AfrData1/AfrData2 ids differ: %#x vs %#x, original sends both at the same id", frames[0].ID, frames[1].ID)
	}
	if frames[0].ID != linkEcuAfrBaseID+3 {
		t.Fatalf("id = %#x, want base+offset", frames[0].ID)
	}
	if frames[0].Data[0] != 50 || frames[1].Data[0] != 51 {
		t.Fatalf("frame indices = %d, %d, want 50, 51", frames[0].Data[0], frames[1].Data[0])
	}
}

func TestEncodeLinkEcuAckAddsReceivedIDOntoBase(t *testing.T) {
	f := EncodeLinkEcuAck(7, true, false)
	if f.ID != linkEcuAfrBaseID+7 {
		t.Fatalf("ack id = %#x, want base+received-id = %#x (preserving the original's double-base-add quirk)", f.ID, linkEcuAfrBaseID+7)
	}
	if f.Data[1] != 0x01 {
		t.Fatalf("idOK byte = %#x, want 0x01", f.Data[1])
	}
	if f.Data[2] != 0xFF {
		t.Fatalf("busFreqOK byte = %#x, want 0xFF when false", f.Data[2])
	}
}

func TestEncodeLinkEcuEgtLeavesData3EgtSlotsZero(t *testing.T) {
	frames := EncodeLinkEcuEgt(fakeEGTDrivers(500, 600), 13.8)
	data3 := frames[1]
	if data3.Data[0] != 0 || data3.Data[1] != 0 || data3.Data[2] != 0 || data3.Data[3] != 0 {
		t.Fatalf("EgtData3's temperature slots = %v, want all zero (matching the unfilled original struct)", data3.Data[:4])
	}
}
