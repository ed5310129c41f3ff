package canbus

import (
	"errors"
	"testing"
	"time"

	"wbo-ecu-core/internal/ports"
	"wbo-ecu-core/internal/wbconfig"
	"wbo-ecu-core/internal/wbostatus"
)

type fakeStore struct {
	buf  []byte
	err  error
	puts int
}

func (s *fakeStore) Read(buf []byte) error {
	if s.buf != nil {
		copy(buf, s.buf)
	}
	return nil
}

func (s *fakeStore) Write(buf []byte) error {
	s.puts++
	if s.err != nil {
		return s.err
	}
	s.buf = append([]byte(nil), buf...)
	return nil
}

type fakeSleeper struct{ slept []time.Duration }

func (s *fakeSleeper) Sleep(d time.Duration) { s.slept = append(s.slept, d) }

func newDispatcher() (*Dispatcher, *Status, *wbconfig.Record) {
	status := NewStatus()
	record := wbconfig.Default()
	return &Dispatcher{Status: status, Record: &record, Store: &fakeStore{}}, status, &record
}

func TestHandleECUStatusDefaultsLowBatteryTo14V(t *testing.T) {
	d, status, _ := newDispatcher()

	d.handleECUStatus([]byte{0x10, 0x01}) // 0x10 * 0.1 = 1.6V, below the 5V floor
	_, batteryV, _ := status.Get()
	if batteryV != 14 {
		t.Fatalf("remote battery = %v, want 14 when the reported voltage is implausibly low", batteryV)
	}
}

func TestHandleECUStatusCarriesRealBatteryReading(t *testing.T) {
	d, status, _ := newDispatcher()

	d.handleECUStatus([]byte{0x84, 0x01}) // 0x84 = 132 * 0.1 = 13.2V
	_, batteryV, _ := status.Get()
	if batteryV != float32(132)*0.1 {
		t.Fatalf("remote battery = %v, want 13.2", batteryV)
	}
}

func TestHandleECUStatusHeaterAllowBit(t *testing.T) {
	d, status, _ := newDispatcher()

	d.handleECUStatus([]byte{0x84, 0x01})
	allow, _, _ := status.Get()
	if allow != wbostatus.Allowed {
		t.Fatalf("heater allow = %v, want Allowed when bit 0 is set", allow)
	}

	d.handleECUStatus([]byte{0x84, 0x00})
	allow, _, _ = status.Get()
	if allow != wbostatus.NotAllowed {
		t.Fatalf("heater allow = %v, want NotAllowed when bit 0 is clear", allow)
	}
}

func TestHandleECUStatusCarriesGainAdjust(t *testing.T) {
	d, status, _ := newDispatcher()

	d.handleECUStatus([]byte{0x84, 0x01, 50})
	_, _, gain := status.Get()
	if gain != 0.5 {
		t.Fatalf("gain adjust = %v, want 0.5", gain)
	}
}

func TestHandleBootloaderEnterAddressedToUsSendsAckSleepsAndReboots(t *testing.T) {
	d, _, _ := newDispatcher()
	d.OurChannel0Index = 3
	sleeper := &fakeSleeper{}
	d.Sleep = sleeper
	rebooted := false
	d.Reboot = func() { rebooted = true }
	tx := &fakeTransport{}

	if err := d.handleBootloaderEnter([]byte{3}, tx); err != nil {
		t.Fatalf("handleBootloaderEnter: %v", err)
	}
	if len(tx.sent) != 1 || tx.sent[0].ID != WBAck {
		t.Fatalf("sent %v, want a single WBAck frame", tx.sent)
	}
	if len(sleeper.slept) != 1 || sleeper.slept[0] != 50*time.Millisecond {
		t.Fatalf("slept %v, want a single 50ms flush delay", sleeper.slept)
	}
	if !rebooted {
		t.Fatalf("expected Reboot to be invoked after the flush delay")
	}
}

func TestHandleBootloaderEnterBroadcastSelectorAddressesEveryBoard(t *testing.T) {
	d, _, _ := newDispatcher()
	d.OurChannel0Index = 9
	d.Sleep = &fakeSleeper{}
	tx := &fakeTransport{}

	if err := d.handleBootloaderEnter([]byte{0xFF}, tx); err != nil {
		t.Fatalf("handleBootloaderEnter: %v", err)
	}
	if len(tx.sent) != 1 {
		t.Fatalf("0xFF selector should address every board regardless of OurChannel0Index")
	}
}

func TestHandleBootloaderEnterIgnoresOtherBoardsSelector(t *testing.T) {
	d, _, _ := newDispatcher()
	d.OurChannel0Index = 9
	d.Sleep = &fakeSleeper{}
	tx := &fakeTransport{}

	if err := d.handleBootloaderEnter([]byte{2}, tx); err != nil {
		t.Fatalf("handleBootloaderEnter: %v", err)
	}
	if len(tx.sent) != 0 {
		t.Fatalf("selector addressed to a different board should produce no ACK")
	}
}

func TestHandleSetIndexAppliesPersistsAndAcks(t *testing.T) {
	d, _, record := newDispatcher()
	tx := &fakeTransport{}

	if err := d.handleSetIndex([]byte{10}, tx); err != nil {
		t.Fatalf("handleSetIndex: %v", err)
	}
	if record.AFR[0].RusefiIdx != 10 || record.AFR[1].RusefiIdx != 11 {
		t.Fatalf("AFR indices = %d, %d, want 10, 11", record.AFR[0].RusefiIdx, record.AFR[1].RusefiIdx)
	}
	if record.EGT[0].RusefiIdx != 10 || record.EGT[1].RusefiIdx != 11 {
		t.Fatalf("EGT indices = %d, %d, want 10, 11", record.EGT[0].RusefiIdx, record.EGT[1].RusefiIdx)
	}
	if len(tx.sent) != 1 || tx.sent[0].ID != WBAck {
		t.Fatalf("sent %v, want a single WBAck", tx.sent)
	}
}

func TestHandleSetIndexIsIdempotent(t *testing.T) {
	d, _, record := newDispatcher()
	tx := &fakeTransport{}

	d.handleSetIndex([]byte{10}, tx)
	first := record.ConfigBytes()
	d.handleSetIndex([]byte{10}, tx)
	second := record.ConfigBytes()

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("byte %d changed across a repeated identical set-index: %x vs %x", i, first[i], second[i])
		}
	}
}

func TestHandleSetIndexPropagatesStoreError(t *testing.T) {
	d, _, _ := newDispatcher()
	d.Store = &fakeStore{err: errors.New("eeprom write failed")}
	tx := &fakeTransport{}

	if err := d.handleSetIndex([]byte{5}, tx); err == nil {
		t.Fatalf("expected handleSetIndex to surface a store write error")
	}
}

func TestHandleLinkEcuStatusRPMThresholds(t *testing.T) {
	d, status, _ := newDispatcher()

	frame := func(rpm int16) []byte {
		return []byte{85, 0, byte(rpm >> 8), byte(rpm), 0, 0, 0, 0}
	}

	d.handleLinkEcuStatus(frame(500))
	allow, _, _ := status.Get()
	if allow != wbostatus.Allowed {
		t.Fatalf("heater allow = %v, want Allowed above the 400 rpm threshold", allow)
	}

	d.handleLinkEcuStatus(frame(5))
	allow, _, _ = status.Get()
	if allow != wbostatus.NotAllowed {
		t.Fatalf("heater allow = %v, want NotAllowed below the 10 rpm threshold", allow)
	}
}

func TestHandleLinkEcuStatusIgnoresWrongDiscriminator(t *testing.T) {
	d, status, _ := newDispatcher()
	d.handleLinkEcuStatus([]byte{99, 0, 0x7F, 0xFF, 0, 0, 0, 0})
	allow, _, _ := status.Get()
	if allow != wbostatus.Unknown {
		t.Fatalf("heater allow = %v, want Unknown when data[0] != 85", allow)
	}
}

func TestHandleLinkEcuSetIndexMatchesChannelByOffsetNotRawIndex(t *testing.T) {
	d, _, record := newDispatcher()
	record.AFR[0].ExtraCanIdOffset = 0
	record.AFR[1].ExtraCanIdOffset = 5
	tx := &fakeTransport{}

	frame := ports.CANFrame{ID: linkEcuSetIdxID + 5, Data: []byte{24, 9, 0, 0, 0, 0, 0, 0}}
	if err := d.handleLinkEcuSetIndex(frame, tx); err != nil {
		t.Fatalf("handleLinkEcuSetIndex: %v", err)
	}
	if record.AFR[1].ExtraCanIdOffset != 9 {
		t.Fatalf("AFR[1] offset = %d, want 9 (the channel actually addressed)", record.AFR[1].ExtraCanIdOffset)
	}
	if record.AFR[0].ExtraCanIdOffset != 0 {
		t.Fatalf("AFR[0] offset changed, want untouched")
	}
	if len(tx.sent) != 1 || tx.sent[0].ID != linkEcuAfrBaseID+frame.ID {
		t.Fatalf("sent %v, want a single ack at base+receivedID", tx.sent)
	}
}

func TestHandleLinkEcuSetIndexIgnoresWrongDiscriminatorByte(t *testing.T) {
	d, _, record := newDispatcher()
	originalOffset := record.AFR[0].ExtraCanIdOffset
	tx := &fakeTransport{}

	frame := ports.CANFrame{ID: linkEcuSetIdxID, Data: []byte{1, 9, 0, 0, 0, 0, 0, 0}}
	if err := d.handleLinkEcuSetIndex(frame, tx); err != nil {
		t.Fatalf("handleLinkEcuSetIndex: %v", err)
	}
	if record.AFR[0].ExtraCanIdOffset != originalOffset {
		t.Fatalf("offset changed despite a non-matching discriminator byte")
	}
	if len(tx.sent) != 0 {
		t.Fatalf("no ack expected when the discriminator byte doesn't match")
	}
}

func TestHandleRoutesByFrameID(t *testing.T) {
	d, status, _ := newDispatcher()
	tx := &fakeTransport{}

	if err := d.Handle(ports.CANFrame{ID: WBMsgECUStatus, Data: []byte{0x84, 0x01}}, tx); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	allow, _, _ := status.Get()
	if allow != wbostatus.Allowed {
		t.Fatalf("expected WBMsgECUStatus to be dispatched to handleECUStatus")
	}
}
