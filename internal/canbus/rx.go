package canbus

import (
	"time"

	"wbo-ecu-core/internal/ports"
	"wbo-ecu-core/internal/wbconfig"
	"wbo-ecu-core/internal/wbostatus"
)

// Sleeper abstracts the firmware's sleep_until so the bootloader-enter
// flush delay can be faked under test without a real clock dependency.
type Sleeper interface {
	Sleep(d time.Duration)
}

// Reboot is invoked after the TX flush delay to jump into the
// bootloader; the reset mechanism itself is an external collaborator
// (microcontroller HAL), out of this repo's scope.
type Reboot func()

// Dispatcher owns the RX-side state the internal and LinkEcu status
// frames mutate: CAN status and the persisted configuration record.
type Dispatcher struct {
	Status  *Status
	Record  *wbconfig.Record
	Store   ports.NonvolatileStore
	Sleep   Sleeper
	Reboot  Reboot

	// OurChannel0Index is this board's internal RusefiIdx for AFR
	// channel 0, matched against bootloader-enter's optional selector
	// byte so a multi-board bus only reboots the addressed board.
	OurChannel0Index uint8
}

// Handle dispatches one received frame, per the original firmware's
// CanRxHandler. Any reply frame (an ACK) is sent directly on tx; the
// returned error is from that send or from persisting the record.
func (d *Dispatcher) Handle(frame ports.CANFrame, tx ports.CANTransport) error {
	switch {
	case frame.ID == WBMsgECUStatus:
		d.handleECUStatus(frame.Data)
		return nil
	case frame.ID == WBBLEnter:
		return d.handleBootloaderEnter(frame.Data, tx)
	case frame.ID == WBMsgSetIndex:
		return d.handleSetIndex(frame.Data, tx)
	case frame.ID == linkEcuInBaseID:
		d.handleLinkEcuStatus(frame.Data)
		return nil
	case frame.ID >= linkEcuSetIdxID && frame.ID <= linkEcuSetIdxID+7:
		return d.handleLinkEcuSetIndex(frame, tx)
	default:
		return nil
	}
}

func (d *Dispatcher) handleECUStatus(data []byte) {
	if len(data) < 2 {
		return
	}

	batteryV := float32(data[0]) * 0.1
	if batteryV < 5 {
		batteryV = 14
	}
	d.Status.setRemoteBatteryV(batteryV)

	if data[1]&1 != 0 {
		d.Status.setHeaterAllow(wbostatus.Allowed)
	} else {
		d.Status.setHeaterAllow(wbostatus.NotAllowed)
	}

	if len(data) >= 3 {
		gain := float32(data[2]) * 0.01
		d.Status.setPumpGainAdjust(gain)
	}
}

func (d *Dispatcher) handleBootloaderEnter(data []byte, tx ports.CANTransport) error {
	addressed := len(data) == 0 ||
		(len(data) >= 1 && (data[0] == 0xFF || data[0] == d.OurChannel0Index))
	if !addressed {
		return nil
	}

	if err := sendAck(tx); err != nil {
		return err
	}
	if d.Sleep != nil {
		d.Sleep.Sleep(50 * time.Millisecond)
	}
	if d.Reboot != nil {
		d.Reboot()
	}
	return nil
}

func (d *Dispatcher) handleSetIndex(data []byte, tx ports.CANTransport) error {
	if len(data) < 1 {
		return nil
	}

	d.Record.ApplySetIndex(data[0])
	if d.Store != nil {
		if err := wbconfig.Save(d.Store, *d.Record); err != nil {
			return err
		}
	}
	return sendAck(tx)
}

func (d *Dispatcher) handleLinkEcuStatus(data []byte) {
	if len(data) < 8 || data[0] != 85 {
		return
	}
	rpm := uint16(data[2])<<8 | uint16(data[3])
	switch {
	case rpm > 400:
		d.Status.setHeaterAllow(wbostatus.Allowed)
	case rpm < 10:
		d.Status.setHeaterAllow(wbostatus.NotAllowed)
	}
}

// handleLinkEcuSetIndex matches the original firmware's search: the
// channel whose current ExtraCanIdOffset, subtracted from the
// received id, lands exactly on the set-index base id is the one
// being addressed — not the id's numeric position in the range.
func (d *Dispatcher) handleLinkEcuSetIndex(frame ports.CANFrame, tx ports.CANTransport) error {
	if len(frame.Data) < 8 || frame.Data[0] != 24 {
		return nil
	}

	for i := range d.Record.AFR {
		if frame.ID-uint32(d.Record.AFR[i].ExtraCanIdOffset) != linkEcuSetIdxID {
			continue
		}
		d.Record.AFR[i].ExtraCanIdOffset = frame.Data[1] & 0x0F
		if d.Store != nil {
			if err := wbconfig.Save(d.Store, *d.Record); err != nil {
				return err
			}
		}
		return tx.Send(EncodeLinkEcuAck(frame.ID, true, false))
	}
	return nil
}
