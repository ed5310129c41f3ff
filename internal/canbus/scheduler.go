package canbus

import (
	"context"
	"time"

	"wbo-ecu-core/internal/afrchannel"
	"wbo-ecu-core/internal/diag"
	"wbo-ecu-core/internal/ports"
	"wbo-ecu-core/internal/wbconfig"
	"wbo-ecu-core/internal/wbostatus"
)

// TXPeriod is the AFR broadcast period; 10 ms gives 100 Hz. EGT rides
// every 5th tick, 20 Hz, per the original firmware's can.cpp cycle
// counter.
const TXPeriod = 10 * time.Millisecond

const egtEveryNTicks = 5

// Scheduler owns the periodic CAN TX loop: one AFR broadcast per
// tick, one EGT broadcast every 5th tick, phase-locked to an absolute
// schedule so jitter never accumulates — unlike the teacher's plain
// sleep(10ms) loop in main.go, each iteration here sleeps only the
// remainder until the next absolute deadline.
type Scheduler struct {
	AFRChannels []*afrchannel.Channel
	Record      *wbconfig.Record
	EGTDrivers  []ports.EGTDriver
	Transport   ports.CANTransport
	Log         diag.Logger

	tick int
}

// Run blocks, emitting frames every TXPeriod until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	next := time.Now().Add(TXPeriod)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if d := time.Until(next); d > 0 {
			time.Sleep(d)
		}
		s.tickOnce()
		next = next.Add(TXPeriod)
	}
}

// tickOnce runs one 10 ms cycle's worth of encoding and transmission.
// Send errors (a full mailbox) are logged and dropped, never
// retried — the next cycle simply tries again, per the original
// firmware's error taxonomy for CAN TX.
func (s *Scheduler) tickOnce() {
	for i, ch := range s.AFRChannels {
		if i >= len(s.Record.AFR) {
			continue
		}
		s.sendAFR(ch, s.Record.AFR[i])
	}

	s.tick++
	if s.tick%egtEveryNTicks != 0 {
		return
	}

	for i := range s.Record.EGT {
		s.sendEGT(i, s.Record.EGT[i])
	}
}

func (s *Scheduler) send(f ports.CANFrame) {
	if err := s.Transport.Send(f); err != nil && s.Log != nil {
		s.Log.Warnf("canbus: tx dropped: %v", err)
	}
}

func (s *Scheduler) sendAFR(ch *afrchannel.Channel, settings wbconfig.ChannelSettings) {
	status := ch.Heater.Status()
	statusCode := byte(status)

	if err := SendInternalFormat(ch, settings, statusCode, s.Transport); err != nil && s.Log != nil {
		s.Log.Warnf("canbus: internal tx dropped: %v", err)
	}

	switch settings.ExtraCanProtocol {
	case wbostatus.CanProtocolAemNet:
		s.send(EncodeAemNetUEGO(ch, settings))
	case wbostatus.CanProtocolEcuMasterClassic, wbostatus.CanProtocolEcuMasterBlack:
		for _, f := range EncodeEcuMasterAfr(ch, settings) {
			s.send(f)
		}
	case wbostatus.CanProtocolHaltech:
		s.sendHaltechAFR(ch, settings)
	case wbostatus.CanProtocolLinkEcu:
		for _, f := range EncodeLinkEcuAfr(ch, settings) {
			s.send(f)
		}
	case wbostatus.CanProtocolEmtron:
		s.send(EncodeEmtronAfr(ch, settings, status))
	case wbostatus.CanProtocolMotec:
		for _, f := range EncodeMotecAfr(ch, settings, status) {
			s.send(f)
		}
	}
}

// sendHaltechAFR mirrors the original's "ch%2==0 owns the frame,
// ch+1 rides along if also Haltech" combining rule.
func (s *Scheduler) sendHaltechAFR(ch *afrchannel.Channel, settings wbconfig.ChannelSettings) {
	if ch.Index%2 != 0 {
		return
	}

	var partner *afrchannel.Channel
	if ch.Index+1 < len(s.AFRChannels) && ch.Index+1 < len(s.Record.AFR) &&
		s.Record.AFR[ch.Index+1].ExtraCanProtocol == wbostatus.CanProtocolHaltech {
		partner = s.AFRChannels[ch.Index+1]
	}
	s.send(EncodeHaltechAfr(ch, settings, partner))
}

func (s *Scheduler) sendEGT(ch int, settings wbconfig.ChannelSettings) {
	switch settings.ExtraCanProtocol {
	case wbostatus.CanProtocolAemNet:
		if ch != 0 {
			return
		}
		if f, ok := EncodeAemNetEGT(settings, s.EGTDrivers); ok {
			s.send(f)
		}
	case wbostatus.CanProtocolEcuMasterClassic, wbostatus.CanProtocolEcuMasterBlack:
		if ch != 0 {
			return
		}
		s.send(EncodeEcuMasterEgt(settings, s.EGTDrivers))
	case wbostatus.CanProtocolHaltech:
		if ch != 0 {
			return
		}
		s.send(EncodeHaltechEgt(settings, s.EGTDrivers))
	case wbostatus.CanProtocolLinkEcu:
		if ch != 0 {
			return
		}
		var supplyV float32
		if len(s.AFRChannels) > 0 {
			supplyV = s.AFRChannels[0].Sampler.Get().InternalHeaterVoltageV
		}
		for _, f := range EncodeLinkEcuEgt(s.EGTDrivers, supplyV) {
			s.send(f)
		}
	case wbostatus.CanProtocolEmtron:
		if ch != 0 {
			return
		}
		s.send(EncodeEmtronEgt(settings, s.EGTDrivers))
	case wbostatus.CanProtocolMotec:
		if ch%2 != 0 {
			return
		}
		s.send(EncodeMotecEgt(ch/2, settings, s.EGTDrivers))
	}
}
