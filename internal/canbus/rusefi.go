package canbus

import (
	"wbo-ecu-core/internal/afrchannel"
	"wbo-ecu-core/internal/ports"
	"wbo-ecu-core/internal/wbconfig"
)

// EncodeStandardData builds the internal protocol's version 0 frame:
// version, lambda x10000, temperature, validity. The frame's id is
// keyed off settings.RusefiIdx, not the channel's hardware index, so
// a set-index message (handleSetIndex) can relocate it.
func EncodeStandardData(ch *afrchannel.Channel, settings wbconfig.ChannelSettings) ports.CANFrame {
	snap := ch.Sampler.Get()
	lambdaValue := ch.Lambda()
	valid := ch.LambdaValid()

	var b frameBuilder
	b.putU16(0, rusefiWidebandVersion)
	if valid {
		b.putU16(2, clampU16(lambdaValue*10000))
	}
	b.putI16(4, clampI16(snap.SensorTemperatureC))
	if valid {
		b.putU8(6, 0x01)
	}
	return extFrame(WBDataBaseAddr+2*uint32(settings.RusefiIdx), b.bytes())
}

// EncodeDiagData builds the internal protocol's version 1 diagnostic
// frame: ESR, Nernst DC, pump duty, status, heater duty. Like
// EncodeStandardData, its id follows settings.RusefiIdx.
func EncodeDiagData(ch *afrchannel.Channel, settings wbconfig.ChannelSettings, statusCode uint8) ports.CANFrame {
	snap := ch.Sampler.Get()

	var b frameBuilder
	b.putU16(0, clampU16(snap.SensorESROhm))
	b.putI16(2, clampI16(snap.NernstDC*1000))
	b.putU8(4, clampU8(ch.Pump.OutputDuty()*255))
	b.putU8(5, statusCode)
	b.putU8(6, clampU8(ch.Heater.Duty()*255))
	return extFrame(WBDataBaseAddr+2*uint32(settings.RusefiIdx)+1, b.bytes())
}

// SendInternalFormat emits the StandardData/DiagData frames that are
// always attempted first in the encoder pipeline, gated by the
// channel's RusefiTx/RusefiTxDiag flags.
func SendInternalFormat(ch *afrchannel.Channel, settings wbconfig.ChannelSettings, statusCode uint8, tx ports.CANTransport) error {
	if settings.RusefiTx {
		if err := tx.Send(EncodeStandardData(ch, settings)); err != nil {
			return err
		}
	}
	if settings.RusefiTxDiag {
		if err := tx.Send(EncodeDiagData(ch, settings, statusCode)); err != nil {
			return err
		}
	}
	return nil
}

func sendAck(tx ports.CANTransport) error {
	return tx.Send(extFrame(WBAck, nil))
}
