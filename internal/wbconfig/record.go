// Package wbconfig implements the 256-byte persistent configuration
// record, the tuner-visible ABI shared with external ECU tooling. The
// byte layout is frozen: field offsets, bitfield packing order and
// little-endian encoding come from the original firmware's
// Configuration class (boards/port.h) and its binary-compatibility
// test suite (test/tests/test_config.cpp), which is the authoritative
// source for the LSB-first flags-byte bit order used here.
package wbconfig

import (
	"encoding/binary"
	"fmt"
	"math"

	"wbo-ecu-core/internal/fixedpoint"
	"wbo-ecu-core/internal/ports"
	"wbo-ecu-core/internal/wbostatus"
)

// RecordSize is the frozen total size of the persisted record.
const RecordSize = 256

// Tag is the magic value identifying a valid record; any other value
// at offset 0 means the store holds garbage or an erased block.
const Tag uint32 = 0xDEADBE02

// NChannels is the number of AFR/EGT channel-settings slots the
// config ABI reserves, fixed independently of the channel count the
// controllers actually run at compile time.
const NChannels = 2

const (
	offTag             = 0
	offReserved        = 4
	offAuxOutBins      = 5
	offAuxOutValues    = offAuxOutBins + 2*8*4
	offAuxOutputSource = offAuxOutValues + 2*8*4
	offSensorType      = offAuxOutputSource + 2
	offAFR             = offSensorType + 1
	offEGT             = offAFR + NChannels*8
	offHeater          = offEGT + NChannels*8
	channelSettingsLen = 8
	signatureASCII     = "wbo-ecu-core-v1"
)

// ChannelSettings is the per-channel 8-byte settings block shared by
// both the AFR and EGT channel arrays.
type ChannelSettings struct {
	RusefiTx         bool
	RusefiTxDiag     bool
	ExtraCanProtocol wbostatus.CanProtocol
	RusefiIdx        uint8
	ExtraCanIdOffset uint8
}

func (c ChannelSettings) flagsByte() byte {
	var b byte
	if c.RusefiTx {
		b |= 1 << 0
	}
	if c.RusefiTxDiag {
		b |= 1 << 1
	}
	b |= byte(c.ExtraCanProtocol&0x7) << 2
	return b
}

func decodeChannelSettings(flags, rusefiIdx, extraOffset byte) ChannelSettings {
	return ChannelSettings{
		RusefiTx:         flags&(1<<0) != 0,
		RusefiTxDiag:     flags&(1<<1) != 0,
		ExtraCanProtocol: wbostatus.CanProtocol((flags >> 2) & 0x7),
		RusefiIdx:        rusefiIdx,
		ExtraCanIdOffset: extraOffset,
	}
}

// HeaterConfig is the 8-byte heater-supply sub-record, stored as
// scaled integers per the original firmware's ScaledValue fields.
type HeaterConfig struct {
	OffV     fixedpoint.ScaledValue[uint8] // /10 -> volts
	OnV      fixedpoint.ScaledValue[uint8] // /10 -> volts
	PreheatS fixedpoint.ScaledValue[uint8] // x5 -> seconds
}

func (h HeaterConfig) OffVolts() float32     { return fixedpoint.Value(h.OffV, 1, 10) }
func (h HeaterConfig) OnVolts() float32      { return fixedpoint.Value(h.OnV, 1, 10) }
func (h HeaterConfig) PreheatSeconds() float32 { return fixedpoint.Value(h.PreheatS, 5, 1) }

// Record is the decoded, in-memory form of the 256-byte blob.
type Record struct {
	AuxOutBins      [2][8]float32
	AuxOutValues    [2][8]float32
	AuxOutputSource [2]wbostatus.AuxOutputMode
	SensorType      wbostatus.SensorType
	AFR             [NChannels]ChannelSettings
	EGT             [NChannels]ChannelSettings
	Heater          HeaterConfig

	// Defaulted is true when Load found no valid tag and installed
	// defaults; it is never itself persisted.
	Defaulted bool
}

// Default builds the record installed whenever the stored tag doesn't
// match: linear aux curves from (AFR 8.5 -> 0V) to (AFR 18.0 -> 5V),
// aux sources AFRn, board-default sensor type, internal-protocol TX
// enabled with ID offset 2*ch, every other protocol off.
func Default() Record {
	var r Record
	for c := 0; c < 2; c++ {
		for p := 0; p < 8; p++ {
			frac := float32(p) / 7
			r.AuxOutBins[c][p] = 8.5 + frac*(18.0-8.5)
			r.AuxOutValues[c][p] = frac * 5.0
		}
	}
	r.AuxOutputSource[0] = wbostatus.AuxAfr0
	r.AuxOutputSource[1] = wbostatus.AuxAfr1
	r.SensorType = wbostatus.LSU49

	for i := range r.AFR {
		r.AFR[i] = ChannelSettings{RusefiTx: true, RusefiTxDiag: true, RusefiIdx: uint8(i), ExtraCanIdOffset: uint8(2 * i)}
	}
	for i := range r.EGT {
		r.EGT[i] = ChannelSettings{RusefiTx: true, RusefiTxDiag: true, RusefiIdx: uint8(i), ExtraCanIdOffset: uint8(2 * i)}
	}

	r.Heater = HeaterConfig{
		OffV:     fixedpoint.Set[uint8](9.0, 1, 10),
		OnV:      fixedpoint.Set[uint8](11.0, 1, 10),
		PreheatS: fixedpoint.Set[uint8](5, 5, 1),
	}
	return r
}

// Load reads the blob from store and decodes it, installing defaults
// when the tag doesn't match.
func Load(store ports.NonvolatileStore) (Record, error) {
	buf := make([]byte, RecordSize)
	if err := store.Read(buf); err != nil {
		return Record{}, fmt.Errorf("wbconfig: read: %w", err)
	}

	tag := binary.LittleEndian.Uint32(buf[offTag : offTag+4])
	if tag != Tag {
		r := Default()
		r.Defaulted = true
		return r, nil
	}
	return decode(buf), nil
}

// Save writes r's byte-exact encoding to store.
func Save(store ports.NonvolatileStore, r Record) error {
	if err := store.Write(r.ConfigBytes()); err != nil {
		return fmt.Errorf("wbconfig: write: %w", err)
	}
	return nil
}

// ConfigBytes encodes r into the frozen 256-byte layout, the tuner
// surface's byte_view().
func (r Record) ConfigBytes() []byte {
	buf := make([]byte, RecordSize)
	binary.LittleEndian.PutUint32(buf[offTag:offTag+4], Tag)
	// offReserved stays zero (legacy field).

	off := offAuxOutBins
	for c := 0; c < 2; c++ {
		for p := 0; p < 8; p++ {
			binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(r.AuxOutBins[c][p]))
			off += 4
		}
	}
	off = offAuxOutValues
	for c := 0; c < 2; c++ {
		for p := 0; p < 8; p++ {
			binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(r.AuxOutValues[c][p]))
			off += 4
		}
	}

	buf[offAuxOutputSource] = byte(r.AuxOutputSource[0])
	buf[offAuxOutputSource+1] = byte(r.AuxOutputSource[1])
	buf[offSensorType] = byte(r.SensorType)

	for i, ch := range r.AFR {
		base := offAFR + i*channelSettingsLen
		buf[base] = ch.flagsByte()
		buf[base+1] = ch.RusefiIdx
		buf[base+2] = ch.ExtraCanIdOffset
	}
	for i, ch := range r.EGT {
		base := offEGT + i*channelSettingsLen
		buf[base] = ch.flagsByte()
		buf[base+1] = ch.RusefiIdx
		buf[base+2] = ch.ExtraCanIdOffset
	}

	buf[offHeater] = byte(r.Heater.OffV.Raw)
	buf[offHeater+1] = byte(r.Heater.OnV.Raw)
	buf[offHeater+2] = byte(r.Heater.PreheatS.Raw)

	// Everything from offHeater+8 onward is pad, left zero.
	return buf
}

func decode(buf []byte) Record {
	var r Record

	off := offAuxOutBins
	for c := 0; c < 2; c++ {
		for p := 0; p < 8; p++ {
			r.AuxOutBins[c][p] = math.Float32frombits(binary.LittleEndian.Uint32(buf[off : off+4]))
			off += 4
		}
	}
	off = offAuxOutValues
	for c := 0; c < 2; c++ {
		for p := 0; p < 8; p++ {
			r.AuxOutValues[c][p] = math.Float32frombits(binary.LittleEndian.Uint32(buf[off : off+4]))
			off += 4
		}
	}

	r.AuxOutputSource[0] = wbostatus.AuxOutputMode(buf[offAuxOutputSource])
	r.AuxOutputSource[1] = wbostatus.AuxOutputMode(buf[offAuxOutputSource+1])
	r.SensorType = wbostatus.SensorType(buf[offSensorType])

	for i := 0; i < NChannels; i++ {
		base := offAFR + i*channelSettingsLen
		r.AFR[i] = decodeChannelSettings(buf[base], buf[base+1], buf[base+2])
	}
	for i := 0; i < NChannels; i++ {
		base := offEGT + i*channelSettingsLen
		r.EGT[i] = decodeChannelSettings(buf[base], buf[base+1], buf[base+2])
	}

	r.Heater = HeaterConfig{
		OffV:     fixedpoint.ScaledValue[uint8]{Raw: buf[offHeater]},
		OnV:      fixedpoint.ScaledValue[uint8]{Raw: buf[offHeater+1]},
		PreheatS: fixedpoint.ScaledValue[uint8]{Raw: buf[offHeater+2]},
	}
	return r
}

// Signature returns a version-identifying ASCII string for the tuner
// surface's signature() call.
func Signature() string {
	return signatureASCII
}

// ApplySetIndex implements the internal-protocol set-index message:
// each AFR and EGT channel's RusefiIdx becomes base+i. Idempotent by
// construction — applying the same base twice yields the same record.
func (r *Record) ApplySetIndex(base uint8) {
	for i := range r.AFR {
		r.AFR[i].RusefiIdx = base + uint8(i)
	}
	for i := range r.EGT {
		r.EGT[i].RusefiIdx = base + uint8(i)
	}
}
