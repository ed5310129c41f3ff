// Command wbofw is the firmware entrypoint: it wires the hardware
// bring-up in internal/boards to the control loops in internal/heater,
// internal/pump and internal/canbus, the same role the teacher's
// main.go plays for its flight-control loop — hardware setup once at
// boot, then a set of periodic loops running forever.
package main

import (
	"context"
	"machine"
	"time"

	"wbo-ecu-core/internal/afrchannel"
	"wbo-ecu-core/internal/boards"
	"wbo-ecu-core/internal/canbus"
	"wbo-ecu-core/internal/diag"
	"wbo-ecu-core/internal/ports"
	"wbo-ecu-core/internal/wbconfig"
)

const (
	heaterPeriod = time.Duration(canbus.TXPeriod / 10) // 1 ms, matches heater.PeriodMS
	pumpPeriod   = 2 * time.Millisecond
)

func main() {
	log := diag.Println{}

	eeprom := machine.I2C0
	eeprom.Configure(machine.I2CConfig{Frequency: 400 * machine.KHz})
	store := &boards.I2CEEPROMStore{I2C: eeprom, Addr: 0x50, BaseReg: 0x0000}

	record, err := wbconfig.Load(store)
	if err != nil {
		log.Warnf("wbofw: config load failed, using defaults: %v", err)
		record = wbconfig.Default()
	}
	if record.Defaulted {
		log.Infof("wbofw: no valid config found, installing defaults")
		if err := wbconfig.Save(store, record); err != nil {
			log.Warnf("wbofw: could not persist default config: %v", err)
		}
	}

	spi := machine.SPI0
	spi.Configure(machine.SPIConfig{Frequency: 10 * machine.MHz, Mode: 0})

	canTransport := &boards.MCP2515Transport{SPI: spi, CS: machine.D5, Int: machine.D6}

	status := canbus.NewStatus()

	channels := make([]*afrchannel.Channel, wbconfig.NChannels)
	afrPins := []afrChannelPins{
		{Nernst: machine.ADC0, PumpI: machine.ADC1, ESR: machine.ADC2, Temp: machine.ADC3, Supply: machine.ADC4},
		{Nernst: machine.ADC5, PumpI: machine.ADC6, ESR: machine.ADC7, Temp: machine.ADC8, Supply: machine.ADC4},
	}
	for i := range channels {
		pins := afrPins[i]
		sampler := &boards.AnalogFrontEnd{
			NernstPin: pins.Nernst, PumpCurrentPin: pins.PumpI,
			ESRSensePin: pins.ESR, TempSensePin: pins.Temp, SupplySensePin: pins.Supply,
			PumpShuntMilliohms: 61.9, ESRGainOhmsPerLSB: 1000, TempGainCPerLSB: 400, SupplyGainVPerLSB: 24,
		}
		dac := &boards.PWMPumpDAC{PWM: machine.PWM0, Channel: uint8(i), MaxCurrentUA: 10000}
		pwm := &boards.PWMHeater{PWM: machine.PWM1, Channel: uint8(i)}

		const defaultTargetEsr = 300 // ohms, board-calibrated per sensor batch
		channels[i] = afrchannel.New(i, record.SensorType, defaultTargetEsr, sampler, dac, pwm)
	}

	egtDrivers := make([]ports.EGTDriver, 0)
	if len(record.EGT) > 0 {
		egtDrivers = append(egtDrivers, &boards.MAX3185xEGT{SPI: spi, CS: machine.D7})
	}

	ctx := context.Background()

	go runHeaterLoop(channels, status, record.Heater)
	go runPumpLoop(channels, status)
	go runRXLoop(&canbus.Dispatcher{
		Status:           status,
		Record:           &record,
		Store:            store,
		OurChannel0Index: record.AFR[0].RusefiIdx,
	}, canTransport, log)

	scheduler := &canbus.Scheduler{
		AFRChannels: channels,
		Record:      &record,
		EGTDrivers:  egtDrivers,
		Transport:   canTransport,
		Log:         log,
	}
	if err := scheduler.Run(ctx); err != nil {
		log.Warnf("wbofw: CAN scheduler exited: %v", err)
	}
}

type afrChannelPins struct {
	Nernst, PumpI, ESR, Temp, Supply machine.ADC
}

func runHeaterLoop(channels []*afrchannel.Channel, status *canbus.Status, heaterCfg wbconfig.HeaterConfig) {
	for {
		heaterAllow, remoteBatteryV, _ := status.Get()
		for _, ch := range channels {
			ch.Heater.Update(ch.Sampler, heaterAllow, remoteBatteryV, heaterCfg, ch.PWM)
		}
		time.Sleep(heaterPeriod)
	}
}

func runPumpLoop(channels []*afrchannel.Channel, status *canbus.Status) {
	for {
		_, _, gainAdjust := status.Get()
		for _, ch := range channels {
			ch.Pump.SetGainAdjust(gainAdjust)
			snap := ch.Sampler.Get()
			ch.Pump.Update(ch.Heater.IsRunningClosedLoop(), ch.Heater.TargetTempC(), snap, ch.DAC)
		}
		time.Sleep(pumpPeriod)
	}
}

func runRXLoop(d *canbus.Dispatcher, tx ports.CANTransport, log diag.Logger) {
	d.Sleep = sleeperFunc(time.Sleep)
	for {
		frame, err := tx.Receive()
		if err != nil {
			log.Warnf("wbofw: CAN receive error: %v", err)
			continue
		}
		if err := d.Handle(frame, tx); err != nil {
			log.Warnf("wbofw: CAN RX dispatch error: %v", err)
		}
	}
}

type sleeperFunc func(time.Duration)

func (f sleeperFunc) Sleep(d time.Duration) { f(d) }
