package canbus

import "wbo-ecu-core/internal/ports"

// fakeEGT is a fixed-reading ports.EGTDriver, shared by every vendor
// encoder's test file.
type fakeEGT struct {
	tempC, coldJunctionC float32
}

func (f fakeEGT) TemperatureC() float32  { return f.tempC }
func (f fakeEGT) ColdJunctionC() float32 { return f.coldJunctionC }

func fakeEGTDrivers(temps ...float32) []ports.EGTDriver {
	drivers := make([]ports.EGTDriver, len(temps))
	for i, t := range temps {
		drivers[i] = fakeEGT{tempC: t}
	}
	return drivers
}
