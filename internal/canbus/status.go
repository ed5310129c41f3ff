package canbus

import (
	"sync"

	"wbo-ecu-core/internal/wbostatus"
)

// Status is the process-wide CAN status struct: mutated only by the
// RX dispatcher, read by the heater and pump controllers. A mutex
// gives readers a coherent snapshot per the original firmware's "RX
// thread writes under a short critical section, readers copy what
// they need" rule, without requiring lock-free atomics for a struct
// wider than one word.
type Status struct {
	mu sync.Mutex

	heaterAllow    wbostatus.HeaterAllow
	remoteBatteryV float32
	pumpGainAdjust float32
}

// NewStatus returns a Status with heater-allow Unknown and gain 1.0.
func NewStatus() *Status {
	return &Status{heaterAllow: wbostatus.Unknown, pumpGainAdjust: 1.0}
}

func (s *Status) Get() (wbostatus.HeaterAllow, float32, float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heaterAllow, s.remoteBatteryV, s.pumpGainAdjust
}

func (s *Status) setHeaterAllow(v wbostatus.HeaterAllow) {
	s.mu.Lock()
	s.heaterAllow = v
	s.mu.Unlock()
}

func (s *Status) setRemoteBatteryV(v float32) {
	s.mu.Lock()
	s.remoteBatteryV = v
	s.mu.Unlock()
}

func (s *Status) setPumpGainAdjust(v float32) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	s.mu.Lock()
	s.pumpGainAdjust = v
	s.mu.Unlock()
}
