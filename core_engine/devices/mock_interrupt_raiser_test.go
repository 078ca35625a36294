package devices_test

import "sync"

// MockInterruptRaiser implements devices.InterruptRaiser for testing.
type MockInterruptRaiser struct {
	mu         sync.Mutex
	RaisedIRQs []uint8
}

func (m *MockInterruptRaiser) RaiseIRQ(irqLine uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RaisedIRQs = append(m.RaisedIRQs, irqLine)
}

func (m *MockInterruptRaiser) GetRaisedIRQs() []uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]uint8, len(m.RaisedIRQs))
	copy(out, m.RaisedIRQs)
	return out
}

func (m *MockInterruptRaiser) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.RaisedIRQs)
}
