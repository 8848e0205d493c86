package lock

// Slots reports how many keys currently have a slot.
func (m *Memory) Slots() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}
