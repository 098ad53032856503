package risk

import "github.com/ducminhle1904/ict-trading-agent/internal/signals"

// AddPosition records an open position and returns its id.
// A zero ID is replaced with the next free one.
func (m *Manager) AddPosition(p Position) int {
	if p.ID == 0 {
		m.nextID++
		p.ID = m.nextID
	} else if p.ID > m.nextID {
		m.nextID = p.ID
	}
	m.positions = append(m.positions, p)
	return p.ID
}

// RemovePosition drops the position with the given id
func (m *Manager) RemovePosition(id int) bool {
	for i, p := range m.positions {
		if p.ID == id {
			m.positions = append(m.positions[:i], m.positions[i+1:]...)
			return true
		}
	}
	return false
}

// Positions returns a copy of the registered positions
func (m *Manager) Positions() []Position {
	out := make([]Position, len(m.positions))
	copy(out, m.positions)
	return out
}

// ValidateWithRegistry validates sig against the registered positions
func (m *Manager) ValidateWithRegistry(sig signals.Signal, capital float64) (bool, string) {
	return m.ValidateTrade(sig, capital, m.positions)
}
