// Package memory keeps per-session conversation history.
package memory

import (
	"sync"

	"pdf-rag/internal/models"
)

// Memory is an append-only, chronological list of conversation turns.
type Memory struct {
	mu    sync.RWMutex
	turns []models.Turn
}

func New() *Memory {
	return &Memory{}
}

// Append records one completed exchange: the user question then the assistant answer.
func (m *Memory) Append(question, answer string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns,
		models.Turn{Role: models.RoleUser, Content: question},
		models.Turn{Role: models.RoleAssistant, Content: answer},
	)
}

// Turns returns a copy of every turn in order.
func (m *Memory) Turns() []models.Turn {
	return m.Window(0)
}

// Window returns a copy of the last n turns; n <= 0 returns all of them.
// The window always holds whole exchanges, so it starts on a user turn: an
// odd n is rounded down, but never below one exchange.
func (m *Memory) Window(n int) []models.Turn {
	if n > 0 {
		n -= n % 2
		if n == 0 {
			n = 2
		}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	start := 0
	if n > 0 && n < len(m.turns) {
		start = len(m.turns) - n
	}
	out := make([]models.Turn, len(m.turns)-start)
	copy(out, m.turns[start:])
	return out
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.turns)
}
