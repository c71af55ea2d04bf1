package ledger

import (
	"context"
	"fmt"
	"sync"
)

// MockLedger is a Ledger for tests. Responses are consumed in FIFO order;
// when a queue is empty, opens return generated ids and closes succeed with
// a zero reward.
type MockLedger struct {
	mu sync.Mutex

	OpenErrs  []error
	CloseErrs []error
	Rewards   []Reward
	Opened    []string
	Closed    []CloseRequest
	Flushed   []CloseRequest
	nextID    int
}

func (m *MockLedger) OpenSession(_ context.Context, subjectID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.OpenErrs) > 0 {
		err := m.OpenErrs[0]
		m.OpenErrs = m.OpenErrs[1:]
		if err != nil {
			return "", err
		}
	}
	m.nextID++
	id := fmt.Sprintf("sess-%d", m.nextID)
	m.Opened = append(m.Opened, subjectID)
	return id, nil
}

func (m *MockLedger) CloseSession(_ context.Context, req CloseRequest) (Reward, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.CloseErrs) > 0 {
		err := m.CloseErrs[0]
		m.CloseErrs = m.CloseErrs[1:]
		if err != nil {
			return Reward{}, err
		}
	}
	m.Closed = append(m.Closed, req)
	if len(m.Rewards) > 0 {
		r := m.Rewards[0]
		m.Rewards = m.Rewards[1:]
		return r, nil
	}
	return Reward{}, nil
}

func (m *MockLedger) Flush(_ context.Context, req CloseRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Flushed = append(m.Flushed, req)
	return nil
}

// ClosedIDs returns the ids of every successful close, in order.
func (m *MockLedger) ClosedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, len(m.Closed))
	for i, c := range m.Closed {
		ids[i] = c.SessionID
	}
	return ids
}
