package theme

import "sync"

// Monitor tracks the host theme and fans changes out to subscribers.
// Subscribers receive only the latest Kind; a slow subscriber never blocks Set.
type Monitor struct {
	mu      sync.Mutex
	current Kind
	nextID  int
	subs    map[int]chan Kind
}

// NewMonitor creates a Monitor starting at initial.
func NewMonitor(initial Kind) *Monitor {
	return &Monitor{current: initial, subs: make(map[int]chan Kind)}
}

// Current returns the host theme.
func (m *Monitor) Current() Kind {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Set changes the host theme. It reports whether the theme changed;
// subscribers are notified only on a change.
func (m *Monitor) Set(kind Kind) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if kind == m.current {
		return false
	}
	m.current = kind
	for _, ch := range m.subs {
		// Drop a stale pending value so the newest one always lands.
		select {
		case <-ch:
		default:
		}
		ch <- kind
	}
	return true
}

// Subscribe returns a channel of theme changes and a cancel func that
// unsubscribes and closes the channel.
func (m *Monitor) Subscribe() (<-chan Kind, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	ch := make(chan Kind, 1)
	m.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}
