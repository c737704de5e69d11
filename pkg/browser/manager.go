package browser

import (
	"sync"

	"dev/bravebird/ui-harness-go/pkg/config"
)

// Factory creates a fresh session on demand.
type Factory func() (*Session, error)

// RodFactory builds sessions backed by a freshly launched browser.
func RodFactory(cfg config.Settings) Factory {
	return func() (*Session, error) {
		driver, err := NewRod(cfg)
		if err != nil {
			return nil, err
		}
		return NewSession(driver, cfg), nil
	}
}

// Manager owns the shared session an ordered run injects into its steps.
// At most one shared session exists at a time; it is created lazily by
// Current and cleared when the session quits. Secondary sessions built
// straight from a Factory are independent and never tracked here.
type Manager struct {
	mu      sync.Mutex
	factory Factory
	current *Session
}

// NewManager creates a manager around a session factory.
func NewManager(factory Factory) *Manager {
	return &Manager{factory: factory}
}

// Current returns the shared session, creating it on first use. A freshly
// created session gets the standard window size so layout-dependent suites
// start from a known geometry.
func (m *Manager) Current() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		return m.current, nil
	}

	session, err := m.factory()
	if err != nil {
		return nil, err
	}
	session.manager = m
	if err := session.Maximize(); err != nil {
		session.driver.Quit()
		return nil, err
	}
	m.current = session
	return session, nil
}

// Active returns the shared session without creating one, or nil.
func (m *Manager) Active() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Release quits the shared session if one exists.
func (m *Manager) Release() error {
	m.mu.Lock()
	session := m.current
	m.current = nil
	m.mu.Unlock()

	if session == nil {
		return nil
	}
	return session.driver.Quit()
}

func (m *Manager) clear(session *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == session {
		m.current = nil
	}
}
