package session

import "sync"

// Manager tracks live sessions by id.
type Manager struct {
	mu        sync.Mutex
	sessions  map[string]*Controller
	source    Source
	recorder  Recorder
	generator TryOnGenerator
}

func NewManager(source Source, recorder Recorder, generator TryOnGenerator) *Manager {
	return &Manager{
		sessions:  make(map[string]*Controller),
		source:    source,
		recorder:  recorder,
		generator: generator,
	}
}

// Create registers a fresh session for the user.
func (m *Manager) Create(userID string) *Controller {
	c := NewController(userID, m.source, m.recorder, m.generator)
	m.mu.Lock()
	m.sessions[c.ID()] = c
	m.mu.Unlock()
	return c
}

// Get looks up a session by id.
func (m *Manager) Get(id string) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.sessions[id]
	return c, ok
}

// Remove drops a session, either on an explicit end request or when a
// freshly created session fails its first load.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}
