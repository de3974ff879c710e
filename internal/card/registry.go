package card

import "sync"

// Store keeps the live sessions served over HTTP. State is volatile by
// design: nothing outlives the process.
type Store interface {
	// Create makes a new session and returns its ID
	Create() (string, *Session)

	// Get returns the session with the given ID
	Get(id string) (*Session, bool)

	// Delete discards a session
	Delete(id string)
}

// MemoryStore implements Store in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	client   ExtractionClient
	idGen    IDGenerator
}

// NewMemoryStore creates a MemoryStore whose sessions extract through the
// given client.
func NewMemoryStore(client ExtractionClient) *MemoryStore {
	return NewMemoryStoreWithIDs(client, uuidGenerator{})
}

// NewMemoryStoreWithIDs creates a MemoryStore with a custom ID generator
// for testing.
func NewMemoryStoreWithIDs(client ExtractionClient, idGen IDGenerator) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		client:   client,
		idGen:    idGen,
	}
}

// Create makes a new session and returns its ID
func (m *MemoryStore) Create() (string, *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.idGen.Generate()
	session := NewSessionWithIDs(m.client, m.idGen)
	m.sessions[id] = session
	return id, session
}

// Get returns the session with the given ID
func (m *MemoryStore) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	return session, ok
}

// Delete discards a session
func (m *MemoryStore) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}
