package persona

// Store exposes persona retrieval for HTTP handlers and the interview engine.
type Store interface {
	List() []Persona
	FindByID(id string) (Persona, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Persona
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas.
func NewMemoryStore(items []Persona) *MemoryStore {
	return &MemoryStore{items: append([]Persona(nil), items...)}
}

// List returns the predefined persona list.
func (s *MemoryStore) List() []Persona {
	return append([]Persona(nil), s.items...)
}

// FindByID looks up a persona by identifier.
func (s *MemoryStore) FindByID(id string) (Persona, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Persona{}, false
}

// Resolve returns the persona for id, falling back to fallbackID and then to
// the first stored persona. ok is false only when the store is empty.
func Resolve(s Store, id, fallbackID string) (Persona, bool) {
	if id != "" {
		if p, ok := s.FindByID(id); ok {
			return p, true
		}
	}
	if p, ok := s.FindByID(fallbackID); ok {
		return p, true
	}
	items := s.List()
	if len(items) == 0 {
		return Persona{}, false
	}
	return items[0], true
}
