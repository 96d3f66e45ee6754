package objectstore

import (
	"context"
	"sync"
)

// Object is a stored blob held by InMemory.
type Object struct {
	Data        []byte
	ContentType string
}

// InMemory keeps uploads in a map. FailWith makes subsequent uploads fail.
type InMemory struct {
	mu      sync.Mutex
	baseURL string
	objects map[string]Object
	err     error
}

func NewInMemory(baseURL string) *InMemory {
	if baseURL == "" {
		baseURL = "memory://objects"
	}
	return &InMemory{baseURL: baseURL, objects: make(map[string]Object)}
}

func (m *InMemory) Upload(_ context.Context, data []byte, contentType, pathHint string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	key := ObjectKey(pathHint)
	m.objects[key] = Object{Data: append([]byte(nil), data...), ContentType: contentType}
	return m.baseURL + "/" + key, nil
}

// FailWith sets the error returned by every Upload; nil restores success.
func (m *InMemory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *InMemory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

func (m *InMemory) Get(key string) (Object, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[key]
	return o, ok
}
