// Package storage provides key-value backends for locally persisted state.
package storage

import (
	"fmt"
	"sync"

	"github.com/diogo/agentchat/internal/config"
)

// KV is a minimal key-value store. Get reports found=false for missing keys.
type KV interface {
	Get(key string) (value []byte, found bool, err error)
	Set(key string, value []byte) error
}

// Memory is an in-process KV, used for tests and ephemeral sessions
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Get implements KV
func (m *Memory) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Set implements KV
func (m *Memory) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	return nil
}

// Open returns the backend selected by cfg. The returned close function
// releases backend resources and is always non-nil.
func Open(cfg config.Config) (KV, func() error, error) {
	noop := func() error { return nil }

	if cfg.Storage.Backend == config.BackendMemory {
		return NewMemory(), noop, nil
	}

	path, err := cfg.StoragePath()
	if err != nil {
		return nil, noop, err
	}

	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		s, err := NewSQLite(path)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case config.BackendFile, "":
		f, err := NewFile(path)
		if err != nil {
			return nil, noop, err
		}
		return f, noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
