package codegen

import "sync"

// Memory holds the code generated so far, keyed by sketch filename. It is
// shown to the model so later pages stay consistent with earlier ones.
// Memory is safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	code map[string]string
}

// NewMemory returns an empty Memory.
func NewMemory() *Memory {
	return &Memory{code: make(map[string]string)}
}

// Remember stores code for filename, replacing any earlier version.
func (m *Memory) Remember(filename, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.code[filename] = code
}

// Get returns the code stored for filename.
func (m *Memory) Get(filename string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	code, ok := m.code[filename]
	return code, ok
}

// Snapshot returns a copy of everything stored.
func (m *Memory) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.code))
	for k, v := range m.code {
		out[k] = v
	}
	return out
}

// Len returns the number of pages stored.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.code)
}
