package domain

import (
	"fmt"
	"slices"
	"sync"
)

// Source is an open raw recording. The netCDF adapter implements it over a
// file handle; MemorySource holds synthetic data.
type Source interface {
	Attributes() Attributes
	VariableNames() []string
	// Variable loads a variable. Variables that cannot be represented as
	// numbers return an error wrapping ErrUnsupportedVariable.
	Variable(name string) (Variable, error)
	Close() error
}

// MemorySource is an in-memory Source.
type MemorySource struct {
	Attrs Attributes
	Vars  []Variable

	mu     sync.Mutex
	closed bool
}

// NewMemorySource builds a source from attributes and variables.
func NewMemorySource(attrs Attributes, vars ...Variable) *MemorySource {
	if attrs == nil {
		attrs = Attributes{}
	}
	return &MemorySource{Attrs: attrs, Vars: vars}
}

func (m *MemorySource) Attributes() Attributes { return m.Attrs }

func (m *MemorySource) VariableNames() []string {
	names := make([]string, 0, len(m.Vars))
	for _, v := range m.Vars {
		names = append(names, v.Name)
	}
	return names
}

func (m *MemorySource) Variable(name string) (Variable, error) {
	i := slices.IndexFunc(m.Vars, func(v Variable) bool { return v.Name == name })
	if i < 0 {
		return Variable{}, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	return m.Vars[i].Clone(), nil
}

func (m *MemorySource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *MemorySource) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
