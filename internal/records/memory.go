package records

import (
	"context"
	"sync"

	"github.com/teemow/leadcal/internal/apperror"
)

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	schema Schema
	mu     sync.RWMutex
	rows   []Record
}

// NewMemoryStore creates an empty store for schema.
func NewMemoryStore(schema Schema, rows ...Record) *MemoryStore {
	m := &MemoryStore{schema: schema}
	for _, r := range rows {
		m.rows = append(m.rows, r.Clone())
	}
	return m
}

// Schema implements Store.
func (m *MemoryStore) Schema() Schema { return m.schema }

// Find implements Store.
func (m *MemoryStore) Find(_ context.Context, pred Predicate) (Record, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rows {
		if pred(r) {
			return r.Clone(), true, nil
		}
	}
	return nil, false, nil
}

// FindAll implements Store.
func (m *MemoryStore) FindAll(_ context.Context, pred Predicate) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Record
	for _, r := range m.rows {
		if pred(r) {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

// Insert implements Store.
func (m *MemoryStore) Insert(_ context.Context, rec Record) (string, error) {
	id := rec[m.schema.Key]
	if id == "" {
		return "", apperror.Input("insert", "%s is required", m.schema.Key)
	}
	row := make(Record, len(m.schema.Fields))
	for _, f := range m.schema.Fields {
		row[f] = rec[f]
	}
	m.mu.Lock()
	m.rows = append(m.rows, row)
	m.mu.Unlock()
	return id, nil
}

// Update implements Store.
func (m *MemoryStore) Update(_ context.Context, id string, fields Record) ([]Field, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r[m.schema.Key] != id {
			continue
		}
		written := orderedFields(m.schema, fields)
		for _, f := range written {
			if f == m.schema.Key {
				return nil, apperror.Input("update", "field %q cannot be updated", f)
			}
		}
		for _, f := range written {
			r[f] = fields[f]
		}
		return written, nil
	}
	return nil, apperror.NotFound("update", "no %s record with %s %q", m.schema.Sheet, m.schema.Key, id)
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows {
		if r[m.schema.Key] == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}
