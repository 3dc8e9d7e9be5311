package records

import (
	"context"

	"github.com/spf13/cast"
)

// Store is a key-indexed table over one sheet.
type Store interface {
	Schema() Schema
	// Find returns the first record matching pred in row order.
	Find(ctx context.Context, pred Predicate) (Record, bool, error)
	// FindAll returns every record matching pred in row order.
	FindAll(ctx context.Context, pred Predicate) ([]Record, error)
	// Insert appends rec and returns its key.
	Insert(ctx context.Context, rec Record) (string, error)
	// Update writes fields to the record with the given key and returns the
	// fields written. A missing key is a not-found error.
	Update(ctx context.Context, id string, fields Record) ([]Field, error)
	// Delete removes the record with the given key.
	Delete(ctx context.Context, id string) (bool, error)
}

func stringValue(v any) string {
	if v == nil {
		return ""
	}
	return cast.ToString(v)
}

// orderedFields returns the keys of fields in schema order.
func orderedFields(s Schema, fields Record) []Field {
	out := make([]Field, 0, len(fields))
	for _, f := range s.Fields {
		if _, ok := fields[f]; ok {
			out = append(out, f)
		}
	}
	return out
}
