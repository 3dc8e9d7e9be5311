package records

import (
	"fmt"
	"sort"
	"strings"

	"github.com/teemow/leadcal/internal/apperror"
)

// TimestampLayout is the format of every date column.
const TimestampLayout = "2006-01-02 15:04:05"

// DateLayout is the format accepted for date-only values.
const DateLayout = "2006-01-02"

// Field is a column header.
type Field string

// Record is one row keyed by column header.
type Record map[Field]string

// Get returns the value for f, or "" when absent.
func (r Record) Get(f Field) string {
	return r[f]
}

// Clone returns a copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Map returns the record keyed by plain strings, for JSON output.
func (r Record) Map() map[string]string {
	out := make(map[string]string, len(r))
	for k, v := range r {
		out[string(k)] = v
	}
	return out
}

// Predicate selects records.
type Predicate func(Record) bool

// FieldEquals matches records whose field f equals value exactly.
func FieldEquals(f Field, value string) Predicate {
	return func(r Record) bool { return r[f] == value }
}

// Schema describes one sheet.
type Schema struct {
	Sheet  string
	Key    Field
	Fields []Field
	// Open schemas accept extra columns after Fields; they are read but
	// never written.
	Open bool
}

// Has reports whether f is a schema field.
func (s Schema) Has(f Field) bool {
	for _, sf := range s.Fields {
		if sf == f {
			return true
		}
	}
	return false
}

// ValidateHeader checks a sheet's header row against the schema. A strict
// schema requires the exact field list; an open schema requires it as a
// prefix.
func (s Schema) ValidateHeader(header []string) error {
	if len(header) < len(s.Fields) || (!s.Open && len(header) != len(s.Fields)) {
		return fmt.Errorf("sheet %q header has %d columns, expected %d (%s)",
			s.Sheet, len(header), len(s.Fields), s.joinFields())
	}
	for i, f := range s.Fields {
		if strings.TrimSpace(header[i]) != string(f) {
			return fmt.Errorf("sheet %q column %s is %q, expected %q",
				s.Sheet, columnName(i), header[i], f)
		}
	}
	return nil
}

// FieldsFromArgs converts caller-supplied keys into schema fields. Unknown
// keys and the key field are rejected. Values are stringified.
func (s Schema) FieldsFromArgs(op string, args map[string]any) (Record, error) {
	if len(args) == 0 {
		return nil, apperror.Input(op, "no fields provided")
	}
	rec := make(Record, len(args))
	var unknown []string
	for k, v := range args {
		f := Field(k)
		if !s.Has(f) {
			unknown = append(unknown, k)
			continue
		}
		if f == s.Key {
			return nil, apperror.Input(op, "field %q cannot be updated", k)
		}
		rec[f] = stringValue(v)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, apperror.Input(op, "unknown fields %s; valid fields are %s",
			strings.Join(unknown, ", "), s.joinFields())
	}
	return rec, nil
}

func (s Schema) joinFields() string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// columnName converts a zero-based column index to A1 notation.
func columnName(i int) string {
	name := ""
	for i >= 0 {
		name = string(rune('A'+i%26)) + name
		i = i/26 - 1
	}
	return name
}
