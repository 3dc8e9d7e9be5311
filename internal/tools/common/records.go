package common

import "github.com/teemow/leadcal/internal/records"

// RecordMaps converts records to plain maps for JSON output. The result is
// never nil.
func RecordMaps(recs []records.Record) []map[string]string {
	out := make([]map[string]string, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.Map())
	}
	return out
}

// FieldNames returns the column names of fields.
func FieldNames(fields []records.Field) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, string(f))
	}
	return out
}
