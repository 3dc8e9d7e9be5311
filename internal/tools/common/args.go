package common

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"
)

// Argument names shared across tools.
const (
	ArgClientID = "client_id"
	ArgEmail    = "correo"
	ArgPhone    = "telefono"
)

// inputTimeLayouts are accepted for local times without an offset.
var inputTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ClientIDFromArgs returns the CRM client id named by the arguments, if any.
func ClientIDFromArgs(args map[string]any) string {
	for _, key := range []string{ArgClientID, "id_cliente"} {
		if v := strings.TrimSpace(cast.ToString(args[key])); v != "" {
			return v
		}
	}
	return ""
}

// ContactFromArgs returns the lead email named by the arguments, falling
// back to the phone number.
func ContactFromArgs(args map[string]any) string {
	if email := strings.TrimSpace(cast.ToString(args[ArgEmail])); email != "" {
		return email
	}
	return strings.TrimSpace(cast.ToString(args[ArgPhone]))
}

// OptionalString returns a pointer to the trimmed string argument, or nil
// when the key is absent. An explicitly empty string is returned as such.
func OptionalString(args map[string]any, key string) *string {
	v, ok := args[key]
	if !ok || v == nil {
		return nil
	}
	s := strings.TrimSpace(cast.ToString(v))
	return &s
}

// StringList reads a list argument given either as a JSON array or as a
// comma-separated string. Empty entries are dropped.
func StringList(args map[string]any, key string) []string {
	var raw []string
	switch v := args[key].(type) {
	case nil:
		return nil
	case []string:
		raw = v
	case []any:
		raw = make([]string, 0, len(v))
		for _, item := range v {
			raw = append(raw, cast.ToString(item))
		}
	default:
		raw = strings.Split(cast.ToString(v), ",")
	}

	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// ObjectArg returns an object argument, given either as a JSON object or as
// a string holding one. It returns nil when absent or malformed.
func ObjectArg(args map[string]any, key string) map[string]any {
	switch v := args[key].(type) {
	case map[string]any:
		return v
	case string:
		var m map[string]any
		if err := json.Unmarshal([]byte(v), &m); err == nil {
			return m
		}
	}
	return nil
}

// ParseTime parses an RFC 3339 timestamp, or a local timestamp without an
// offset interpreted in loc.
func ParseTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("time is empty")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range inputTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: use RFC 3339 (2024-03-01T10:00:00-05:00) or local 2006-01-02T15:04:05", value)
}

// JSONResult renders v as indented JSON in a text result.
func JSONResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
