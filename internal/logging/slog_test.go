package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAttributeHelpers(t *testing.T) {
	tests := []struct {
		name    string
		attr    slog.Attr
		wantKey string
		wantVal string
	}{
		{"operation", Operation("book"), KeyOperation, "book"},
		{"calendar", Calendar("primary"), KeyCalendar, "primary"},
		{"client id", ClientID("A1B2C3"), KeyClientID, "A1B2C3"},
		{"tool", Tool("create_meeting"), KeyTool, "create_meeting"},
		{"status", Status(StatusSuccess), KeyStatus, "success"},
		{"error", Err(errors.New("boom")), KeyError, "boom"},
		{"phone", Phone("+57 300 123 4567"), KeyPhone, "********4567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.wantKey {
				t.Errorf("key = %q, want %q", tt.attr.Key, tt.wantKey)
			}
			if tt.attr.Value.String() != tt.wantVal {
				t.Errorf("value = %q, want %q", tt.attr.Value.String(), tt.wantVal)
			}
		})
	}

	if attr := Err(nil); attr.Key != "" {
		t.Errorf("Err(nil) key = %q, want empty group", attr.Key)
	}
}

func TestWithHelpers(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	WithOperation(base, "scan").Info("done", Tool("check_availability"))

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON log line: %v", err)
	}
	for key, want := range map[string]string{KeyOperation: "scan", KeyTool: "check_availability"} {
		if got[key] != want {
			t.Errorf("%s = %v, want %q", key, got[key], want)
		}
	}
}

func TestAnonymizeEmail(t *testing.T) {
	if got := AnonymizeEmail(""); got != "" {
		t.Errorf("AnonymizeEmail(\"\") = %q, want empty", got)
	}

	h := AnonymizeEmail("ana@example.com")
	if len(h) != 21 || !strings.HasPrefix(h, "user:") {
		t.Errorf("AnonymizeEmail() = %q, want user: plus 16 hex chars", h)
	}
	if AnonymizeEmail(" ANA@Example.com ") != h {
		t.Error("AnonymizeEmail should ignore case and surrounding space")
	}
	if AnonymizeEmail("beto@example.com") == h {
		t.Error("different emails should produce different hashes")
	}
	if UserHash("ana@example.com").Value.String() != h {
		t.Error("UserHash should use AnonymizeEmail")
	}
}

func TestMaskPhone(t *testing.T) {
	tests := map[string]string{
		"":                  "",
		"abc":               "",
		"123":               "***",
		"3001234567":        "******4567",
		"+57 (300) 1234567": "********4567",
	}
	for in, want := range tests {
		if got := MaskPhone(in); got != want {
			t.Errorf("MaskPhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractDomain(t *testing.T) {
	tests := map[string]string{
		"ana@Example.com": "example.com",
		"invalid":         "",
		"":                "",
		"a@b@c":           "",
	}
	for in, want := range tests {
		if got := ExtractDomain(in); got != want {
			t.Errorf("ExtractDomain(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Options{JSON: true, Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer closer.Close()

	logger.Debug("hidden")
	logger.Info("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("debug message logged at info level")
	}
	if !strings.Contains(buf.String(), `"msg":"shown"`) {
		t.Errorf("expected JSON output, got %q", buf.String())
	}
}

func TestNewWithDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var buf bytes.Buffer
	logger, closer, err := New(Options{Debug: true, Writer: &buf, Dir: dir})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Debug("to file")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "to file") || !strings.Contains(buf.String(), "to file") {
		t.Error("log line should reach both the writer and the file")
	}
}
