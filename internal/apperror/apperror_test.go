package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs(t *testing.T) {
	base := errors.New("token revoked")

	tests := []struct {
		name string
		err  error
		kind Kind
		want bool
	}{
		{"input", Input("book", "summary is required"), KindInput, true},
		{"input is not auth", Input("book", "x"), KindAuth, false},
		{"auth", Auth("query_busy", base), KindAuth, true},
		{"unavailable wrapping auth matches auth", Unavailable("book", Auth("query_busy", base)), KindAuth, true},
		{"unavailable wrapping auth matches unavailable", Unavailable("book", Auth("query_busy", base)), KindProviderUnavailable, true},
		{"fmt wrapped", fmt.Errorf("failed: %w", NotFound("get_event", "event %s", "abc")), KindNotFound, true},
		{"plain error", base, KindInput, false},
		{"nil", nil, KindInput, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Is(tt.err, tt.kind))
		})
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindProviderUnavailable, KindOf(Unavailable("op", Auth("op", errors.New("x")))))
	assert.Equal(t, KindUnknown, KindOf(errors.New("x")))
}

func TestErrorMessage(t *testing.T) {
	err := Unavailable("insert_event", errors.New("503 backend error"))
	assert.Equal(t, "insert_event: provider unavailable: 503 backend error", err.Error())
	assert.Equal(t, "lead not found", (&Error{Kind: KindNotFound, Msg: "lead not found"}).Error())
	assert.Equal(t, "get_event: event abc not found", NotFound("get_event", "event %s not found", "abc").Error())
}
