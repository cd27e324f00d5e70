package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "progression/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseCaseID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseCaseID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseCaseID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID and canonicalises case", func(t *testing.T) {
		raw := "550E8400-E29B-41D4-A716-446655440000"
		id, err := ParseCaseID(raw)
		require.NoError(t, err)
		assert.Equal(t, CaseID(strings.ToLower(raw)), id)
	})
}

func TestParseID_RejectsHostileInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE prosecution_cases;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Whitespace only", "   ", true},
		{"Nil UUID", uuid.Nil.String(), true},
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHearingID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// TestAllIDTypes_ConsistentBehavior ensures all ID types share one validation path.
func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	parsers := map[string]func(string) error{
		"case":        func(s string) error { _, err := ParseCaseID(s); return err },
		"defendant":   func(s string) error { _, err := ParseDefendantID(s); return err },
		"offence":     func(s string) error { _, err := ParseOffenceID(s); return err },
		"hearing":     func(s string) error { _, err := ParseHearingID(s); return err },
		"application": func(s string) error { _, err := ParseApplicationID(s); return err },
		"document":    func(s string) error { _, err := ParseCourtDocumentID(s); return err },
		"group":       func(s string) error { _, err := ParseGroupID(s); return err },
		"form":        func(s string) error { _, err := ParseCourtFormID(s); return err },
		"event":       func(s string) error { _, err := ParseEventID(s); return err },
	}

	valid := uuid.NewString()
	for name, parse := range parsers {
		t.Run(name+" accepts valid UUID", func(t *testing.T) {
			require.NoError(t, parse(valid))
		})
		for _, input := range []string{"", "invalid", uuid.Nil.String()} {
			t.Run(name+" rejects "+input, func(t *testing.T) {
				require.Error(t, parse(input))
			})
		}
	}
}

func TestDeriveEventID(t *testing.T) {
	parent := NewEventID()

	t.Run("is deterministic for the same parent and parts", func(t *testing.T) {
		assert.Equal(t, DeriveEventID(parent, "case", "a"), DeriveEventID(parent, "case", "a"))
	})

	t.Run("differs per target", func(t *testing.T) {
		assert.NotEqual(t, DeriveEventID(parent, "case", "a"), DeriveEventID(parent, "case", "b"))
	})

	t.Run("produces a parseable event id", func(t *testing.T) {
		_, err := ParseEventID(string(DeriveEventID(parent, "x")))
		require.NoError(t, err)
	})
}
