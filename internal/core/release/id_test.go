package release

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// New / NewAt Tests
// =============================================================================

func TestNew_MatchesPattern(t *testing.T) {
	id := New()
	_, err := Parse(id.String())
	assert.NoError(t, err)
}

func TestNew_Unique(t *testing.T) {
	seen := make(map[ID]bool)
	for i := 0; i < 100; i++ {
		id := New()
		assert.False(t, seen[id], "duplicate release id %s", id)
		seen[id] = true
	}
}

func TestNewAt_TimestampHalf(t *testing.T) {
	at := time.Date(2026, 8, 31, 14, 25, 1, 0, time.UTC)
	id := NewAt(at)
	assert.True(t, len(id) == 14+1+8)
	assert.Equal(t, "20260831142501", id.String()[:14])
}

func TestNew_OrderedWithinSameSecond(t *testing.T) {
	ids := make([]ID, 50)
	for i := range ids {
		ids[i] = New()
	}
	for i := 1; i < len(ids); i++ {
		assert.Equal(t, -1, Compare(ids[i-1], ids[i]),
			"%s is not older than %s", ids[i-1], ids[i])
	}
}

func TestNewAt_ConsecutiveRunsOrdered(t *testing.T) {
	first := NewAt(time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC))
	second := NewAt(time.Date(2026, 8, 31, 10, 0, 1, 0, time.UTC))
	assert.Equal(t, -1, Compare(first, second))
	assert.Equal(t, 1, Compare(second, first))
}

// =============================================================================
// Parse Tests
// =============================================================================

func TestParse_TableDriven(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "20260831142501-9f3c2a1b", false},
		{"empty", "", true},
		{"missing suffix", "20260831142501", true},
		{"short timestamp", "2026083114250-9f3c2a1b", true},
		{"uppercase suffix", "20260831142501-9F3C2A1B", true},
		{"extra segment", "20260831142501-9f3c2a1b-x", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// =============================================================================
// Time Tests
// =============================================================================

func TestTime_RoundTrip(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	id := NewAt(at)
	got, err := id.Time()
	require.NoError(t, err)
	assert.True(t, got.Equal(at))
}

func TestCompare_Equal(t *testing.T) {
	id := ID("20260831142501-9f3c2a1b")
	assert.Equal(t, 0, Compare(id, id))
}
