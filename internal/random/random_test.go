package random_test

import (
	"testing"

	"github.com/justibot/justibot/internal/random"
	"github.com/stretchr/testify/require"
)

func TestLetters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		length uint
	}{
		{name: "zero length", length: 0},
		{name: "32 length", length: 32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := random.Letters(tt.length)
			require.NoError(t, err)
			require.Len(t, got, int(tt.length))
			for _, r := range got {
				require.True(t, (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'), "unexpected rune %q", r)
			}
		})
	}

	a, err := random.Letters(20)
	require.NoError(t, err)
	b, err := random.Letters(20)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}
