package bytesize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want ByteSize
	}{
		{"1024", 1024},
		{"64KiB", 64 * KiB},
		{"64ki", 64 * KiB},
		{"1MB", MB},
		{"1m", MB},
		{"2 GiB", 2 * GiB},
		{"1.5KiB", 1536},
		{"10b", 10},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"", "  ", "KiB", "abc", "-1", "1XB"} {
		_, err := Parse(in)
		assert.Error(t, err, in)
	}
}

func TestText(t *testing.T) {
	assert.Equal(t, "64KiB", (64 * KiB).String())
	assert.Equal(t, "1000", KB.String())
	assert.Equal(t, "3MiB", (3 * MiB).String())

	var b ByteSize
	require.NoError(t, b.UnmarshalText([]byte("1MiB")))
	text, err := b.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1MiB", string(text))
}
