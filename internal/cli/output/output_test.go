package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{input: "", want: FormatTable},
		{input: "table", want: FormatTable},
		{input: "JSON", want: FormatJSON},
		{input: " yml ", want: FormatYAML},
		{input: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type migration struct {
	Database string `json:"database" yaml:"database"`
	Version  uint   `json:"version" yaml:"version"`
}

func (m migration) Headers() []string { return []string{"Database", "Version"} }
func (m migration) Rows() [][]string  { return [][]string{{m.Database, "4"}} }

func TestPrinter_Formats(t *testing.T) {
	m := migration{Database: "newsletter", Version: 4}

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatTable).Print(m))
	assert.Contains(t, buf.String(), "DATABASE")
	assert.Contains(t, buf.String(), "newsletter")

	buf.Reset()
	require.NoError(t, NewPrinter(&buf, FormatJSON).Print(m))
	var decoded migration
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, m, decoded)

	buf.Reset()
	require.NoError(t, NewPrinter(&buf, FormatYAML).Print(m))
	assert.Contains(t, buf.String(), "database: newsletter")
}

func TestPrinter_TableFallsBackToYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatTable).Print(map[string]int{"port": 8000}))
	assert.Contains(t, buf.String(), "port: 8000")
}

func TestPrintKeyValues(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintKeyValues(&buf, KeyValues{{"Version", "dev"}, {"Commit", "none"}}))

	out := buf.String()
	assert.Contains(t, out, "Version")
	assert.Contains(t, out, "dev")
	assert.NotContains(t, out, "KEY")
}
