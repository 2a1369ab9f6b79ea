package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeSchema(t *testing.T) {
	tests := map[string]struct {
		input    string
		expected string
		wantErr  bool
	}{
		"Simple":       {input: "pqrsdf_sla", expected: "pqrsdf_sla"},
		"Trimmed":      {input: "  reports ", expected: "reports"},
		"MixedCase":    {input: "Reports2024", expected: "Reports2024"},
		"Empty":        {input: "  ", wantErr: true},
		"LeadingDigit": {input: "2024reports", wantErr: true},
		"Injection":    {input: "public; DROP TABLE runs", wantErr: true},
		"Dotted":       {input: "public.runs", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := SanitizeSchema(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSchemaStatements(t *testing.T) {
	stmts := schemaStatements("history")

	assert.Len(t, stmts, 4)
	assert.Equal(t, "CREATE SCHEMA IF NOT EXISTS history", stmts[0])
	assert.True(t, strings.Contains(stmts[1], "CREATE TABLE IF NOT EXISTS history.runs"))
	assert.True(t, strings.Contains(stmts[2], "REFERENCES history.runs(id) ON DELETE CASCADE"))
	for _, stmt := range stmts {
		assert.NotContains(t, stmt, "%s")
	}
}
