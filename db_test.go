package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeSchema(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"default", "sales_report", "sales_report", false},
		{"mixed case", "Sales_Report1", "Sales_Report1", false},
		{"trimmed", "  sales_report ", "sales_report", false},
		{"empty", "", "", true},
		{"leading digit", "1report", "", true},
		{"hyphen", "sales-report", "", true},
		{"injection", "x; DROP TABLE", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := sanitizeSchema(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
