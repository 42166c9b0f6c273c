package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDialectQuoteIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		input    string
		expected string
	}{
		{"plain", testDialect, "users", `"users"`},
		{"embedded quote doubled", testDialect, `wei"rd`, `"wei""rd"`},
		{"backticks", mysqlDialect, "users", "`users`"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.dialect.QuoteIdentifier(tt.input))
		})
	}
}

func TestDialectQuoteQualified(t *testing.T) {
	assert.Equal(t, `"analytics"."events"`, testDialect.QuoteQualified("analytics", "events"))
	assert.Equal(t, `"public"."users"`, testDialect.QuoteQualified("", "users"))

	noSchema := Dialect{QuoteStart: `"`, QuoteEnd: `"`}
	assert.Equal(t, `"users"`, noSchema.QuoteQualified("", "users"))
}

func TestDialectFormatPlaceholder(t *testing.T) {
	assert.Equal(t, "$1", testDialect.FormatPlaceholder(1))
	assert.Equal(t, "$7", testDialect.FormatPlaceholder(7))
	assert.Equal(t, "?", mysqlDialect.FormatPlaceholder(1))
}
