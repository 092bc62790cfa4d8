package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSSLMode(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"postgres://u:p@db:5432/app?sslmode=require", "require"},
		{"postgres://u:p@db:5432/app?sslmode=DISABLE", "disable"},
		{"postgres://u:p@db:5432/app", "prefer (default)"},
		{"::not a url", "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractSSLMode(tt.url), tt.url)
	}
}

func TestQueryVerb(t *testing.T) {
	assert.Equal(t, "SELECT", queryVerb("select body FROM records"))
	assert.Equal(t, "INSERT", queryVerb("\n\tINSERT INTO records"))
	assert.Equal(t, "unknown", queryVerb("   "))
	assert.Len(t, queryVerb("averyveryverylongstatementkeyword"), 20)
}
