package rbac

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSchemaName(t *testing.T) {
	tests := []struct {
		name    string
		schema  string
		wantErr bool
	}{
		{"simple tenant schema", "tenant_acme", false},
		{"digits and underscores", "tenant_42_corp", false},
		{"single character suffix", "tenant_a", false},
		{"max length suffix", "tenant_" + strings.Repeat("a", 63), false},
		{"empty", "", true},
		{"missing prefix", "acme", true},
		{"prefix only", "tenant_", true},
		{"uppercase", "tenant_Acme", true},
		{"hyphen", "tenant_acme-prod", true},
		{"over max length suffix", "tenant_" + strings.Repeat("a", 64), true},
		{"sql injection attempt", "tenant_x; DROP TABLE roles--", true},
		{"quoted identifier", `tenant_"x"`, true},
		{"embedded whitespace", "tenant_ac me", true},
		{"trailing newline", "tenant_acme\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSchemaName(tt.schema)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, IsInvalidSchemaName(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
