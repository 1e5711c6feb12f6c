package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"plugin-migrate/internal/schema"
)

func TestAnalyzeMeaning(t *testing.T) {
	tests := []struct {
		column, comment, want string
	}{
		{"reg_dt", "", "registered date"},
		{"UserNm", "", "user name"},
		{"user_email", "", "user email"},
		{"contact", "Mobile phone of the customer", "phone"},
		{"x1", "Postal code", "zipcode"},
		{"is_del", "", "yesno deleted"},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, schema.AnalyzeMeaning(test.column, test.comment), test.column)
	}
}
