package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveDisplayName(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"jane.doe@campus.edu", "Jane Doe"},
		{"bob@campus.edu", "Bob"},
		{"a_b-c@campus.edu", "A B C"},
		{"@campus.edu", "Card Owner"},
		{"", "Card Owner"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DeriveDisplayName(tt.email), "email %q", tt.email)
	}
}
