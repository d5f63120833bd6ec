package whatsapp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+62 812-3456-7890", "6281234567890"},
		{"6281234567890", "6281234567890"},
		{"(62) 812 3456", "628123456"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePhone(tt.in))
	}
}

func TestLink(t *testing.T) {
	got := Link("+62 812-3456-7890", "Hello, order #42")
	assert.Equal(t, "https://wa.me/6281234567890?text=Hello%2C+order+%2342", got)
}
