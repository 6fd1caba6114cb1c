package querystring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"page[offset]", "page[offset]"},
		{":bob", ":bob"},
		{"bob smith", "bob+smith"},
		{"a&b=c", "a%26b%3Dc"},
		{"50%", "50%25"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Escape(tt.in), tt.in)
	}
}

func TestBuilderKeepsOrderAndDuplicates(t *testing.T) {
	var b Builder
	b.Add("filter[id]", "2").Add("filter[id]", "1").Add("sort", "-createdAt")

	assert.Equal(t, 3, b.Len())
	assert.Equal(t, "filter[id]=2&filter[id]=1&sort=-createdAt", b.Encode())
}

func TestBuilderEmpty(t *testing.T) {
	var b Builder
	assert.Equal(t, "", b.Encode())
}
