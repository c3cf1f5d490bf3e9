package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostFromRow(t *testing.T) {
	row := []string{"hello", "https://example.com", "img1", "", "img3", "", "2026-01-01", "09", "draft"}

	post := PostFromRow(row)

	assert.Equal(t, "hello", post.StatusText)
	assert.Equal(t, "https://example.com", post.StatusLink)
	assert.Equal(t, []string{"img1", "img3"}, post.ImageURLs)
}

func TestPost_Render(t *testing.T) {
	tests := []struct {
		name string
		post Post
		want string
	}{
		{"text only", Post{StatusText: "hi"}, "hi"},
		{"link only", Post{StatusLink: "https://x"}, "https://x"},
		{"both", Post{StatusText: "hi", StatusLink: "https://x"}, "hi\nhttps://x"},
		{"empty", Post{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.post.Render())
		})
	}
}
