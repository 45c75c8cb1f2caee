package freechannel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIntent(t *testing.T) {
	tests := []struct {
		content string
		want    Intent
		ok      bool
	}{
		{"text general", Intent{Kind: Text, Name: "general"}, true},
		{"voice lounge", Intent{Kind: Voice, Name: "lounge"}, true},
		{"text  spaced name ", Intent{Kind: Text, Name: "spaced name"}, true},
		{"voice 雑談", Intent{Kind: Voice, Name: "雑談"}, true},
		{"text", Intent{}, false},
		{"text ", Intent{}, false},
		{"textgeneral", Intent{}, false},
		{"Text general", Intent{}, false},
		{"VOICE lounge", Intent{}, false},
		{"hello", Intent{}, false},
		{" text general", Intent{}, false},
		{"", Intent{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			got, ok := ParseIntent(tt.content)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLooksLikeIntent(t *testing.T) {
	assert.True(t, LooksLikeIntent("text general"))
	assert.True(t, LooksLikeIntent("textual"))
	assert.True(t, LooksLikeIntent("voice"))
	assert.False(t, LooksLikeIntent("hello"))
	assert.False(t, LooksLikeIntent("Text general"))
}
