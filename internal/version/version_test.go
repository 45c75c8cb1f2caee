package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfoString(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{Version: "dev"}, "dev"},
		{Info{Version: "v1.2.0", Commit: "0123456789abcdef"}, "v1.2.0 (0123456)"},
		{Info{Version: "v1.2.0", Commit: "abc"}, "v1.2.0 (abc)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.info.String())
	}
}

func TestGetInfoStartsWithVersion(t *testing.T) {
	assert.Contains(t, GetInfo(), Version)
	assert.Equal(t, Version, Get().Version)
}
