package minio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReportKey(t *testing.T) {
	assert.Equal(t, "reports/rpt-1.json", reportKey("rpt-1"))
}

func TestExtensionOf(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"https://cdn.example.com/videos/demo.mp4", ".mp4"},
		{"https://cdn.example.com/videos/demo.webm", ".webm"},
		{"https://cdn.example.com/videos/demo", ".mp4"},
		{"https://cdn.example.com/v1.2/clips/demo", ".mp4"},
		{"https://cdn.example.com/demo.verylongext", ".mp4"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extensionOf(tt.uri), tt.uri)
	}
}
