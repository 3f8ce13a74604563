package publish

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentType(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"index.html", "text/html"},
		{"script.js", "application/javascript"},
		{"style.css", "text/css"},
		{"assets/hero.png", "image/png"},
		{"assets/hero.jpg", "image/jpeg"},
		{"assets/hero.JPEG", "image/jpeg"},
		{"assets/hero.webp", "image/webp"},
		{"logo.svg", "image/svg+xml"},
		{"font.woff2", "application/octet-stream"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ContentType(tt.path), tt.path)
	}
}

func TestCacheControl(t *testing.T) {
	assert.Equal(t, "max-age=60", CacheControl("index.html"))
	assert.Equal(t, "max-age=60", CacheControl("slide_2_wireframe.HTML"))
	assert.Equal(t, "public, max-age=31536000, immutable", CacheControl("style.css"))
	assert.Equal(t, "public, max-age=31536000, immutable", CacheControl("assets/hero.webp"))
}

func TestSiteURL(t *testing.T) {
	url, err := SiteURL("https://sites.example.com", "ana-y-leo")
	require.NoError(t, err)
	assert.Equal(t, "https://sites.example.com/ana-y-leo/", url)

	url, err = SiteURL("https://cdn.example.com/published/", "ana-y-leo")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/published/ana-y-leo/", url)
}

func TestNewS3Uploader_RequiresBucket(t *testing.T) {
	_, err := NewS3Uploader(S3Config{Endpoint: "s3.example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket name is required")
}
