package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPosterKey(t *testing.T) {
	key, err := PosterKey(12, "image/PNG")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "events/12/poster-"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	other, err := PosterKey(12, "image/png")
	require.NoError(t, err)
	assert.NotEqual(t, key, other)

	_, err = PosterKey(12, "application/pdf")
	assert.ErrorIs(t, err, ErrUnsupportedContentType)
}

func TestJoinPublicURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/events/1/p.png", joinPublicURL("https://cdn.example.com/", "/events/1/p.png"))
	assert.Equal(t, "https://cdn.example.com/x/events/1/p.png", joinPublicURL("https://cdn.example.com/x", "events/1/p.png"))
	assert.Equal(t, "", joinPublicURL("", "events/1/p.png"))
	assert.Equal(t, "", joinPublicURL("https://cdn.example.com", ""))
}

func TestNewCloudflareR2Uploader_RequiresConfig(t *testing.T) {
	_, err := NewCloudflareR2Uploader(context.Background(), CloudflareR2UploaderConfig{AccountID: "acc"})
	require.Error(t, err)
}
