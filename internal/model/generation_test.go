package model

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataURL(t *testing.T) {
	data := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}
	url := DataURL("image/png", data)

	require.True(t, strings.HasPrefix(url, "data:image/png;base64,"))
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, data, decoded)

	assert.Equal(t, "data:image/gif;base64,", DataURL("image/gif", nil))
}

func TestNewGenerationRequest(t *testing.T) {
	params := DefaultGenerationParameters()

	t.Run("absent prompt uses default", func(t *testing.T) {
		req := NewGenerationRequest("data:image/png;base64,AA==", nil, params)
		assert.Equal(t, DefaultPromptText, req.PromptText)
		assert.Equal(t, "gen4_turbo", req.Model)
		assert.Equal(t, "1280:720", req.Ratio)
		assert.Equal(t, 5, req.Duration)
		assert.Equal(t, "data:image/png;base64,AA==", req.PromptImage)
	})

	t.Run("present prompt is kept as given", func(t *testing.T) {
		prompt := "a slow pan across the harbour"
		req := NewGenerationRequest("x", &prompt, params)
		assert.Equal(t, prompt, req.PromptText)

		empty := ""
		req = NewGenerationRequest("x", &empty, params)
		assert.Equal(t, "", req.PromptText)
	})

	t.Run("blank configured default falls back", func(t *testing.T) {
		p := params
		p.DefaultPrompt = ""
		req := NewGenerationRequest("x", nil, p)
		assert.Equal(t, DefaultPromptText, req.PromptText)
	})
}

func TestUpstreamResponse(t *testing.T) {
	ok := &UpstreamResponse{StatusCode: 200, Body: []byte(`{"id":"t1"}`)}
	assert.True(t, ok.OK())

	limited := &UpstreamResponse{StatusCode: 429, Body: []byte("rate limited")}
	assert.False(t, limited.OK())
	assert.Equal(t, "rate limited", limited.Text())
}
