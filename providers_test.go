package fabriclog

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimplePromptProvider_GetPrompt(t *testing.T) {
	provider := SimplePromptProvider{
		"test":  "Test prompt for {{.Keys}}",
		"basic": "Basic prompt",
	}

	t.Run("existing prompt", func(t *testing.T) {
		prompt, err := provider.GetPrompt("test", 1)
		require.NoError(t, err)
		assert.Equal(t, "Test prompt for {{.Keys}}", prompt)
	})

	t.Run("non-existing prompt", func(t *testing.T) {
		prompt, err := provider.GetPrompt("nonexistent", 1)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
		assert.Empty(t, prompt)
	})
}

func TestWithTemplates(t *testing.T) {
	provider, err := NewStickPromptProvider(WithTemplates(map[string]string{
		"test":  "Test template",
		"basic": "Basic template",
	}))
	require.NoError(t, err)

	prompt, err := provider.GetPrompt("test", 1)
	require.NoError(t, err)
	assert.Equal(t, "Test template", prompt)
}

func TestWithVar(t *testing.T) {
	provider, err := NewStickPromptProvider(
		WithTemplates(map[string]string{"test": "Prices in {{currency}}"}),
		WithVar("currency", "yen"),
	)
	require.NoError(t, err)

	prompt, err := provider.GetPrompt("test", 1)
	require.NoError(t, err)
	assert.Equal(t, "Prices in yen", prompt)
}

func TestWithFS(t *testing.T) {
	fsys := fstest.MapFS{
		"tpl/fabric.twig":     {Data: []byte("v{{ version }} {{ tag }}")},
		"tpl/readme.md":       {Data: []byte("ignored")},
		"tpl/sub/notice.twig": {Data: []byte("notice")},
	}

	provider, err := NewStickPromptProvider(WithFS(fsys, "tpl"))
	require.NoError(t, err)

	prompt, err := provider.GetPrompt("fabric", 3)
	require.NoError(t, err)
	assert.Equal(t, "v3 fabric", prompt)

	prompt, err = provider.GetPrompt("notice", 1)
	require.NoError(t, err)
	assert.Equal(t, "notice", prompt)

	_, err = provider.GetPrompt("readme", 1)
	assert.Error(t, err)
}

func TestStickPromptProvider_AddTemplate(t *testing.T) {
	provider, err := NewStickPromptProvider()
	require.NoError(t, err)

	provider.AddTemplate("new", "New template")

	prompt, err := provider.GetPrompt("new", 1)
	require.NoError(t, err)
	assert.Equal(t, "New template", prompt)
}

func TestStickPromptProvider_GetPromptWithContext(t *testing.T) {
	provider, err := NewStickPromptProvider(
		WithTemplates(map[string]string{
			"extraction": "Extract {{ key_list }} from:\n{{ document }}",
		}),
		WithVar("document", "provider default"),
	)
	require.NoError(t, err)

	t.Run("request vars override provider vars", func(t *testing.T) {
		prompt, err := provider.GetPromptWithContext("extraction", 1, map[string]any{
			"key_list": "name, width",
			"document": "綿ローン 2m",
		})
		require.NoError(t, err)
		assert.Equal(t, "Extract name, width from:\n綿ローン 2m", prompt)
	})

	t.Run("provider vars fill gaps", func(t *testing.T) {
		prompt, err := provider.GetPromptWithContext("extraction", 1, map[string]any{"key_list": "shop"})
		require.NoError(t, err)
		assert.Equal(t, "Extract shop from:\nprovider default", prompt)
	})

	t.Run("non-existent template", func(t *testing.T) {
		_, err := provider.GetPromptWithContext("nonexistent", 1, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestDefaultPrompts(t *testing.T) {
	provider, err := DefaultPrompts()
	require.NoError(t, err)

	prompt, err := provider.GetPromptWithContext(DefaultPromptTag, 1, map[string]any{
		"mode":        "images",
		"image_count": 2,
		"key_list":    "name, length",
		"document":    "",
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "The 2 attached photos are different views of ONE physical fabric item")
	assert.Contains(t, prompt, "keys and nothing else: name, length.")
	assert.NotContains(t, prompt, "Source:")
}
