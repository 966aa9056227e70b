package fabriclog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithModels(t *testing.T) {
	var opts Options
	WithModels("gemini-2.0-flash", "gemini-pro")(&opts)

	assert.Equal(t, []string{"gemini-2.0-flash", "gemini-pro"}, opts.Models)
	assert.Equal(t, []string{"gemini-2.0-flash", "gemini-pro"}, opts.models())
}

func TestWithTimeout(t *testing.T) {
	var opts Options
	WithTimeout(45 * time.Second)(&opts)

	assert.Equal(t, 45*time.Second, opts.Timeout)
}

func TestWithPrompt(t *testing.T) {
	var opts Options
	WithPrompt("fabric_v2")(&opts)
	WithPromptVersion(2)(&opts)

	assert.Equal(t, "fabric_v2", opts.promptTag())
	assert.Equal(t, 2, opts.promptVersion())
}

func TestWithParameter(t *testing.T) {
	var opts Options
	WithParameter("temperature", "0.1")(&opts)
	WithParameter("topK", "20")(&opts)

	assert.Equal(t, map[string]string{"temperature": "0.1", "topK": "20"}, opts.Parameters)
}

func TestOptionDefaults(t *testing.T) {
	var opts Options

	assert.Equal(t, DefaultModels, opts.models())
	assert.Equal(t, DefaultPromptTag, opts.promptTag())
	assert.Equal(t, 1, opts.promptVersion())
	assert.Zero(t, opts.Timeout)
}
