package fabriclog

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNewTextAsset(t *testing.T) {
	asset := NewTextAsset("Test content")
	assert.Equal(t, "Test content", asset.Content)
}

func TestNewImageAsset(t *testing.T) {
	data := []byte("fake image data")
	asset := NewImageAsset(data, "image/png")

	assert.Equal(t, data, asset.Data)
	assert.Equal(t, "image/png", asset.MimeType)
}

func TestTextAsset_CreateMessages(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	t.Run("valid content", func(t *testing.T) {
		messages, err := NewTextAsset("綿ブロード 110cm幅").CreateMessages(ctx, logger)

		require.NoError(t, err)
		require.Len(t, messages, 1)
		assert.Equal(t, "user", messages[0].Role)
		require.Len(t, messages[0].Parts, 1)
		assert.Equal(t, "text", messages[0].Parts[0].Type)
		assert.Equal(t, "綿ブロード 110cm幅", messages[0].Parts[0].Text)
	})

	t.Run("blank content", func(t *testing.T) {
		messages, err := NewTextAsset(" \n").CreateMessages(ctx, logger)
		assert.ErrorIs(t, err, ErrEmptyInput)
		assert.Nil(t, messages)
	})
}

func TestImageAsset_CreateMessages(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("valid image data", func(t *testing.T) {
		data := []byte("fake image data")
		messages, err := NewImageAsset(data, "image/png").CreateMessages(ctx, logger)

		require.NoError(t, err)
		require.Len(t, messages, 1)
		part := messages[0].Parts[0]
		assert.Equal(t, "image", part.Type)
		assert.Equal(t, data, part.Data)
		assert.Equal(t, "image/png", part.MimeType)
	})

	t.Run("empty image data", func(t *testing.T) {
		_, err := (&ImageAsset{Name: "a.jpg"}).CreateMessages(ctx, logger)
		assert.ErrorIs(t, err, ErrEmptyInput)
	})
}

func TestURLAsset_CreateMessages(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, `<html><head><title>リバティ</title><style>.a{color:red}</style></head>
<body><script>var tracking = 1;</script><h1>リバティプリント</h1><p>価格 ¥1,980 / 50cm</p></body></html>`)
	}))
	defer srv.Close()

	t.Run("fetches visible text", func(t *testing.T) {
		asset := &URLAsset{URL: srv.URL + "/item", Fetch: true, Client: srv.Client()}
		messages, err := asset.CreateMessages(ctx, logger)
		require.NoError(t, err)

		text := messages[0].Parts[0].Text
		assert.True(t, strings.HasPrefix(text, "URL: "+srv.URL+"/item"))
		assert.Contains(t, text, "リバティプリント")
		assert.Contains(t, text, "価格 ¥1,980 / 50cm")
		assert.NotContains(t, text, "tracking")
		assert.NotContains(t, text, "color:red")
	})

	t.Run("fetch failure sends url only", func(t *testing.T) {
		asset := &URLAsset{URL: srv.URL + "/missing", Fetch: true, Client: srv.Client()}
		messages, err := asset.CreateMessages(ctx, logger)
		require.NoError(t, err)
		assert.Equal(t, "URL: "+srv.URL+"/missing", messages[0].Parts[0].Text)
	})

	t.Run("no fetch", func(t *testing.T) {
		asset := &URLAsset{URL: "https://shop.example/p/1"}
		messages, err := asset.CreateMessages(ctx, logger)
		require.NoError(t, err)
		assert.Equal(t, "URL: https://shop.example/p/1", messages[0].Parts[0].Text)
	})

	t.Run("empty url", func(t *testing.T) {
		_, err := (&URLAsset{URL: " "}).CreateMessages(ctx, logger)
		assert.ErrorIs(t, err, ErrEmptyInput)
	})
}

// stallingServer answers no request until the client gives up.
func stallingServer(t *testing.T) *httptest.Server {
	t.Helper()
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})
	return srv
}

func TestURLAsset_SlowPage(t *testing.T) {
	srv := stallingServer(t)

	asset := NewURLAsset(srv.URL+"/item", true)
	asset.Timeout = 50 * time.Millisecond

	start := time.Now()
	messages, err := asset.CreateMessages(context.Background(), slog.Default())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, "URL: "+srv.URL+"/item", messages[0].Parts[0].Text)
}

func TestNewURLAsset(t *testing.T) {
	a := NewURLAsset("https://shop.example/p/1", false)
	assert.Equal(t, "https://shop.example/p/1", a.URL)
	assert.False(t, a.Fetch)
	assert.True(t, NewURLAsset("x", true).Fetch)
}

func TestVisibleText(t *testing.T) {
	text, err := visibleText(strings.NewReader(`<div>one</div><noscript>hidden</noscript><span> two </span>`))
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo", text)
}

func TestPrepareImage(t *testing.T) {
	t.Run("small image passes through", func(t *testing.T) {
		data := pngBytes(t, 40, 20)
		asset, err := PrepareImage("small.png", data, 100)
		require.NoError(t, err)
		assert.Equal(t, "image/png", asset.MimeType)
		assert.Equal(t, data, asset.Data)
		assert.Equal(t, "small.png", asset.Name)
	})

	t.Run("large image is resized", func(t *testing.T) {
		asset, err := PrepareImage("large.png", pngBytes(t, 200, 100), 50)
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", asset.MimeType)

		cfg, _, err := image.DecodeConfig(bytes.NewReader(asset.Data))
		require.NoError(t, err)
		assert.Equal(t, 50, cfg.Width)
		assert.Equal(t, 25, cfg.Height)
	})

	t.Run("no limit", func(t *testing.T) {
		data := pngBytes(t, 200, 100)
		asset, err := PrepareImage("large.png", data, 0)
		require.NoError(t, err)
		assert.Equal(t, data, asset.Data)
	})

	t.Run("not an image", func(t *testing.T) {
		_, err := PrepareImage("notes.txt", []byte("just some text"), 100)
		assert.ErrorIs(t, err, ErrNotImage)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := PrepareImage("empty.png", nil, 100)
		assert.ErrorIs(t, err, ErrEmptyInput)
	})
}

func TestLoadImages(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i, size := range []int{30, 60, 90} {
		p := filepath.Join(dir, string(rune('a'+i))+".png")
		require.NoError(t, os.WriteFile(p, pngBytes(t, size, size), 0o644))
		paths = append(paths, p)
	}

	sources := make([]ImageSource, len(paths))
	for i, p := range paths {
		sources[i] = ImageFile(p)
	}

	images, err := LoadImages(context.Background(), 0, sources...)
	require.NoError(t, err)
	require.Len(t, images, 3)
	for i, img := range images {
		assert.Equal(t, filepath.Base(paths[i]), img.Name, "order is preserved")
		cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data))
		require.NoError(t, err)
		assert.Equal(t, 30*(i+1), cfg.Width)
	}
}

func TestLoadImages_Errors(t *testing.T) {
	_, err := LoadImages(context.Background(), 0)
	assert.ErrorIs(t, err, ErrEmptyInput)

	bad := ImageSource{Name: "bad", Open: func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("plain text")), nil
	}}
	_, err = LoadImages(context.Background(), 0, bad)
	assert.ErrorIs(t, err, ErrNotImage)

	boom := errors.New("disk gone")
	broken := ImageSource{Name: "broken", Open: func() (io.ReadCloser, error) { return nil, boom }}
	_, err = LoadImages(context.Background(), 0, broken)
	assert.ErrorIs(t, err, boom)
}
