package fabriclog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/net/html"
)

const (
	// maxPageBytes caps how much of a product page is read for URL inputs.
	maxPageBytes = 1 << 20
	// pageFetchTimeout bounds a page fetch when URLAsset.Timeout is unset.
	pageFetchTimeout = 15 * time.Second
)

// Asset represents any kind of input that can be converted to messages for processing
type Asset interface {
	CreateMessages(ctx context.Context, log *slog.Logger) ([]*Message, error)
}

// TextAsset represents pasted product text
type TextAsset struct {
	Content string
}

// CreateMessages implements Asset for text content
func (t *TextAsset) CreateMessages(ctx context.Context, log *slog.Logger) ([]*Message, error) {
	if strings.TrimSpace(t.Content) == "" {
		return nil, ErrEmptyInput
	}
	return []*Message{NewUserMessage(NewTextPart(t.Content))}, nil
}

// ImageAsset represents one photo of the fabric
type ImageAsset struct {
	Name     string
	Data     []byte
	MimeType string
}

// CreateMessages implements Asset for image content
func (i *ImageAsset) CreateMessages(ctx context.Context, log *slog.Logger) ([]*Message, error) {
	if len(i.Data) == 0 {
		return nil, fmt.Errorf("image %q: %w", i.Name, ErrEmptyInput)
	}
	return []*Message{NewUserMessage(NewImagePart(i.Data, i.MimeType))}, nil
}

// URLAsset is a product page address. The address itself is always sent as
// text; when Fetch is set the visible page text is appended if the page can
// be read.
type URLAsset struct {
	URL     string
	Fetch   bool
	Client  *http.Client  // nil → http.DefaultClient
	Timeout time.Duration // 0 → pageFetchTimeout
}

// CreateMessages implements Asset for URL content
func (u *URLAsset) CreateMessages(ctx context.Context, log *slog.Logger) ([]*Message, error) {
	addr := strings.TrimSpace(u.URL)
	if addr == "" {
		return nil, ErrEmptyInput
	}
	text := "URL: " + addr
	if u.Fetch {
		page, err := u.fetch(ctx)
		if err != nil {
			log.Warn("Could not fetch product page, sending URL only", "url", addr, "error", err)
		} else if page != "" {
			log.Debug("Fetched product page", "url", addr, "text_length", len(page))
			text += "\n\n" + page
		}
	}
	return []*Message{NewUserMessage(NewTextPart(text))}, nil
}

func (u *URLAsset) fetch(ctx context.Context) (string, error) {
	client := u.Client
	if client == nil {
		client = http.DefaultClient
	}
	timeout := u.Timeout
	if timeout <= 0 {
		timeout = pageFetchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSpace(u.URL), nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("GET %s: %s", u.URL, resp.Status)
	}
	return visibleText(io.LimitReader(resp.Body, maxPageBytes))
}

// visibleText returns the text nodes of an HTML document outside script and
// style elements, one run per line.
func visibleText(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)
	var (
		b    strings.Builder
		skip int
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return strings.TrimSpace(b.String()), nil
			}
			return "", z.Err()
		case html.StartTagToken:
			if name, _ := z.TagName(); isHiddenTag(name) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isHiddenTag(name) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			if t := strings.TrimSpace(string(z.Text())); t != "" {
				b.WriteString(t)
				b.WriteByte('\n')
			}
		}
	}
}

func isHiddenTag(name []byte) bool {
	switch string(name) {
	case "script", "style", "noscript", "template":
		return true
	}
	return false
}

// NewTextAsset creates a new text asset
func NewTextAsset(content string) *TextAsset {
	return &TextAsset{Content: content}
}

// NewImageAsset creates a new image asset
func NewImageAsset(data []byte, mimeType string) *ImageAsset {
	return &ImageAsset{Data: data, MimeType: mimeType}
}

// NewURLAsset creates a URL asset; fetch also reads the page text.
func NewURLAsset(url string, fetch bool) *URLAsset {
	return &URLAsset{URL: url, Fetch: fetch}
}

// ImageSource is something an image can be read from: an uploaded form file
// or a path on disk.
type ImageSource struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// ImageFile returns an ImageSource reading the file at path.
func ImageFile(path string) ImageSource {
	return ImageSource{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// LoadImages reads, sniffs and, when maxPx > 0, downsizes every source. Work
// runs concurrently but the result keeps the order of sources, which is the
// order the model sees the photos in.
func LoadImages(ctx context.Context, maxPx int, sources ...ImageSource) ([]*ImageAsset, error) {
	if len(sources) == 0 {
		return nil, ErrEmptyInput
	}
	out := make([]*ImageAsset, len(sources))
	r := DefaultRunner(ctx)
	for i, src := range sources {
		r.Go(func() error {
			if err := r.Context().Err(); err != nil {
				return err
			}
			img, err := loadImage(src, maxPx)
			if err != nil {
				return fmt.Errorf("image %q: %w", src.Name, err)
			}
			out[i] = img
			return nil
		})
	}
	if err := r.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func loadImage(src ImageSource, maxPx int) (*ImageAsset, error) {
	rc, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	return PrepareImage(src.Name, data, maxPx)
}

// PrepareImage validates that data is an image and shrinks it so that neither
// side exceeds maxPx. Formats the resizer cannot decode (webp, heic) are
// passed through untouched since the model accepts them directly.
func PrepareImage(name string, data []byte, maxPx int) (*ImageAsset, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: detected %s", ErrNotImage, mt.String())
	}
	asset := &ImageAsset{Name: name, Data: data, MimeType: mt.String()}
	if maxPx <= 0 {
		return asset, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return asset, nil
	}
	b := img.Bounds()
	if b.Dx() <= maxPx && b.Dy() <= maxPx {
		return asset, nil
	}
	var buf bytes.Buffer
	resized := imaging.Fit(img, maxPx, maxPx, imaging.Lanczos)
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("re-encode: %w", err)
	}
	asset.Data = buf.Bytes()
	asset.MimeType = "image/jpeg"
	return asset, nil
}
