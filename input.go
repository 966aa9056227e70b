package fabriclog

import (
	"fmt"
	"strings"
)

// InputMode selects how the operator supplies the product information.
type InputMode string

const (
	ModeText   InputMode = "text"
	ModeImages InputMode = "images"
	ModeURL    InputMode = "url"
)

// ParseInputMode maps a form or flag value to an InputMode. Empty means text.
func ParseInputMode(s string) (InputMode, error) {
	switch m := InputMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeText, nil
	case ModeText, ModeImages, ModeURL:
		return m, nil
	default:
		return "", fmt.Errorf("unknown input mode %q", s)
	}
}

// Input is one extraction request.
type Input struct {
	Mode   InputMode
	Text   string        // product text; in image mode an optional note
	URL    string        // product page
	Fetch  bool          // fetch the page text for URL inputs
	Images []*ImageAsset // ordered views of one item
}

// TextInput builds a text-mode input.
func TextInput(text string) Input { return Input{Mode: ModeText, Text: text} }

// URLInput builds a URL-mode input that also reads the page.
func URLInput(url string) Input { return Input{Mode: ModeURL, URL: url, Fetch: true} }

// ImageInput builds an image-mode input from one or more photos.
func ImageInput(images ...*ImageAsset) Input { return Input{Mode: ModeImages, Images: images} }

// Assets converts the input into the assets sent in a single request.
func (in Input) Assets() ([]Asset, error) {
	switch in.Mode {
	case ModeText, "":
		if strings.TrimSpace(in.Text) == "" {
			return nil, ErrEmptyInput
		}
		return []Asset{NewTextAsset(in.Text)}, nil
	case ModeURL:
		if strings.TrimSpace(in.URL) == "" {
			return nil, ErrEmptyInput
		}
		return []Asset{NewURLAsset(in.URL, in.Fetch)}, nil
	case ModeImages:
		if len(in.Images) == 0 {
			return nil, ErrEmptyInput
		}
		assets := make([]Asset, 0, len(in.Images)+1)
		if strings.TrimSpace(in.Text) != "" {
			assets = append(assets, NewTextAsset(in.Text))
		}
		for _, img := range in.Images {
			assets = append(assets, img)
		}
		return assets, nil
	default:
		return nil, fmt.Errorf("unknown input mode %q", in.Mode)
	}
}

// imageCount reports how many photos the request carries.
func (in Input) imageCount() int {
	if in.Mode != ModeImages {
		return 0
	}
	return len(in.Images)
}
