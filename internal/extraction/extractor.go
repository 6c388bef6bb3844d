// Package extraction turns a prescription image into structured medicine
// data through a hosted vision model.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Instruction is sent alongside every image.
const Instruction = `You are a pharmacy assistant. From this handwritten prescription image, extract structured information.

Return JSON with the following format:

{
  "medicines": [
    {
      "name": "Paracetamol",
      "dosage": "500mg",
      "frequency": 2,
      "duration": "5 days",
      "required_quantity": 10,
      "Availability": "Yes"
    }
  ]
}

frequency is the number of doses per day: 1(Morning)-0(Noon)-1(Night) means 2.
required_quantity is frequency multiplied by duration in days.
Leave a field out when it cannot be read. Do not explain anything. Return only valid JSON.`

var ErrNotImage = errors.New("upload is not an image")

// Image is an uploaded prescription.
type Image struct {
	Data     []byte
	MIMEType string
}

// NewImage sniffs the content type of data and rejects non-images.
func NewImage(data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, fmt.Errorf("%w: empty upload", ErrNotImage)
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return Image{}, fmt.Errorf("%w: detected %s", ErrNotImage, mt.String())
	}
	return Image{Data: data, MIMEType: mt.String()}, nil
}

// Extractor sends an image to a vision model and returns its raw text reply.
type Extractor interface {
	Extract(ctx context.Context, img Image) (string, error)
}

// Client is an Extractor holding provider resources.
type Client interface {
	Extractor
	io.Closer
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, img Image) (string, error)

func (f ExtractorFunc) Extract(ctx context.Context, img Image) (string, error) {
	return f(ctx, img)
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Options select and configure a provider.
type Options struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// New builds the Client for opts.Provider.
func New(ctx context.Context, opts Options) (Client, error) {
	switch opts.Provider {
	case ProviderGemini, "":
		return NewGemini(ctx, opts.APIKey, opts.Model)
	case ProviderOpenAI:
		return NewOpenAI(opts.APIKey, opts.BaseURL, opts.Model), nil
	default:
		return nil, fmt.Errorf("unknown vision provider %q", opts.Provider)
	}
}
