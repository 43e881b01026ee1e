//go:build ocr

package ocr

import (
	"context"
	"fmt"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// Client wraps a Tesseract instance. A gosseract client holds one image at a
// time, so calls are serialized.
type Client struct {
	mu            sync.Mutex
	client        *gosseract.Client
	minConfidence float64
}

// New creates a Tesseract client for opts.Language. Close it when done.
func New(opts Options) (*Client, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage(opts.language()); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language %q: %w", opts.language(), err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	return &Client{client: client, minConfidence: opts.MinConfidence}, nil
}

// Close releases the Tesseract instance
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Recognize returns the words Tesseract finds in img
func (c *Client) Recognize(ctx context.Context, img []byte) ([]Word, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.client.SetImageFromBytes(img); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}
	boxes, err := c.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	words := make([]Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, Word{Text: b.Word, Box: b.Box, Confidence: b.Confidence})
	}
	return filterWords(words, c.minConfidence), nil
}
