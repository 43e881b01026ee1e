//go:build !ocr

package ocr

import "context"

// Client is a stub OCR client used when the "ocr" build tag is not set
type Client struct{}

// New returns ErrOCRNotEnabled. Rebuild with -tags ocr to enable OCR.
func New(Options) (*Client, error) {
	return nil, ErrOCRNotEnabled
}

// Close is a no-op and is safe on a nil client
func (c *Client) Close() error {
	return nil
}

// Recognize returns ErrOCRNotEnabled
func (c *Client) Recognize(context.Context, []byte) ([]Word, error) {
	return nil, ErrOCRNotEnabled
}
