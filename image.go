package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// maxImageSize bounds how much of an upstream response is read.
const maxImageSize = 32 << 20

// HTTPImageSource downloads the NFT image from a fixed URL, typically a placeholder service.
type HTTPImageSource struct {
	URL    string
	Client *http.Client
}

func NewHTTPImageSource(url string, timeout time.Duration) *HTTPImageSource {
	return &HTTPImageSource{URL: url, Client: &http.Client{Timeout: timeout}}
}

func (source *HTTPImageSource) FetchImage(ctx context.Context) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFetch, err)
	}

	resp, err := source.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: image request failed: %v", ErrUpstreamFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: image source returned status %d", ErrUpstreamFetch, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading image: %v", ErrUpstreamFetch, err)
	}

	return NewImage(data)
}

// NewImage names and types raw image bytes from their content.
func NewImage(data []byte) (*Image, error) {
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, fmt.Errorf("%w: content is %s, not an image", ErrUpstreamFetch, mtype.String())
	}
	return &Image{
		Name:        "image" + mtype.Extension(),
		ContentType: mtype.String(),
		Data:        data,
	}, nil
}

// GeneratedImageSource renders a square gradient PNG locally. Identical settings render
// identical bytes.
type GeneratedImageSource struct {
	Size int
}

func (source GeneratedImageSource) FetchImage(ctx context.Context) (*Image, error) {
	size := source.Size
	if size <= 0 {
		size = 256
	}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 255 / size),
				G: uint8(y * 255 / size),
				B: uint8((x + y) * 127 / size),
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return &Image{Name: "image.png", ContentType: "image/png", Data: buf.Bytes()}, nil
}
