// Package attachment prepares files users attach to transfer items.
package attachment

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"github.com/erazemk/premik/internal/model"
)

// MaxSize is the largest accepted upload, in bytes.
const MaxSize = 10 << 20

// MaxDimension is the maximum width or height of a stored image.
const MaxDimension = 2048

// JPEGQuality is the compression quality for re-encoded images.
const JPEGQuality = 85

var (
	ErrTooLarge    = errors.New("attachment too large")
	ErrUnsupported = errors.New("unsupported attachment type")
	ErrEmpty       = errors.New("attachment is empty")
)

// AllowedMIME lists the accepted content types, detected from the bytes.
var AllowedMIME = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"application/pdf": true,
}

// Process reads an upload, checks its size and sniffed type, and downscales
// images larger than MaxDimension. PDFs and small images pass through as is.
func Process(filename string, r io.Reader) (*model.Attachment, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading attachment: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if len(data) > MaxSize {
		return nil, fmt.Errorf("%w: limit is %d MB", ErrTooLarge, MaxSize>>20)
	}

	detected := http.DetectContentType(data)
	if !AllowedMIME[detected] {
		return nil, fmt.Errorf("%w: %s (only JPEG, PNG and PDF accepted)", ErrUnsupported, detected)
	}

	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" {
		name = "attachment"
	}

	a := &model.Attachment{Filename: name, MIME: detected, Data: data}
	if detected == "application/pdf" {
		a.Size = len(data)
		return a, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	if cfg.Width > MaxDimension || cfg.Height > MaxDimension {
		if err := shrink(a); err != nil {
			return nil, err
		}
	}
	a.Size = len(a.Data)
	return a, nil
}

// shrink downscales an oversized image and re-encodes it as JPEG.
func shrink(a *model.Attachment) error {
	img, _, err := image.Decode(bytes.NewReader(a.Data))
	if err != nil {
		return fmt.Errorf("decoding image: %w", err)
	}
	img = downscale(img, MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return fmt.Errorf("encoding JPEG: %w", err)
	}
	a.Data = buf.Bytes()
	a.MIME = "image/jpeg"
	a.Filename = strings.TrimSuffix(a.Filename, filepath.Ext(a.Filename)) + ".jpg"
	return nil
}

// downscale resizes img so neither dimension exceeds maxDim, keeping the
// aspect ratio.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := w, h
	if w > h {
		newW = maxDim
		newH = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		newH = maxDim
		newW = int(float64(w) * float64(maxDim) / float64(h))
	}
	newW = max(newW, 1)
	newH = max(newH, 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
}
