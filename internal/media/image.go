package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"hologram/internal/filesystem"
	"hologram/internal/logging"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/tiff" // uncompressed TIFF-based RAW (DNG)
)

// MaxImagePixels bounds in-process decodes. A 60MP RGBA buffer is ~240MB.
const MaxImagePixels = 60_000_000

// ErrImageTooLarge is returned when an image exceeds the decode budget.
var ErrImageTooLarge = errors.New("image exceeds decode limit")

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int
	Height int
}

// GetImageDimensions returns image dimensions without fully decoding the image
func GetImageDimensions(path string, retry filesystem.RetryConfig) (*ImageDimensions, error) {
	file, err := filesystem.OpenWithRetry(path, retry)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, err
	}

	return &ImageDimensions{
		Width:  config.Width,
		Height: config.Height,
	}, nil
}

// LoadImageConstrained fully decodes path with EXIF auto-orientation,
// refusing images whose header declares more than maxPixels.
func LoadImageConstrained(path string, retry filesystem.RetryConfig, maxPixels int) (image.Image, error) {
	dims, err := GetImageDimensions(path, retry)
	if err != nil {
		return nil, fmt.Errorf("read image header: %w", err)
	}

	pixels := dims.Width * dims.Height
	logging.Debug("Image %s dimensions: %dx%d (%d pixels)", path, dims.Width, dims.Height, pixels)
	if maxPixels > 0 && pixels > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, dims.Width, dims.Height)
	}

	file, err := filesystem.OpenWithRetry(path, retry)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// fitWithin scales w x h so the long edge is at most maxDim, never
// enlarging.
func fitWithin(w, h, maxDim int) (int, int) {
	if w <= 0 || h <= 0 || maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return w, h
	}
	if w >= h {
		nh := h * maxDim / w
		if nh < 1 {
			nh = 1
		}
		return maxDim, nh
	}
	nw := w * maxDim / h
	if nw < 1 {
		nw = 1
	}
	return nw, maxDim
}

// orient applies an EXIF orientation (1-8) to img.
func orient(img image.Image, orientation uint16) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	}
	return img
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}
