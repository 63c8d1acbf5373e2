// Package processing converts raw image bytes into the representations the
// two inference backends consume: a normalized float tensor for the local
// ONNX model and a size-capped base64 payload for the remote vision model.
package processing

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"
)

// Model input geometry: one batch, three channels, 224x224 pixels.
const (
	ModelImageSize = 224
	TensorChannels = 3
	// TensorLength is the flat element count of one input tensor.
	TensorLength = 1 * TensorChannels * ModelImageSize * ModelImageSize
)

// ImageNet channel statistics the local model was trained with.
var (
	channelMean = [TensorChannels]float32{0.485, 0.456, 0.406}
	channelStd  = [TensorChannels]float32{0.229, 0.224, 0.225}
)

// ErrDecode reports image bytes that no registered decoder accepts.
var ErrDecode = errors.New("failed to decode image data")

// Processor prepares images for model consumption. It holds no mutable
// state and is safe for concurrent use.
type Processor struct{}

// NewProcessor creates a new image processor.
func NewProcessor() *Processor {
	return &Processor{}
}

// Decode decodes image bytes with the standard decoders (JPEG, PNG, GIF,
// WebP via golang.org/x/image) and falls back to chai2010 WebP for files
// the registered decoder rejects.
func (p *Processor) Decode(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, ErrDecode
}

// Tensor decodes image bytes and builds the local model's input tensor:
// stretch-resized to 224x224 (aspect ratio discarded), intensities scaled
// to [0,1], then normalized per channel with the ImageNet statistics.
// Layout is channel-major: index = c*H*W + y*W + x, batch dimension 1.
func (p *Processor) Tensor(data []byte) ([]float32, error) {
	img, err := p.Decode(data)
	if err != nil {
		return nil, err
	}
	return p.TensorFromImage(img), nil
}

// TensorFromImage builds the input tensor from an already-decoded image.
func (p *Processor) TensorFromImage(img image.Image) []float32 {
	resized := resize.Resize(ModelImageSize, ModelImageSize, img, resize.Lanczos3)

	const plane = ModelImageSize * ModelImageSize
	tensor := make([]float32, TensorLength)

	bounds := resized.Bounds()
	for y := 0; y < ModelImageSize; y++ {
		for x := 0; x < ModelImageSize; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()

			// RGBA returns 16-bit channel values
			rNorm := float32(r) / 65535.0
			gNorm := float32(g) / 65535.0
			bNorm := float32(b) / 65535.0

			idx := y*ModelImageSize + x
			tensor[idx] = (rNorm - channelMean[0]) / channelStd[0]
			tensor[plane+idx] = (gNorm - channelMean[1]) / channelStd[1]
			tensor[2*plane+idx] = (bNorm - channelMean[2]) / channelStd[2]
		}
	}
	return tensor
}

// PrepareImageForModel re-encodes an image as base64 for the remote vision
// model, downscaling the long side to maxDim first when it exceeds it.
func (p *Processor) PrepareImageForModel(img image.Image, format string, maxDim, quality int) (string, error) {
	if maxDim > 0 {
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		if w > maxDim || h > maxDim {
			if w >= h {
				img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
			} else {
				img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
			}
		}
	}

	var buf bytes.Buffer
	switch format {
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return "", fmt.Errorf("png encode: %w", err)
		}
	default: // jpg
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return "", fmt.Errorf("jpeg encode: %w", err)
		}
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
