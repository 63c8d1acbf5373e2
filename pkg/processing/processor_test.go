package processing

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"testing"
)

// createTestImage creates a solid-color test image
func createTestImage(width, height int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestTensorShape(t *testing.T) {
	p := NewProcessor()

	sizes := [][2]int{{224, 224}, {640, 480}, {100, 300}, {1, 1}}
	for _, sz := range sizes {
		img := createTestImage(sz[0], sz[1], color.RGBA{100, 150, 50, 255})
		tensor, err := p.Tensor(encodePNG(t, img))
		if err != nil {
			t.Fatalf("Tensor failed for %dx%d: %v", sz[0], sz[1], err)
		}
		if len(tensor) != TensorLength {
			t.Errorf("%dx%d input: tensor length %d, want %d", sz[0], sz[1], len(tensor), TensorLength)
		}
	}
}

func TestTensorNormalization(t *testing.T) {
	p := NewProcessor()

	// Solid white: every raw intensity is 1.0 before normalization
	img := createTestImage(50, 50, color.RGBA{255, 255, 255, 255})
	tensor, err := p.Tensor(encodePNG(t, img))
	if err != nil {
		t.Fatal(err)
	}

	const plane = ModelImageSize * ModelImageSize
	expected := [3]float64{
		(1.0 - 0.485) / 0.229,
		(1.0 - 0.456) / 0.224,
		(1.0 - 0.406) / 0.225,
	}

	for c := 0; c < 3; c++ {
		got := float64(tensor[c*plane])
		if math.Abs(got-expected[c]) > 1e-3 {
			t.Errorf("channel %d: got %f, want %f", c, got, expected[c])
		}
	}
}

func TestTensorChannelMajorLayout(t *testing.T) {
	p := NewProcessor()

	// Pure red: R channel high, G and B low after normalization
	img := createTestImage(32, 32, color.RGBA{255, 0, 0, 255})
	tensor, err := p.Tensor(encodePNG(t, img))
	if err != nil {
		t.Fatal(err)
	}

	const plane = ModelImageSize * ModelImageSize
	rVal := tensor[0]
	gVal := tensor[plane]
	bVal := tensor[2*plane]

	if rVal <= gVal || rVal <= bVal {
		t.Errorf("red image: expected R plane first (r=%f g=%f b=%f)", rVal, gVal, bVal)
	}
}

func TestDecodeError(t *testing.T) {
	p := NewProcessor()

	_, err := p.Tensor([]byte("definitely not an image"))
	if !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
}

func TestDecodeFormats(t *testing.T) {
	p := NewProcessor()
	img := createTestImage(60, 40, color.RGBA{10, 200, 30, 255})

	var jpgBuf bytes.Buffer
	if err := jpeg.Encode(&jpgBuf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatal(err)
	}

	for name, data := range map[string][]byte{
		"png":  encodePNG(t, img),
		"jpeg": jpgBuf.Bytes(),
	} {
		decoded, err := p.Decode(data)
		if err != nil {
			t.Errorf("%s: decode failed: %v", name, err)
			continue
		}
		if decoded.Bounds().Dx() != 60 || decoded.Bounds().Dy() != 40 {
			t.Errorf("%s: unexpected bounds %v", name, decoded.Bounds())
		}
	}
}

func TestPrepareImageForModel(t *testing.T) {
	p := NewProcessor()
	img := createTestImage(800, 600, color.RGBA{50, 120, 60, 255})

	b64, err := p.PrepareImageForModel(img, "jpg", 512, 85)
	if err != nil {
		t.Fatal(err)
	}

	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		t.Fatalf("output is not valid base64: %v", err)
	}

	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("re-encoded payload does not decode: %v", err)
	}

	if decoded.Bounds().Dx() != 512 {
		t.Errorf("long side not capped: got %d, want 512", decoded.Bounds().Dx())
	}
}

func BenchmarkTensor(b *testing.B) {
	p := NewProcessor()
	img := createTestImage(640, 480, color.RGBA{100, 150, 50, 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		b.Fatal(err)
	}
	data := buf.Bytes()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.Tensor(data); err != nil {
			b.Fatal(err)
		}
	}
}
