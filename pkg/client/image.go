package client

import (
	"bytes"
	"fmt"
)

// minImageBytes is the smallest payload accepted as a plausible image.
// Anything shorter is rejected before spending a network call.
const minImageBytes = 100

// ValidateImage checks the shared input preconditions for a remote call.
func ValidateImage(data []byte) error {
	if len(data) == 0 {
		return ErrEmptyImage
	}
	if len(data) < minImageBytes {
		return fmt.Errorf("%w: %d bytes", ErrCorruptImage, len(data))
	}
	return nil
}

// DetectImageMIME sniffs the MIME type from magic-number byte prefixes.
// Unrecognized prefixes default to JPEG, which vision endpoints tolerate.
func DetectImageMIME(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte{0x89, 0x50, 0x4E, 0x47}):
		return "image/png"
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return "image/jpeg"
	case bytes.HasPrefix(data, []byte{0x47, 0x49, 0x46}):
		return "image/gif"
	default:
		return "image/jpeg"
	}
}
