package scanning

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

const pngMimeType = "image/png"

// renderPDF rasterizes the first page of a PDF; receipts are single page.
func renderPDF(data []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}
	return img, nil
}

// isHEIC reports whether data or its MIME type is HEIC/HEIF, which the
// standard image package cannot decode. The file signature is an ftyp box
// with a HEIC brand at offset 4.
func isHEIC(data []byte, mimeType string) bool {
	if strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif") {
		return true
	}
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}

func decodeImage(data []byte, mimeType string) (image.Image, error) {
	switch {
	case mimeType == "application/pdf":
		return renderPDF(data)
	case isHEIC(data, mimeType):
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return img, nil
	default:
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("unsupported image format (JPEG, PNG, GIF, HEIC, HEIF and PDF are supported): %w", err)
		}
		return img, nil
	}
}

// toPNG converts an uploaded receipt to PNG, the only format sent to the
// models. PNG input is passed through untouched.
func toPNG(data []byte, contentType string) ([]byte, error) {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	if mimeType == pngMimeType && !isHEIC(data, mimeType) {
		return data, nil
	}

	img, err := decodeImage(data, mimeType)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}
