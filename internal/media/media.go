// Package media converts image files to and from the inline data URLs that
// campaign images are stored as.
package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxImageBytes bounds the size of an image stored inline in a campaign.
const MaxImageBytes = 8 << 20

var (
	ErrNotImage   = errors.New("not a supported image")
	ErrTooLarge   = errors.New("image too large")
	ErrBadDataURL = errors.New("malformed data URL")
)

var mimeTypes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
}

// Info describes a decoded image header.
type Info struct {
	Format string
	MIME   string
	Width  int
	Height int
}

// Inspect validates that data is an image in a supported format.
func Inspect(data []byte) (Info, error) {
	if len(data) > MaxImageBytes {
		return Info{}, fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(data), MaxImageBytes)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	mime, ok := mimeTypes[format]
	if !ok {
		return Info{}, fmt.Errorf("%w: format %s", ErrNotImage, format)
	}
	return Info{Format: format, MIME: mime, Width: cfg.Width, Height: cfg.Height}, nil
}

// EncodeDataURL validates data and returns it as a base64 data URL.
func EncodeDataURL(data []byte) (string, Info, error) {
	info, err := Inspect(data)
	if err != nil {
		return "", Info{}, err
	}
	return "data:" + info.MIME + ";base64," + base64.StdEncoding.EncodeToString(data), info, nil
}

// FileToDataURL reads an image file and returns it as a data URL.
func FileToDataURL(path string) (string, Info, error) {
	st, err := os.Stat(path)
	if err != nil {
		return "", Info{}, fmt.Errorf("reading image %s: %w", path, err)
	}
	if st.Size() > MaxImageBytes {
		return "", Info{}, fmt.Errorf("reading image %s: %w: %d bytes, limit %d", path, ErrTooLarge, st.Size(), MaxImageBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", Info{}, fmt.Errorf("reading image %s: %w", path, err)
	}
	url, info, err := EncodeDataURL(data)
	if err != nil {
		return "", Info{}, fmt.Errorf("reading image %s: %w", path, err)
	}
	return url, info, nil
}

// DecodeDataURL returns the media type and bytes of a base64 data URL.
func DecodeDataURL(url string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing data: prefix", ErrBadDataURL)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing payload", ErrBadDataURL)
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("%w: only base64 payloads are supported", ErrBadDataURL)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBadDataURL, err)
	}
	return mime, data, nil
}

// Extension returns the file extension conventionally used for a MIME type.
func Extension(mime string) string {
	for format, m := range mimeTypes {
		if m == mime {
			if format == "jpeg" {
				return ".jpg"
			}
			return "." + format
		}
	}
	return ".bin"
}
