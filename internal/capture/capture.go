// Package capture normalizes the three image sources (uploaded bytes,
// remote URL, live camera) into a single Photo value.
package capture

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// MaxPhotoBytes caps the size of an acquired image payload.
const MaxPhotoBytes = 10 << 20 // 10 MiB

var (
	// ErrUnsupportedMedia is returned when the payload is not an image.
	ErrUnsupportedMedia = errors.New("payload is not a supported image type")

	// ErrPermissionDenied is returned by camera devices when access to the
	// video device is refused.
	ErrPermissionDenied = errors.New("camera permission denied")

	// ErrEmptyPayload is returned for zero-length image data.
	ErrEmptyPayload = errors.New("empty image payload")

	// ErrRemoteFetch is returned when a remote image cannot be downloaded.
	ErrRemoteFetch = errors.New("failed to download image")
)

// Photo is a fully-formed encoded image, the normalized output of every
// capture source.
type Photo struct {
	Data     []byte
	MIMEType string
}

// IsZero reports whether the photo holds no data.
func (p Photo) IsZero() bool {
	return len(p.Data) == 0
}

// FromBytes normalizes raw uploaded bytes (file picker or drag-drop) into a
// Photo. The MIME type is sniffed from the payload itself rather than
// trusted from the client.
func FromBytes(data []byte) (Photo, error) {
	if len(data) == 0 {
		return Photo{}, ErrEmptyPayload
	}
	if len(data) > MaxPhotoBytes {
		return Photo{}, fmt.Errorf("image is %d bytes, exceeds %d byte limit", len(data), MaxPhotoBytes)
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return Photo{}, fmt.Errorf("detected %s: %w", mimeType, ErrUnsupportedMedia)
	}

	return Photo{Data: data, MIMEType: mimeType}, nil
}

// FromURL downloads an image and normalizes it into a Photo.
func FromURL(ctx context.Context, client *resty.Client, url string) (Photo, error) {
	resp, err := client.R().SetContext(ctx).Get(url)
	if err != nil {
		return Photo{}, fmt.Errorf("%w: %w", ErrRemoteFetch, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return Photo{}, fmt.Errorf("%w: status %d", ErrRemoteFetch, resp.StatusCode())
	}

	photo, err := FromBytes(resp.Body())
	if err != nil {
		return Photo{}, err
	}

	log.Debug().
		Str("url", url).
		Str("mimeType", photo.MIMEType).
		Int("bytes", len(photo.Data)).
		Msg("downloaded image")

	return photo, nil
}
