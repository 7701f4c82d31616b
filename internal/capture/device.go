package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/rs/zerolog/log"
)

// jpegQuality is the fixed encoding quality for camera frames.
const jpegQuality = 85

// Device is an exclusively-owned video source. Open acquires the device,
// Frame grabs one still image, and Close releases it. Implementations
// return ErrPermissionDenied from Open when access is refused.
type Device interface {
	Open(ctx context.Context) error
	Frame(ctx context.Context) (image.Image, error)
	Close() error
}

// FromCamera acquires the device, captures a single still frame, and
// encodes it as JPEG at fixed quality. The device is released on every
// exit path, including frame and encode failures. There is no retry loop;
// failure returns control to the caller.
func FromCamera(ctx context.Context, dev Device) (Photo, error) {
	if err := dev.Open(ctx); err != nil {
		return Photo{}, fmt.Errorf("failed to open camera: %w", err)
	}
	defer func() {
		if err := dev.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to release camera device")
		}
	}()

	frame, err := dev.Frame(ctx)
	if err != nil {
		return Photo{}, fmt.Errorf("failed to capture frame: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Photo{}, fmt.Errorf("failed to encode frame: %w", err)
	}

	return Photo{Data: buf.Bytes(), MIMEType: "image/jpeg"}, nil
}
