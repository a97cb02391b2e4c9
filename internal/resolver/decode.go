package resolver

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"net/url"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/vbonduro/safetyaudit/internal/domain"
)

// maxPixels bounds the decoded raster size so a tiny compressed file cannot
// expand into gigabytes during transcoding.
const maxPixels = 80_000_000

// embeddable lists the encodings every renderer can embed directly.
var embeddable = map[string]bool{"png": true, "jpeg": true, "gif": true}

// DecodeImage reads the native dimensions of data. PNG, JPEG and GIF are
// returned as-is; any other registered format is transcoded to PNG.
func DecodeImage(data []byte) (*domain.Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image config: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("image has no pixels (%dx%d)", cfg.Width, cfg.Height)
	}
	if cfg.Width*cfg.Height > maxPixels {
		return nil, fmt.Errorf("image too large (%dx%d)", cfg.Width, cfg.Height)
	}

	if embeddable[format] {
		return &domain.Image{Data: data, Format: format, Width: cfg.Width, Height: cfg.Height}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s image: %w", format, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to transcode %s image: %w", format, err)
	}
	b := img.Bounds()
	return &domain.Image{Data: buf.Bytes(), Format: "png", Width: b.Dx(), Height: b.Dy()}, nil
}

// decodeDataURI extracts the payload of a data: URI.
func decodeDataURI(uri string) ([]byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, fmt.Errorf("not a data uri")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("malformed data uri")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// Some encoders drop the padding.
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return nil, fmt.Errorf("invalid base64 payload: %w", err)
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid data uri payload: %w", err)
	}
	return []byte(s), nil
}

// DecodeInline turns a chart or photo string as sent by a browser (a data:
// URI or bare base64) into raw bytes.
func DecodeInline(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		return decodeDataURI(s)
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image: %w", err)
	}
	return data, nil
}
