package render

import (
	"fmt"
	"image"
	"io"
	"path"

	"github.com/disintegration/imaging"

	"github.com/any-hub/img-edge/internal/identity"
	"github.com/any-hub/img-edge/internal/transform"
)

var formatsByMIME = map[string]imaging.Format{
	"image/jpeg": imaging.JPEG,
	"image/png":  imaging.PNG,
	"image/gif":  imaging.GIF,
	"image/tiff": imaging.TIFF,
	"image/bmp":  imaging.BMP,
}

// formatFor 按缓存键扩展名选择编码格式，衍生图与原图扩展名一致。
func formatFor(key string) (imaging.Format, error) {
	mime, ok := identity.MIMEType(path.Ext(key))
	if !ok {
		return 0, fmt.Errorf("no encoder for %q", key)
	}
	format, ok := formatsByMIME[mime]
	if !ok {
		return 0, fmt.Errorf("no encoder for %s", mime)
	}
	return format, nil
}

func encodeOptions(format imaging.Format, spec transform.Spec) []imaging.EncodeOption {
	q, ok := spec.Quality()
	if !ok {
		return nil
	}
	switch format {
	case imaging.JPEG:
		return []imaging.EncodeOption{imaging.JPEGQuality(q.JPEGQuality())}
	case imaging.PNG:
		return []imaging.EncodeOption{imaging.PNGCompressionLevel(q.PNGCompression())}
	case imaging.GIF:
		return []imaging.EncodeOption{imaging.GIFNumColors(q.GIFColors())}
	default:
		return nil
	}
}

func encode(w io.Writer, img image.Image, format imaging.Format, spec transform.Spec) error {
	return imaging.Encode(w, img, format, encodeOptions(format, spec)...)
}
