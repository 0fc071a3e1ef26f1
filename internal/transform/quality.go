package transform

import (
	"image"
	"image/png"
	"strings"
)

// QualityLevel 为有限的输出质量档位。
type QualityLevel string

const (
	QualityLow    QualityLevel = "low"
	QualityMedium QualityLevel = "medium"
	QualityHigh   QualityLevel = "high"
	QualityUltra  QualityLevel = "ultra"
)

var jpegQuality = map[QualityLevel]int{
	QualityLow:    50,
	QualityMedium: 70,
	QualityHigh:   85,
	QualityUltra:  95,
}

func init() {
	MustRegister(OperationMetadata{
		Key:         opQuality,
		Description: "Encoder quality: low, medium, high or ultra",
		Params:      []string{"quality"},
		Idempotent:  true,
	})
}

// Quality 不改动像素，只影响最终编码参数。
type Quality struct {
	Level QualityLevel
}

func (q Quality) Key() string { return opQuality }

func (q Quality) Canonical() string {
	return canonicalCall(opQuality, "level", string(q.Level))
}

func (q Quality) Apply(img image.Image) (image.Image, error) {
	return img, nil
}

// JPEGQuality 返回 1-100 的 JPEG 质量值。
func (q Quality) JPEGQuality() int {
	return jpegQuality[q.Level]
}

// PNGCompression 将质量档位映射为 PNG 压缩级别。
func (q Quality) PNGCompression() png.CompressionLevel {
	switch q.Level {
	case QualityLow:
		return png.BestSpeed
	case QualityMedium:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}

// GIFColors 返回 GIF 调色板大小。
func (q Quality) GIFColors() int {
	switch q.Level {
	case QualityLow:
		return 64
	case QualityMedium:
		return 128
	default:
		return 256
	}
}

func parseQuality(value string) (Quality, error) {
	level := QualityLevel(strings.ToLower(value))
	if _, ok := jpegQuality[level]; !ok {
		return Quality{}, badParam("quality", value, "quality must be one of low, medium, high, ultra")
	}
	return Quality{Level: level}, nil
}
