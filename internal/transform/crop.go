package transform

import (
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

func init() {
	MustRegister(OperationMetadata{
		Key:         opCrop,
		Description: "Crop the <w>x<h> region whose top-left corner is <x>x<y>",
		Params:      []string{"crop"},
	})
}

// Crop 以左上角 (X,Y) 截取 Width x Height 区域。
type Crop struct {
	X      int
	Y      int
	Width  int
	Height int
}

func (c Crop) Key() string { return opCrop }

func (c Crop) Canonical() string {
	return canonicalCall(opCrop, "x", itoa(c.X), "y", itoa(c.Y), "w", itoa(c.Width), "h", itoa(c.Height))
}

// OutputSize 返回裁剪后的尺寸。
func (c Crop) OutputSize(image.Point) image.Point {
	return image.Pt(c.Width, c.Height)
}

func (c Crop) Apply(img image.Image) (image.Image, error) {
	bounds := img.Bounds()
	rect := image.Rect(c.X, c.Y, c.X+c.Width, c.Y+c.Height).Add(bounds.Min)
	if !rect.In(bounds) {
		return nil, fmt.Errorf("crop region %dx%d+%d+%d does not fit inside the %dx%d image", c.Width, c.Height, c.X, c.Y, bounds.Dx(), bounds.Dy())
	}
	return imaging.Crop(img, rect), nil
}

// parseCrop 解析 <x>x<y>,<w>x<h>。
func parseCrop(value string, maxDimension int) (Crop, error) {
	corner, size, ok := strings.Cut(value, ",")
	if !ok || strings.Contains(size, ",") {
		return Crop{}, badParam("crop", value, "expected <x>x<y>,<w>x<h>")
	}
	x, y, err := parsePair(value, corner, 0, maxDimension)
	if err != nil {
		return Crop{}, err
	}
	w, h, err := parsePair(value, size, 1, maxDimension)
	if err != nil {
		return Crop{}, err
	}
	return Crop{X: x, Y: y, Width: w, Height: h}, nil
}

func parsePair(raw, pair string, lower, maxDimension int) (int, int, error) {
	first, second, ok := strings.Cut(strings.TrimSpace(pair), "x")
	if !ok {
		return 0, 0, badParam("crop", raw, "expected <x>x<y>,<w>x<h>")
	}
	a, err := parseBounded("crop", raw, first, lower, maxDimension)
	if err != nil {
		return 0, 0, err
	}
	b, err := parseBounded("crop", raw, second, lower, maxDimension)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}
